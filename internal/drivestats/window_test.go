package drivestats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccelWindowSmoothness(t *testing.T) {
	t.Parallel()

	t.Run("empty window is neutral", func(t *testing.T) {
		t.Parallel()
		w := NewAccelWindow(WindowCapacity)
		assert.Zero(t, w.Smoothness())
	})

	t.Run("below minimum history is neutral", func(t *testing.T) {
		t.Parallel()
		w := NewAccelWindow(WindowCapacity)
		for i := 0; i < MinSmoothnessSamples-1; i++ {
			w.Push(float64(i)) // wildly varying, still neutral
		}
		assert.Zero(t, w.Smoothness())
	})

	t.Run("identical samples are perfectly smooth", func(t *testing.T) {
		t.Parallel()
		w := NewAccelWindow(WindowCapacity)
		for i := 0; i < WindowCapacity; i++ {
			w.Push(1.7)
		}
		assert.Zero(t, w.Smoothness())
	})

	t.Run("alternating samples give known std dev", func(t *testing.T) {
		t.Parallel()
		w := NewAccelWindow(WindowCapacity)
		// Alternating 0 and 2: mean 1, population variance 1, std dev 1.
		for i := 0; i < MinSmoothnessSamples; i++ {
			w.Push(float64((i % 2) * 2))
		}
		assert.InDelta(t, 1.0, w.Smoothness(), 1e-12)
	})
}

func TestAccelWindowEviction(t *testing.T) {
	t.Parallel()

	w := NewAccelWindow(WindowCapacity)
	// Fill with noise, then overwrite the whole window with a constant:
	// once the noisy samples are evicted the metric must return to 0.
	for i := 0; i < WindowCapacity; i++ {
		w.Push(float64(i % 5))
	}
	assert.Greater(t, w.Smoothness(), 0.0)

	for i := 0; i < WindowCapacity; i++ {
		w.Push(0.5)
	}
	assert.Equal(t, WindowCapacity, w.Len())
	assert.Zero(t, w.Smoothness())
}

func TestAccelWindowDefaultCapacity(t *testing.T) {
	t.Parallel()

	w := NewAccelWindow(0)
	for i := 0; i < WindowCapacity+10; i++ {
		w.Push(1.0)
	}
	assert.Equal(t, WindowCapacity, w.Len())
}
