package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSample(t *testing.T) {
	t.Parallel()

	t.Run("full line", func(t *testing.T) {
		t.Parallel()
		s, err := parseSample("3200.5, 3, 18.2, 0.4, 0, 0, 0.35")
		require.NoError(t, err)
		assert.InDelta(t, 3200.5, s.EngineRPM, 1e-9)
		assert.Equal(t, 3, s.Gear)
		assert.InDelta(t, 18.2, s.Speed, 1e-9)
		assert.InDelta(t, 0.4, s.Accel, 1e-9)
		assert.False(t, s.Clutch)
		assert.False(t, s.Neutral)
		assert.InDelta(t, 0.35, s.Throttle, 1e-9)
	})

	t.Run("boolean spellings", func(t *testing.T) {
		t.Parallel()
		s, err := parseSample("900,0,0,0,true,1,0")
		require.NoError(t, err)
		assert.True(t, s.Clutch)
		assert.True(t, s.Neutral)
	})

	t.Run("wrong field count", func(t *testing.T) {
		t.Parallel()
		_, err := parseSample("900,1,5")
		assert.Error(t, err)
	})

	t.Run("malformed number", func(t *testing.T) {
		t.Parallel()
		_, err := parseSample("abc,1,5,0,0,0,0.2")
		assert.Error(t, err)
	})
}
