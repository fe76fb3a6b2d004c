package drivestats

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertSessionEntry(t *testing.T) {
	t.Parallel()

	t.Run("appends when index is negative", func(t *testing.T) {
		t.Parallel()
		history, idx := upsertSessionEntry(nil, -1, SessionEntry{ID: "a"})
		require.Len(t, history, 1)
		assert.Equal(t, 0, idx)
	})

	t.Run("replaces in place", func(t *testing.T) {
		t.Parallel()
		history := []SessionEntry{{ID: "a"}, {ID: "b"}}
		history, idx := upsertSessionEntry(history, 1, SessionEntry{ID: "b", Upshifts: 5})
		require.Len(t, history, 2)
		assert.Equal(t, 1, idx)
		assert.EqualValues(t, 5, history[1].Upshifts)
	})

	t.Run("evicts oldest beyond capacity", func(t *testing.T) {
		t.Parallel()
		var history []SessionEntry
		for i := 0; i < MaxSessionHistory; i++ {
			history, _ = upsertSessionEntry(history, -1, SessionEntry{ID: fmt.Sprintf("s%d", i)})
		}
		require.Len(t, history, MaxSessionHistory)

		history, idx := upsertSessionEntry(history, -1, SessionEntry{ID: "s30"})
		assert.Len(t, history, MaxSessionHistory)
		assert.Equal(t, "s1", history[0].ID) // s0 evicted
		assert.Equal(t, "s30", history[len(history)-1].ID)
		assert.Equal(t, MaxSessionHistory-1, idx)
	})
}

func TestRemoveSessionEntry(t *testing.T) {
	t.Parallel()

	history := []SessionEntry{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	history = removeSessionEntry(history, 1)
	require.Len(t, history, 2)
	assert.Equal(t, "a", history[0].ID)
	assert.Equal(t, "c", history[1].ID)

	// Out-of-range indices are ignored.
	assert.Len(t, removeSessionEntry(history, -1), 2)
	assert.Len(t, removeSessionEntry(history, 99), 2)
}

func TestNewSessionID(t *testing.T) {
	t.Parallel()

	a, b := NewSessionID(), NewSessionID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
