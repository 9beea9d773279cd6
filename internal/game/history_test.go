package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scoreState(score int) State {
	return State{Home: TeamState{Score: score}}
}

func TestHistoryUndoRedo(t *testing.T) {
	h := NewHistory(DefaultHistoryLimit)
	h.Record(scoreState(0))
	h.Record(scoreState(1))

	got, ok := h.Undo(scoreState(2))
	require.True(t, ok)
	assert.Equal(t, 1, got.Home.Score)

	got, ok = h.Undo(scoreState(1))
	require.True(t, ok)
	assert.Equal(t, 0, got.Home.Score)

	_, ok = h.Undo(scoreState(0))
	assert.False(t, ok)

	got, ok = h.Redo()
	require.True(t, ok)
	assert.Equal(t, 1, got.Home.Score)
	got, ok = h.Redo()
	require.True(t, ok)
	assert.Equal(t, 2, got.Home.Score)

	_, ok = h.Redo()
	assert.False(t, ok)
}

func TestHistoryEvictsOldest(t *testing.T) {
	h := NewHistory(3)
	for i := 0; i < 10; i++ {
		h.Record(scoreState(i))
	}
	assert.Equal(t, 3, h.Len())

	var undone []int
	cur := scoreState(10)
	for h.CanUndo() {
		got, ok := h.Undo(cur)
		require.True(t, ok)
		undone = append(undone, got.Home.Score)
		cur = got
	}
	assert.Equal(t, []int{9, 8}, undone)
}

func TestHistoryRecordDiscardsRedo(t *testing.T) {
	h := NewHistory(DefaultHistoryLimit)
	h.Record(scoreState(0))
	h.Record(scoreState(1))
	_, ok := h.Undo(scoreState(2))
	require.True(t, ok)
	require.True(t, h.CanRedo())

	h.Record(scoreState(1))
	assert.False(t, h.CanRedo())
	_, ok = h.Redo()
	assert.False(t, ok)
}

func TestHistoryStoresCopies(t *testing.T) {
	h := NewHistory(DefaultHistoryLimit)
	s := State{Home: TeamState{Players: []PlayerStat{{ID: "a", Points: 1}}}}
	h.Record(s)
	s.Home.Players[0].Points = 99

	got, ok := h.Undo(State{})
	require.True(t, ok)
	assert.Equal(t, 1, got.Home.Players[0].Points)
}
