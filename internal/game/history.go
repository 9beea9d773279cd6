package game

// DefaultHistoryLimit bounds the number of snapshots kept for undo.
const DefaultHistoryLimit = 100

// History is a linear undo/redo stack of deep State copies with a cursor.
// Entries before the cursor are undo targets. Once an undo has happened the
// live state is parked at the end of the stack so redo can return to it.
// It is not safe for concurrent use; Store serializes access.
type History struct {
	entries []State
	cursor  int
	limit   int
}

func NewHistory(limit int) *History {
	if limit < 2 {
		limit = 2
	}
	return &History{limit: limit}
}

// Record stores a copy of the state taken before a mutation. Any redo branch
// past the cursor is discarded.
func (h *History) Record(s State) {
	h.entries = append(h.entries[:h.cursor], s.Clone())
	h.cursor = len(h.entries)
	h.evict()
}

// Undo returns the snapshot to restore given the current live state.
func (h *History) Undo(current State) (State, bool) {
	if h.cursor == 0 {
		return State{}, false
	}
	if h.cursor == len(h.entries) {
		h.entries = append(h.entries, current.Clone())
		h.evict()
	}
	h.cursor--
	return h.entries[h.cursor].Clone(), true
}

// Redo returns the snapshot following the cursor, if any.
func (h *History) Redo() (State, bool) {
	if h.cursor >= len(h.entries)-1 {
		return State{}, false
	}
	h.cursor++
	return h.entries[h.cursor].Clone(), true
}

func (h *History) CanUndo() bool {
	return h.cursor > 0
}

func (h *History) CanRedo() bool {
	return h.cursor < len(h.entries)-1
}

// Len returns the number of stored snapshots.
func (h *History) Len() int {
	return len(h.entries)
}

func (h *History) Clear() {
	h.entries = nil
	h.cursor = 0
}

func (h *History) evict() {
	for len(h.entries) > h.limit {
		h.entries[0] = State{}
		h.entries = h.entries[1:]
		if h.cursor > 0 {
			h.cursor--
		}
	}
}
