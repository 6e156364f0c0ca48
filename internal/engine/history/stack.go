package history

import (
	"sync"

	"github.com/dshills/inkwell/internal/bitmap"
	"github.com/dshills/inkwell/internal/engine/stroke"
)

// DefaultMaxSnapshots bounds the stack when no explicit limit is given.
const DefaultMaxSnapshots = 256

// Stack is an ordered, cursor-addressed stack of snapshots.
//
// Invariants:
//   - entries are in capture order
//   - cursor is in [-1, len(entries)-1]; -1 means empty
//   - the entry at cursor is the one currently reflected on the surface
type Stack struct {
	mu sync.Mutex

	entries []*Snapshot
	cursor  int

	// Configuration
	maxEntries int
}

// NewStack creates a snapshot stack holding at most maxEntries snapshots.
// maxEntries <= 0 selects DefaultMaxSnapshots.
func NewStack(maxEntries int) *Stack {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxSnapshots
	}
	return &Stack{
		cursor:     -1,
		maxEntries: maxEntries,
	}
}

// Capture records the surface state.
//
// A normal capture truncates any entries ahead of the cursor (the redo
// branch), appends a new snapshot, and moves the cursor to it.
//
// A continuation capture (continuation=true) amends the entry at the
// cursor instead: its stroke list is replaced wholesale and the bitmap,
// stack length, and cursor are left unchanged. A continuation against an
// empty stack has no prior entry to amend; it fails closed and is treated
// as a fresh capture.
func (s *Stack) Capture(img bitmap.Encoded, strokes stroke.List, continuation bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if continuation && s.cursor >= 0 {
		s.entries[s.cursor].Strokes = strokes
		return
	}

	// Discard the redo branch before appending. The tail is nilled so the
	// dropped snapshots (and their encoded bitmaps) don't stay reachable
	// through the backing array.
	for i := s.cursor + 1; i < len(s.entries); i++ {
		s.entries[i] = nil
	}
	s.entries = append(s.entries[:s.cursor+1], newSnapshot(img, strokes))
	s.cursor = len(s.entries) - 1

	// Enforce max entries
	if len(s.entries) > s.maxEntries {
		excess := len(s.entries) - s.maxEntries
		trimmed := make([]*Snapshot, len(s.entries)-excess)
		copy(trimmed, s.entries[excess:])
		s.entries = trimmed
		s.cursor -= excess
	}
}

// Undo moves the cursor back one entry and returns the snapshot now at the
// cursor. At the first entry (or empty) it is a silent no-op and returns
// false.
func (s *Stack) Undo() (*Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursor <= 0 {
		return nil, false
	}
	s.cursor--
	return s.entries[s.cursor], true
}

// Redo moves the cursor forward one entry and returns the snapshot now at
// the cursor. At the last entry (or empty) it is a silent no-op and
// returns false.
func (s *Stack) Redo() (*Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursor >= len(s.entries)-1 {
		return nil, false
	}
	s.cursor++
	return s.entries[s.cursor], true
}

// Reset discards all entries and returns the stack to the empty state.
func (s *Stack) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
	s.cursor = -1
}

// Current returns the snapshot at the cursor, if any.
func (s *Stack) Current() (*Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursor < 0 {
		return nil, false
	}
	return s.entries[s.cursor], true
}

// Len returns the number of snapshots in the stack.
func (s *Stack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Cursor returns the current cursor index, or -1 when empty.
func (s *Stack) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// CanUndo returns true if the cursor can move backward.
func (s *Stack) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor > 0
}

// CanRedo returns true if the cursor can move forward.
func (s *Stack) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor < len(s.entries)-1
}

// MaxEntries returns the maximum number of snapshots the stack holds.
func (s *Stack) MaxEntries() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxEntries
}
