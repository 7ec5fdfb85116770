package todos

import (
	"slices"
	"sync"

	"github.com/Makepad-fr/tabletodo/internal/model"
)

// State is the session's local copy of the table plus the pending input.
// Only the Syncer mutates the list; keystrokes go through SetInput.
type State struct {
	mu    sync.RWMutex
	items []model.Item
	input string
}

// Snapshot is a point-in-time copy of State.
type Snapshot struct {
	Items []model.Item
	Input string
}

// Items returns a copy of the list in display order.
func (s *State) Items() []model.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

// Input returns the pending new-item text.
func (s *State) Input() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.input
}

// SetInput records the pending new-item text.
func (s *State) SetInput(text string) {
	s.mu.Lock()
	s.input = text
	s.mu.Unlock()
}

func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Items: slices.Clone(s.items), Input: s.input}
}

func (s *State) replace(items []model.Item) {
	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
}

func (s *State) appendAndClear(it model.Item) {
	s.mu.Lock()
	s.items = append(s.items, it)
	s.input = ""
	s.mu.Unlock()
}

func (s *State) setCompleted(id model.ID, v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Copy on write so snapshots handed out earlier stay untouched.
	items := slices.Clone(s.items)
	for i := range items {
		if items[i].ID == id {
			items[i].IsCompleted = v
		}
	}
	s.items = items
}

func (s *State) remove(id model.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = slices.DeleteFunc(slices.Clone(s.items), func(it model.Item) bool { return it.ID == id })
}
