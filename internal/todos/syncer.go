// Package todos keeps the local list in step with the remote table. Every
// action makes one remote call and patches local state only after that call
// succeeded; failures are logged and leave state as it was.
package todos

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/Makepad-fr/tabletodo/internal/logging"
	"github.com/Makepad-fr/tabletodo/internal/model"
	"github.com/Makepad-fr/tabletodo/internal/store"
)

var (
	// ErrRemote matches every failure of the remote table, whatever the cause.
	ErrRemote = errors.New("remote call failed")
	// ErrInFlight is returned when the same action is already waiting on the
	// remote table. No call is made.
	ErrInFlight = errors.New("action already in flight")
)

// RemoteError wraps a failed table call.
type RemoteError struct {
	Op  string
	ID  model.ID
	Err error
}

func (e *RemoteError) Error() string {
	if e.ID.IsZero() {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.ID, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

func (e *RemoteError) Is(target error) bool { return target == ErrRemote }

// Syncer runs the four actions against a Table and owns the State they patch.
// Methods are safe to call from concurrent goroutines.
type Syncer struct {
	table store.Table
	state *State
	log   *log.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
}

// New returns a Syncer with empty state. A nil logger discards.
func New(table store.Table, logger *log.Logger) *Syncer {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Syncer{
		table:    table,
		state:    &State{},
		log:      logger,
		inflight: map[string]struct{}{},
	}
}

func (s *Syncer) State() *State { return s.state }

// begin claims key for an in-flight call; false means a duplicate is running.
func (s *Syncer) begin(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[key]; busy {
		return false
	}
	s.inflight[key] = struct{}{}
	return true
}

func (s *Syncer) end(key string) {
	s.mu.Lock()
	delete(s.inflight, key)
	s.mu.Unlock()
}

func (s *Syncer) fail(op string, id model.ID, err error) error {
	rerr := &RemoteError{Op: op, ID: id, Err: err}
	if id.IsZero() {
		s.log.Error("remote call failed", "op", op, "err", err)
	} else {
		s.log.Error("remote call failed", "op", op, "id", id, "err", err)
	}
	return rerr
}

// FetchAll replaces the local list with every row that has a name, in the
// order the table returned them.
func (s *Syncer) FetchAll(ctx context.Context) error {
	const key = "fetch"
	if !s.begin(key) {
		return ErrInFlight
	}
	defer s.end(key)

	rows, err := s.table.List(ctx)
	if err != nil {
		return s.fail("fetch", "", err)
	}
	valid := make([]model.Item, 0, len(rows))
	for _, r := range rows {
		if !r.Valid() {
			s.log.Debug("skipping row without name", "id", r.ID)
			continue
		}
		valid = append(valid, r)
	}
	s.state.replace(valid)
	s.log.Debug("fetched", "rows", len(rows), "valid", len(valid))
	return nil
}

// AddItem inserts text as a new, not completed row. Blank text is ignored.
// The name is sent as typed; only the blank check trims. On success the
// returned row is appended as-is and the pending input is cleared.
func (s *Syncer) AddItem(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	const key = "add"
	if !s.begin(key) {
		return ErrInFlight
	}
	defer s.end(key)

	it, err := s.table.Insert(ctx, model.NewItem{Name: text, IsCompleted: false})
	if err != nil {
		return s.fail("add", "", err)
	}
	s.state.appendAndClear(it)
	s.log.Debug("added", "id", it.ID)
	return nil
}

// ToggleComplete sets isCompleted to !current on the table and then on the
// matching local item. The new value comes from current, not from the table.
func (s *Syncer) ToggleComplete(ctx context.Context, id model.ID, current bool) error {
	key := "toggle:" + id.String()
	if !s.begin(key) {
		return ErrInFlight
	}
	defer s.end(key)

	next := !current
	if err := s.table.UpdateByID(ctx, id, model.CompletedPatch(next)); err != nil {
		return s.fail("toggle", id, err)
	}
	s.state.setCompleted(id, next)
	s.log.Debug("toggled", "id", id, "completed", next)
	return nil
}

// DeleteItem removes the row from the table and then from the local list.
func (s *Syncer) DeleteItem(ctx context.Context, id model.ID) error {
	key := "delete:" + id.String()
	if !s.begin(key) {
		return ErrInFlight
	}
	defer s.end(key)

	if err := s.table.DeleteByID(ctx, id); err != nil {
		return s.fail("delete", id, err)
	}
	s.state.remove(id)
	s.log.Debug("deleted", "id", id)
	return nil
}
