// Package memstore is an in-memory Table. It backs the dev server when no
// file is configured and stands in for the remote table in tests.
package memstore

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync"

	"github.com/Makepad-fr/tabletodo/internal/model"
)

// Op names a Table operation for fault injection.
type Op string

const (
	OpList   Op = "list"
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Store keeps rows in insertion order and hands out sequential integer ids.
type Store struct {
	mu     sync.Mutex
	rows   []model.Item
	nextID int
	fail   map[Op]error
	calls  map[Op]int

	// Hook, when set, runs before every operation with the lock released.
	// Tests use it to hold a call in flight.
	Hook func(ctx context.Context, op Op)
}

// New returns a store seeded with rows. Seed rows keep their ids and may be
// malformed, which is how tests model a remote returning bad data.
func New(rows ...model.Item) *Store {
	s := &Store{fail: map[Op]error{}, calls: map[Op]int{}}
	for _, r := range rows {
		s.rows = append(s.rows, r)
		if n, err := strconv.Atoi(r.ID.String()); err == nil && n > s.nextID {
			s.nextID = n
		}
	}
	return s
}

// Fail makes every subsequent call of op return err. A nil err clears it.
func (s *Store) Fail(op Op, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fail, op)
		return
	}
	s.fail[op] = err
}

// Calls reports how many times op was invoked, failed calls included.
func (s *Store) Calls(op Op) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// Rows returns a copy of the table contents.
func (s *Store) Rows() []model.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.rows)
}

func (s *Store) enter(ctx context.Context, op Op) error {
	if s.Hook != nil {
		s.Hook(ctx, op)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.calls[op]++
	err := s.fail[op]
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]model.Item, error) {
	if err := s.enter(ctx, OpList); err != nil {
		return nil, err
	}
	return s.Rows(), nil
}

func (s *Store) Insert(ctx context.Context, rec model.NewItem) (model.Item, error) {
	if err := s.enter(ctx, OpInsert); err != nil {
		return model.Item{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	it := model.Item{
		ID:          model.ID(strconv.Itoa(s.nextID)),
		Name:        rec.Name,
		IsCompleted: rec.IsCompleted,
	}
	s.rows = append(s.rows, it)
	return it, nil
}

func (s *Store) UpdateByID(ctx context.Context, id model.ID, p model.Patch) error {
	if err := s.enter(ctx, OpUpdate); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rows {
		if s.rows[i].ID == id {
			s.rows[i] = p.Apply(s.rows[i])
		}
	}
	return nil
}

func (s *Store) DeleteByID(ctx context.Context, id model.ID) error {
	if err := s.enter(ctx, OpDelete); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = slices.DeleteFunc(s.rows, func(it model.Item) bool { return it.ID == id })
	return nil
}
