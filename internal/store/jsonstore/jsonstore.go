package jsonstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/Makepad-fr/tabletodo/internal/model"
)

// JSON-backed table. Single file, human-readable, portable.
// The whole file is rewritten on every mutation; one process at a time.

const DefaultFileName = "todos.json"

type Store struct {
	mu   sync.Mutex
	path string
}

// New returns a store over path. An empty path means todos.json in the
// working directory.
func New(path string) (*Store, error) {
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getwd: %w", err)
		}
		path = filepath.Join(wd, DefaultFileName)
	}
	return &Store{path: path}, nil
}

func (s *Store) Path() string { return s.path }

func (s *Store) load() ([]model.Item, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []model.Item{}, nil
		}
		return nil, fmt.Errorf("read file: %w", err)
	}
	var items []model.Item
	if err := json.Unmarshal(b, &items); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	return items, nil
}

func (s *Store) save(items []model.Item) error {
	b, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	if err := os.WriteFile(s.path, b, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]model.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) Insert(ctx context.Context, rec model.NewItem) (model.Item, error) {
	if err := ctx.Err(); err != nil {
		return model.Item{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.load()
	if err != nil {
		return model.Item{}, err
	}
	it := model.Item{ID: model.ID(uuid.NewString()), Name: rec.Name, IsCompleted: rec.IsCompleted}
	if err := s.save(append(items, it)); err != nil {
		return model.Item{}, err
	}
	return it, nil
}

func (s *Store) UpdateByID(ctx context.Context, id model.ID, p model.Patch) error {
	return s.mutate(ctx, func(items []model.Item) []model.Item {
		for i := range items {
			if items[i].ID == id {
				items[i] = p.Apply(items[i])
			}
		}
		return items
	})
}

func (s *Store) DeleteByID(ctx context.Context, id model.ID) error {
	return s.mutate(ctx, func(items []model.Item) []model.Item {
		return slices.DeleteFunc(items, func(it model.Item) bool { return it.ID == id })
	})
}

func (s *Store) mutate(ctx context.Context, fn func([]model.Item) []model.Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.load()
	if err != nil {
		return err
	}
	return s.save(fn(items))
}
