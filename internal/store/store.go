// Package store defines the row-table contract the client syncs against and
// hosts its backends: a PostgREST client (rest), a JSON file (jsonstore), a
// SQLite file (sqlstore) and an in-memory table (memstore).
package store

import (
	"context"
	"errors"

	"github.com/Makepad-fr/tabletodo/internal/model"
)

// ErrEmptyResult is returned when an insert came back without a row.
var ErrEmptyResult = errors.New("insert returned no rows")

// Table is the remote collaborator. Update and delete of an id that matches
// nothing succeed, the way a filtered PATCH/DELETE does.
type Table interface {
	List(ctx context.Context) ([]model.Item, error)
	Insert(ctx context.Context, rec model.NewItem) (model.Item, error)
	UpdateByID(ctx context.Context, id model.ID, p model.Patch) error
	DeleteByID(ctx context.Context, id model.ID) error
}
