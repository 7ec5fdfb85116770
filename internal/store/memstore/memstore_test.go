package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/tabletodo/internal/model"
)

func TestStoreCRUD(t *testing.T) {
	ctx := context.Background()
	s := New(model.Item{ID: "3", Name: "seed"})

	it, err := s.Insert(ctx, model.NewItem{Name: "Buy milk"})
	require.NoError(t, err)
	assert.Equal(t, model.ID("4"), it.ID, "ids continue after the highest seed id")

	require.NoError(t, s.UpdateByID(ctx, "4", model.CompletedPatch(true)))
	require.NoError(t, s.UpdateByID(ctx, "404", model.CompletedPatch(true)), "missing id is not an error")

	rows, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.True(t, rows[1].IsCompleted)

	require.NoError(t, s.DeleteByID(ctx, "3"))
	rows, err = s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Item{{ID: "4", Name: "Buy milk", IsCompleted: true}}, rows)
}

func TestStoreFail(t *testing.T) {
	ctx := context.Background()
	s := New()
	boom := errors.New("boom")
	s.Fail(OpInsert, boom)

	_, err := s.Insert(ctx, model.NewItem{Name: "x"})
	require.ErrorIs(t, err, boom)
	assert.Empty(t, s.Rows())
	assert.Equal(t, 1, s.Calls(OpInsert))

	s.Fail(OpInsert, nil)
	_, err = s.Insert(ctx, model.NewItem{Name: "x"})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Calls(OpInsert))
}
