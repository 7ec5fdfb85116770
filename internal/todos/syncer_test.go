package todos

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/tabletodo/internal/model"
	"github.com/Makepad-fr/tabletodo/internal/store/memstore"
)

var errBoom = errors.New("boom")

func seeded() []model.Item {
	return []model.Item{
		{ID: "1", Name: "Buy milk"},
		{ID: "2", Name: ""},
		{ID: "3", Name: "Walk dog", IsCompleted: true},
		{ID: "4"},
		{ID: "5", Name: "Call mom"},
	}
}

func newSyncer(t *testing.T, rows ...model.Item) (*Syncer, *memstore.Store, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	table := memstore.New(rows...)
	return New(table, log.New(&buf)), table, &buf
}

func fetched(t *testing.T, rows ...model.Item) (*Syncer, *memstore.Store, *bytes.Buffer) {
	t.Helper()
	s, table, buf := newSyncer(t, rows...)
	require.NoError(t, s.FetchAll(context.Background()))
	return s, table, buf
}

func TestFetchAllFiltersNamelessRows(t *testing.T) {
	s, _, _ := fetched(t, seeded()...)

	assert.Equal(t, []model.Item{
		{ID: "1", Name: "Buy milk"},
		{ID: "3", Name: "Walk dog", IsCompleted: true},
		{ID: "5", Name: "Call mom"},
	}, s.State().Items())
}

func TestFetchAllReplacesList(t *testing.T) {
	s, table, _ := fetched(t, seeded()...)
	require.NoError(t, table.DeleteByID(context.Background(), "1"))
	require.NoError(t, table.DeleteByID(context.Background(), "3"))
	require.NoError(t, table.DeleteByID(context.Background(), "5"))

	require.NoError(t, s.FetchAll(context.Background()))
	assert.Empty(t, s.State().Items())
}

type nilTable struct{ memstore.Store }

func (*nilTable) List(context.Context) ([]model.Item, error) { return nil, nil }

func TestFetchAllNilRows(t *testing.T) {
	s := New(&nilTable{}, nil)
	require.NoError(t, s.FetchAll(context.Background()))
	items := s.State().Items()
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestFetchAllErrorKeepsState(t *testing.T) {
	s, table, buf := fetched(t, seeded()...)
	before := s.State().Snapshot()

	table.Fail(memstore.OpList, errBoom)
	err := s.FetchAll(context.Background())
	require.ErrorIs(t, err, ErrRemote)
	require.ErrorIs(t, err, errBoom)

	assert.Equal(t, before, s.State().Snapshot())
	assert.Contains(t, buf.String(), "remote call failed")
	assert.Contains(t, buf.String(), "op=fetch")
}

func TestAddItemBlankIsNoop(t *testing.T) {
	for _, text := range []string{"", "   ", "\t\n"} {
		s, table, _ := fetched(t, seeded()...)
		s.State().SetInput(text)
		before := s.State().Snapshot()

		require.NoError(t, s.AddItem(context.Background(), text))
		assert.Zero(t, table.Calls(memstore.OpInsert), "text %q", text)
		assert.Equal(t, before, s.State().Snapshot())
	}
}

func TestAddItemAppendsAndClearsInput(t *testing.T) {
	s, table, _ := fetched(t, seeded()...)
	s.State().SetInput("Buy milk")

	require.NoError(t, s.AddItem(context.Background(), "Buy milk"))

	items := s.State().Items()
	require.Len(t, items, 4)
	assert.Equal(t, model.Item{ID: "6", Name: "Buy milk", IsCompleted: false}, items[3])
	assert.Equal(t, "", s.State().Input())
	assert.Equal(t, 1, table.Calls(memstore.OpInsert))
}

func TestAddItemSendsTextUntrimmed(t *testing.T) {
	s, table, _ := fetched(t)
	require.NoError(t, s.AddItem(context.Background(), "  padded "))
	assert.Equal(t, "  padded ", table.Rows()[0].Name)
	assert.Equal(t, "  padded ", s.State().Items()[0].Name)
}

func TestAddItemErrorKeepsStateAndInput(t *testing.T) {
	s, table, buf := fetched(t, seeded()...)
	s.State().SetInput("Buy milk")
	before := s.State().Snapshot()

	table.Fail(memstore.OpInsert, errBoom)
	err := s.AddItem(context.Background(), "Buy milk")
	require.ErrorIs(t, err, ErrRemote)

	assert.Equal(t, before, s.State().Snapshot())
	assert.Equal(t, "Buy milk", s.State().Input())
	assert.Contains(t, buf.String(), "op=add")
}

func TestToggleCompleteFlipsOnlyTarget(t *testing.T) {
	s, table, _ := fetched(t, seeded()...)
	before := s.State().Items()

	require.NoError(t, s.ToggleComplete(context.Background(), "5", false))

	after := s.State().Items()
	require.Len(t, after, len(before))
	for i := range before {
		if before[i].ID == "5" {
			assert.True(t, after[i].IsCompleted)
			assert.Equal(t, before[i].Name, after[i].Name)
			continue
		}
		assert.Equal(t, before[i], after[i])
	}
	assert.True(t, table.Rows()[4].IsCompleted)
}

func TestToggleCompleteUsesInputFlag(t *testing.T) {
	// Local state follows the caller's flag even when it disagrees with
	// the stored value.
	s, _, _ := fetched(t, seeded()...)
	require.NoError(t, s.ToggleComplete(context.Background(), "3", false))
	assert.True(t, s.State().Items()[1].IsCompleted)

	require.NoError(t, s.ToggleComplete(context.Background(), "3", true))
	assert.False(t, s.State().Items()[1].IsCompleted)
}

func TestToggleCompleteErrorKeepsState(t *testing.T) {
	s, table, buf := fetched(t, seeded()...)
	before := s.State().Snapshot()

	table.Fail(memstore.OpUpdate, errBoom)
	err := s.ToggleComplete(context.Background(), "5", false)
	require.ErrorIs(t, err, ErrRemote)
	var rerr *RemoteError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, model.ID("5"), rerr.ID)

	assert.Equal(t, before, s.State().Snapshot())
	assert.Contains(t, buf.String(), "op=toggle")
}

func TestDeleteItemKeepsOrder(t *testing.T) {
	s, _, _ := fetched(t, seeded()...)

	require.NoError(t, s.DeleteItem(context.Background(), "3"))
	assert.Equal(t, []model.Item{
		{ID: "1", Name: "Buy milk"},
		{ID: "5", Name: "Call mom"},
	}, s.State().Items())
}

func TestDeleteItemErrorKeepsState(t *testing.T) {
	s, table, _ := fetched(t, seeded()...)
	before := s.State().Snapshot()

	table.Fail(memstore.OpDelete, errBoom)
	require.ErrorIs(t, s.DeleteItem(context.Background(), "3"), ErrRemote)
	assert.Equal(t, before, s.State().Snapshot())
}

func TestSnapshotsAreIsolated(t *testing.T) {
	s, _, _ := fetched(t, seeded()...)
	snap := s.State().Items()

	require.NoError(t, s.ToggleComplete(context.Background(), "1", false))
	require.NoError(t, s.DeleteItem(context.Background(), "5"))

	assert.False(t, snap[0].IsCompleted)
	assert.Len(t, snap, 3)
}

// blockOn holds the first call of op until release is closed.
func blockOn(table *memstore.Store, op memstore.Op) (entered <-chan struct{}, release chan struct{}) {
	in := make(chan struct{})
	release = make(chan struct{})
	var once sync.Once
	table.Hook = func(ctx context.Context, got memstore.Op) {
		if got != op {
			return
		}
		first := false
		once.Do(func() { first = true })
		if first {
			close(in)
			<-release
		}
	}
	return in, release
}

func TestDuplicateAddWhileInFlight(t *testing.T) {
	s, table, _ := fetched(t)
	entered, release := blockOn(table, memstore.OpInsert)

	done := make(chan error, 1)
	go func() { done <- s.AddItem(context.Background(), "Buy milk") }()
	<-entered

	require.ErrorIs(t, s.AddItem(context.Background(), "Buy milk"), ErrInFlight)
	close(release)
	require.NoError(t, <-done)

	assert.Equal(t, 1, table.Calls(memstore.OpInsert))
	assert.Len(t, s.State().Items(), 1)

	// Once settled, the action is available again.
	require.NoError(t, s.AddItem(context.Background(), "Buy bread"))
	assert.Len(t, s.State().Items(), 2)
}

func TestDuplicateDeleteWhileInFlight(t *testing.T) {
	s, table, _ := fetched(t, seeded()...)
	entered, release := blockOn(table, memstore.OpDelete)

	done := make(chan error, 1)
	go func() { done <- s.DeleteItem(context.Background(), "3") }()
	<-entered

	require.ErrorIs(t, s.DeleteItem(context.Background(), "3"), ErrInFlight)
	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, table.Calls(memstore.OpDelete))
}

func TestDifferentActionsRunConcurrently(t *testing.T) {
	s, table, _ := fetched(t, seeded()...)
	entered, release := blockOn(table, memstore.OpUpdate)

	done := make(chan error, 1)
	go func() { done <- s.ToggleComplete(context.Background(), "1", false) }()
	<-entered

	require.ErrorIs(t, s.ToggleComplete(context.Background(), "1", false), ErrInFlight)
	require.NoError(t, s.ToggleComplete(context.Background(), "5", false), "other ids are independent")
	require.NoError(t, s.DeleteItem(context.Background(), "3"))

	close(release)
	require.NoError(t, <-done)

	assert.Equal(t, []model.Item{
		{ID: "1", Name: "Buy milk", IsCompleted: true},
		{ID: "5", Name: "Call mom", IsCompleted: true},
	}, s.State().Items())
}
