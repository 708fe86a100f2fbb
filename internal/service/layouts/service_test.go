package layouts

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventdeck/eventdeck-go/internal/domain"
	platformsqlite "github.com/eventdeck/eventdeck-go/internal/platform/sqlite"
	"github.com/eventdeck/eventdeck-go/internal/repo"
	sqlitestore "github.com/eventdeck/eventdeck-go/internal/repo/sqlite"
)

func openDB(t *testing.T, path string) *sql.DB {
	t.Helper()
	db, err := platformsqlite.Open(context.Background(), platformsqlite.Config{Path: path, BusyTimeout: time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// newTestStore returns a migrated store holding one event with the given
// cards, plus the database path.
func newTestStore(t *testing.T, cardIDs ...string) (*sqlitestore.Store, string) {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "layouts.db")
	store := sqlitestore.NewStore(openDB(t, path))
	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.CreateEvent(ctx, domain.Event{ID: "event-1", Title: "board"}))
	err := store.InTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		for i, id := range cardIDs {
			if err := tx.InsertCard(ctx, domain.Card{ID: id, EventID: "event-1", Rank: i}); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
	return store, path
}

func coords(l domain.Layout) [4]int {
	return [4]int{l.X, l.Y, l.W, l.H}
}

func TestNewNilStore(t *testing.T) {
	assert.Nil(t, New(nil))
}

func TestSetLastWriteWins(t *testing.T) {
	store, _ := newTestStore(t, "card1")
	svc := New(store)

	got, err := svc.Set(context.Background(), []domain.Layout{
		{CardItemID: "card1", Screen: "mobile", X: 0, Y: 0, W: 10, H: 10},
		{CardItemID: "card1", Screen: "mobile", X: 5, Y: 5, W: 20, H: 20},
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, [4]int{5, 5, 20, 20}, coords(got[0]))

	all, err := svc.List(context.Background(), "card1")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, [4]int{5, 5, 20, 20}, coords(all[0]))
}

func TestSetReturnsFirstOccurrenceOrder(t *testing.T) {
	store, _ := newTestStore(t, "card1", "card2")
	svc := New(store)

	got, err := svc.Set(context.Background(), []domain.Layout{
		{CardItemID: "card2", Screen: "tablet", X: 1},
		{CardItemID: "card1", Screen: "desktop", X: 2},
		{CardItemID: " card2 ", Screen: "tablet ", X: 3},
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.LayoutKey{CardItemID: "card2", Screen: "tablet"}, got[0].Key())
	assert.Equal(t, 3, got[0].X)
	assert.Equal(t, domain.LayoutKey{CardItemID: "card1", Screen: "desktop"}, got[1].Key())
}

func TestSetIsIdempotent(t *testing.T) {
	store, _ := newTestStore(t, "card1")
	svc := New(store)
	batch := []domain.Layout{
		{CardItemID: "card1", Screen: "mobile", X: 1, Y: 2, W: 3, H: 4},
		{CardItemID: "card1", Screen: "desktop", X: 5, Y: 6, W: 7, H: 8},
	}

	first, err := svc.Set(context.Background(), batch)
	require.NoError(t, err)
	second, err := svc.Set(context.Background(), batch)
	require.NoError(t, err)
	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Key(), second[i].Key())
		assert.Equal(t, coords(first[i]), coords(second[i]))
	}

	all, err := svc.List(context.Background(), "card1")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSetAcceptsAnyCoordinates(t *testing.T) {
	store, _ := newTestStore(t, "card1")
	got, err := New(store).Set(context.Background(), []domain.Layout{
		{CardItemID: "card1", Screen: "mobile", X: -4, Y: -1, W: 0, H: -2},
	})
	require.NoError(t, err)
	assert.Equal(t, [4]int{-4, -1, 0, -2}, coords(got[0]))
}

func TestSetEmptyBatch(t *testing.T) {
	store, _ := newTestStore(t)
	got, err := New(store).Set(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSetInvalidEntryNamesIndex(t *testing.T) {
	store, _ := newTestStore(t, "card1")
	svc := New(store)

	cases := []struct {
		name  string
		entry domain.Layout
	}{
		{name: "empty card", entry: domain.Layout{Screen: "mobile"}},
		{name: "empty screen", entry: domain.Layout{CardItemID: "card1", Screen: "  "}},
		{name: "long screen", entry: domain.Layout{CardItemID: "card1", Screen: "a-screen-name-that-is-far-too-long-to-store"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Set(context.Background(), []domain.Layout{
				{CardItemID: "card1", Screen: "mobile", X: 9},
				tc.entry,
			})
			require.ErrorIs(t, err, ErrInvalidArgument)
			assert.Contains(t, err.Error(), "layouts[1]")
		})
	}

	all, err := svc.List(context.Background(), "card1")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSetUnknownCardRollsBackBatch(t *testing.T) {
	store, _ := newTestStore(t, "card1")
	svc := New(store)

	_, err := svc.Set(context.Background(), []domain.Layout{
		{CardItemID: "card1", Screen: "mobile", X: 1},
		{CardItemID: "ghost", Screen: "mobile", X: 1},
	})
	require.ErrorIs(t, err, ErrNotFound)

	all, err := svc.List(context.Background(), "card1")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestListUnknownCard(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := New(store).List(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

// pausingStore holds every transaction open right after its upsert until
// release is closed.
type pausingStore struct {
	repo.Store
	upserted chan struct{}
	release  chan struct{}
}

func (p *pausingStore) InTx(ctx context.Context, fn repo.TxFunc) error {
	return p.Store.InTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		return fn(ctx, pausingTx{Tx: tx, p: p})
	})
}

type pausingTx struct {
	repo.Tx
	p *pausingStore
}

func (t pausingTx) UpsertLayouts(ctx context.Context, layouts []domain.Layout) error {
	if err := t.Tx.UpsertLayouts(ctx, layouts); err != nil {
		return err
	}
	close(t.p.upserted)
	<-t.p.release
	return nil
}

func TestSetIsAtomicForConcurrentReaders(t *testing.T) {
	const k = 5
	cardIDs := []string{"c0", "c1", "c2", "c3", "c4"}
	store, path := newTestStore(t, cardIDs...)
	ctx := context.Background()

	initial := make([]domain.Layout, 0, k)
	update := make([]domain.Layout, 0, k)
	for _, id := range cardIDs {
		initial = append(initial, domain.Layout{CardItemID: id, Screen: "mobile", W: 1, H: 1})
		update = append(update, domain.Layout{CardItemID: id, Screen: "mobile", X: 99, W: 1, H: 1})
	}
	_, err := New(store).Set(ctx, initial)
	require.NoError(t, err)

	reader := openDB(t, path)
	updatedRows := func() int {
		var n int
		err := reader.QueryRowContext(ctx, `SELECT COUNT(*) FROM card_item_layouts WHERE x = 99`).Scan(&n)
		require.NoError(t, err)
		return n
	}

	paused := &pausingStore{Store: store, upserted: make(chan struct{}), release: make(chan struct{})}
	done := make(chan error, 1)
	go func() {
		_, err := New(paused).Set(ctx, update)
		done <- err
	}()

	<-paused.upserted
	assert.Equal(t, 0, updatedRows())
	close(paused.release)
	require.NoError(t, <-done)
	assert.Equal(t, k, updatedRows())
}
