package repo

import (
	"context"
	"errors"

	"github.com/eventdeck/eventdeck-go/internal/domain"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("store unavailable")
)

// CardTx is the rank-ledger view of an open transaction. Range methods
// address ranks lo..hi inclusive.
type CardTx interface {
	// LockEvent takes the parent lock for eventID until the transaction ends.
	LockEvent(ctx context.Context, eventID string) error
	CountCards(ctx context.Context, eventID string) (int, error)
	GetCard(ctx context.Context, id string) (domain.Card, error)
	ListCards(ctx context.Context, eventID string) ([]domain.Card, error)
	InsertCard(ctx context.Context, card domain.Card) error
	DeleteCard(ctx context.Context, id string) (int64, error)
	ShiftRanks(ctx context.Context, eventID string, lo, hi, delta int) (int64, error)
	SetRank(ctx context.Context, id string, rank int) error
	// RenumberCards rewrites ranks to 0..n-1 keeping their relative order.
	RenumberCards(ctx context.Context, eventID string) (int64, error)
}

// LayoutTx is the positional view of an open transaction.
type LayoutTx interface {
	UpsertLayouts(ctx context.Context, layouts []domain.Layout) error
	GetLayouts(ctx context.Context, keys []domain.LayoutKey) ([]domain.Layout, error)
}

type Tx interface {
	CardTx
	LayoutTx
}

// TxFunc runs inside a transaction. Returning an error rolls it back.
type TxFunc func(ctx context.Context, tx Tx) error

// Store is the transactional persistence consumed by the engine.
type Store interface {
	InTx(ctx context.Context, fn TxFunc) error

	CreateEvent(ctx context.Context, event domain.Event) error
	GetEvent(ctx context.Context, id string) (domain.Event, error)
	ListEventIDs(ctx context.Context, limit int) ([]string, error)

	GetCard(ctx context.Context, id string) (domain.Card, error)
	ListCards(ctx context.Context, eventID string) ([]domain.Card, error)
	ListLayouts(ctx context.Context, cardItemID string) ([]domain.Layout, error)

	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
