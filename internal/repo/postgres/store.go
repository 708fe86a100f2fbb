package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/eventdeck/eventdeck-go/internal/domain"
	"github.com/eventdeck/eventdeck-go/internal/repo"
)

//go:embed schema.sql
var schemaSQL string

// Store implements repo.Store on PostgreSQL. Transactions run at READ
// COMMITTED and serialize per event through a row lock on the event.
type Store struct {
	db          *sql.DB
	lockTimeout time.Duration
}

var _ repo.Store = (*Store)(nil)

func NewStore(db *sql.DB, lockTimeout time.Duration) *Store {
	if db == nil {
		return nil
	}
	return &Store{db: db, lockTimeout: lockTimeout}
}

func (s *Store) InTx(ctx context.Context, fn repo.TxFunc) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("card store not initialized")
	}
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return classifyError(fmt.Errorf("begin: %w", err))
	}
	defer func() { _ = tx.Rollback() }()

	if s.lockTimeout > 0 {
		if _, err := tx.ExecContext(ctx, lockTimeoutStatement(s.lockTimeout)); err != nil {
			return classifyError(fmt.Errorf("set lock timeout: %w", err))
		}
	}

	if err := fn(ctx, &txStore{db: tx}); err != nil {
		return classifyError(err)
	}
	if err := tx.Commit(); err != nil {
		return classifyError(fmt.Errorf("commit: %w", err))
	}
	return nil
}

func lockTimeoutStatement(d time.Duration) string {
	ms := d.Milliseconds()
	if ms < 1 {
		ms = 1
	}
	return fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", ms)
}

func (s *Store) Migrate(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("card store not initialized")
	}
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return classifyError(fmt.Errorf("apply schema: %w", err))
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("card store not initialized")
	}
	return classifyError(s.db.PingContext(ctx))
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) GetCard(ctx context.Context, id string) (domain.Card, error) {
	if s == nil || s.db == nil {
		return domain.Card{}, fmt.Errorf("card store not initialized")
	}
	card, err := (&txStore{db: s.db}).GetCard(ctx, id)
	return card, classifyError(err)
}

func (s *Store) ListCards(ctx context.Context, eventID string) ([]domain.Card, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("card store not initialized")
	}
	cards, err := (&txStore{db: s.db}).ListCards(ctx, eventID)
	return cards, classifyError(err)
}

// txStore runs statements on a transaction, or on the pool for plain reads.
type txStore struct {
	db DB
}

var _ repo.Tx = (*txStore)(nil)
