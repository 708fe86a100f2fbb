package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"github.com/eventdeck/eventdeck-go/internal/domain"
	"github.com/eventdeck/eventdeck-go/internal/repo"
)

//go:embed schema.sql
var schemaSQL string

// Store implements repo.Store on an embedded SQLite database. The pool must
// hold a single connection (see platform/sqlite.Open): every transaction then
// owns the database exclusively, which subsumes per-event locking.
type Store struct {
	db *sql.DB
}

var _ repo.Store = (*Store)(nil)

func NewStore(db *sql.DB) *Store {
	if db == nil {
		return nil
	}
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn repo.TxFunc) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("card store not initialized")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classifyError(fmt.Errorf("begin: %w", err))
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(ctx, &txStore{db: tx}); err != nil {
		return classifyError(err)
	}
	if err := tx.Commit(); err != nil {
		return classifyError(fmt.Errorf("commit: %w", err))
	}
	return nil
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

type txStore struct {
	db DB
}

var _ repo.Tx = (*txStore)(nil)
