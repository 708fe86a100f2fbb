// Package layouts applies batches of per-screen card placements atomically.
package layouts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/eventdeck/eventdeck-go/internal/domain"
	"github.com/eventdeck/eventdeck-go/internal/repo"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")

	ErrNotFound         = repo.ErrNotFound
	ErrConflict         = repo.ErrConflict
	ErrStoreUnavailable = repo.ErrUnavailable
)

type Service struct {
	store repo.Store
}

func New(store repo.Store) *Service {
	if store == nil {
		return nil
	}
	return &Service{store: store}
}

// Set upserts every entry keyed by (card item, screen) in one transaction.
// When a key repeats, the last entry wins. The stored records are returned
// in the order each key first appeared. Coordinates are stored as given.
func (s *Service) Set(ctx context.Context, entries []domain.Layout) ([]domain.Layout, error) {
	for i, entry := range entries {
		if err := entry.Validate(); err != nil {
			return nil, fmt.Errorf("%w: layouts[%d]: %v", ErrInvalidArgument, i, err)
		}
	}
	batch := domain.NormalizeLayouts(entries)
	if len(batch) == 0 {
		return []domain.Layout{}, nil
	}
	keys := make([]domain.LayoutKey, 0, len(batch))
	for _, layout := range batch {
		keys = append(keys, layout.Key())
	}

	var stored []domain.Layout
	err := s.store.InTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		if err := tx.UpsertLayouts(ctx, batch); err != nil {
			return err
		}
		var err error
		stored, err = tx.GetLayouts(ctx, keys)
		return err
	})
	if err != nil {
		return nil, err
	}

	byKey := make(map[domain.LayoutKey]domain.Layout, len(stored))
	for _, layout := range stored {
		byKey[layout.Key()] = layout
	}
	out := make([]domain.Layout, 0, len(keys))
	for _, key := range keys {
		layout, ok := byKey[key]
		if !ok {
			return nil, fmt.Errorf("layout %s missing after upsert", key)
		}
		out = append(out, layout)
	}
	return out, nil
}

// List returns the layouts of one card ordered by screen.
func (s *Service) List(ctx context.Context, cardItemID string) ([]domain.Layout, error) {
	cardItemID = strings.TrimSpace(cardItemID)
	if cardItemID == "" {
		return nil, fmt.Errorf("%w: card item id is required", ErrInvalidArgument)
	}
	if _, err := s.store.GetCard(ctx, cardItemID); err != nil {
		return nil, err
	}
	return s.store.ListLayouts(ctx, cardItemID)
}
