package cards

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

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
	newID func() string
	now   func() time.Time
}

func New(store repo.Store) *Service {
	if store == nil {
		return nil
	}
	return &Service{
		store: store,
		newID: uuid.NewString,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// CreateEvent stores a new, empty event.
func (s *Service) CreateEvent(ctx context.Context, title, createdBy string) (domain.Event, error) {
	event := domain.Event{
		ID:        s.newID(),
		Title:     strings.TrimSpace(title),
		CreatedAt: s.now(),
		CreatedBy: strings.TrimSpace(createdBy),
	}
	if err := event.Validate(); err != nil {
		return domain.Event{}, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if err := s.store.CreateEvent(ctx, event); err != nil {
		return domain.Event{}, err
	}
	return event, nil
}

func (s *Service) GetEvent(ctx context.Context, eventID string) (domain.Event, error) {
	eventID, err := requireID("event id", eventID)
	if err != nil {
		return domain.Event{}, err
	}
	return s.store.GetEvent(ctx, eventID)
}

// Create appends a card to the event; its rank is the card count before the
// insert.
func (s *Service) Create(ctx context.Context, eventID string) (domain.Card, error) {
	eventID, err := requireID("event id", eventID)
	if err != nil {
		return domain.Card{}, err
	}
	var created domain.Card
	err = s.store.InTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		if err := tx.LockEvent(ctx, eventID); err != nil {
			return err
		}
		count, err := tx.CountCards(ctx, eventID)
		if err != nil {
			return err
		}
		now := s.now()
		card := domain.Card{
			ID:        s.newID(),
			EventID:   eventID,
			Rank:      count,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.InsertCard(ctx, card); err != nil {
			return err
		}
		created = card
		return nil
	})
	if err != nil {
		return domain.Card{}, err
	}
	return created, nil
}

// Delete removes the card and compacts the ranks above it. It returns the
// number of removed cards; an unknown id is not an error.
func (s *Service) Delete(ctx context.Context, cardID string) (int, error) {
	cardID, err := requireID("card id", cardID)
	if err != nil {
		return 0, err
	}
	var deleted int64
	err = s.store.InTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		card, err := lockCard(ctx, tx, cardID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return nil
			}
			return err
		}
		count, err := tx.CountCards(ctx, card.EventID)
		if err != nil {
			return err
		}
		if _, err := tx.ShiftRanks(ctx, card.EventID, card.Rank+1, count-1, -1); err != nil {
			return err
		}
		deleted, err = tx.DeleteCard(ctx, card.ID)
		return err
	})
	if err != nil {
		return 0, err
	}
	return int(deleted), nil
}

// Move places the card at newRank, shifting the cards in between by one.
// A nil newRank leaves the card untouched. newRank must lie in [0, n-1].
func (s *Service) Move(ctx context.Context, cardID string, newRank *int) (domain.Card, error) {
	cardID, err := requireID("card id", cardID)
	if err != nil {
		return domain.Card{}, err
	}
	if newRank == nil {
		return s.store.GetCard(ctx, cardID)
	}
	target := *newRank

	var moved domain.Card
	err = s.store.InTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		card, err := lockCard(ctx, tx, cardID)
		if err != nil {
			return err
		}
		count, err := tx.CountCards(ctx, card.EventID)
		if err != nil {
			return err
		}
		if target < 0 || target >= count {
			return fmt.Errorf("%w: rank %d outside [0, %d]", ErrInvalidArgument, target, count-1)
		}
		old := card.Rank
		if target == old {
			moved = card
			return nil
		}
		if target > old {
			_, err = tx.ShiftRanks(ctx, card.EventID, old+1, target, -1)
		} else {
			_, err = tx.ShiftRanks(ctx, card.EventID, target, old-1, 1)
		}
		if err != nil {
			return err
		}
		if err := tx.SetRank(ctx, card.ID, target); err != nil {
			return err
		}
		moved, err = tx.GetCard(ctx, card.ID)
		return err
	})
	if err != nil {
		return domain.Card{}, err
	}
	return moved, nil
}

func (s *Service) Get(ctx context.Context, cardID string) (domain.Card, error) {
	cardID, err := requireID("card id", cardID)
	if err != nil {
		return domain.Card{}, err
	}
	return s.store.GetCard(ctx, cardID)
}

// List returns the event's cards ordered by rank.
func (s *Service) List(ctx context.Context, eventID string) ([]domain.Card, error) {
	eventID, err := requireID("event id", eventID)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.store.ListCards(ctx, eventID)
}

// Verify reports every card whose rank breaks the dense sequence.
func (s *Service) Verify(ctx context.Context, eventID string) ([]domain.RankViolation, error) {
	cards, err := s.List(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return domain.CheckDenseRanks(cards), nil
}

// Repair rewrites the event's ranks to 0..n-1 keeping their relative order
// and returns the number of cards that changed rank.
func (s *Service) Repair(ctx context.Context, eventID string) (int64, error) {
	eventID, err := requireID("event id", eventID)
	if err != nil {
		return 0, err
	}
	var changed int64
	err = s.store.InTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		if err := tx.LockEvent(ctx, eventID); err != nil {
			return err
		}
		changed, err = tx.RenumberCards(ctx, eventID)
		return err
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}

// lockCard takes the lock of the card's event and re-reads the card so its
// rank reflects every mutation committed before the lock was granted.
func lockCard(ctx context.Context, tx repo.Tx, cardID string) (domain.Card, error) {
	card, err := tx.GetCard(ctx, cardID)
	if err != nil {
		return domain.Card{}, err
	}
	if err := tx.LockEvent(ctx, card.EventID); err != nil {
		return domain.Card{}, err
	}
	return tx.GetCard(ctx, cardID)
}

func requireID(name, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("%w: %s is required", ErrInvalidArgument, name)
	}
	return value, nil
}
