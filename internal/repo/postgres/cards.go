package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/eventdeck/eventdeck-go/internal/domain"
	"github.com/eventdeck/eventdeck-go/internal/repo"
)

const (
	lockEventQuery = `SELECT event_id FROM events WHERE event_id = $1 FOR UPDATE`

	countCardsQuery = `SELECT COUNT(*) FROM event_cards WHERE event_id = $1`

	selectCardQuery = `SELECT card_id, event_id, rank, created_at, updated_at
	 FROM event_cards
	 WHERE card_id = $1`

	listCardsQuery = `SELECT card_id, event_id, rank, created_at, updated_at
	 FROM event_cards
	 WHERE event_id = $1
	 ORDER BY rank ASC, created_at ASC, card_id ASC`

	insertCardQuery = `INSERT INTO event_cards (card_id, event_id, rank, created_at, updated_at) VALUES ($1,$2,$3,$4,$5)`

	deleteCardQuery = `DELETE FROM event_cards WHERE card_id = $1`

	shiftRanksQuery = `UPDATE event_cards
	 SET rank = rank + $4, updated_at = $5
	 WHERE event_id = $1 AND rank >= $2 AND rank <= $3`

	setRankQuery = `UPDATE event_cards SET rank = $2, updated_at = $3 WHERE card_id = $1`

	renumberCardsQuery = `UPDATE event_cards AS c
	 SET rank = o.new_rank, updated_at = $2
	 FROM (
		SELECT card_id, ROW_NUMBER() OVER (ORDER BY rank ASC, created_at ASC, card_id ASC) - 1 AS new_rank
		FROM event_cards
		WHERE event_id = $1
	 ) AS o
	 WHERE c.card_id = o.card_id AND c.rank <> o.new_rank`
)

func (t *txStore) LockEvent(ctx context.Context, eventID string) error {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return fmt.Errorf("event id is required")
	}
	var locked string
	if err := t.db.QueryRowContext(ctx, lockEventQuery, eventID).Scan(&locked); err != nil {
		return handleNotFound(err)
	}
	return nil
}

func (t *txStore) CountCards(ctx context.Context, eventID string) (int, error) {
	var n int
	if err := t.db.QueryRowContext(ctx, countCardsQuery, strings.TrimSpace(eventID)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count cards: %w", err)
	}
	return n, nil
}

func (t *txStore) GetCard(ctx context.Context, id string) (domain.Card, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Card{}, fmt.Errorf("card id is required")
	}
	card, err := scanCard(t.db.QueryRowContext(ctx, selectCardQuery, id))
	if err != nil {
		return domain.Card{}, handleNotFound(err)
	}
	return card, nil
}

func (t *txStore) ListCards(ctx context.Context, eventID string) ([]domain.Card, error) {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return nil, fmt.Errorf("event id is required")
	}
	rows, err := t.db.QueryContext(ctx, listCardsQuery, eventID)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	cards := make([]domain.Card, 0)
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	return cards, nil
}

func (t *txStore) InsertCard(ctx context.Context, card domain.Card) error {
	if err := card.Validate(); err != nil {
		return err
	}
	createdAt := normalizeTime(card.CreatedAt)
	updatedAt := card.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}
	_, err := t.db.ExecContext(
		ctx,
		insertCardQuery,
		strings.TrimSpace(card.ID),
		strings.TrimSpace(card.EventID),
		card.Rank,
		createdAt,
		updatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert card: %w", err)
	}
	return nil
}

func (t *txStore) DeleteCard(ctx context.Context, id string) (int64, error) {
	res, err := t.db.ExecContext(ctx, deleteCardQuery, strings.TrimSpace(id))
	if err != nil {
		return 0, fmt.Errorf("delete card: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete card: %w", err)
	}
	return n, nil
}

func (t *txStore) ShiftRanks(ctx context.Context, eventID string, lo, hi, delta int) (int64, error) {
	if lo > hi || delta == 0 {
		return 0, nil
	}
	res, err := t.db.ExecContext(ctx, shiftRanksQuery, strings.TrimSpace(eventID), lo, hi, delta, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("shift ranks: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("shift ranks: %w", err)
	}
	return n, nil
}

func (t *txStore) SetRank(ctx context.Context, id string, rank int) error {
	res, err := t.db.ExecContext(ctx, setRankQuery, strings.TrimSpace(id), rank, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set rank: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set rank: %w", err)
	}
	if n == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (t *txStore) RenumberCards(ctx context.Context, eventID string) (int64, error) {
	res, err := t.db.ExecContext(ctx, renumberCardsQuery, strings.TrimSpace(eventID), time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("renumber cards: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("renumber cards: %w", err)
	}
	return n, nil
}

type cardScanner interface {
	Scan(dest ...any) error
}

func scanCard(scanner cardScanner) (domain.Card, error) {
	var card domain.Card
	if err := scanner.Scan(&card.ID, &card.EventID, &card.Rank, &card.CreatedAt, &card.UpdatedAt); err != nil {
		return domain.Card{}, err
	}
	card.CreatedAt = card.CreatedAt.UTC()
	card.UpdatedAt = card.UpdatedAt.UTC()
	return card, nil
}
