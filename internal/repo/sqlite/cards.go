package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/eventdeck/eventdeck-go/internal/domain"
	"github.com/eventdeck/eventdeck-go/internal/repo"
)

const (
	lockEventQuery = `SELECT event_id FROM events WHERE event_id = ?`

	countCardsQuery = `SELECT COUNT(*) FROM event_cards WHERE event_id = ?`

	selectCardQuery = `SELECT card_id, event_id, rank, created_at, updated_at FROM event_cards WHERE card_id = ?`

	listCardsQuery = `SELECT card_id, event_id, rank, created_at, updated_at
	 FROM event_cards
	 WHERE event_id = ?
	 ORDER BY rank ASC, created_at ASC, card_id ASC`

	insertCardQuery = `INSERT INTO event_cards (card_id, event_id, rank, created_at, updated_at) VALUES (?,?,?,?,?)`

	deleteCardQuery = `DELETE FROM event_cards WHERE card_id = ?`

	shiftRanksQuery = `UPDATE event_cards
	 SET rank = rank + ?, updated_at = ?
	 WHERE event_id = ? AND rank >= ? AND rank <= ?`

	setRankQuery = `UPDATE event_cards SET rank = ?, updated_at = ? WHERE card_id = ?`

	renumberCardsQuery = `UPDATE event_cards
	 SET rank = o.new_rank, updated_at = ?
	 FROM (
		SELECT card_id, ROW_NUMBER() OVER (ORDER BY rank ASC, created_at ASC, card_id ASC) - 1 AS new_rank
		FROM event_cards
		WHERE event_id = ?
	 ) AS o
	 WHERE event_cards.card_id = o.card_id AND event_cards.rank <> o.new_rank`
)

// LockEvent only checks existence: the single-connection pool already gives
// the transaction exclusive access.
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
	createdAt := formatTime(card.CreatedAt)
	updatedAt := createdAt
	if !card.UpdatedAt.IsZero() {
		updatedAt = formatTime(card.UpdatedAt)
	}
	_, err := t.db.ExecContext(
		ctx,
		insertCardQuery,
		strings.TrimSpace(card.ID),
		strings.TrimSpace(card.EventID),
		card.Rank,
		createdAt,
		updatedAt,
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
	res, err := t.db.ExecContext(ctx, shiftRanksQuery, delta, formatTime(time.Now()), strings.TrimSpace(eventID), lo, hi)
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
	res, err := t.db.ExecContext(ctx, setRankQuery, rank, formatTime(time.Now()), strings.TrimSpace(id))
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
	res, err := t.db.ExecContext(ctx, renumberCardsQuery, formatTime(time.Now()), strings.TrimSpace(eventID))
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
	var (
		card      domain.Card
		createdAt string
		updatedAt string
	)
	if err := scanner.Scan(&card.ID, &card.EventID, &card.Rank, &createdAt, &updatedAt); err != nil {
		return domain.Card{}, err
	}
	var err error
	if card.CreatedAt, err = parseTime(createdAt); err != nil {
		return domain.Card{}, err
	}
	if card.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return domain.Card{}, err
	}
	return card, nil
}
