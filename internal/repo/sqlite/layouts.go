package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/eventdeck/eventdeck-go/internal/domain"
)

// Stays well below SQLITE_MAX_VARIABLE_NUMBER.
const layoutChunkSize = 1000

const (
	upsertLayoutsPrefix = `INSERT INTO card_item_layouts (card_item_id, screen, x, y, w, h, updated_at) VALUES `

	upsertLayoutsSuffix = ` ON CONFLICT (card_item_id, screen) DO UPDATE SET
		x = excluded.x,
		y = excluded.y,
		w = excluded.w,
		h = excluded.h,
		updated_at = excluded.updated_at`

	// SQLite only accepts a subquery on the right of a row-value IN.
	selectLayoutsPrefix = `SELECT card_item_id, screen, x, y, w, h, updated_at
	 FROM card_item_layouts
	 WHERE (card_item_id, screen) IN (VALUES `

	listLayoutsByCardQuery = `SELECT card_item_id, screen, x, y, w, h, updated_at
	 FROM card_item_layouts
	 WHERE card_item_id = ?
	 ORDER BY screen ASC`
)

func buildUpsertLayoutsQuery(n int) string {
	rows := make([]string, n)
	for i := range rows {
		rows[i] = placeholders(7)
	}
	return upsertLayoutsPrefix + strings.Join(rows, ",") + upsertLayoutsSuffix
}

func buildSelectLayoutsQuery(n int) string {
	rows := make([]string, n)
	for i := range rows {
		rows[i] = placeholders(2)
	}
	return selectLayoutsPrefix + strings.Join(rows, ",") + ")"
}

func (t *txStore) UpsertLayouts(ctx context.Context, layouts []domain.Layout) error {
	now := formatTime(time.Now())
	for start := 0; start < len(layouts); start += layoutChunkSize {
		end := min(start+layoutChunkSize, len(layouts))
		chunk := layouts[start:end]
		args := make([]any, 0, len(chunk)*7)
		for _, l := range chunk {
			args = append(args, l.CardItemID, l.Screen, l.X, l.Y, l.W, l.H, now)
		}
		if _, err := t.db.ExecContext(ctx, buildUpsertLayoutsQuery(len(chunk)), args...); err != nil {
			return fmt.Errorf("upsert layouts: %w", err)
		}
	}
	return nil
}

func (t *txStore) GetLayouts(ctx context.Context, keys []domain.LayoutKey) ([]domain.Layout, error) {
	out := make([]domain.Layout, 0, len(keys))
	for start := 0; start < len(keys); start += layoutChunkSize {
		end := min(start+layoutChunkSize, len(keys))
		chunk := keys[start:end]
		args := make([]any, 0, len(chunk)*2)
		for _, k := range chunk {
			args = append(args, k.CardItemID, k.Screen)
		}
		layouts, err := t.queryLayouts(ctx, buildSelectLayoutsQuery(len(chunk)), args...)
		if err != nil {
			return nil, err
		}
		out = append(out, layouts...)
	}
	return out, nil
}

func (s *Store) ListLayouts(ctx context.Context, cardItemID string) ([]domain.Layout, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("layout store not initialized")
	}
	cardItemID = strings.TrimSpace(cardItemID)
	if cardItemID == "" {
		return nil, fmt.Errorf("card item id is required")
	}
	layouts, err := (&txStore{db: s.db}).queryLayouts(ctx, listLayoutsByCardQuery, cardItemID)
	return layouts, classifyError(err)
}

func (t *txStore) queryLayouts(ctx context.Context, query string, args ...any) ([]domain.Layout, error) {
	rows, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list layouts: %w", err)
	}
	defer rows.Close()

	layouts := make([]domain.Layout, 0)
	for rows.Next() {
		var (
			l         domain.Layout
			updatedAt string
		)
		if err := rows.Scan(&l.CardItemID, &l.Screen, &l.X, &l.Y, &l.W, &l.H, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan layout: %w", err)
		}
		if l.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		layouts = append(layouts, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list layouts: %w", err)
	}
	return layouts, nil
}
