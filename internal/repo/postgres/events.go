package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/eventdeck/eventdeck-go/internal/domain"
)

const (
	insertEventQuery = `INSERT INTO events (event_id, title, created_at, created_by) VALUES ($1,$2,$3,$4)`

	selectEventQuery = `SELECT event_id, title, created_at, created_by
	 FROM events
	 WHERE event_id = $1`

	listEventIDsQuery = `SELECT event_id FROM events ORDER BY created_at ASC, event_id ASC LIMIT $1`
)

func (s *Store) CreateEvent(ctx context.Context, event domain.Event) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("event store not initialized")
	}
	if err := event.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(
		ctx,
		insertEventQuery,
		strings.TrimSpace(event.ID),
		strings.TrimSpace(event.Title),
		normalizeTime(event.CreatedAt),
		strings.TrimSpace(event.CreatedBy),
	)
	if err != nil {
		return classifyError(fmt.Errorf("insert event: %w", err))
	}
	return nil
}

func (s *Store) GetEvent(ctx context.Context, id string) (domain.Event, error) {
	if s == nil || s.db == nil {
		return domain.Event{}, fmt.Errorf("event store not initialized")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Event{}, fmt.Errorf("event id is required")
	}
	var event domain.Event
	err := s.db.QueryRowContext(ctx, selectEventQuery, id).Scan(&event.ID, &event.Title, &event.CreatedAt, &event.CreatedBy)
	if err != nil {
		return domain.Event{}, classifyError(handleNotFound(err))
	}
	return event, nil
}

func (s *Store) ListEventIDs(ctx context.Context, limit int) ([]string, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("event store not initialized")
	}
	if limit <= 0 {
		limit = 1000
	}
	rows, err := s.db.QueryContext(ctx, listEventIDsQuery, limit)
	if err != nil {
		return nil, classifyError(fmt.Errorf("list events: %w", err))
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError(fmt.Errorf("list events: %w", err))
	}
	return ids, nil
}
