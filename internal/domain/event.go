package domain

import (
	"errors"
	"strings"
	"time"
)

// Event owns an ordered collection of cards.
type Event struct {
	ID        string
	Title     string
	CreatedAt time.Time
	CreatedBy string
}

func (e Event) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return errors.New("event id is required")
	}
	if strings.TrimSpace(e.Title) == "" {
		return errors.New("event title is required")
	}
	return nil
}
