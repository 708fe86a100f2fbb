package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Card is a member of an event's ordered collection. Rank is dense and
// zero-based within EventID.
type Card struct {
	ID        string
	EventID   string
	Rank      int
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c Card) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return errors.New("card id is required")
	}
	if strings.TrimSpace(c.EventID) == "" {
		return errors.New("event id is required")
	}
	if c.Rank < 0 {
		return fmt.Errorf("rank must be >= 0 (got %d)", c.Rank)
	}
	return nil
}

// RankViolation describes a position where a collection breaks the
// {0..n-1} rank sequence.
type RankViolation struct {
	Position int
	CardID   string
	Rank     int
}

// CheckDenseRanks reports every card whose rank does not equal its position
// once the cards are ordered by rank. Input must already be sorted by rank.
func CheckDenseRanks(cards []Card) []RankViolation {
	var out []RankViolation
	for i, card := range cards {
		if card.Rank != i {
			out = append(out, RankViolation{Position: i, CardID: card.ID, Rank: card.Rank})
		}
	}
	return out
}
