// Package seed loads YAML board fixtures and applies them through the card
// and layout services, so seeded data obeys the same rank invariants as
// API traffic.
package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/eventdeck/eventdeck-go/internal/domain"
	"github.com/eventdeck/eventdeck-go/internal/service/cards"
	"github.com/eventdeck/eventdeck-go/internal/service/layouts"
	"gopkg.in/yaml.v3"
)

const SchemaV1 = "eventdeck.seed.v1"

const DefaultCreatedBy = "seed"

type Fixtures struct {
	Schema string  `yaml:"schema"`
	Events []Event `yaml:"events"`
}

type Event struct {
	Title     string   `yaml:"title"`
	CreatedBy string   `yaml:"created_by,omitempty"`
	Cards     int      `yaml:"cards"`
	Layouts   []Layout `yaml:"layouts,omitempty"`
}

// Layout places the card at position Card (zero-based, in creation order).
type Layout struct {
	Card   int    `yaml:"card"`
	Screen string `yaml:"screen"`
	X      int    `yaml:"x"`
	Y      int    `yaml:"y"`
	W      int    `yaml:"w"`
	H      int    `yaml:"h"`
}

func Parse(input []byte) (Fixtures, error) {
	var fixtures Fixtures
	dec := yaml.NewDecoder(bytes.NewReader(input))
	dec.KnownFields(true)
	if err := dec.Decode(&fixtures); err != nil {
		return Fixtures{}, fmt.Errorf("decode fixtures: %w", err)
	}
	if err := fixtures.Validate(); err != nil {
		return Fixtures{}, err
	}
	return fixtures, nil
}

func Load(path string) (Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fixtures{}, fmt.Errorf("read fixtures: %w", err)
	}
	return Parse(data)
}

func (f Fixtures) Validate() error {
	if strings.TrimSpace(f.Schema) != SchemaV1 {
		return fmt.Errorf("schema must be %q", SchemaV1)
	}
	if len(f.Events) == 0 {
		return errors.New("events must be non-empty")
	}
	for i, event := range f.Events {
		if strings.TrimSpace(event.Title) == "" {
			return fmt.Errorf("events[%d].title is required", i)
		}
		if event.Cards < 0 {
			return fmt.Errorf("events[%d].cards must be >= 0", i)
		}
		for j, layout := range event.Layouts {
			if layout.Card < 0 || layout.Card >= event.Cards {
				return fmt.Errorf("events[%d].layouts[%d].card %d outside [0, %d)", i, j, layout.Card, event.Cards)
			}
			if strings.TrimSpace(layout.Screen) == "" {
				return fmt.Errorf("events[%d].layouts[%d].screen is required", i, j)
			}
			if len(strings.TrimSpace(layout.Screen)) > domain.MaxScreenLength {
				return fmt.Errorf("events[%d].layouts[%d].screen must be at most %d characters", i, j, domain.MaxScreenLength)
			}
		}
	}
	return nil
}

// Seeded is one applied fixture event.
type Seeded struct {
	Event   domain.Event
	Cards   []domain.Card
	Layouts []domain.Layout
}

// Apply creates every fixture event in order. It is not transactional
// across events: on error the events already seeded are returned with it.
func Apply(ctx context.Context, cardSvc *cards.Service, layoutSvc *layouts.Service, fixtures Fixtures) ([]Seeded, error) {
	if cardSvc == nil || layoutSvc == nil {
		return nil, errors.New("seed: services are required")
	}
	if err := fixtures.Validate(); err != nil {
		return nil, err
	}

	out := make([]Seeded, 0, len(fixtures.Events))
	for i, fixture := range fixtures.Events {
		seeded, err := applyEvent(ctx, cardSvc, layoutSvc, fixture)
		if err != nil {
			return out, fmt.Errorf("events[%d]: %w", i, err)
		}
		out = append(out, seeded)
	}
	return out, nil
}

func applyEvent(ctx context.Context, cardSvc *cards.Service, layoutSvc *layouts.Service, fixture Event) (Seeded, error) {
	createdBy := strings.TrimSpace(fixture.CreatedBy)
	if createdBy == "" {
		createdBy = DefaultCreatedBy
	}
	event, err := cardSvc.CreateEvent(ctx, fixture.Title, createdBy)
	if err != nil {
		return Seeded{}, fmt.Errorf("create event: %w", err)
	}

	seeded := Seeded{Event: event, Cards: make([]domain.Card, 0, fixture.Cards)}
	for range fixture.Cards {
		card, err := cardSvc.Create(ctx, event.ID)
		if err != nil {
			return seeded, fmt.Errorf("create card: %w", err)
		}
		seeded.Cards = append(seeded.Cards, card)
	}

	if len(fixture.Layouts) == 0 {
		return seeded, nil
	}
	entries := make([]domain.Layout, 0, len(fixture.Layouts))
	for _, layout := range fixture.Layouts {
		entries = append(entries, domain.Layout{
			CardItemID: seeded.Cards[layout.Card].ID,
			Screen:     layout.Screen,
			X:          layout.X,
			Y:          layout.Y,
			W:          layout.W,
			H:          layout.H,
		})
	}
	seeded.Layouts, err = layoutSvc.Set(ctx, entries)
	if err != nil {
		return seeded, fmt.Errorf("set layouts: %w", err)
	}
	return seeded, nil
}
