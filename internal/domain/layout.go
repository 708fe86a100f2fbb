package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const MaxScreenLength = 32

// LayoutKey identifies the positional record of a card for one screen variant.
type LayoutKey struct {
	CardItemID string
	Screen     string
}

func (k LayoutKey) String() string {
	return k.CardItemID + "/" + k.Screen
}

// Layout is the grid placement of a card for a screen variant. Coordinates
// are not bounds-checked.
type Layout struct {
	CardItemID string
	Screen     string
	X          int
	Y          int
	W          int
	H          int
	UpdatedAt  time.Time
}

func (l Layout) Key() LayoutKey {
	return LayoutKey{CardItemID: l.CardItemID, Screen: l.Screen}
}

func (l Layout) Validate() error {
	if strings.TrimSpace(l.CardItemID) == "" {
		return errors.New("card item id is required")
	}
	screen := strings.TrimSpace(l.Screen)
	if screen == "" {
		return errors.New("screen is required")
	}
	if len(screen) > MaxScreenLength {
		return fmt.Errorf("screen must be at most %d characters", MaxScreenLength)
	}
	return nil
}

// NormalizeLayouts trims keys and collapses duplicate keys so that the last
// entry for a key wins while the key keeps the position of its first
// occurrence.
func NormalizeLayouts(in []Layout) []Layout {
	out := make([]Layout, 0, len(in))
	index := make(map[LayoutKey]int, len(in))
	for _, layout := range in {
		layout.CardItemID = strings.TrimSpace(layout.CardItemID)
		layout.Screen = strings.TrimSpace(layout.Screen)
		key := layout.Key()
		if i, ok := index[key]; ok {
			out[i] = layout
			continue
		}
		index[key] = len(out)
		out = append(out, layout)
	}
	return out
}
