package domain

import (
	"strings"
	"time"
)

// Deck is a named collection of cards.
type Deck struct {
	ID        int64
	Name      string `validate:"required"`
	CreatedAt time.Time
}

// DeckSummary is a deck together with the number of cards it holds.
type DeckSummary struct {
	Deck
	CardCount int
}

// ValidateDeckName trims name and rejects it if nothing is left.
func ValidateDeckName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if err := validate.Var(trimmed, "required"); err != nil {
		return "", Validation("validateDeckName", "deck", "name must not be empty")
	}
	return trimmed, nil
}
