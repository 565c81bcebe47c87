package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	// MinIntervalDays and MaxIntervalDays bound Card.IntervalDays.
	MinIntervalDays = 1
	MaxIntervalDays = 365
)

// Card is a front/back image pair with review metadata.
type Card struct {
	ID         int64
	DeckID     int64        `validate:"required"`
	FrontImage EncodedImage `validate:"required,min=1"`
	BackImage  EncodedImage
	CreatedAt  time.Time
	// LastSeenAt is the zero time for a card that has never been reviewed.
	LastSeenAt   time.Time
	IntervalDays int `validate:"min=1,max=365"`
	DueAt        time.Time
}

// IsReviewable reports whether the card has a front image to show.
func IsReviewable(card Card) bool {
	return card.FrontImage.Present()
}

// Seen reports whether the card has been reviewed at least once.
func (c Card) Seen() bool {
	return !c.LastSeenAt.IsZero()
}

// Validate checks the card's field invariants.
func (c Card) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s fails %q", fe.Field(), fe.Tag()))
			}
			return Validation("validateCard", "card", strings.Join(msgs, ", "))
		}
		return err
	}
	return nil
}
