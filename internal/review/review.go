// Package review runs review sessions: it draws a queue, tracks the position
// within it and writes each outcome back to the store.
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/conorfennell/imagedeck/internal/domain"
	"github.com/conorfennell/imagedeck/internal/interval"
	"github.com/conorfennell/imagedeck/internal/sampler"
)

// ErrSessionDone is returned when dismissing past the end of the queue.
var ErrSessionDone = errors.New("review session is finished")

// Store is the slice of the record store a review session needs.
type Store interface {
	sampler.CardSource
	CountCards(ctx context.Context, deckID int64) (int, error)
	RecordReview(ctx context.Context, cardID int64, now time.Time, intervalDays int, dueAt time.Time) error
}

// Mode says how a session's queue was built.
type Mode int

const (
	// Random sessions draw from the least recently seen cards.
	Random Mode = iota
	// Sequential sessions walk a deck oldest card first.
	Sequential
)

// Options select the cards of a random session.
type Options struct {
	DeckID int64 // 0 samples across all decks
	Count  int
	All    bool // use the total card count as Count
}

// Session is one pass over a queue. The queue is fixed when the session is
// built; use Service.Reroll to draw a new one.
type Session struct {
	mode  Mode
	opts  Options
	queue []domain.Card
	idx   int
}

// Current returns the card being reviewed, or false once the queue is done.
func (s *Session) Current() (domain.Card, bool) {
	if s.idx >= len(s.queue) {
		return domain.Card{}, false
	}
	return s.queue[s.idx], true
}

// Position returns the 1-based position of the current card and the queue length.
func (s *Session) Position() (int, int) {
	return min(s.idx+1, len(s.queue)), len(s.queue)
}

// Done reports whether every card has been dismissed.
func (s *Session) Done() bool {
	return s.idx >= len(s.queue)
}

// Mode returns how the session was built.
func (s *Session) Mode() Mode {
	return s.mode
}

// Service builds sessions and records their outcomes.
type Service struct {
	store   Store
	sampler *sampler.Sampler
	logger  *slog.Logger
}

// NewService creates a new review service. A nil logger uses slog.Default().
func NewService(store Store, smp *sampler.Sampler, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, sampler: smp, logger: logger}
}

// Start draws a random queue according to opts.
func (s *Service) Start(ctx context.Context, opts Options) (*Session, error) {
	queue, err := s.draw(ctx, opts)
	if err != nil {
		return nil, err
	}
	s.logger.Info("review session started", "deck_id", opts.DeckID, "requested", opts.Count, "all", opts.All, "queued", len(queue))
	return &Session{mode: Random, opts: opts, queue: queue}, nil
}

// Sequential starts a session over every reviewable card of a deck, oldest first.
func (s *Service) Sequential(ctx context.Context, deckID int64) (*Session, error) {
	cards, err := s.store.ListCardsByDeck(ctx, deckID)
	if err != nil {
		return nil, fmt.Errorf("listing deck %d: %w", deckID, err)
	}
	queue := make([]domain.Card, 0, len(cards))
	for _, c := range cards {
		if domain.IsReviewable(c) {
			queue = append(queue, c)
		}
	}
	return &Session{mode: Sequential, opts: Options{DeckID: deckID}, queue: queue}, nil
}

// Reroll replaces the session's queue with a fresh draw and starts over.
func (s *Service) Reroll(ctx context.Context, sess *Session) error {
	var (
		next *Session
		err  error
	)
	if sess.mode == Sequential {
		next, err = s.Sequential(ctx, sess.opts.DeckID)
	} else {
		next, err = s.Start(ctx, sess.opts)
	}
	if err != nil {
		return err
	}
	*sess = *next
	return nil
}

// Dismiss records the outcome for the current card and advances the session.
// A card deleted since the queue was drawn is dropped without error. Any other
// failure leaves the session on the same card.
func (s *Service) Dismiss(ctx context.Context, sess *Session, remembered bool, now time.Time) (domain.Card, error) {
	card, ok := sess.Current()
	if !ok {
		return domain.Card{}, ErrSessionDone
	}

	days := interval.NextInterval(card.IntervalDays, remembered)
	due := interval.ComputeDueAt(now, days)

	err := s.store.RecordReview(ctx, card.ID, now, days, due)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		s.logger.Info("card removed during review, dropping", "card_id", card.ID)
		sess.idx++
		return card, nil
	case err != nil:
		return domain.Card{}, err
	}

	if now.After(card.LastSeenAt) {
		card.LastSeenAt = now
	}
	card.IntervalDays = days
	card.DueAt = due
	sess.queue[sess.idx] = card
	sess.idx++

	s.logger.Debug("card reviewed", "card_id", card.ID, "remembered", remembered, "interval_days", days)
	return card, nil
}

func (s *Service) draw(ctx context.Context, opts Options) ([]domain.Card, error) {
	count := opts.Count
	if opts.All {
		n, err := s.store.CountCards(ctx, opts.DeckID)
		if err != nil {
			return nil, err
		}
		count = max(n, 1)
	}

	if opts.DeckID != 0 {
		return s.sampler.SampleDeck(ctx, opts.DeckID, count)
	}
	return s.sampler.SampleAll(ctx, count)
}
