// Package sampler builds randomized review queues biased toward the cards
// that have gone longest without being seen.
package sampler

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/conorfennell/imagedeck/internal/domain"
)

// minPool is the smallest pool drawn from, however few cards are requested.
const minPool = 20

// poolFactor scales the requested count into the pool size.
const poolFactor = 4

// CardSource provides read-only snapshots of stored cards.
type CardSource interface {
	ListCardsByDeck(ctx context.Context, deckID int64) ([]domain.Card, error)
	ListAllCards(ctx context.Context) ([]domain.Card, error)
}

// Sampler draws review queues from a CardSource.
type Sampler struct {
	src CardSource
	rng *rand.Rand
}

// New returns a Sampler with a randomly seeded generator.
func New(src CardSource) *Sampler {
	return NewWithRand(src, rand.New(rand.NewPCG(rand.Uint64(), uint64(time.Now().UnixNano()))))
}

// NewWithRand returns a Sampler using rng. A Sampler is not safe for
// concurrent use because rng is not.
func NewWithRand(src CardSource, rng *rand.Rand) *Sampler {
	return &Sampler{src: src, rng: rng}
}

// SampleDeck returns a queue of up to count cards from one deck.
func (s *Sampler) SampleDeck(ctx context.Context, deckID int64, count int) ([]domain.Card, error) {
	cards, err := s.src.ListCardsByDeck(ctx, deckID)
	if err != nil {
		return nil, fmt.Errorf("sampling deck %d: %w", deckID, err)
	}
	return s.Sample(cards, count), nil
}

// SampleAll returns a queue of up to count cards from every deck.
func (s *Sampler) SampleAll(ctx context.Context, count int) ([]domain.Card, error) {
	cards, err := s.src.ListAllCards(ctx)
	if err != nil {
		return nil, fmt.Errorf("sampling all decks: %w", err)
	}
	return s.Sample(cards, count), nil
}

// Sample builds a queue from candidates. Candidates are ordered by how long
// ago they were last seen (never-seen first); the poolSize oldest are
// shuffled and the first count of them form the queue. count is clamped to
// at least 1. candidates is not modified.
func (s *Sampler) Sample(candidates []domain.Card, count int) []domain.Card {
	count = max(count, 1)

	pool := make([]domain.Card, 0, len(candidates))
	for _, c := range candidates {
		if domain.IsReviewable(c) {
			pool = append(pool, c)
		}
	}
	if len(pool) == 0 {
		return []domain.Card{}
	}

	slices.SortStableFunc(pool, func(a, b domain.Card) int {
		return a.LastSeenAt.Compare(b.LastSeenAt)
	})

	pool = pool[:PoolSize(len(pool), count)]
	s.rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	return slices.Clip(pool[:min(count, len(pool))])
}

// PoolSize is the number of least recently seen cards a queue of count cards
// is drawn from, out of n candidates.
func PoolSize(n, count int) int {
	count = max(count, 1)
	// count >= n covers every count large enough to overflow count*poolFactor.
	if count >= n {
		return n
	}
	return min(n, max(count*poolFactor, minPool))
}
