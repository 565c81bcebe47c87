package mocks

import (
	"context"
	"time"

	"github.com/conorfennell/imagedeck/internal/domain"
	"github.com/stretchr/testify/mock"
)

// Store is a mock for review.Store.
type Store struct {
	mock.Mock
}

func (m *Store) ListCardsByDeck(ctx context.Context, deckID int64) ([]domain.Card, error) {
	args := m.Called(ctx, deckID)
	if cards, ok := args.Get(0).([]domain.Card); ok {
		return cards, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Store) ListAllCards(ctx context.Context) ([]domain.Card, error) {
	args := m.Called(ctx)
	if cards, ok := args.Get(0).([]domain.Card); ok {
		return cards, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Store) CountCards(ctx context.Context, deckID int64) (int, error) {
	args := m.Called(ctx, deckID)
	return args.Int(0), args.Error(1)
}

func (m *Store) RecordReview(ctx context.Context, cardID int64, now time.Time, intervalDays int, dueAt time.Time) error {
	args := m.Called(ctx, cardID, now, intervalDays, dueAt)
	return args.Error(0)
}
