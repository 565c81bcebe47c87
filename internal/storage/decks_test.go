package storage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/conorfennell/imagedeck/internal/domain"
	"github.com/stretchr/testify/require"
)

func images(names ...string) []domain.EncodedImage {
	out := make([]domain.EncodedImage, len(names))
	for i, n := range names {
		out[i] = domain.EncodedImage(n)
	}
	return out
}

func TestCreateDeck(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	now := time.UnixMilli(1_700_000_000_000)

	deck, err := db.CreateDeck(ctx, "  Bio ", now)
	require.NoError(t, err)
	require.NotZero(t, deck.ID)
	require.Equal(t, "Bio", deck.Name)
	require.Equal(t, now.UnixMilli(), deck.CreatedAt.UnixMilli())

	got, err := db.GetDeck(ctx, deck.ID)
	require.NoError(t, err)
	require.Equal(t, deck.ID, got.ID)
	require.Equal(t, "Bio", got.Name)
	require.True(t, deck.CreatedAt.Equal(got.CreatedAt))
}

func TestCreateDeckRejectsBlankName(t *testing.T) {
	db := NewTestDB(t)

	_, err := db.CreateDeck(context.Background(), "   ", time.Now())
	require.ErrorIs(t, err, domain.ErrValidation)

	decks, err := db.ListDecks(context.Background())
	require.NoError(t, err)
	require.Empty(t, decks)
}

func TestGetDeckNotFound(t *testing.T) {
	db := NewTestDB(t)

	_, err := db.GetDeck(context.Background(), 42)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListDecks(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	base := time.UnixMilli(1_700_000_000_000)

	older, err := db.CreateDeck(ctx, "Older", base)
	require.NoError(t, err)
	newer, err := db.CreateDeck(ctx, "Newer", base.Add(time.Minute))
	require.NoError(t, err)
	_, err = db.AddCards(ctx, older.ID, images("a", "b"), base)
	require.NoError(t, err)

	decks, err := db.ListDecks(ctx)
	require.NoError(t, err)
	require.Len(t, decks, 2)
	require.Equal(t, newer.ID, decks[0].ID)
	require.Equal(t, 0, decks[0].CardCount)
	require.Equal(t, older.ID, decks[1].ID)
	require.Equal(t, 2, decks[1].CardCount)
}

func TestDeleteDeckCascades(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	now := time.Now()

	doomed, err := db.CreateDeck(ctx, "Doomed", now)
	require.NoError(t, err)
	kept, err := db.CreateDeck(ctx, "Kept", now)
	require.NoError(t, err)
	_, err = db.AddCards(ctx, doomed.ID, images("a", "b", "c"), now)
	require.NoError(t, err)
	keptCards, err := db.AddCards(ctx, kept.ID, images("d"), now)
	require.NoError(t, err)

	require.NoError(t, db.DeleteDeck(ctx, doomed.ID))

	cards, err := db.ListCardsByDeck(ctx, doomed.ID)
	require.NoError(t, err)
	require.Empty(t, cards)

	_, err = db.GetDeck(ctx, doomed.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	all, err := db.ListAllCards(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, keptCards[0].ID, all[0].ID)
}

func TestDeleteDeckNotFound(t *testing.T) {
	db := NewTestDB(t)

	err := db.DeleteDeck(context.Background(), 99)
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.NotErrorIs(t, err, domain.ErrStorage)
}

// Readers running alongside the cascade must see the deck with all of its
// cards or neither, never cards without their deck.
func TestDeleteDeckIsAtomicForReaders(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	now := time.Now()

	deck, err := db.CreateDeck(ctx, "Atomic", now)
	require.NoError(t, err)
	_, err = db.AddCards(ctx, deck.ID, images("a", "b", "c", "d", "e"), now)
	require.NoError(t, err)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	var mu sync.Mutex
	var violations []string

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				tx, err := db.conn.BeginTx(ctx, nil)
				if err != nil {
					continue
				}
				var decks, cards int
				errDecks := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM decks WHERE id = ?`, deck.ID).Scan(&decks)
				errCards := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM cards WHERE deck_id = ?`, deck.ID).Scan(&cards)
				tx.Rollback()
				if errDecks != nil || errCards != nil {
					continue
				}
				if !(decks == 1 && cards == 5) && !(decks == 0 && cards == 0) {
					mu.Lock()
					violations = append(violations, "partial state observed")
					mu.Unlock()
				}
			}
		}()
	}

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, db.DeleteDeck(ctx, deck.ID))
	time.Sleep(10 * time.Millisecond)
	close(stop)
	wg.Wait()

	require.Empty(t, violations)
}
