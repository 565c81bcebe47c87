package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/conorfennell/imagedeck/internal/domain"
	"github.com/conorfennell/imagedeck/internal/interval"
)

const cardColumns = `id, deck_id, front_image, back_image, interval_days, due_at, created_at, last_seen_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(s rowScanner) (domain.Card, error) {
	var (
		c                            domain.Card
		front, back                  []byte
		dueAt, createdAt, lastSeenAt int64
	)
	if err := s.Scan(&c.ID, &c.DeckID, &front, &back, &c.IntervalDays, &dueAt, &createdAt, &lastSeenAt); err != nil {
		return domain.Card{}, err
	}
	c.FrontImage = domain.EncodedImage(front)
	if len(back) > 0 {
		c.BackImage = domain.EncodedImage(back)
	}
	c.DueAt = fromMillis(dueAt)
	c.CreatedAt = fromMillis(createdAt)
	c.LastSeenAt = fromMillis(lastSeenAt)
	return c, nil
}

// AddCards inserts one card per front image. All cards share createdAt = now,
// start with a one day interval and have never been seen.
func (db *DB) AddCards(ctx context.Context, deckID int64, images []domain.EncodedImage, now time.Time) ([]domain.Card, error) {
	created := time.UnixMilli(now.UnixMilli())
	due := interval.ComputeDueAt(created, domain.MinIntervalDays)

	cards := make([]domain.Card, 0, len(images))
	for _, img := range images {
		cards = append(cards, domain.Card{
			DeckID:       deckID,
			FrontImage:   img,
			IntervalDays: domain.MinIntervalDays,
			DueAt:        due,
			CreatedAt:    created,
		})
	}

	err := db.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		// A missing deck is reported before any card is validated.
		if err := deckExists(ctx, tx, "addCards", deckID); err != nil {
			return err
		}
		for i := range cards {
			if err := cards[i].Validate(); err != nil {
				return fmt.Errorf("addCards image %d: %w", i, err)
			}
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO cards (deck_id, front_image, back_image, interval_days, due_at, created_at, last_seen_at)
			VALUES (?, ?, NULL, ?, ?, ?, 0)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i := range cards {
			res, err := stmt.ExecContext(ctx, deckID, []byte(cards[i].FrontImage), cards[i].IntervalDays, cards[i].DueAt.UnixMilli(), created.UnixMilli())
			if err != nil {
				return err
			}
			if cards[i].ID, err = res.LastInsertId(); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, domain.Storage("addCards", "deck", deckID, err)
	}

	db.log.Debug("cards added", "deck_id", deckID, "count", len(cards))
	return cards, nil
}

// AssignBackImages sets the back image of the deck's cards, oldest first.
// Images beyond the card count are discarded and cards beyond the image count
// are left unchanged. It returns the number of cards updated.
func (db *DB) AssignBackImages(ctx context.Context, deckID int64, images []domain.EncodedImage) (int, error) {
	assigned := 0
	err := db.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT id FROM cards
			WHERE deck_id = ?
			ORDER BY created_at ASC, id ASC
		`, deckID)
		if err != nil {
			return err
		}
		var ids []int64
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return err
			}
			ids = append(ids, id)
		}
		if err := rows.Close(); err != nil {
			return err
		}
		if err := rows.Err(); err != nil {
			return err
		}

		n := min(len(ids), len(images))
		for i := 0; i < n; i++ {
			if !images[i].Present() {
				return domain.Validation("assignBackImages", "card", fmt.Sprintf("image %d is empty", i))
			}
			if _, err := tx.ExecContext(ctx, `UPDATE cards SET back_image = ? WHERE id = ?`, []byte(images[i]), ids[i]); err != nil {
				return err
			}
		}
		assigned = n
		return nil
	})
	if err != nil {
		return 0, domain.Storage("assignBackImages", "deck", deckID, err)
	}

	db.log.Debug("back images assigned", "deck_id", deckID, "assigned", assigned, "supplied", len(images))
	return assigned, nil
}

// DeleteCard removes a single card. Deleting an absent card is a no-op.
func (db *DB) DeleteCard(ctx context.Context, cardID int64) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, cardID); err != nil {
		return domain.Storage("deleteCard", "card", cardID, err)
	}
	return nil
}

// GetCard retrieves a card by its id.
func (db *DB) GetCard(ctx context.Context, cardID int64) (domain.Card, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+cardColumns+` FROM cards WHERE id = ?`, cardID)
	c, err := scanCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Card{}, domain.NotFound("getCard", "card", cardID)
	}
	if err != nil {
		return domain.Card{}, domain.Storage("getCard", "card", cardID, err)
	}
	return c, nil
}

// ListCardsByDeck returns the deck's cards, oldest first.
func (db *DB) ListCardsByDeck(ctx context.Context, deckID int64) ([]domain.Card, error) {
	cards, err := db.queryCards(ctx, `
		SELECT `+cardColumns+` FROM cards
		WHERE deck_id = ?
		ORDER BY created_at ASC, id ASC
	`, deckID)
	if err != nil {
		return nil, domain.Storage("listCardsByDeck", "deck", deckID, err)
	}
	return cards, nil
}

// ListAllCards returns every card across all decks, oldest first.
func (db *DB) ListAllCards(ctx context.Context) ([]domain.Card, error) {
	cards, err := db.queryCards(ctx, `
		SELECT `+cardColumns+` FROM cards
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, domain.Storage("listAllCards", "card", 0, err)
	}
	return cards, nil
}

// ListDueCards returns up to limit cards whose due time is at or before now,
// most overdue first. A limit <= 0 returns all of them.
func (db *DB) ListDueCards(ctx context.Context, now time.Time, limit int) ([]domain.Card, error) {
	if limit <= 0 {
		limit = -1
	}
	cards, err := db.queryCards(ctx, `
		SELECT `+cardColumns+` FROM cards
		WHERE due_at <= ?
		ORDER BY due_at ASC, id ASC
		LIMIT ?
	`, now.UnixMilli(), limit)
	if err != nil {
		return nil, domain.Storage("listDueCards", "card", 0, err)
	}
	return cards, nil
}

// CountCards counts the cards of a deck, or of every deck when deckID is 0.
func (db *DB) CountCards(ctx context.Context, deckID int64) (int, error) {
	var (
		n   int
		err error
	)
	if deckID == 0 {
		err = db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM cards`).Scan(&n)
	} else {
		err = db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM cards WHERE deck_id = ?`, deckID).Scan(&n)
	}
	if err != nil {
		return 0, domain.Storage("countCards", "deck", deckID, err)
	}
	return n, nil
}

// RecordReview stores the outcome of a review. lastSeenAt never moves
// backwards. Two concurrent reviews of the same card race and the last write
// wins; the interval and due time are not merged.
func (db *DB) RecordReview(ctx context.Context, cardID int64, now time.Time, intervalDays int, dueAt time.Time) error {
	if intervalDays < domain.MinIntervalDays || intervalDays > domain.MaxIntervalDays {
		return domain.Validation("recordReview", "card", fmt.Sprintf("interval %d out of range", intervalDays))
	}

	res, err := db.conn.ExecContext(ctx, `
		UPDATE cards
		SET last_seen_at = MAX(last_seen_at, ?), interval_days = ?, due_at = ?
		WHERE id = ?
	`, now.UnixMilli(), intervalDays, dueAt.UnixMilli(), cardID)
	if err != nil {
		return domain.Storage("recordReview", "card", cardID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.Storage("recordReview", "card", cardID, err)
	}
	if n == 0 {
		return domain.NotFound("recordReview", "card", cardID)
	}
	return nil
}

func (db *DB) queryCards(ctx context.Context, query string, args ...any) ([]domain.Card, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cards []domain.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card row: %w", err)
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}
