package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/conorfennell/imagedeck/internal/domain"
)

// CreateDeck validates name and inserts a new deck created at now.
func (db *DB) CreateDeck(ctx context.Context, name string, now time.Time) (domain.Deck, error) {
	trimmed, err := domain.ValidateDeckName(name)
	if err != nil {
		return domain.Deck{}, err
	}

	created := time.UnixMilli(now.UnixMilli())
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO decks (name, created_at)
		VALUES (?, ?)
	`, trimmed, created.UnixMilli())
	if err != nil {
		return domain.Deck{}, domain.Storage("createDeck", "deck", 0, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Deck{}, domain.Storage("createDeck", "deck", 0, err)
	}

	db.log.Debug("deck created", "deck_id", id, "name", trimmed)
	return domain.Deck{ID: id, Name: trimmed, CreatedAt: created}, nil
}

// GetDeck retrieves a deck by its id.
func (db *DB) GetDeck(ctx context.Context, id int64) (domain.Deck, error) {
	var (
		d         domain.Deck
		createdAt int64
	)
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, name, created_at
		FROM decks WHERE id = ?
	`, id).Scan(&d.ID, &d.Name, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Deck{}, domain.NotFound("getDeck", "deck", id)
	}
	if err != nil {
		return domain.Deck{}, domain.Storage("getDeck", "deck", id, err)
	}
	d.CreatedAt = fromMillis(createdAt)
	return d, nil
}

// ListDecks returns every deck, newest first, with its card count.
func (db *DB) ListDecks(ctx context.Context) ([]domain.DeckSummary, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT d.id, d.name, d.created_at, COUNT(c.id)
		FROM decks d
		LEFT JOIN cards c ON c.deck_id = d.id
		GROUP BY d.id, d.name, d.created_at
		ORDER BY d.created_at DESC, d.id DESC
	`)
	if err != nil {
		return nil, domain.Storage("listDecks", "deck", 0, err)
	}
	defer rows.Close()

	var decks []domain.DeckSummary
	for rows.Next() {
		var (
			s         domain.DeckSummary
			createdAt int64
		)
		if err := rows.Scan(&s.ID, &s.Name, &createdAt, &s.CardCount); err != nil {
			return nil, domain.Storage("listDecks", "deck", 0, err)
		}
		s.CreatedAt = fromMillis(createdAt)
		decks = append(decks, s)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Storage("listDecks", "deck", 0, err)
	}
	return decks, nil
}

// DeleteDeck removes a deck and all of its cards in one transaction.
// Concurrent readers observe either the deck with its cards or neither.
func (db *DB) DeleteDeck(ctx context.Context, deckID int64) error {
	var removed int64
	err := db.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := deckExists(ctx, tx, "deleteDeck", deckID); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM cards WHERE deck_id = ?`, deckID)
		if err != nil {
			return err
		}
		if removed, err = res.RowsAffected(); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM decks WHERE id = ?`, deckID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return domain.Storage("deleteDeck", "deck", deckID, err)
	}

	db.log.Debug("deck deleted", "deck_id", deckID, "cards_removed", removed)
	return nil
}

func deckExists(ctx context.Context, tx *sql.Tx, op string, deckID int64) error {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM decks WHERE id = ?`, deckID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFound(op, "deck", deckID)
	}
	return err
}
