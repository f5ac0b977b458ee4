// internal/store/store.go
//
// SQLite persistence for games and their round records.
// Implements game.GameStore. Two properties the coordinator relies on are
// enforced here, at the persistence layer:
//
//   - Dealing a card is check-then-insert inside a single transaction, so a
//     game can never be dealt a card it has already seen, even under
//     concurrent round starts (the game_cards primary key backstops this).
//   - Resolving a round is first-write-wins: the outcome column is only
//     written while it is still NULL. A second resolution attempt reports
//     game.ErrConflict and changes nothing, including the counters.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/yikes-game/go-server/internal/game"
)

// Store is the sqlite-backed persistence layer.
type Store struct {
	db *sql.DB
}

// New wraps an opened database handle.
func New(db *sql.DB) *Store { return &Store{db: db} }

// CreateGame inserts an ongoing game for userID and seeds its initial hand:
// three random catalog cards recorded as round 0. One transaction.
func (s *Store) CreateGame(ctx context.Context, userID int, startedAt time.Time) (*game.Game, []game.Card, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO games (user_id, started_at) VALUES (?, ?)`,
		userID, startedAt.Format(time.RFC3339))
	if err != nil {
		return nil, nil, fmt.Errorf("insert game: %w", err)
	}
	id64, err := res.LastInsertId()
	if err != nil {
		return nil, nil, err
	}
	gameID := int(id64)

	hand, err := drawUnused(ctx, tx, gameID, game.InitialHandSize)
	if err != nil {
		return nil, nil, err
	}
	if len(hand) < game.InitialHandSize {
		return nil, nil, fmt.Errorf("catalog too small for an initial hand: %w", game.ErrNoCardsAvailable)
	}
	for _, c := range hand {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO game_cards (game_id, card_id, round_id, dealt_at) VALUES (?, ?, 0, ?)`,
			gameID, c.ID, startedAt.Format(time.RFC3339)); err != nil {
			return nil, nil, fmt.Errorf("seed initial hand: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}

	g := &game.Game{
		ID:        gameID,
		UserID:    userID,
		StartedAt: startedAt,
		Status:    game.StatusOngoing,
	}
	return g, hand, nil
}

// Game loads a game by id.
func (s *Store) Game(ctx context.Context, gameID int) (*game.Game, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, started_at, correct_guesses, status FROM games WHERE id=?`, gameID)
	return scanGame(row)
}

// GamesByUser lists a user's games, newest first.
func (s *Store) GamesByUser(ctx context.Context, userID int) ([]*game.Game, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, started_at, correct_guesses, status
		 FROM games WHERE user_id=? ORDER BY started_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*game.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Rounds returns every round record of a game, cards hydrated, ordered by
// round then by misfortune within the initial hand.
func (s *Store) Rounds(ctx context.Context, gameID int) ([]game.RoundRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT gc.game_id, gc.card_id, gc.round_id, gc.guessed_correctly, gc.dealt_at,
		        c.id, c.title, c.image_url, c.misfortune
		 FROM game_cards gc
		 JOIN cards c ON c.id = gc.card_id
		 WHERE gc.game_id=?
		 ORDER BY gc.round_id ASC, c.misfortune ASC`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []game.RoundRecord
	for rows.Next() {
		var (
			r       game.RoundRecord
			guessed sql.NullBool
			dealt   string
		)
		if err := rows.Scan(&r.GameID, &r.CardID, &r.RoundID, &guessed, &dealt,
			&r.Card.ID, &r.Card.Title, &r.Card.ImageURL, &r.Card.Misfortune); err != nil {
			return nil, err
		}
		if guessed.Valid {
			v := guessed.Bool
			r.GuessedCorrectly = &v
		}
		r.DealtAt, _ = time.Parse(time.RFC3339, dealt)
		out = append(out, r)
	}
	return out, rows.Err()
}

// DealRound draws one card the game has never seen, uniformly at random,
// and records it as the pending round roundID. Draw and insert share one
// transaction so concurrent starts cannot deal a duplicate.
func (s *Store) DealRound(ctx context.Context, gameID, roundID int, dealtAt time.Time) (*game.Card, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	cards, err := drawUnused(ctx, tx, gameID, 1)
	if err != nil {
		return nil, err
	}
	if len(cards) == 0 {
		return nil, game.ErrNoCardsAvailable
	}
	card := cards[0]

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO game_cards (game_id, card_id, round_id, dealt_at) VALUES (?, ?, ?, ?)`,
		gameID, card.ID, roundID, dealtAt.Format(time.RFC3339)); err != nil {
		return nil, fmt.Errorf("record round: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &card, nil
}

// ResolveRound writes a round's outcome exactly once and recomputes the
// game's correct-guess counter from history inside the same transaction.
// Returns game.ErrConflict if the round was already resolved and
// game.ErrNotFound if it was never dealt.
func (s *Store) ResolveRound(ctx context.Context, gameID, roundID int, correct bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE game_cards SET guessed_correctly=?
		 WHERE game_id=? AND round_id=? AND round_id > 0 AND guessed_correctly IS NULL`,
		correct, gameID, roundID)
	if err != nil {
		return fmt.Errorf("resolve round: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var cnt int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM game_cards WHERE game_id=? AND round_id=? AND round_id > 0`,
			gameID, roundID).Scan(&cnt); err != nil {
			return err
		}
		if cnt == 0 {
			return game.ErrNotFound
		}
		return game.ErrConflict
	}

	// Recompute rather than increment: idempotent under recomputation and
	// immune to drift.
	if _, err := tx.ExecContext(ctx,
		`UPDATE games SET correct_guesses =
		   (SELECT COUNT(1) FROM game_cards
		    WHERE game_id=? AND round_id > 0 AND guessed_correctly = 1)
		 WHERE id=?`, gameID, gameID); err != nil {
		return fmt.Errorf("recount correct guesses: %w", err)
	}
	return tx.Commit()
}

// SetStatus persists a recomputed game status.
func (s *Store) SetStatus(ctx context.Context, gameID int, status game.Status) error {
	res, err := s.db.ExecContext(ctx, `UPDATE games SET status=? WHERE id=?`, string(status), gameID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return game.ErrNotFound
	}
	return err
}

// drawUnused selects up to n random catalog cards not yet dealt into gameID.
func drawUnused(ctx context.Context, tx *sql.Tx, gameID, n int) ([]game.Card, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT id, title, image_url, misfortune FROM cards
		 WHERE id NOT IN (SELECT card_id FROM game_cards WHERE game_id=?)
		 ORDER BY RANDOM() LIMIT ?`, gameID, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []game.Card
	for rows.Next() {
		var c game.Card
		if err := rows.Scan(&c.ID, &c.Title, &c.ImageURL, &c.Misfortune); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// scanGame converts a row into a game.Game; sql.ErrNoRows becomes
// game.ErrNotFound.
func scanGame(row interface{ Scan(...any) error }) (*game.Game, error) {
	var (
		g       game.Game
		started string
		status  string
	)
	if err := row.Scan(&g.ID, &g.UserID, &started, &g.CorrectGuesses, &status); err != nil {
		if err == sql.ErrNoRows {
			return nil, game.ErrNotFound
		}
		return nil, err
	}
	g.StartedAt, _ = time.Parse(time.RFC3339, started)
	g.Status = game.Status(status)
	return &g, nil
}
