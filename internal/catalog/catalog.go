// internal/catalog/catalog.go
//
// Card catalog: the read-only reference deck the whole game draws from.
//
// Cards live in the cards table; a default deck ships embedded in
// cards.json and is inserted idempotently at startup, so the server runs
// with a playable deck even when nobody has loaded a custom one.
// Misfortune values are distinct across the deck, which keeps the sorted
// hand free of ambiguous orderings (ties with a neighbor still count as a
// correct guess either way).

package catalog

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/yikes-game/go-server/internal/game"
)

//go:embed cards.json
var embeddedDeck []byte

// Catalog is the sqlite-backed card lookup. It implements game.CardSource.
type Catalog struct {
	db *sql.DB
}

// New wraps an opened database handle.
func New(db *sql.DB) *Catalog { return &Catalog{db: db} }

// Card returns a catalog entry by id, misfortune included.
// The caller decides whether the client may see the hidden value.
func (c *Catalog) Card(ctx context.Context, id int) (*game.Card, error) {
	var card game.Card
	err := c.db.QueryRowContext(ctx,
		`SELECT id, title, image_url, misfortune FROM cards WHERE id=?`, id).
		Scan(&card.ID, &card.Title, &card.ImageURL, &card.Misfortune)
	if err == sql.ErrNoRows {
		return nil, game.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &card, nil
}

// Random draws n distinct cards uniformly at random from the whole deck.
// Used by demo mode, which keeps no exclusion history.
func (c *Catalog) Random(ctx context.Context, n int) ([]game.Card, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, title, image_url, misfortune FROM cards ORDER BY RANDOM() LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []game.Card
	for rows.Next() {
		var card game.Card
		if err := rows.Scan(&card.ID, &card.Title, &card.ImageURL, &card.Misfortune); err != nil {
			return nil, err
		}
		out = append(out, card)
	}
	return out, rows.Err()
}

// Count reports the deck size.
func (c *Catalog) Count(ctx context.Context) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM cards`).Scan(&n)
	return n, err
}

// seedCard is the embedded deck's JSON shape.
type seedCard struct {
	Title      string `json:"title"`
	ImageURL   string `json:"imageUrl"`
	Misfortune int    `json:"misfortune"`
}

// Seed loads the embedded deck into the cards table. Idempotent: existing
// titles are left alone, so a customized deck survives restarts.
func (c *Catalog) Seed(ctx context.Context) error {
	var deck []seedCard
	if err := json.Unmarshal(embeddedDeck, &deck); err != nil {
		return fmt.Errorf("parse embedded deck: %w", err)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	inserted := 0
	for _, sc := range deck {
		res, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO cards (title, image_url, misfortune) VALUES (?, ?, ?)`,
			sc.Title, sc.ImageURL, sc.Misfortune)
		if err != nil {
			return fmt.Errorf("seed card %q: %w", sc.Title, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	if inserted > 0 {
		log.Info().Int("cards", inserted).Msg("seeded card catalog")
	}
	return nil
}
