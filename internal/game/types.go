// internal/game/types.go
//
// Core type definitions for the Yikes! game engine.
// Defines:
//   - Card: catalog entry with its hidden misfortune score.
//   - Status: lifecycle of a game (ongoing/won/lost).
//   - Game: one player's game with its progress counters.
//   - RoundRecord: one card dealt into a game, with its guess outcome.

package game

import "time"

// Status is the lifecycle state of a game.
// Transitions are monotonic: once Won or Lost, a game never returns to Ongoing.
type Status string

const (
	StatusOngoing Status = "ongoing"
	StatusWon     Status = "won"
	StatusLost    Status = "lost"
)

// Terminal reports whether no further rounds may be played.
func (s Status) Terminal() bool { return s == StatusWon || s == StatusLost }

// Card is a read-only catalog entry. Misfortune (1–100) is the ordering key
// of the guessing game and stays hidden from clients until a round resolves;
// stripping it is the responsibility of the response-shaping layer.
type Card struct {
	ID         int    `json:"id"`
	Title      string `json:"title"`
	ImageURL   string `json:"imageUrl"`
	Misfortune int    `json:"misfortune"`
}

// Game is one player's game. CorrectGuesses counts resolved rounds with
// RoundID > 0 that were guessed correctly; the initial hand does not count.
type Game struct {
	ID             int       `json:"id"`
	UserID         int       `json:"userId"`
	StartedAt      time.Time `json:"startedAt"`
	CorrectGuesses int       `json:"correctGuesses"`
	Status         Status    `json:"status"`
}

// RoundRecord is one card ever dealt into a game. RoundID 0 marks the three
// initial-hand cards (implicitly correct); RoundID > 0 are sequential rounds.
// GuessedCorrectly is nil while the round is unresolved and is written at
// most once. Card is hydrated from the catalog by the store.
type RoundRecord struct {
	GameID           int       `json:"gameId"`
	CardID           int       `json:"cardId"`
	RoundID          int       `json:"roundId"`
	GuessedCorrectly *bool     `json:"guessedCorrectly"`
	DealtAt          time.Time `json:"dealtAt"`
	Card             Card      `json:"card"`
}

// InHand reports whether the record's card belongs to the current hand:
// initial-hand cards always do, later cards only when guessed correctly.
func (r RoundRecord) InHand() bool {
	return r.RoundID == 0 || (r.GuessedCorrectly != nil && *r.GuessedCorrectly)
}

const (
	// InitialHandSize is the number of cards dealt at game creation (round 0).
	InitialHandSize = 3

	// WinningHandSize ends the game as won once the hand reaches it.
	WinningHandSize = 6

	// MaxWrongGuesses ends the game as lost once this many rounds fail.
	MaxWrongGuesses = 3
)
