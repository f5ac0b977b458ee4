// internal/game/errors.go
//
// Error taxonomy shared by the engine, the store, and the HTTP layer.
// Callers never retry internally: every failure is terminal for that call.

package game

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound marks a missing game, round, or card.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks an attempt to resolve an already-resolved round,
	// start a round out of order, or play a finished game. The caller must
	// re-fetch state rather than retry the same operation.
	ErrConflict = errors.New("conflict")

	// ErrNoCardsAvailable is returned by a round start once every catalog
	// card has been dealt into the game.
	ErrNoCardsAvailable = errors.New("no more cards available")
)

// ValidationError marks malformed input, rejected before any evaluation or
// persistence takes place. Client-correctable.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
