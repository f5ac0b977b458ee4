// internal/game/evaluate.go
//
// Guess evaluation for a single round.
// The evaluator is a pure function shared verbatim by the persisted-game
// path and the stateless demo path: given the current hand (sorted ascending
// by misfortune), the candidate card's true misfortune, and the index the
// player claims it belongs at, decide whether the claim is correct.

package game

import (
	"fmt"
	"sort"
)

// Evaluate reports whether inserting a card with candidateMisfortune at
// claimedIndex keeps the hand sorted.
//
// Rules:
//   - claimedIndex nil (timeout, no guess submitted) is always wrong;
//     no comparison is performed.
//   - Otherwise the candidate must satisfy
//     hand[i-1].Misfortune ≤ candidate ≤ hand[i].Misfortune,
//     with -∞/+∞ at the ends. Ties with either neighbor count as correct.
//
// hand must already be sorted ascending and claimedIndex, when non-nil,
// must be within [0, len(hand)]; see ValidateClaimedIndex.
func Evaluate(hand []Card, candidateMisfortune int, claimedIndex *int) bool {
	if claimedIndex == nil {
		return false
	}
	i := *claimedIndex
	if i > 0 && hand[i-1].Misfortune > candidateMisfortune {
		return false
	}
	if i < len(hand) && hand[i].Misfortune < candidateMisfortune {
		return false
	}
	return true
}

// ValidateClaimedIndex rejects an out-of-range index before it can reach
// Evaluate. A nil index is valid input: it means no guess was submitted.
// Out-of-range indices are a caller contract violation and are never clamped.
func ValidateClaimedIndex(claimedIndex *int, handSize int) error {
	if claimedIndex == nil {
		return nil
	}
	if i := *claimedIndex; i < 0 || i > handSize {
		return &ValidationError{
			Field:  "index",
			Reason: fmt.Sprintf("must be between 0 and %d, got %d", handSize, i),
		}
	}
	return nil
}

// AssembleHand builds the current hand from a game's round history:
// records from the initial deal plus every correctly guessed card,
// sorted ascending by misfortune.
func AssembleHand(records []RoundRecord) []Card {
	hand := make([]Card, 0, len(records))
	for _, r := range records {
		if r.InHand() {
			hand = append(hand, r.Card)
		}
	}
	SortHand(hand)
	return hand
}

// SortHand orders cards ascending by misfortune in place.
func SortHand(cards []Card) {
	sort.Slice(cards, func(i, j int) bool { return cards[i].Misfortune < cards[j].Misfortune })
}
