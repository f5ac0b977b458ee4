// internal/game/demo.go
//
// Demo-mode variant of the round lifecycle for anonymous visitors.
// Nothing is persisted: the full hand and the candidate card travel through
// the boundary on every call, the evaluation rule is the same one the
// persisted path uses, and the session is over after a single round.
// The client-supplied hand is taken as ground truth; demo mode trades
// anti-cheat guarantees for statelessness.

package game

import "context"

// DemoDeal is the opening state of a demo session: three cards with visible
// misfortune values, plus the guess target. NewCard's misfortune must be
// stripped by the response-shaping layer; it is kept here so the same value
// can be re-fetched from the catalog when the round is revealed.
type DemoDeal struct {
	InitialHand []Card `json:"initialHand"`
	NewCard     Card   `json:"newCard"`
}

// StartDemo draws four random distinct cards: the first three become the
// initial hand (sorted ascending), the fourth is the card to place.
func (c *Coordinator) StartDemo(ctx context.Context) (*DemoDeal, error) {
	cards, err := c.cards.Random(ctx, InitialHandSize+1)
	if err != nil {
		return nil, err
	}
	if len(cards) < InitialHandSize+1 {
		return nil, ErrNoCardsAvailable
	}
	hand := cards[:InitialHandSize]
	SortHand(hand)
	return &DemoDeal{InitialHand: hand, NewCard: cards[InitialHandSize]}, nil
}

// EvaluateDemo runs the single demo round against the client-supplied hand
// and candidate. claimedIndex nil (countdown expired) is always a loss.
// The hand is re-sorted here; clients are not trusted to preserve order.
func (c *Coordinator) EvaluateDemo(hand []Card, candidate Card, claimedIndex *int) (bool, error) {
	if len(hand) != InitialHandSize {
		return false, &ValidationError{Field: "initialHand", Reason: "must contain exactly 3 cards"}
	}
	sorted := make([]Card, len(hand))
	copy(sorted, hand)
	SortHand(sorted)

	if err := ValidateClaimedIndex(claimedIndex, len(sorted)); err != nil {
		return false, err
	}
	return Evaluate(sorted, candidate.Misfortune, claimedIndex), nil
}
