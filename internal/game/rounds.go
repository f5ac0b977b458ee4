// internal/game/rounds.go
//
// Round lifecycle coordinator.
// Orchestrates one round of a persisted game: deal a card the game has not
// seen, accept the player's claimed insertion index, evaluate it against the
// hand assembled from the round history, record the outcome exactly once,
// and let the progression machine derive the game's next status.
//
// Identity is passed explicitly into every call; the coordinator trusts no
// ambient session state. Operations for a game another user owns report
// ErrNotFound rather than revealing the game exists.

package game

import (
	"context"
	"time"
)

// GameStore is the persistence the coordinator runs against.
// Implementations must make DealRound's draw-and-insert atomic (one
// transaction) and ResolveRound first-write-wins: a second attempt to set
// the outcome of an already-resolved round returns ErrConflict and changes
// nothing.
type GameStore interface {
	CreateGame(ctx context.Context, userID int, startedAt time.Time) (*Game, []Card, error)
	Game(ctx context.Context, gameID int) (*Game, error)
	GamesByUser(ctx context.Context, userID int) ([]*Game, error)
	Rounds(ctx context.Context, gameID int) ([]RoundRecord, error)
	DealRound(ctx context.Context, gameID, roundID int, dealtAt time.Time) (*Card, error)
	ResolveRound(ctx context.Context, gameID, roundID int, correct bool) error
	SetStatus(ctx context.Context, gameID int, status Status) error
}

// CardSource is the read-only catalog view the demo variant draws from.
type CardSource interface {
	Card(ctx context.Context, id int) (*Card, error)
	Random(ctx context.Context, n int) ([]Card, error)
}

// Coordinator drives rounds for persisted games and for demo sessions.
type Coordinator struct {
	store GameStore
	cards CardSource

	// roundTimeout, when > 0, is the server-side deadline for a round:
	// a guess arriving later than DealtAt+roundTimeout (plus a small grace
	// for network latency) is treated as no guess at all. Zero leaves
	// timing entirely to the client countdown, as the original game did.
	roundTimeout time.Duration

	now func() time.Time // injectable clock for tests
}

// deadlineGrace absorbs client/server clock and transport skew.
const deadlineGrace = 2 * time.Second

// NewCoordinator wires a Coordinator. roundTimeout <= 0 disables the
// server-side deadline.
func NewCoordinator(store GameStore, cards CardSource, roundTimeout time.Duration) *Coordinator {
	return &Coordinator{
		store:        store,
		cards:        cards,
		roundTimeout: roundTimeout,
		now:          time.Now,
	}
}

// CreateGame starts a new game for userID: an ongoing game with zero correct
// guesses and three random catalog cards seeded as round 0. The initial hand
// is returned sorted ascending; its misfortune values are visible to the
// owner.
func (c *Coordinator) CreateGame(ctx context.Context, userID int) (*Game, []Card, error) {
	g, hand, err := c.store.CreateGame(ctx, userID, c.now().UTC())
	if err != nil {
		return nil, nil, err
	}
	SortHand(hand)
	return g, hand, nil
}

// StartRound deals one card the game has never seen and records it as the
// pending round roundNumber. The returned card has its misfortune zeroed;
// the client must not learn the hidden value before guessing.
//
// Fails with:
//   - ErrNotFound if the game does not exist or belongs to someone else.
//   - ErrConflict if the game is already won or lost, or the previous round
//     is still unresolved.
//   - ValidationError if roundNumber is not the next sequential round.
//   - ErrNoCardsAvailable once the catalog is exhausted for this game.
func (c *Coordinator) StartRound(ctx context.Context, userID, gameID, roundNumber int) (*Card, error) {
	g, err := c.ownedGame(ctx, userID, gameID)
	if err != nil {
		return nil, err
	}
	if g.Status.Terminal() {
		return nil, ErrConflict
	}

	records, err := c.store.Rounds(ctx, gameID)
	if err != nil {
		return nil, err
	}
	// The stored status may lag behind history when the caller skipped
	// Advance; derive terminality from the records as well.
	if Tally(records).Status().Terminal() {
		return nil, ErrConflict
	}
	last := 0
	for _, r := range records {
		if r.RoundID > 0 && r.GuessedCorrectly == nil {
			// previous round still awaiting resolution
			return nil, ErrConflict
		}
		if r.RoundID > last {
			last = r.RoundID
		}
	}
	if roundNumber != last+1 {
		return nil, &ValidationError{Field: "roundId", Reason: "rounds must be played in order"}
	}

	card, err := c.store.DealRound(ctx, gameID, roundNumber, c.now().UTC())
	if err != nil {
		return nil, err
	}
	hidden := *card
	hidden.Misfortune = 0
	return &hidden, nil
}

// RoundResult is what a resolved round reports back to the player.
type RoundResult struct {
	Correct bool `json:"correct"`
	// Hand is the updated hand, including the new card when the guess
	// was correct, sorted ascending by misfortune.
	Hand []Card `json:"hand"`
	// GuessedCard is the round's card with its misfortune now revealed.
	GuessedCard Card `json:"guessedCard"`
}

// ResolveRound evaluates the player's claimed index for a pending round and
// records the outcome. claimedIndex nil means no guess was submitted (the
// client countdown ran out) and always resolves as wrong, through the same
// path as a normal resolution.
//
// A round resolves at most once: a second call for the same round returns
// ErrConflict and leaves counters untouched.
func (c *Coordinator) ResolveRound(ctx context.Context, userID, gameID, roundNumber int, claimedIndex *int) (*RoundResult, error) {
	if _, err := c.ownedGame(ctx, userID, gameID); err != nil {
		return nil, err
	}
	if roundNumber <= 0 {
		return nil, &ValidationError{Field: "roundId", Reason: "must be a positive round number"}
	}

	records, err := c.store.Rounds(ctx, gameID)
	if err != nil {
		return nil, err
	}
	var round *RoundRecord
	for i := range records {
		if records[i].RoundID == roundNumber {
			round = &records[i]
			break
		}
	}
	if round == nil {
		return nil, ErrNotFound
	}
	if round.GuessedCorrectly != nil {
		return nil, ErrConflict
	}

	// The pending round is not part of the hand yet.
	hand := AssembleHand(records)
	if err := ValidateClaimedIndex(claimedIndex, len(hand)); err != nil {
		return nil, err
	}

	// Lazy server-side deadline: no background timers, the expiry is
	// checked on the next interaction with the round.
	if c.roundTimeout > 0 && claimedIndex != nil {
		if c.now().Sub(round.DealtAt) > c.roundTimeout+deadlineGrace {
			claimedIndex = nil
		}
	}

	correct := Evaluate(hand, round.Card.Misfortune, claimedIndex)
	if err := c.store.ResolveRound(ctx, gameID, roundNumber, correct); err != nil {
		return nil, err
	}

	if correct {
		hand = append(hand, round.Card)
		SortHand(hand)
	}
	return &RoundResult{Correct: correct, Hand: hand, GuessedCard: round.Card}, nil
}

// Advance recomputes the game's status from its full round history and
// persists it. Idempotent: calling it again without an intervening round
// yields the same status. Monotonic: a game that is already won or lost is
// returned unchanged.
func (c *Coordinator) Advance(ctx context.Context, userID, gameID int) (*Game, error) {
	g, err := c.ownedGame(ctx, userID, gameID)
	if err != nil {
		return nil, err
	}
	if g.Status.Terminal() {
		return g, nil
	}

	records, err := c.store.Rounds(ctx, gameID)
	if err != nil {
		return nil, err
	}
	status := Tally(records).Status()
	if status != g.Status {
		if err := c.store.SetStatus(ctx, gameID, status); err != nil {
			return nil, err
		}
		g.Status = status
	}
	return g, nil
}

// GameHistory is one finished-or-ongoing game enriched with per-round
// detail for display, misfortune values revealed.
type GameHistory struct {
	Game   *Game         `json:"game"`
	Rounds []RoundRecord `json:"rounds"`
}

// History lists all of userID's games, newest first, each with its full
// round detail. Read-only; consumes the same historical view the hand
// assembler does.
func (c *Coordinator) History(ctx context.Context, userID int) ([]GameHistory, error) {
	games, err := c.store.GamesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]GameHistory, 0, len(games))
	for _, g := range games {
		records, err := c.store.Rounds(ctx, g.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, GameHistory{Game: g, Rounds: records})
	}
	return out, nil
}

// Game returns userID's game by id.
func (c *Coordinator) Game(ctx context.Context, userID, gameID int) (*Game, error) {
	return c.ownedGame(ctx, userID, gameID)
}

// GameRounds returns the raw round records of userID's game.
func (c *Coordinator) GameRounds(ctx context.Context, userID, gameID int) ([]RoundRecord, error) {
	if _, err := c.ownedGame(ctx, userID, gameID); err != nil {
		return nil, err
	}
	return c.store.Rounds(ctx, gameID)
}

// ownedGame loads a game and hides it from anyone but its owner.
func (c *Coordinator) ownedGame(ctx context.Context, userID, gameID int) (*Game, error) {
	g, err := c.store.Game(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if g.UserID != userID {
		return nil, ErrNotFound
	}
	return g, nil
}
