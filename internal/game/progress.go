// internal/game/progress.go
//
// Game progression state machine.
// Status is always recomputed from the full round history rather than
// accumulated incrementally; repeated recomputation over the same records
// yields the same answer, which keeps Advance idempotent and tolerant of
// out-of-order recomputation.

package game

// ComputeStatus derives a game's status from its current hand size (initial
// cards included) and the number of wrong guesses across rounds with
// RoundID > 0. A full hand wins before the loss rule is considered.
func ComputeStatus(handSize, wrongGuesses int) Status {
	if handSize >= WinningHandSize {
		return StatusWon
	}
	if wrongGuesses >= MaxWrongGuesses {
		return StatusLost
	}
	return StatusOngoing
}

// Progress is the history-derived view of a game that the state machine and
// the counters are recomputed from.
type Progress struct {
	HandSize       int
	CorrectGuesses int // rounds with RoundID > 0 guessed correctly
	WrongGuesses   int // rounds with RoundID > 0 guessed wrong (timeouts included)
}

// Tally walks a game's round records and counts hand size, correct guesses,
// and wrong guesses. Unresolved rounds count toward nothing.
func Tally(records []RoundRecord) Progress {
	var p Progress
	for _, r := range records {
		if r.InHand() {
			p.HandSize++
		}
		if r.RoundID == 0 || r.GuessedCorrectly == nil {
			continue
		}
		if *r.GuessedCorrectly {
			p.CorrectGuesses++
		} else {
			p.WrongGuesses++
		}
	}
	return p
}

// Status derives the game status for this progress snapshot.
func (p Progress) Status() Status {
	return ComputeStatus(p.HandSize, p.WrongGuesses)
}
