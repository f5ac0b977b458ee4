package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeStatus(t *testing.T) {
	tests := []struct {
		name         string
		handSize     int
		wrongGuesses int
		want         Status
	}{
		{"full hand wins", 6, 0, StatusWon},
		{"full hand wins even at the loss threshold", 6, 3, StatusWon},
		{"three wrong guesses lose", 4, 3, StatusLost},
		{"more than three wrong guesses stay lost", 3, 5, StatusLost},
		{"mid-game stays ongoing", 5, 2, StatusOngoing},
		{"fresh game stays ongoing", 3, 0, StatusOngoing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeStatus(tt.handSize, tt.wrongGuesses))
		})
	}
}

func TestComputeStatusIdempotent(t *testing.T) {
	// Recomputing over the same history yields the same answer.
	for i := 0; i < 3; i++ {
		assert.Equal(t, StatusWon, ComputeStatus(6, 1))
		assert.Equal(t, StatusLost, ComputeStatus(4, 3))
	}
}

func TestTally(t *testing.T) {
	yes, no := true, false
	records := []RoundRecord{
		{RoundID: 0, Card: Card{Misfortune: 10}},
		{RoundID: 0, Card: Card{Misfortune: 50}},
		{RoundID: 0, Card: Card{Misfortune: 90}},
		{RoundID: 1, GuessedCorrectly: &yes, Card: Card{Misfortune: 30}},
		{RoundID: 2, GuessedCorrectly: &no, Card: Card{Misfortune: 70}},
		{RoundID: 3, GuessedCorrectly: &yes, Card: Card{Misfortune: 5}},
		{RoundID: 4, GuessedCorrectly: nil, Card: Card{Misfortune: 60}}, // pending
	}
	p := Tally(records)

	assert.Equal(t, 5, p.HandSize)
	assert.Equal(t, 2, p.CorrectGuesses)
	assert.Equal(t, 1, p.WrongGuesses)
	assert.Equal(t, StatusOngoing, p.Status())
}

func TestTallyWin(t *testing.T) {
	yes := true
	records := []RoundRecord{
		{RoundID: 0, Card: Card{Misfortune: 10}},
		{RoundID: 0, Card: Card{Misfortune: 50}},
		{RoundID: 0, Card: Card{Misfortune: 90}},
		{RoundID: 1, GuessedCorrectly: &yes, Card: Card{Misfortune: 20}},
		{RoundID: 2, GuessedCorrectly: &yes, Card: Card{Misfortune: 60}},
		{RoundID: 3, GuessedCorrectly: &yes, Card: Card{Misfortune: 80}},
	}
	p := Tally(records)

	assert.Equal(t, 6, p.HandSize)
	assert.Equal(t, StatusWon, p.Status())
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusOngoing.Terminal())
	assert.True(t, StatusWon.Terminal())
	assert.True(t, StatusLost.Terminal())
}
