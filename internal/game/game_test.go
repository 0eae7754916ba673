package game

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tictactoe/internal/board"
	"tictactoe/internal/core"
)

const (
	alice = "player-alice"
	bob   = "player-bob"
)

var seats = NewSeats(alice, bob)

// play builds a log where X and O alternate, starting with X
func play(positions ...int) []Move {
	log := make([]Move, 0, len(positions))
	for i, p := range positions {
		player := alice
		if i%2 == 1 {
			player = bob
		}
		log = append(log, Move{Number: i + 1, PlayerID: player, Position: p})
	}
	return log
}

func TestReconstructEmptyLog(t *testing.T) {
	state := Reconstruct(nil, seats)

	assert.Equal(t, [core.BoardSize]core.Symbol{}, state.Board)
	assert.Equal(t, core.X, state.CurrentPlayer)
	assert.Equal(t, core.Empty, state.Winner)
	assert.Nil(t, state.CooldownSpot)
	assert.NotNil(t, state.Moves.X)
	assert.NotNil(t, state.Moves.O)

	data, err := json.Marshal(state)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"board":[null,null,null,null,null,null,null,null,null],
		"currentPlayer":"X","winner":null,"cooldownSpot":null,
		"moves":{"X":[],"O":[]}}`, string(data))
}

func TestReconstructThreeMarksNoEviction(t *testing.T) {
	state := Reconstruct(play(0, 1, 2, 4, 6), seats)

	b := board.Board(state.Board)
	for _, p := range []int{0, 2, 6} {
		assert.Equal(t, core.X, b[p])
	}
	assert.Equal(t, 3, b.Count(core.X))
	assert.Equal(t, 2, b.Count(core.O))
	assert.Equal(t, core.Empty, state.Winner)
	assert.Nil(t, state.CooldownSpot)
	assert.Equal(t, core.O, state.CurrentPlayer)
}

func TestReconstructFourthMarkEvictsOldest(t *testing.T) {
	state := Reconstruct(play(0, 1, 2, 4, 6, 3, 8), seats)

	b := board.Board(state.Board)
	assert.Equal(t, core.Empty, b[0])
	for _, p := range []int{2, 6, 8} {
		assert.Equal(t, core.X, b[p])
	}
	require.NotNil(t, state.CooldownSpot)
	assert.Equal(t, 0, *state.CooldownSpot)
	assert.Equal(t, core.O, state.CurrentPlayer)
	assert.Equal(t, core.Empty, state.Winner)

	assert.Equal(t, []core.MoveRef{
		{Position: 0, MoveIndex: 0},
		{Position: 2, MoveIndex: 2},
		{Position: 6, MoveIndex: 4},
		{Position: 8, MoveIndex: 6},
	}, state.Moves.X)
}

func TestCooldownRecomputedEachMove(t *testing.T) {
	log := play(0, 1, 2, 4, 6, 3, 8)

	_, _, err := Advance(log, seats, core.StatusActive, Move{PlayerID: bob, Position: 0})
	assert.ErrorIs(t, err, core.PositionCooldown)

	m, state, err := Advance(log, seats, core.StatusActive, Move{PlayerID: bob, Position: 7})
	require.NoError(t, err)
	assert.Equal(t, 8, m.Number)
	require.NotNil(t, state.CooldownSpot)
	assert.Equal(t, 1, *state.CooldownSpot, "cooldown moves to O's evicted square")

	b := board.Board(state.Board)
	assert.True(t, b.IsEmpty(0), "X's old square is free again")
	_, _, err = Advance(append(log, m), seats, core.StatusActive, Move{PlayerID: alice, Position: 0})
	assert.NoError(t, err)
}

func TestWinnerOnActiveMarks(t *testing.T) {
	state := Reconstruct(play(0, 3, 1, 4, 2), seats)
	assert.Equal(t, core.X, state.Winner)
	assert.Equal(t, seats.Player(state.Winner), alice)
}

func TestEvictedMarkDoesNotWin(t *testing.T) {
	// X held 0 and 1, 0 is evicted when X completes the top row at 2
	state := Reconstruct(play(0, 3, 1, 4, 6, 8, 2), seats)
	assert.Equal(t, core.Empty, state.Winner)
	require.NotNil(t, state.CooldownSpot)
	assert.Equal(t, 0, *state.CooldownSpot)
}

func TestUnknownPlayerDiscarded(t *testing.T) {
	log := play(0, 1)
	log = append(log, Move{Number: 3, PlayerID: "intruder", Position: 5})

	state := Reconstruct(log, seats)
	b := board.Board(state.Board)
	assert.True(t, b.IsEmpty(5))
	assert.Equal(t, core.O, state.CurrentPlayer, "discarded moves still count towards parity")
	assert.Len(t, state.Moves.X, 1)
	assert.Len(t, state.Moves.O, 1)
}

func TestReconstructOrdersByNumber(t *testing.T) {
	log := play(0, 1, 2)
	shuffled := []Move{log[2], log[0], log[1]}
	assert.Equal(t, Reconstruct(log, seats), Reconstruct(shuffled, seats))
}

func TestValidateOrder(t *testing.T) {
	state := Reconstruct(play(0, 3, 1, 4, 2), seats) // X has won, O to move

	tests := []struct {
		name     string
		status   core.Status
		player   string
		position int
		want     error
	}{
		{"waiting game", core.StatusWaiting, alice, 5, core.GameNotActive},
		{"completed game", core.StatusCompleted, "stranger", 5, core.GameNotActive},
		{"stranger", core.StatusActive, "stranger", 5, core.NotAPlayer},
		{"wrong turn", core.StatusActive, alice, 5, core.NotYourTurn},
		{"after win", core.StatusActive, bob, 99, core.GameOver},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.status, seats, state, tt.player, tt.position)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidatePositionRules(t *testing.T) {
	state := Reconstruct(play(0, 1, 2, 4, 6, 3, 8), seats)

	assert.ErrorIs(t, Validate(core.StatusActive, seats, state, bob, -1), core.InvalidPosition)
	assert.ErrorIs(t, Validate(core.StatusActive, seats, state, bob, 9), core.InvalidPosition)
	assert.ErrorIs(t, Validate(core.StatusActive, seats, state, bob, 2), core.PositionTaken)
	assert.ErrorIs(t, Validate(core.StatusActive, seats, state, bob, 4), core.PositionTaken)
	assert.ErrorIs(t, Validate(core.StatusActive, seats, state, bob, 0), core.PositionCooldown)
	assert.NoError(t, Validate(core.StatusActive, seats, state, bob, 5))
}

func TestAdvanceRejectsWrongTurnWithoutChange(t *testing.T) {
	log := play(0, 1)
	before := Reconstruct(log, seats)

	_, state, err := Advance(log, seats, core.StatusActive, Move{PlayerID: bob, Position: 4})
	assert.ErrorIs(t, err, core.NotYourTurn)
	assert.Equal(t, before, state)
	assert.Len(t, log, 2)
}

func TestSeats(t *testing.T) {
	s := NewSeats(alice, "")
	sym, ok := s.SymbolOf(alice)
	assert.True(t, ok)
	assert.Equal(t, core.X, sym)
	_, ok = s.SymbolOf("")
	assert.False(t, ok, "empty id never matches an open seat")
	assert.Equal(t, "", s.Opponent(alice))

	assert.Equal(t, bob, seats.Opponent(alice))
	assert.Equal(t, alice, seats.Opponent(bob))
}

func TestNextNumberAndClientMove(t *testing.T) {
	log := play(0, 1, 2)
	log[1].ClientMoveID = "c-1"
	assert.Equal(t, 4, NextNumber(log))
	assert.Equal(t, 1, NextNumber(nil))

	m, ok := FindClientMove(log, "c-1")
	assert.True(t, ok)
	assert.Equal(t, 1, m.Position)
	_, ok = FindClientMove(log, "")
	assert.False(t, ok)
}

// TestRandomGameInvariants drives random legal games and checks the
// derived state after every accepted move.
func TestRandomGameInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for g := 0; g < 50; g++ {
		var log []Move
		for step := 0; step < 60; step++ {
			state := Reconstruct(log, seats)
			if state.Winner != core.Empty {
				b := board.Board(state.Board)
				_, ok := b.WinningLine()
				require.True(t, ok)
				break
			}

			player := seats.Player(state.CurrentPlayer)
			var legal []int
			for p := 0; p < core.BoardSize; p++ {
				if Validate(core.StatusActive, seats, state, player, p) == nil {
					legal = append(legal, p)
				}
			}
			require.NotEmpty(t, legal, "board never locks up")

			m, next, err := Advance(log, seats, core.StatusActive, Move{PlayerID: player, Position: legal[rng.Intn(len(legal))]})
			require.NoError(t, err)
			log = append(log, m)

			if len(log)%2 == 0 {
				assert.Equal(t, core.X, next.CurrentPlayer)
			} else {
				assert.Equal(t, core.O, next.CurrentPlayer)
			}

			b := board.Board(next.Board)
			for _, sym := range []core.Symbol{core.X, core.O} {
				refs := next.Moves.X
				if sym == core.O {
					refs = next.Moves.O
				}
				want := len(refs)
				if want > core.MarksPerPlayer {
					want = core.MarksPerPlayer
				}
				assert.Equal(t, want, b.Count(sym))
				for _, ref := range refs[len(refs)-want:] {
					assert.Equal(t, sym, b[ref.Position])
				}
			}

			first, err := json.Marshal(Reconstruct(log, seats))
			require.NoError(t, err)
			second, err := json.Marshal(Reconstruct(log, seats))
			require.NoError(t, err)
			assert.Equal(t, first, second)
		}
	}
}
