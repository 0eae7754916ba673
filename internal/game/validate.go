package game

import (
	"tictactoe/internal/board"
	"tictactoe/internal/core"
)

// Validate checks a candidate move against the derived state. Checks run in
// a fixed order and the first failure is returned.
func Validate(status core.Status, seats Seats, state core.GameState, playerID string, position int) error {
	if status != core.StatusActive {
		return core.GameNotActive
	}

	sym, ok := seats.SymbolOf(playerID)
	if !ok {
		return core.NotAPlayer
	}

	if sym != state.CurrentPlayer {
		return core.NotYourTurn
	}

	if state.Winner != core.Empty {
		return core.GameOver
	}

	if !board.ValidPosition(position) {
		return core.InvalidPosition
	}

	b := board.Board(state.Board)
	if !b.IsEmpty(position) {
		return core.PositionTaken
	}

	if state.CooldownSpot != nil && *state.CooldownSpot == position {
		return core.PositionCooldown
	}

	return nil
}

// Advance validates m against the log and returns the state including m.
// The log is not modified; m.Number is assigned as the next sequence value.
func Advance(log []Move, seats Seats, status core.Status, m Move) (Move, core.GameState, error) {
	current := Reconstruct(log, seats)
	if err := Validate(status, seats, current, m.PlayerID, m.Position); err != nil {
		return Move{}, current, err
	}

	m.Number = NextNumber(log)
	next := make([]Move, 0, len(log)+1)
	next = append(next, log...)
	next = append(next, m)

	return m, Reconstruct(next, seats), nil
}

// NextNumber returns the sequence number the next appended move must carry
func NextNumber(log []Move) int {
	n := 0
	for _, m := range log {
		if m.Number > n {
			n = m.Number
		}
	}
	if n < len(log) {
		n = len(log)
	}
	return n + 1
}

// FindClientMove returns the logged move carrying clientMoveID
func FindClientMove(log []Move, clientMoveID string) (Move, bool) {
	if clientMoveID == "" {
		return Move{}, false
	}
	for _, m := range log {
		if m.ClientMoveID == clientMoveID {
			return m, true
		}
	}
	return Move{}, false
}
