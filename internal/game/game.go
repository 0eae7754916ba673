// FILE: internal/game/game.go
package game

import (
	"sort"
	"time"

	"tictactoe/internal/board"
	"tictactoe/internal/core"
)

// cooldownMinMoves is the earliest log length at which a fourth mark for
// either symbol can exist.
const cooldownMinMoves = 2*core.MarksPerPlayer + 1

// Move is an entry of a game's append-only log
type Move struct {
	Number       int // per-game sequence starting at 1, the ordering key
	PlayerID     string
	Position     int
	ClientMoveID string
	CreatedAt    time.Time
}

// Seats associates each symbol with the player holding it
type Seats map[core.Symbol]string

// NewSeats seats player1 as X and player2, if any, as O
func NewSeats(player1ID, player2ID string) Seats {
	s := Seats{core.X: player1ID}
	if player2ID != "" {
		s[core.O] = player2ID
	}
	return s
}

// SymbolOf returns the symbol held by playerID
func (s Seats) SymbolOf(playerID string) (core.Symbol, bool) {
	if playerID == "" {
		return core.Empty, false
	}
	for _, sym := range [2]core.Symbol{core.X, core.O} {
		if s[sym] == playerID {
			return sym, true
		}
	}
	return core.Empty, false
}

// Player returns the id seated at sym, empty if the seat is open
func (s Seats) Player(sym core.Symbol) string {
	return s[sym]
}

// Opponent returns the id of the player facing playerID
func (s Seats) Opponent(playerID string) string {
	sym, ok := s.SymbolOf(playerID)
	if !ok {
		return ""
	}
	return s[sym.Opposite()]
}

// Reconstruct derives the game state from the move log. It is a pure
// function of the log and the seats; the log is sorted by Number first.
func Reconstruct(log []Move, seats Seats) core.GameState {
	ordered := make([]Move, len(log))
	copy(ordered, log)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Number < ordered[j].Number
	})

	state := core.GameState{
		Moves: core.SymbolMoves{X: []core.MoveRef{}, O: []core.MoveRef{}},
	}

	history := map[core.Symbol][]core.MoveRef{core.X: {}, core.O: {}}
	for i, m := range ordered {
		sym, ok := seats.SymbolOf(m.PlayerID)
		if !ok {
			continue
		}
		history[sym] = append(history[sym], core.MoveRef{Position: m.Position, MoveIndex: i})
	}
	state.Moves.X = history[core.X]
	state.Moves.O = history[core.O]

	var b board.Board
	for _, sym := range [2]core.Symbol{core.X, core.O} {
		for _, ref := range active(history[sym]) {
			if board.ValidPosition(ref.Position) {
				b[ref.Position] = sym
			}
		}
	}
	state.Board = b

	if len(ordered)%2 == 0 {
		state.CurrentPlayer = core.X
	} else {
		state.CurrentPlayer = core.O
	}

	state.Winner = b.Winner()
	state.CooldownSpot = cooldown(ordered, seats, history)

	return state
}

// active returns the marks still on the board
func active(refs []core.MoveRef) []core.MoveRef {
	if len(refs) <= core.MarksPerPlayer {
		return refs
	}
	return refs[len(refs)-core.MarksPerPlayer:]
}

// cooldown returns the square vacated by the latest move's eviction
func cooldown(ordered []Move, seats Seats, history map[core.Symbol][]core.MoveRef) *int {
	if len(ordered) < cooldownMinMoves {
		return nil
	}
	sym, ok := seats.SymbolOf(ordered[len(ordered)-1].PlayerID)
	if !ok {
		return nil
	}
	refs := history[sym]
	if len(refs) <= core.MarksPerPlayer {
		return nil
	}
	pos := refs[len(refs)-core.MarksPerPlayer-1].Position
	return &pos
}
