// FILE: internal/client/display/board.go
package display

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"tictactoe/internal/core"
)

// RenderBoard writes the board with X in blue, O in red and the oldest mark
// of the player to move dimmed, since their next mark evicts it. The
// cooldown square shows as '#'.
func RenderBoard(w io.Writer, state core.GameState) {
	evicting := -1
	if state.Winner == core.Empty {
		marks := state.Moves.X
		if state.CurrentPlayer == core.O {
			marks = state.Moves.O
		}
		if len(marks) == core.MarksPerPlayer {
			evicting = marks[0].Position
		}
	}

	for r := 0; r < 3; r++ {
		if r > 0 {
			fmt.Fprintln(w, "---+---+---")
		}
		cells := make([]string, 3)
		for c := 0; c < 3; c++ {
			p := r*3 + c
			cells[c] = " " + cell(state, p, p == evicting) + " "
		}
		fmt.Fprintln(w, strings.Join(cells, "|"))
	}
}

func cell(state core.GameState, p int, evicting bool) string {
	switch state.Board[p] {
	case core.X:
		if evicting {
			return Dim + Blue + "X" + Reset
		}
		return Blue + "X" + Reset
	case core.O:
		if evicting {
			return Dim + Red + "O" + Reset
		}
		return Red + "O" + Reset
	}
	if state.CooldownSpot != nil && *state.CooldownSpot == p {
		return Yellow + "#" + Reset
	}
	return Dim + strconv.Itoa(p) + Reset
}

// ColorForSymbol returns a colored symbol label
func ColorForSymbol(s core.Symbol) string {
	switch s {
	case core.X:
		return Blue + "X" + Reset
	case core.O:
		return Red + "O" + Reset
	default:
		return "-"
	}
}

// PrettyPrintJSON writes v as indented JSON
func PrettyPrintJSON(w io.Writer, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(w, "%sError formatting JSON: %s%s\n", Red, err.Error(), Reset)
		return
	}
	fmt.Fprintln(w, string(data))
}
