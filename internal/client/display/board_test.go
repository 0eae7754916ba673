package display

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"tictactoe/internal/core"
)

func TestRenderBoard(t *testing.T) {
	cooldown := 0
	state := core.GameState{
		CurrentPlayer: core.X,
		CooldownSpot:  &cooldown,
		Moves: core.SymbolMoves{
			X: []core.MoveRef{{Position: 1, MoveIndex: 2}, {Position: 2, MoveIndex: 4}, {Position: 4, MoveIndex: 6}},
			O: []core.MoveRef{{Position: 3, MoveIndex: 5}, {Position: 8, MoveIndex: 7}},
		},
	}
	state.Board[1], state.Board[2], state.Board[4] = core.X, core.X, core.X
	state.Board[3], state.Board[8] = core.O, core.O

	var buf bytes.Buffer
	RenderBoard(&buf, state)
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")

	assert.Len(t, lines, 5)
	assert.Contains(t, lines[0], Yellow+"#", "cooldown square is marked")
	assert.Contains(t, lines[0], Dim+Blue+"X", "oldest X is about to be evicted")
	assert.Equal(t, 1, strings.Count(buf.String(), Dim+Blue))
	assert.Contains(t, lines[4], Red+"O")
}

func TestColorForSymbol(t *testing.T) {
	assert.Equal(t, "-", ColorForSymbol(core.Empty))
	assert.Contains(t, ColorForSymbol(core.O), "O")
}
