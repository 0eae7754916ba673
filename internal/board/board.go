// FILE: internal/board/board.go
package board

import (
	"strings"

	"tictactoe/internal/core"
)

// Board maps positions 0..8, row-major from the top left, to symbols
type Board [core.BoardSize]core.Symbol

// lines lists rows, then columns, then diagonals. Scan order decides which
// line is reported when more than one is complete.
var lines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// ValidPosition reports whether p addresses a square
func ValidPosition(p int) bool {
	return p >= 0 && p < core.BoardSize
}

// Winner returns the symbol holding the first complete line, or core.Empty
func (b *Board) Winner() core.Symbol {
	for _, l := range lines {
		s := b[l[0]]
		if s != core.Empty && s == b[l[1]] && s == b[l[2]] {
			return s
		}
	}
	return core.Empty
}

// WinningLine returns the first complete line, if any
func (b *Board) WinningLine() ([3]int, bool) {
	for _, l := range lines {
		s := b[l[0]]
		if s != core.Empty && s == b[l[1]] && s == b[l[2]] {
			return l, true
		}
	}
	return [3]int{}, false
}

// IsEmpty reports whether the square at p holds no mark. Out of range
// positions are never empty.
func (b *Board) IsEmpty(p int) bool {
	return ValidPosition(p) && b[p] == core.Empty
}

// Count returns the number of squares holding s
func (b *Board) Count(s core.Symbol) int {
	n := 0
	for _, v := range b {
		if v == s {
			n++
		}
	}
	return n
}

// ToASCII renders the board as a 3x3 grid, empty squares show their index
func (b *Board) ToASCII() string {
	var sb strings.Builder
	for r := 0; r < 3; r++ {
		if r > 0 {
			sb.WriteString("---+---+---\n")
		}
		for c := 0; c < 3; c++ {
			p := r*3 + c
			if c > 0 {
				sb.WriteString("|")
			}
			sb.WriteByte(' ')
			if b[p] == core.Empty {
				sb.WriteByte(byte('0' + p))
			} else {
				sb.WriteString(string(b[p]))
			}
			sb.WriteByte(' ')
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
