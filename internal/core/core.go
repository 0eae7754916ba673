// FILE: internal/core/core.go
package core

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const (
	BoardSize = 9
	// MarksPerPlayer is the sliding window size: only this many of a
	// player's most recent marks stay on the board.
	MarksPerPlayer = 3
)

// Symbol is the mark a seat plays with. The zero value is an empty square.
type Symbol string

const (
	Empty Symbol = ""
	X     Symbol = "X"
	O     Symbol = "O"
)

func (s Symbol) Opposite() Symbol {
	switch s {
	case X:
		return O
	case O:
		return X
	default:
		return Empty
	}
}

func (s Symbol) String() string {
	if s == Empty {
		return "-"
	}
	return string(s)
}

// MarshalJSON encodes an empty symbol as null
func (s Symbol) MarshalJSON() ([]byte, error) {
	if s == Empty {
		return []byte("null"), nil
	}
	return json.Marshal(string(s))
}

func (s *Symbol) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*s = Empty
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	switch Symbol(str) {
	case X, O, Empty:
		*s = Symbol(str)
		return nil
	default:
		return fmt.Errorf("invalid symbol %q", str)
	}
}

// Status is the lifecycle state of a game record
type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusWaiting, StatusActive, StatusCompleted:
		return true
	}
	return false
}
