// FILE: internal/core/api.go
package core

import "time"

// Request types

type MoveRequest struct {
	Position     *int   `json:"position" validate:"required"` // range is a game rule, checked after turn order
	ClientMoveID string `json:"clientMoveId,omitempty" validate:"omitempty,uuid"`
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,max=255"`
	Password string `json:"password" validate:"required,max=128"`
}

// Derived state

// MoveRef points a mark at its index in the chronological move log
type MoveRef struct {
	Position  int `json:"position"`
	MoveIndex int `json:"moveIndex"`
}

type SymbolMoves struct {
	X []MoveRef `json:"X"`
	O []MoveRef `json:"O"`
}

// GameState is the snapshot derived from a game's move log. It is never
// persisted.
type GameState struct {
	Board         [BoardSize]Symbol `json:"board"`
	CurrentPlayer Symbol            `json:"currentPlayer"`
	Winner        Symbol            `json:"winner"`
	CooldownSpot  *int              `json:"cooldownSpot"`
	Moves         SymbolMoves       `json:"moves"`
}

// GameInfo mirrors the stored game record
type GameInfo struct {
	ID        string    `json:"id"`
	Player1ID string    `json:"player1_id"`
	Player2ID *string   `json:"player2_id"`
	Status    Status    `json:"status"`
	WinnerID  *string   `json:"winner_id"`
	Revision  int64     `json:"revision"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Response types

type SeatResponse struct {
	GameID       string    `json:"gameId"`
	PlayerSymbol Symbol    `json:"playerSymbol"`
	GameState    GameState `json:"gameState"`
}

type GameResponse struct {
	GameID    string    `json:"gameId"`
	GameState GameState `json:"gameState"`
	GameInfo  GameInfo  `json:"gameInfo"`
}

type MoveResponse struct {
	GameState GameState `json:"gameState"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type AuthResponse struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type UserResponse struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}
