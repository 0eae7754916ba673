package core

// Error codes
const (
	ErrGameNotFound      = "GAME_NOT_FOUND"
	ErrGameNotActive     = "GAME_NOT_ACTIVE"
	ErrGameNotJoinable   = "GAME_NOT_JOINABLE"
	ErrGameFull          = "GAME_FULL"
	ErrGameOver          = "GAME_OVER"
	ErrNotAPlayer        = "NOT_A_PLAYER"
	ErrNotYourTurn       = "NOT_YOUR_TURN"
	ErrInvalidPosition   = "INVALID_POSITION"
	ErrPositionTaken     = "POSITION_TAKEN"
	ErrPositionCooldown  = "POSITION_COOLDOWN"
	ErrMoveConflict      = "MOVE_CONFLICT"
	ErrEmailTaken        = "EMAIL_TAKEN"
	ErrInvalidCredential = "INVALID_CREDENTIALS"
	ErrUserNotFound      = "USER_NOT_FOUND"
	ErrRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	ErrInvalidContent    = "INVALID_CONTENT_TYPE"
	ErrInvalidRequest    = "INVALID_REQUEST"
	ErrInternalError     = "INTERNAL_ERROR"
	ErrUnauthorized      = "UNAUTHORIZED"
)

// Error is a rejection with a machine-usable code. Rejections are compared
// by identity, so callers use errors.Is against the values below.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func NewError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

var (
	GameNotFound      = NewError(ErrGameNotFound, "game not found")
	GameNotActive     = NewError(ErrGameNotActive, "game is not active")
	GameNotJoinable   = NewError(ErrGameNotJoinable, "game is not available to join")
	GameFull          = NewError(ErrGameFull, "game is already full")
	GameOver          = NewError(ErrGameOver, "game is already over")
	NotAPlayer        = NewError(ErrNotAPlayer, "you are not part of this game")
	NotYourTurn       = NewError(ErrNotYourTurn, "it is not your turn")
	InvalidPosition   = NewError(ErrInvalidPosition, "invalid position")
	PositionTaken     = NewError(ErrPositionTaken, "spot is already taken")
	PositionCooldown  = NewError(ErrPositionCooldown, "position is blocked for this turn")
	MoveConflict      = NewError(ErrMoveConflict, "game changed concurrently, reload and retry")
	EmailTaken        = NewError(ErrEmailTaken, "email already registered")
	InvalidCredential = NewError(ErrInvalidCredential, "invalid credentials")
	UserNotFound      = NewError(ErrUserNotFound, "user not found")
)
