// FILE: internal/http/handler.go
package http

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"tictactoe/internal/board"
	"tictactoe/internal/core"
	"tictactoe/internal/metrics"
	"tictactoe/internal/service"
)

const rateLimitRate = 10 // req/sec

// Options tunes the HTTP layer
type Options struct {
	Dev       bool
	RateLimit int // requests per second per IP, 0 selects the default
}

// HTTPHandler handles HTTP requests and routes them to the service
type HTTPHandler struct {
	svc    *service.Service
	logger *zap.Logger
}

func NewHTTPHandler(svc *service.Service, logger *zap.Logger) *HTTPHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPHandler{svc: svc, logger: logger}
}

func NewFiberApp(svc *service.Service, opts Options, logger *zap.Logger) *fiber.App {
	h := NewHTTPHandler(svc, logger)

	app := fiber.New(fiber.Config{
		ErrorHandler:          customErrorHandler,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          35 * time.Second, // covers the long-poll wait
		IdleTimeout:           60 * time.Second,
		DisableStartupMessage: true,
	})

	// Global middleware (order matters)
	app.Use(requestLogger(h.logger, customErrorHandler))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// No rate limit
	app.Get("/health", h.Health)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	app.Use(contentTypeValidator)

	auth := app.Group("/auth")

	// Register: 5 req/min per IP
	auth.Post("/register", limiter.New(limiter.Config{
		Max:          5,
		Expiration:   1 * time.Minute,
		KeyGenerator: clientKey,
		LimitReached: limitReached("5 registrations per minute allowed"),
	}), validationMiddleware, h.RegisterHandler)

	// Login: 10 req/min per IP
	auth.Post("/login", limiter.New(limiter.Config{
		Max:          10,
		Expiration:   1 * time.Minute,
		KeyGenerator: clientKey,
		LimitReached: limitReached("10 login attempts per minute allowed"),
	}), validationMiddleware, h.LoginHandler)

	requireAuth := AuthRequired(svc.ValidateToken)
	auth.Get("/me", requireAuth, h.GetCurrentUserHandler)

	maxReq := opts.RateLimit
	if maxReq <= 0 {
		maxReq = rateLimitRate
	}
	if opts.Dev {
		maxReq *= 2
	}
	games := app.Group("/games", limiter.New(limiter.Config{
		Max:          maxReq,
		Expiration:   1 * time.Second,
		KeyGenerator: clientKey,
		LimitReached: limitReached(fmt.Sprintf("%d requests per second allowed", maxReq)),
	}))

	games.Post("", requireAuth, h.CreateGame)
	games.Get("/:gameId", h.GetGame)
	games.Get("/:gameId/board", h.GetBoard)
	games.Post("/:gameId/join", requireAuth, h.JoinGame)
	games.Post("/:gameId/move", requireAuth, validationMiddleware, h.MakeMove)
	games.Post("/:gameId/quit", requireAuth, h.QuitGame)

	return app
}

// clientKey keys rate limits by the first forwarded address or the peer IP
func clientKey(c *fiber.Ctx) string {
	if xff := c.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return xff
	}
	return c.IP()
}

func limitReached(details string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusTooManyRequests).JSON(core.ErrorResponse{
			Error:   "rate limit exceeded",
			Code:    core.ErrRateLimitExceeded,
			Details: details,
		})
	}
}

// statusFor maps a rejection code to its HTTP status
func statusFor(code string) int {
	switch code {
	case core.ErrGameNotFound, core.ErrUserNotFound:
		return fiber.StatusNotFound
	case core.ErrNotAPlayer:
		return fiber.StatusForbidden
	case core.ErrMoveConflict, core.ErrEmailTaken:
		return fiber.StatusConflict
	case core.ErrInvalidCredential, core.ErrUnauthorized:
		return fiber.StatusUnauthorized
	case core.ErrRateLimitExceeded:
		return fiber.StatusTooManyRequests
	case core.ErrInvalidContent:
		return fiber.StatusUnsupportedMediaType
	case core.ErrInternalError:
		return fiber.StatusInternalServerError
	default:
		return fiber.StatusBadRequest
	}
}

// customErrorHandler provides consistent error responses
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	response := core.ErrorResponse{
		Error: "internal server error",
		Code:  core.ErrInternalError,
	}

	var coreErr *core.Error
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &coreErr):
		code = statusFor(coreErr.Code)
		response.Error = coreErr.Message
		response.Code = coreErr.Code

	case errors.As(err, &fiberErr):
		code = fiberErr.Code
		response.Error = fiberErr.Message

		switch code {
		case fiber.StatusNotFound:
			response.Code = core.ErrInvalidRequest
			response.Details = "no such route"
		case fiber.StatusBadRequest, fiber.StatusMethodNotAllowed:
			response.Code = core.ErrInvalidRequest
		case fiber.StatusTooManyRequests:
			response.Code = core.ErrRateLimitExceeded
		}

	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		code = fiber.StatusServiceUnavailable
		response.Error = "request cancelled"
	}

	return c.Status(code).JSON(response)
}

// Health check endpoint with storage status
func (h *HTTPHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"time":    time.Now().Unix(),
		"storage": h.svc.GetStorageHealth(),
		"cache":   h.svc.CacheBackend(),
	})
}

func (h *HTTPHandler) userID(c *fiber.Ctx) (string, error) {
	userID, ok := c.Locals("userID").(string)
	if !ok || userID == "" {
		return "", core.NewError(core.ErrUnauthorized, "unauthorized")
	}
	return userID, nil
}

func gameIDParam(c *fiber.Ctx) (string, error) {
	gameID := c.Params("gameId")
	if !isValidUUID(gameID) {
		return "", c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "invalid game ID format",
			Code:    core.ErrInvalidRequest,
			Details: "game ID must be a valid UUID",
		})
	}
	return gameID, nil
}

// CreateGame opens a game for the authenticated user
func (h *HTTPHandler) CreateGame(c *fiber.Ctx) error {
	userID, err := h.userID(c)
	if err != nil {
		return err
	}

	resp, err := h.svc.CreateGame(c.Context(), userID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// JoinGame seats the authenticated user as O
func (h *HTTPHandler) JoinGame(c *fiber.Ctx) error {
	gameID, err := gameIDParam(c)
	if gameID == "" {
		return err
	}
	userID, err := h.userID(c)
	if err != nil {
		return err
	}

	resp, err := h.svc.JoinGame(c.Context(), gameID, userID)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// GetGame returns the current game; with wait=true it long-polls until the
// revision differs from the one supplied
func (h *HTTPHandler) GetGame(c *fiber.Ctx) error {
	gameID, err := gameIDParam(c)
	if gameID == "" {
		return err
	}

	if c.Query("wait", "false") != "true" {
		resp, err := h.svc.GetGame(c.Context(), gameID)
		if err != nil {
			return err
		}
		return c.JSON(resp)
	}

	revision, err := strconv.ParseInt(c.Query("revision", "-1"), 10, 64)
	if err != nil {
		revision = -1
	}

	// Register before reading so a change in between is not missed
	ctx, cancel := context.WithCancel(c.Context())
	defer cancel()
	notify := h.svc.RegisterWait(gameID, revision, ctx)

	resp, err := h.svc.GetGame(ctx, gameID)
	if err != nil {
		return err
	}
	if resp.GameInfo.Revision != revision {
		return c.JSON(resp)
	}

	select {
	case <-notify:
		// Changed, timed out or shutting down
	case <-c.Context().Done():
		return nil
	}

	resp, err = h.svc.GetGame(c.Context(), gameID)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// GetBoard returns an ASCII rendering of the board
func (h *HTTPHandler) GetBoard(c *fiber.Ctx) error {
	gameID, err := gameIDParam(c)
	if gameID == "" {
		return err
	}

	resp, err := h.svc.GetGame(c.Context(), gameID)
	if err != nil {
		return err
	}

	b := board.Board(resp.GameState.Board)
	return c.JSON(fiber.Map{
		"gameId":        gameID,
		"board":         b.ToASCII(),
		"currentPlayer": resp.GameState.CurrentPlayer,
		"winner":        resp.GameState.Winner,
	})
}

// MakeMove submits a move for the authenticated user
func (h *HTTPHandler) MakeMove(c *fiber.Ctx) error {
	gameID, err := gameIDParam(c)
	if gameID == "" {
		return err
	}
	userID, err := h.userID(c)
	if err != nil {
		return err
	}
	req, err := validatedBody[core.MoveRequest](c)
	if err != nil {
		return err
	}

	resp, err := h.svc.MakeMove(c.Context(), gameID, userID, *req.Position, req.ClientMoveID)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// QuitGame ends the game for the authenticated user
func (h *HTTPHandler) QuitGame(c *fiber.Ctx) error {
	gameID, err := gameIDParam(c)
	if gameID == "" {
		return err
	}
	userID, err := h.userID(c)
	if err != nil {
		return err
	}

	if err := h.svc.QuitGame(c.Context(), gameID, userID); err != nil {
		return err
	}
	return c.JSON(core.MessageResponse{Message: "You have quit the game"})
}
