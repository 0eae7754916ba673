// FILE: internal/http/auth.go
package http

import (
	"fmt"
	"unicode"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"tictactoe/internal/core"
	"tictactoe/internal/service"
)

// RegisterHandler creates a new user account
func (h *HTTPHandler) RegisterHandler(c *fiber.Ctx) error {
	req, err := validatedBody[core.RegisterRequest](c)
	if err != nil {
		return err
	}

	if err := validatePassword(req.Password); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "weak password",
			Code:    core.ErrInvalidRequest,
			Details: err.Error(),
		})
	}

	user, err := h.svc.CreateUser(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return h.issueToken(c, fiber.StatusCreated, user)
}

// LoginHandler authenticates user and returns JWT token
func (h *HTTPHandler) LoginHandler(c *fiber.Ctx) error {
	req, err := validatedBody[core.LoginRequest](c)
	if err != nil {
		return err
	}

	user, err := h.svc.AuthenticateUser(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return h.issueToken(c, fiber.StatusOK, user)
}

// GetCurrentUserHandler returns authenticated user information
func (h *HTTPHandler) GetCurrentUserHandler(c *fiber.Ctx) error {
	userID, err := h.userID(c)
	if err != nil {
		return err
	}

	user, err := h.svc.GetUserByID(c.Context(), userID)
	if err != nil {
		return err
	}

	return c.JSON(core.UserResponse{
		UserID:    user.UserID,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	})
}

func (h *HTTPHandler) issueToken(c *fiber.Ctx, status int, user *service.User) error {
	token, expiresAt, err := h.svc.GenerateUserToken(user)
	if err != nil {
		h.logger.Error("token generation failed", zap.String("user_id", user.UserID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(core.ErrorResponse{
			Error: "failed to generate token",
			Code:  core.ErrInternalError,
		})
	}

	return c.Status(status).JSON(core.AuthResponse{
		Token:     token,
		UserID:    user.UserID,
		Email:     user.Email,
		ExpiresAt: expiresAt,
	})
}

// validatePassword requires at least one letter and one number; length is
// enforced by the request validator
func validatePassword(password string) error {
	hasLetter := false
	hasNumber := false
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsNumber(r):
			hasNumber = true
		}
		if hasLetter && hasNumber {
			return nil
		}
	}
	return fmt.Errorf("password must contain at least one letter and one number")
}
