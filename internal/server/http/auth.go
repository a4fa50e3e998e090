package http

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"kamisado/internal/server/core"
	"kamisado/internal/server/service"
	"kamisado/internal/server/storage"

	"github.com/gofiber/fiber/v2"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]{1,40}$`)

// RegisterRequest defines the user registration payload
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=1,max=40"`
	Email    string `json:"email" validate:"omitempty,max=255"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// LoginRequest defines the authentication payload
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required"` // username or email
	Password   string `json:"password" validate:"required"`
}

// AuthResponse contains JWT token and user information
type AuthResponse struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func badRequest(c *fiber.Ctx, msg, details string) error {
	return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
		Error:   msg,
		Code:    core.ErrInvalidRequest,
		Details: details,
	})
}

// parseAuthBody parses and validates an auth payload into req. When it
// reports false the error response has already been written.
func parseAuthBody(c *fiber.Ctx, req any) (bool, error) {
	if err := c.BodyParser(req); err != nil {
		return false, badRequest(c, "invalid request body", err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return false, badRequest(c, "validation failed", describeValidation(err))
	}
	return true, nil
}

// RegisterHandler creates a new user account and logs it in
func (h *HTTPHandler) RegisterHandler(c *fiber.Ctx) error {
	var req RegisterRequest
	if ok, err := parseAuthBody(c, &req); !ok {
		return err
	}

	if !usernameRegex.MatchString(req.Username) {
		return badRequest(c, "invalid username format", "username must be 1-40 characters, alphanumeric and underscore only")
	}
	if req.Email != "" && !emailRegex.MatchString(req.Email) {
		return badRequest(c, "invalid email format", "email must be a valid email address")
	}
	if err := validatePassword(req.Password); err != nil {
		return badRequest(c, "weak password", err.Error())
	}

	req.Username = strings.ToLower(req.Username)
	req.Email = strings.ToLower(req.Email)

	user, err := h.svc.CreateUser(req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			return c.Status(fiber.StatusConflict).JSON(core.ErrorResponse{
				Error:   "user already exists",
				Code:    core.ErrInvalidRequest,
				Details: "username or email already taken",
			})
		}
		return h.authFailure(c, "failed to create user", err)
	}

	return h.issueToken(c, user, fiber.StatusCreated)
}

// validatePassword requires 8-128 characters with a letter and a number
func validatePassword(password string) error {
	const (
		minPasswordLength = 8
		maxPasswordLength = 128
	)
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	if len(password) > maxPasswordLength {
		return fmt.Errorf("password must not exceed %d characters", maxPasswordLength)
	}

	hasLetter, hasNumber := false, false
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsNumber(r):
			hasNumber = true
		}
	}

	if !hasLetter || !hasNumber {
		return fmt.Errorf("password must contain at least one letter and one number")
	}
	return nil
}

// LoginHandler authenticates user and returns JWT token
func (h *HTTPHandler) LoginHandler(c *fiber.Ctx) error {
	var req LoginRequest
	if ok, err := parseAuthBody(c, &req); !ok {
		return err
	}

	user, err := h.svc.AuthenticateUser(strings.ToLower(req.Identifier), req.Password)
	if err != nil {
		if errors.Is(err, service.ErrStorageDisabled) {
			return h.authFailure(c, "accounts unavailable", err)
		}
		// Same answer for unknown users and wrong passwords
		return c.Status(fiber.StatusUnauthorized).JSON(core.ErrorResponse{
			Error: "invalid credentials",
			Code:  core.ErrUnauthorized,
		})
	}

	return h.issueToken(c, user, fiber.StatusOK)
}

func (h *HTTPHandler) issueToken(c *fiber.Ctx, user *service.User, status int) error {
	token, err := h.svc.GenerateUserToken(user)
	if err != nil {
		return h.authFailure(c, "failed to generate token", err)
	}

	return c.Status(status).JSON(AuthResponse{
		Token:     token,
		UserID:    user.UserID,
		Username:  user.Username,
		Email:     user.Email,
		ExpiresAt: time.Now().Add(service.SessionTTL),
	})
}

func (h *HTTPHandler) authFailure(c *fiber.Ctx, msg string, err error) error {
	status := fiber.StatusInternalServerError
	if errors.Is(err, service.ErrStorageDisabled) {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(core.ErrorResponse{
		Error:   msg,
		Code:    core.ErrInternalError,
		Details: err.Error(),
	})
}

// GetCurrentUserHandler returns the authenticated user
func (h *HTTPHandler) GetCurrentUserHandler(c *fiber.Ctx) error {
	user, err := h.svc.GetUserByID(userID(c))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(core.ErrorResponse{
			Error: "user not found",
			Code:  core.ErrInvalidRequest,
		})
	}
	return c.JSON(user)
}

// LogoutHandler revokes the session of the presented token
func (h *HTTPHandler) LogoutHandler(c *fiber.Ctx) error {
	claims, _ := c.Locals("claims").(map[string]any)
	if err := h.svc.Logout(claims); err != nil {
		return h.authFailure(c, "failed to logout", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
