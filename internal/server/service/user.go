package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"kamisado/internal/server/storage"

	"github.com/google/uuid"
	"github.com/lixenwraith/auth"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionExpired     = errors.New("session expired or revoked")
)

// User represents a registered user account
type User struct {
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func userFromRecord(r *storage.UserRecord) *User {
	return &User{
		UserID:    r.UserID,
		Username:  r.Username,
		Email:     r.Email,
		CreatedAt: r.CreatedAt,
	}
}

// CreateUser hashes the password and stores a new account
func (s *Service) CreateUser(username, email, password string) (*User, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	record := storage.UserRecord{
		UserID:       uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	if err = s.store.CreateUser(record); err != nil {
		return nil, err
	}

	return userFromRecord(&record), nil
}

// AuthenticateUser verifies credentials; identifier is a username or an email
func (s *Service) AuthenticateUser(identifier, password string) (*User, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}

	var record *storage.UserRecord
	var err error
	if strings.Contains(identifier, "@") {
		record, err = s.store.GetUserByEmail(identifier)
	} else {
		record, err = s.store.GetUserByUsername(identifier)
	}

	if err != nil {
		// Hash anyway so unknown users take as long as wrong passwords
		auth.HashPassword(password)
		return nil, ErrInvalidCredentials
	}

	if err := auth.VerifyPassword(password, record.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := s.store.UpdateUserLastLogin(record.UserID, time.Now().UTC()); err != nil {
		return nil, err
	}

	return userFromRecord(record), nil
}

// GetUserByID retrieves user information by user ID
func (s *Service) GetUserByID(userID string) (*User, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}

	record, err := s.store.GetUserByID(userID)
	if err != nil {
		return nil, fmt.Errorf("user not found")
	}
	return userFromRecord(record), nil
}

// GenerateUserToken opens a new session for the user, revoking any
// earlier one, and returns a JWT carrying its ID in the sid claim
func (s *Service) GenerateUserToken(user *User) (string, error) {
	if s.store == nil {
		return "", ErrStorageDisabled
	}

	now := time.Now().UTC()
	session := storage.SessionRecord{
		SessionID: uuid.New().String(),
		UserID:    user.UserID,
		CreatedAt: now,
		ExpiresAt: now.Add(SessionTTL),
	}
	if err := s.store.CreateSession(session); err != nil {
		return "", err
	}

	claims := map[string]any{
		"username": user.Username,
		"sid":      session.SessionID,
	}
	return auth.GenerateHS256Token(s.jwtSecret, user.UserID, claims, SessionTTL)
}

// ValidateToken verifies the JWT signature and that its session is live
func (s *Service) ValidateToken(token string) (string, map[string]any, error) {
	userID, claims, err := auth.ValidateHS256Token(s.jwtSecret, token)
	if err != nil {
		return "", nil, err
	}
	if s.store == nil {
		return "", nil, ErrStorageDisabled
	}

	sid, _ := claims["sid"].(string)
	ok, err := s.store.IsSessionValid(sid)
	if err != nil {
		return "", nil, err
	}
	if !ok {
		return "", nil, ErrSessionExpired
	}
	return userID, claims, nil
}

// Logout revokes the session named by the token claims
func (s *Service) Logout(claims map[string]any) error {
	if s.store == nil {
		return ErrStorageDisabled
	}
	sid, _ := claims["sid"].(string)
	return s.store.DeleteSession(sid)
}
