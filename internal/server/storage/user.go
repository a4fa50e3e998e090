package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var ErrUserExists = errors.New("username or email already exists")

const userColumns = `user_id, username, email, password_hash, created_at, last_login_at`

// CreateUser inserts a user, checking uniqueness inside the transaction
func (s *Store) CreateUser(record UserRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	exists, err := s.userExists(tx, record.Username, record.Email)
	if err != nil {
		return err
	}
	if exists {
		return ErrUserExists
	}

	query := `INSERT INTO users (user_id, username, email, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`
	if _, err = tx.Exec(query, record.UserID, record.Username, record.Email, record.PasswordHash, record.CreatedAt); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) userExists(tx *sql.Tx, username, email string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM users WHERE username = ? COLLATE NOCASE`
	args := []any{username}

	if email != "" {
		query = `SELECT COUNT(*) FROM users WHERE username = ? COLLATE NOCASE OR email = ? COLLATE NOCASE`
		args = append(args, email)
	}

	if err := tx.QueryRow(query, args...).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// DeleteUserByID removes a user and, by cascade, their session
func (s *Store) DeleteUserByID(userID string) error {
	result, err := s.db.Exec(`DELETE FROM users WHERE user_id = ?`, userID)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *Store) UpdateUserPassword(userID, passwordHash string) error {
	_, err := s.db.Exec(`UPDATE users SET password_hash = ? WHERE user_id = ?`, passwordHash, userID)
	return err
}

// UpdateUserLastLogin records a successful login
func (s *Store) UpdateUserLastLogin(userID string, loginTime time.Time) error {
	_, err := s.db.Exec(`UPDATE users SET last_login_at = ? WHERE user_id = ?`, loginTime, userID)
	if err != nil {
		return fmt.Errorf("failed to update last login for user %s: %w", userID, err)
	}
	return nil
}

// GetAllUsers lists users, newest first
func (s *Store) GetAllUsers() ([]UserRecord, error) {
	rows, err := s.db.Query(`SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []UserRecord
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}

	return users, rows.Err()
}

// GetUserByUsername matches case-insensitively
func (s *Store) GetUserByUsername(username string) (*UserRecord, error) {
	return scanUser(s.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE username = ? COLLATE NOCASE`, username))
}

// GetUserByEmail matches case-insensitively
func (s *Store) GetUserByEmail(email string) (*UserRecord, error) {
	return scanUser(s.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE email = ? COLLATE NOCASE`, email))
}

func (s *Store) GetUserByID(userID string) (*UserRecord, error) {
	return scanUser(s.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE user_id = ?`, userID))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*UserRecord, error) {
	var user UserRecord
	var email sql.NullString
	err := row.Scan(
		&user.UserID, &user.Username, &email,
		&user.PasswordHash, &user.CreatedAt, &user.LastLoginAt,
	)
	if err != nil {
		return nil, err
	}
	user.Email = email.String
	return &user, nil
}
