package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// Register creates an account for username. It does not log the user in.
//
// An existing username is reported before a password mismatch, and the
// password is stored only as a salted bcrypt hash. No length or complexity
// rules apply.
func (m *Manager) Register(ctx context.Context, username, password, confirm string) (int64, error) {
	_, err := m.db.GetUserByUsername(ctx, username)
	switch {
	case err == nil:
		return 0, ErrUsernameTaken
	case !errors.Is(err, ErrUserNotFound):
		return 0, fmt.Errorf("register: %w", err)
	}

	if password != confirm {
		return 0, ErrPasswordMismatch
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), m.bcryptCost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	id, err := m.db.AddUser(ctx, username, string(hash))
	if err != nil {
		// AddUser maps a concurrent duplicate insert to ErrUsernameTaken.
		return 0, err
	}

	m.logger.InfoContext(ctx, "user registered",
		slog.Int64("user_id", id),
		slog.String("username", username),
	)
	return id, nil
}

// Login verifies username and password. Both an unknown username and a wrong
// password produce ErrInvalidCredentials.
func (m *Manager) Login(ctx context.Context, username, password string) (*User, error) {
	u, err := m.db.GetUserByUsername(ctx, username)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("login: %w", err)
	}

	if u == nil {
		_ = bcrypt.CompareHashAndPassword(m.dummyHash, []byte(password))
		m.logger.WarnContext(ctx, "login failed", slog.String("username", username))
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		m.logger.WarnContext(ctx, "login failed", slog.String("username", username))
		return nil, ErrInvalidCredentials
	}

	m.logger.InfoContext(ctx, "user logged in",
		slog.Int64("user_id", u.ID),
		slog.String("username", u.Username),
	)
	return u, nil
}
