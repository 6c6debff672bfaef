package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	"wedding-invitation/internal/models"
)

// CreateUser inserts the account and its profile in one transaction.
func (s *Storage) CreateUser(ctx context.Context, user *models.User, profile *models.UserProfile) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.NamedExecContext(ctx, `INSERT INTO users (id, email, password_hash, created_at)
			VALUES (:id, :email, :password_hash, :created_at)`, user)
		if err != nil {
			if isConstraint(err, sqlite3.ErrConstraintUnique) {
				return ErrEmailTaken
			}
			return fmt.Errorf("failed to insert user: %w", err)
		}
		_, err = tx.NamedExecContext(ctx, `INSERT INTO profiles (id, user_id, full_name, created_at, updated_at)
			VALUES (:id, :user_id, :full_name, :created_at, :updated_at)`, profile)
		if err != nil {
			return fmt.Errorf("failed to insert profile: %w", err)
		}
		return nil
	})
}

// GetUserByEmail looks an account up by its email address.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user,
		`SELECT id, email, password_hash, created_at FROM users WHERE email = ?`, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetProfile returns the profile mirroring userID.
func (s *Storage) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	var p models.UserProfile
	err := s.db.GetContext(ctx, &p,
		`SELECT id, user_id, full_name, created_at, updated_at FROM profiles WHERE user_id = ?`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &p, nil
}

// CreateSession records an issued session.
func (s *Storage) CreateSession(ctx context.Context, sess *models.Session) error {
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO sessions (id, user_id, expires_at, created_at)
		VALUES (:id, :user_id, :expires_at, :created_at)`, sess)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// GetSession returns the session if it exists and has not expired at now.
func (s *Storage) GetSession(ctx context.Context, id string, now time.Time) (*models.Session, error) {
	var sess models.Session
	err := s.db.GetContext(ctx, &sess,
		`SELECT id, user_id, expires_at, created_at FROM sessions WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if !now.Before(sess.ExpiresAt) {
		return nil, ErrNotFound
	}
	return &sess, nil
}

// DeleteSession revokes a session. Deleting an unknown session is not an error.
func (s *Storage) DeleteSession(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
