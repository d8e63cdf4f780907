package sqlstore

import (
	"chatpat/internal/logger"
	"chatpat/internal/repository/db"
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// GetUser retrieves a user by subject id
func (s *Store) GetUser(ctx context.Context, id string) (*db.User, error) {
	query := `
	SELECT id, COALESCE(email, ''), COALESCE(first_name, ''), COALESCE(last_name, ''),
	       COALESCE(profile_image_url, ''), created_at, updated_at
	FROM users
	WHERE id = $1
	`

	var user db.User
	err := s.conn.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Email, &user.FirstName, &user.LastName,
		&user.ProfileImageURL, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("error retrieving user: %w", err)
	}

	return &user, nil
}

// UpsertUser inserts the user or refreshes its profile fields
func (s *Store) UpsertUser(ctx context.Context, params db.UpsertUserParams) (*db.User, error) {
	query := `
	INSERT INTO users (id, email, first_name, last_name, profile_image_url, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $6)
	ON CONFLICT (id) DO UPDATE SET
		email = excluded.email,
		first_name = excluded.first_name,
		last_name = excluded.last_name,
		profile_image_url = excluded.profile_image_url,
		updated_at = excluded.updated_at
	`

	_, err := s.conn.ExecContext(ctx, query,
		params.ID,
		nullString(params.Email),
		nullString(params.FirstName),
		nullString(params.LastName),
		nullString(params.ProfileImageURL),
		s.timestamp(),
	)
	if err != nil {
		return nil, fmt.Errorf("error upserting user: %w", err)
	}

	return s.GetUser(ctx, params.ID)
}

// CreateCredential stores a local login for an existing user
func (s *Store) CreateCredential(ctx context.Context, username, passwordHash, userID string) (*db.Credential, error) {
	cred := &db.Credential{
		Username:     username,
		PasswordHash: passwordHash,
		UserID:       userID,
		CreatedAt:    s.timestamp(),
	}

	query := `INSERT INTO credentials (username, password_hash, user_id, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := s.conn.ExecContext(ctx, query, cred.Username, cred.PasswordHash, cred.UserID, cred.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, db.ErrConflict
		}
		return nil, fmt.Errorf("error creating credential: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{"username": username, "user_id": userID}).Info("Created credential")
	return cred, nil
}

// GetCredential retrieves a local login by username
func (s *Store) GetCredential(ctx context.Context, username string) (*db.Credential, error) {
	query := `SELECT username, password_hash, user_id, created_at FROM credentials WHERE username = $1`

	var cred db.Credential
	err := s.conn.QueryRowContext(ctx, query, username).Scan(&cred.Username, &cred.PasswordHash, &cred.UserID, &cred.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("error retrieving credential: %w", err)
	}

	return &cred, nil
}
