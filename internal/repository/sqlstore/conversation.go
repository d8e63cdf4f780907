package sqlstore

import (
	"chatpat/internal/logger"
	"chatpat/internal/repository/db"
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// CreateConversation creates a new conversation for a user
func (s *Store) CreateConversation(ctx context.Context, userID, title string) (*db.Conversation, error) {
	now := s.timestamp()
	conv := &db.Conversation{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	query := `
	INSERT INTO conversations (id, user_id, title, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $4)
	`

	if _, err := s.conn.ExecContext(ctx, query, conv.ID, conv.UserID, conv.Title, now); err != nil {
		return nil, fmt.Errorf("error creating conversation: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{"conversation_id": conv.ID, "user_id": userID}).Info("Created new conversation")
	return conv, nil
}

// ListConversations retrieves all conversations for a user, most recently updated first
func (s *Store) ListConversations(ctx context.Context, userID string) ([]db.Conversation, error) {
	query := `
	SELECT id, user_id, title, created_at, updated_at
	FROM conversations
	WHERE user_id = $1
	ORDER BY updated_at DESC
	`

	rows, err := s.conn.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying conversations: %w", err)
	}
	defer rows.Close()

	conversations := []db.Conversation{}
	for rows.Next() {
		var conv db.Conversation
		if err := rows.Scan(&conv.ID, &conv.UserID, &conv.Title, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning conversation: %w", err)
		}
		conversations = append(conversations, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conversations: %w", err)
	}

	return conversations, nil
}

// GetConversation retrieves a conversation owned by userID
func (s *Store) GetConversation(ctx context.Context, id, userID string) (*db.Conversation, error) {
	query := `
	SELECT id, user_id, title, created_at, updated_at
	FROM conversations
	WHERE id = $1 AND user_id = $2
	`

	var conv db.Conversation
	err := s.conn.QueryRowContext(ctx, query, id, userID).Scan(&conv.ID, &conv.UserID, &conv.Title, &conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("error retrieving conversation: %w", err)
	}

	return &conv, nil
}

// RenameConversation sets a new title and bumps updated_at
func (s *Store) RenameConversation(ctx context.Context, id, userID, title string) error {
	query := `UPDATE conversations SET title = $1, updated_at = $2 WHERE id = $3 AND user_id = $4`

	res, err := s.conn.ExecContext(ctx, query, title, s.timestamp(), id, userID)
	if err != nil {
		return fmt.Errorf("error renaming conversation: %w", err)
	}
	return expectRow(res)
}

// DeleteConversation removes a conversation and all of its messages
func (s *Store) DeleteConversation(ctx context.Context, id, userID string) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
	DELETE FROM messages
	WHERE conversation_id IN (SELECT id FROM conversations WHERE id = $1 AND user_id = $2)
	`, id, userID)
	if err != nil {
		return fmt.Errorf("error deleting messages: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM conversations WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("error deleting conversation: %w", err)
	}
	if err := expectRow(res); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing delete: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{"conversation_id": id, "user_id": userID}).Info("Deleted conversation")
	return nil
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading affected rows: %w", err)
	}
	if n == 0 {
		return db.ErrNotFound
	}
	return nil
}
