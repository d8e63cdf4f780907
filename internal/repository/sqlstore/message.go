package sqlstore

import (
	"chatpat/internal/repository/db"
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// AppendMessage stores a message and bumps the conversation's updated_at
func (s *Store) AppendMessage(ctx context.Context, params db.AppendMessageParams) (*db.Message, error) {
	msg := &db.Message{
		ID:             uuid.New().String(),
		ConversationID: params.ConversationID,
		Role:           params.Role,
		Content:        params.Content,
		ImageURL:       params.ImageURL,
		CreatedAt:      s.timestamp(),
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE conversations SET updated_at = $1 WHERE id = $2`, msg.CreatedAt, msg.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("error updating conversation timestamp: %w", err)
	}
	if err := expectRow(res); err != nil {
		return nil, err
	}

	query := `
	INSERT INTO messages (id, conversation_id, role, content, image_url, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = tx.ExecContext(ctx, query, msg.ID, msg.ConversationID, msg.Role, msg.Content, nullStringPtr(msg.ImageURL), msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("error adding message: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("error committing message: %w", err)
	}

	return msg, nil
}

// ListMessages retrieves the messages of a conversation owned by userID, oldest first
func (s *Store) ListMessages(ctx context.Context, conversationID, userID string) ([]db.Message, error) {
	if _, err := s.GetConversation(ctx, conversationID, userID); err != nil {
		return nil, err
	}

	query := `
	SELECT id, conversation_id, role, content, image_url, created_at
	FROM messages
	WHERE conversation_id = $1
	ORDER BY created_at ASC
	`

	rows, err := s.conn.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("error querying messages: %w", err)
	}
	defer rows.Close()

	messages := []db.Message{}
	for rows.Next() {
		var (
			msg      db.Message
			imageURL sql.NullString
		)
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Role, &msg.Content, &imageURL, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning message: %w", err)
		}
		if imageURL.Valid {
			url := imageURL.String
			msg.ImageURL = &url
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	return messages, nil
}
