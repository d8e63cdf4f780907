package conversation

import (
	"chatpat/internal/logger"
	"chatpat/internal/repository/db"
	"chatpat/pkg/validation"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// DefaultTitle is used when a conversation is created without a title
const DefaultTitle = "New Chat"

// ErrConversationNotFound is returned when a conversation does not exist or belongs to another user
var ErrConversationNotFound = errors.New("conversation not found")

// ConversationService handles the business logic for conversation management
type ConversationService struct {
	db db.Database
}

// NewConversationService creates a new ConversationService
func NewConversationService(database db.Database) *ConversationService {
	return &ConversationService{
		db: database,
	}
}

// List retrieves all conversations for a user, most recently updated first
func (s *ConversationService) List(ctx context.Context, userID string) ([]db.Conversation, error) {
	conversations, err := s.db.ListConversations(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve conversations: %w", err)
	}
	return conversations, nil
}

// Create starts an empty conversation. The title is trimmed and truncated.
func (s *ConversationService) Create(ctx context.Context, userID, title string) (*db.Conversation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultTitle
	}

	conv, err := s.db.CreateConversation(ctx, userID, validation.TruncateTitle(title))
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return conv, nil
}

// Get retrieves a conversation the user owns
func (s *ConversationService) Get(ctx context.Context, id, userID string) (*db.Conversation, error) {
	conv, err := s.db.GetConversation(ctx, id, userID)
	if err != nil {
		return nil, notFound(err, "failed to retrieve conversation")
	}
	return conv, nil
}

// Messages retrieves the messages of a conversation the user owns, oldest first
func (s *ConversationService) Messages(ctx context.Context, id, userID string) ([]db.Message, error) {
	messages, err := s.db.ListMessages(ctx, id, userID)
	if err != nil {
		return nil, notFound(err, "failed to retrieve messages")
	}
	return messages, nil
}

// Rename changes the title of a conversation the user owns
func (s *ConversationService) Rename(ctx context.Context, id, userID, title string) (*db.Conversation, error) {
	title = validation.TruncateTitle(strings.TrimSpace(title))
	if err := s.db.RenameConversation(ctx, id, userID, title); err != nil {
		return nil, notFound(err, "failed to rename conversation")
	}
	return s.Get(ctx, id, userID)
}

// Delete removes a conversation the user owns together with its messages
func (s *ConversationService) Delete(ctx context.Context, id, userID string) error {
	if err := s.db.DeleteConversation(ctx, id, userID); err != nil {
		return notFound(err, "failed to delete conversation")
	}

	logger.FromContext(ctx).WithFields(logrus.Fields{
		"conversation_id": id,
		"user_id":         userID,
	}).Info("Conversation deleted")
	return nil
}

// notFound maps a store miss to ErrConversationNotFound and wraps anything else
func notFound(err error, msg string) error {
	if errors.Is(err, db.ErrNotFound) {
		return ErrConversationNotFound
	}
	return fmt.Errorf("%s: %w", msg, err)
}
