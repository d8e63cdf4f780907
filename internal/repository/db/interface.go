package db

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a record does not exist or is not owned by the requesting user
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique constraint would be violated
	ErrConflict = errors.New("already exists")
)

// Database defines the interface for all database operations.
// Conversation and message access is always scoped to the owning user.
type Database interface {
	// Users
	GetUser(ctx context.Context, id string) (*User, error)
	UpsertUser(ctx context.Context, params UpsertUserParams) (*User, error)
	CreateCredential(ctx context.Context, username, passwordHash, userID string) (*Credential, error)
	GetCredential(ctx context.Context, username string) (*Credential, error)

	// Conversations
	ListConversations(ctx context.Context, userID string) ([]Conversation, error)
	CreateConversation(ctx context.Context, userID, title string) (*Conversation, error)
	GetConversation(ctx context.Context, id, userID string) (*Conversation, error)
	RenameConversation(ctx context.Context, id, userID, title string) error
	DeleteConversation(ctx context.Context, id, userID string) error

	// Messages
	ListMessages(ctx context.Context, conversationID, userID string) ([]Message, error)
	AppendMessage(ctx context.Context, params AppendMessageParams) (*Message, error)

	Ping(ctx context.Context) error
	Close() error
}
