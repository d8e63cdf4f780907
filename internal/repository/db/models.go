package db

import "time"

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// User represents a user in the database, keyed by the external subject id
type User struct {
	ID              string    `json:"id"`
	Email           string    `json:"email,omitempty"`
	FirstName       string    `json:"firstName,omitempty"`
	LastName        string    `json:"lastName,omitempty"`
	ProfileImageURL string    `json:"profileImageUrl,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// UpsertUserParams carries the profile fields written on every authenticated request
type UpsertUserParams struct {
	ID              string
	Email           string
	FirstName       string
	LastName        string
	ProfileImageURL string
}

// Credential holds a local username/password login bound to a user
type Credential struct {
	Username     string
	PasswordHash string
	UserID       string
	CreatedAt    time.Time
}

// Conversation represents a conversation in the database
type Conversation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Message represents a message in a conversation
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	ImageURL       *string   `json:"imageUrl"`
	CreatedAt      time.Time `json:"createdAt"`
}

// AppendMessageParams describes a message to append to a conversation
type AppendMessageParams struct {
	ConversationID string
	Role           string
	Content        string
	ImageURL       *string
}
