package testutil

import (
	"chatpat/internal/app"
	"chatpat/internal/config"
	"chatpat/internal/repository/db"
	"chatpat/internal/service/llm"
	"context"
	"errors"
	"time"
)

var errNotImplemented = errors.New("not implemented")

// MockDatabase is a mock implementation of db.Database for testing
type MockDatabase struct {
	// User mocks
	GetUserFunc          func(ctx context.Context, id string) (*db.User, error)
	UpsertUserFunc       func(ctx context.Context, params db.UpsertUserParams) (*db.User, error)
	CreateCredentialFunc func(ctx context.Context, username, passwordHash, userID string) (*db.Credential, error)
	GetCredentialFunc    func(ctx context.Context, username string) (*db.Credential, error)

	// Conversation mocks
	ListConversationsFunc  func(ctx context.Context, userID string) ([]db.Conversation, error)
	CreateConversationFunc func(ctx context.Context, userID, title string) (*db.Conversation, error)
	GetConversationFunc    func(ctx context.Context, id, userID string) (*db.Conversation, error)
	RenameConversationFunc func(ctx context.Context, id, userID, title string) error
	DeleteConversationFunc func(ctx context.Context, id, userID string) error

	// Message mocks
	ListMessagesFunc  func(ctx context.Context, conversationID, userID string) ([]db.Message, error)
	AppendMessageFunc func(ctx context.Context, params db.AppendMessageParams) (*db.Message, error)

	PingFunc func(ctx context.Context) error
}

var _ db.Database = (*MockDatabase)(nil)

// User methods
func (m *MockDatabase) GetUser(ctx context.Context, id string) (*db.User, error) {
	if m.GetUserFunc != nil {
		return m.GetUserFunc(ctx, id)
	}
	return nil, errNotImplemented
}

func (m *MockDatabase) UpsertUser(ctx context.Context, params db.UpsertUserParams) (*db.User, error) {
	if m.UpsertUserFunc != nil {
		return m.UpsertUserFunc(ctx, params)
	}
	return nil, errNotImplemented
}

func (m *MockDatabase) CreateCredential(ctx context.Context, username, passwordHash, userID string) (*db.Credential, error) {
	if m.CreateCredentialFunc != nil {
		return m.CreateCredentialFunc(ctx, username, passwordHash, userID)
	}
	return nil, errNotImplemented
}

func (m *MockDatabase) GetCredential(ctx context.Context, username string) (*db.Credential, error) {
	if m.GetCredentialFunc != nil {
		return m.GetCredentialFunc(ctx, username)
	}
	return nil, errNotImplemented
}

// Conversation methods
func (m *MockDatabase) ListConversations(ctx context.Context, userID string) ([]db.Conversation, error) {
	if m.ListConversationsFunc != nil {
		return m.ListConversationsFunc(ctx, userID)
	}
	return nil, errNotImplemented
}

func (m *MockDatabase) CreateConversation(ctx context.Context, userID, title string) (*db.Conversation, error) {
	if m.CreateConversationFunc != nil {
		return m.CreateConversationFunc(ctx, userID, title)
	}
	return nil, errNotImplemented
}

func (m *MockDatabase) GetConversation(ctx context.Context, id, userID string) (*db.Conversation, error) {
	if m.GetConversationFunc != nil {
		return m.GetConversationFunc(ctx, id, userID)
	}
	return nil, errNotImplemented
}

func (m *MockDatabase) RenameConversation(ctx context.Context, id, userID, title string) error {
	if m.RenameConversationFunc != nil {
		return m.RenameConversationFunc(ctx, id, userID, title)
	}
	return errNotImplemented
}

func (m *MockDatabase) DeleteConversation(ctx context.Context, id, userID string) error {
	if m.DeleteConversationFunc != nil {
		return m.DeleteConversationFunc(ctx, id, userID)
	}
	return errNotImplemented
}

// Message methods
func (m *MockDatabase) ListMessages(ctx context.Context, conversationID, userID string) ([]db.Message, error) {
	if m.ListMessagesFunc != nil {
		return m.ListMessagesFunc(ctx, conversationID, userID)
	}
	return nil, errNotImplemented
}

func (m *MockDatabase) AppendMessage(ctx context.Context, params db.AppendMessageParams) (*db.Message, error) {
	if m.AppendMessageFunc != nil {
		return m.AppendMessageFunc(ctx, params)
	}
	return nil, errNotImplemented
}

func (m *MockDatabase) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

func (m *MockDatabase) Close() error {
	return nil
}

// MockGateway is a mock implementation of llm.Gateway for testing
type MockGateway struct {
	GenerateTextFunc  func(ctx context.Context, prompt string) (string, error)
	GenerateImageFunc func(ctx context.Context, prompt string) (*llm.Image, error)

	TextCalls  []string
	ImageCalls []string
}

var _ llm.Gateway = (*MockGateway)(nil)

func (m *MockGateway) GenerateText(ctx context.Context, prompt string) (string, error) {
	m.TextCalls = append(m.TextCalls, prompt)
	if m.GenerateTextFunc != nil {
		return m.GenerateTextFunc(ctx, prompt)
	}
	return "", errNotImplemented
}

func (m *MockGateway) GenerateImage(ctx context.Context, prompt string) (*llm.Image, error) {
	m.ImageCalls = append(m.ImageCalls, prompt)
	if m.GenerateImageFunc != nil {
		return m.GenerateImageFunc(ctx, prompt)
	}
	return nil, errNotImplemented
}

func (m *MockGateway) Name() string {
	return "mock"
}

// TestJWTSecret is a 32 byte secret accepted by the auth package
const TestJWTSecret = "test-secret-key-with-32-bytes-ok"

// NewMockAppConfig returns configuration suitable for unit tests
func NewMockAppConfig() *config.AppConfig {
	return &config.AppConfig{
		Server: config.ServerConfig{
			Port:           "8080",
			AllowedOrigins: []string{"*"},
			ReadTimeout:    5 * time.Second,
			WriteTimeout:   5 * time.Second,
			MaxBodyBytes:   1 << 20,
		},
		Database: config.DatabaseConfig{Driver: config.DriverMemory},
		LLM: config.LLMConfig{
			Provider:     config.ProviderGemini,
			SystemPrompt: "You are a helpful assistant.",
			Timeout:      time.Second,
		},
		Auth: config.AuthConfig{
			JWTSecret:       []byte(TestJWTSecret),
			TokenExpiration: time.Hour,
			CookieName:      "chatpat_session",
		},
		LogLevel: "error",
	}
}

// NewMockConfig creates an app.Config wired to the given mocks
func NewMockConfig(database db.Database, gateway llm.Gateway) *app.Config {
	return app.NewConfig(database, gateway, NewMockAppConfig())
}
