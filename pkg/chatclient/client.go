package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// User is the authenticated user's profile
type User struct {
	ID              string    `json:"id"`
	Email           string    `json:"email,omitempty"`
	FirstName       string    `json:"firstName,omitempty"`
	LastName        string    `json:"lastName,omitempty"`
	ProfileImageURL string    `json:"profileImageUrl,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Conversation is a chat thread owned by the current user
type Conversation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Message is one entry of a conversation
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	ImageURL       *string   `json:"imageUrl"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Turn holds both messages stored for one submitted message
type Turn struct {
	UserMessage *Message `json:"userMessage"`
	AIMessage   *Message `json:"aiMessage"`
}

// ChatTurn is a turn that may have started a new conversation
type ChatTurn struct {
	Conversation *Conversation `json:"conversation"`
	UserMessage  *Message      `json:"userMessage"`
	AIMessage    *Message      `json:"aiMessage"`
}

type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	Password  string `json:"password"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// APIError is a non-2xx response from the server
type APIError struct {
	Status  int
	Message string
	Detail  string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("chat api: %d %s: %s", e.Status, e.Message, e.Detail)
	}
	return fmt.Sprintf("chat api: %d %s", e.Status, e.Message)
}

// IsUnauthorized reports whether err is a 401 from the server
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// IsNotFound reports whether err is a 404 from the server
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Client talks to the chat HTTP API
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithToken starts the client with an existing session token
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New creates a Client for the server at baseURL
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns the current session token
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken replaces the session token
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/health", nil, nil)
}

// Register creates an account and keeps its session token
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/register", req, &resp); err != nil {
		return nil, err
	}
	c.SetToken(resp.Token)
	return &resp, nil
}

// Login authenticates and keeps the session token
func (c *Client) Login(ctx context.Context, username, password string) (*AuthResponse, error) {
	body := map[string]string{"username": username, "password": password}
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/login", body, &resp); err != nil {
		return nil, err
	}
	c.SetToken(resp.Token)
	return &resp, nil
}

// Logout ends the session and forgets the token
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/api/logout", nil, nil)
	c.SetToken("")
	return err
}

func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/api/auth/user", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) ListConversations(ctx context.Context) ([]Conversation, error) {
	var conversations []Conversation
	if err := c.do(ctx, http.MethodGet, "/api/conversations", nil, &conversations); err != nil {
		return nil, err
	}
	return conversations, nil
}

func (c *Client) CreateConversation(ctx context.Context, title string) (*Conversation, error) {
	var conv Conversation
	if err := c.do(ctx, http.MethodPost, "/api/conversations", map[string]string{"title": title}, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

func (c *Client) RenameConversation(ctx context.Context, id, title string) (*Conversation, error) {
	var conv Conversation
	if err := c.do(ctx, http.MethodPatch, "/api/conversations/"+url.PathEscape(id), map[string]string{"title": title}, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/conversations/"+url.PathEscape(id), nil, nil)
}

func (c *Client) ListMessages(ctx context.Context, conversationID string) ([]Message, error) {
	var messages []Message
	if err := c.do(ctx, http.MethodGet, "/api/conversations/"+url.PathEscape(conversationID)+"/messages", nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// SendMessage submits a turn to an existing conversation
func (c *Client) SendMessage(ctx context.Context, conversationID, content string) (*Turn, error) {
	var turn Turn
	path := "/api/conversations/" + url.PathEscape(conversationID) + "/messages"
	if err := c.do(ctx, http.MethodPost, path, map[string]string{"content": content}, &turn); err != nil {
		return nil, err
	}
	return &turn, nil
}

// Chat submits a turn, starting a new conversation when conversationID is empty
func (c *Client) Chat(ctx context.Context, content, conversationID string) (*ChatTurn, error) {
	body := map[string]string{"content": content}
	if conversationID != "" {
		body["conversationId"] = conversationID
	}
	var turn ChatTurn
	if err := c.do(ctx, http.MethodPost, "/api/chat", body, &turn); err != nil {
		return nil, err
	}
	return &turn, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("error marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return apiErr
	}
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &body) == nil && body.Message != "" {
		apiErr.Message = body.Message
		apiErr.Detail = body.Error
	} else if text := strings.TrimSpace(string(data)); text != "" {
		apiErr.Detail = text
	}
	return apiErr
}
