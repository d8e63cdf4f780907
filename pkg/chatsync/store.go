// Package chatsync keeps a client-side cache of conversations and messages and
// submits messages optimistically, rolling back to a snapshot on failure.
package chatsync

import (
	"chatpat/pkg/chatclient"
	"chatpat/pkg/validation"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Notification shown when a submission fails for a reason other than the session
const (
	FailureTitle   = "Error"
	FailureMessage = "Failed to send message"
)

var (
	// ErrInFlight is returned when a conversation already has a pending submission
	ErrInFlight = errors.New("a message is already being sent in this conversation")
	// ErrEmptyContent is returned for blank messages
	ErrEmptyContent = errors.New("message cannot be empty")
)

// API is the subset of the chat client the store needs
type API interface {
	ListConversations(ctx context.Context) ([]chatclient.Conversation, error)
	CreateConversation(ctx context.Context, title string) (*chatclient.Conversation, error)
	DeleteConversation(ctx context.Context, id string) error
	ListMessages(ctx context.Context, conversationID string) ([]chatclient.Message, error)
	SendMessage(ctx context.Context, conversationID, content string) (*chatclient.Turn, error)
}

// UI receives the side effects of a submission
type UI interface {
	ClearInput()
	Notify(title, message string)
	RedirectToLogin()
}

// State is the lifecycle of a Submission
type State int

const (
	Pending State = iota
	Committed
	RolledBack
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Committed:
		return "committed"
	case RolledBack:
		return "rolled back"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Submission tracks one optimistic send
type Submission struct {
	ConversationID string
	Content        string
	Optimistic     chatclient.Message
	State          State
	Err            error

	snapshot []chatclient.Message
}

// Store caches conversations and their messages. It is safe for concurrent use.
type Store struct {
	api API
	ui  UI
	now func() time.Time

	mu            sync.RWMutex
	messages      map[string][]chatclient.Message
	conversations []chatclient.Conversation
	inFlight      map[string]bool
}

// NewStore creates a Store. A nil ui discards UI effects.
func NewStore(api API, ui UI) *Store {
	if ui == nil {
		ui = nopUI{}
	}
	return &Store{
		api:      api,
		ui:       ui,
		now:      time.Now,
		messages: make(map[string][]chatclient.Message),
		inFlight: make(map[string]bool),
	}
}

// Submit appends content optimistically and sends it. On failure the cached
// messages are restored to what they were before the call. The in-flight flag
// is cleared before any UI callback runs.
func (s *Store) Submit(ctx context.Context, conversationID, content string) (*Submission, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	s.mu.Lock()
	if s.inFlight[conversationID] {
		s.mu.Unlock()
		return nil, ErrInFlight
	}
	now := s.now()
	sub := &Submission{
		ConversationID: conversationID,
		Content:        content,
		State:          Pending,
		snapshot:       cloneMessages(s.messages[conversationID]),
		Optimistic: chatclient.Message{
			ID:             fmt.Sprintf("temp-%d", now.UnixNano()),
			ConversationID: conversationID,
			Role:           "user",
			Content:        content,
			CreatedAt:      now,
		},
	}
	s.messages[conversationID] = append(cloneMessages(s.messages[conversationID]), sub.Optimistic)
	s.inFlight[conversationID] = true
	s.mu.Unlock()

	s.ui.ClearInput()

	turn, err := s.api.SendMessage(ctx, conversationID, content)
	if err != nil {
		s.rollback(sub, err)
		return sub, err
	}

	s.commit(ctx, sub, turn)
	return sub, nil
}

func (s *Store) rollback(sub *Submission, err error) {
	s.mu.Lock()
	if sub.snapshot == nil {
		delete(s.messages, sub.ConversationID)
	} else {
		s.messages[sub.ConversationID] = sub.snapshot
	}
	delete(s.inFlight, sub.ConversationID)
	s.mu.Unlock()

	sub.State = RolledBack
	sub.Err = err
	if chatclient.IsUnauthorized(err) {
		s.ui.RedirectToLogin()
		return
	}
	s.ui.Notify(FailureTitle, FailureMessage)
}

// commit swaps the optimistic entry for the stored turn, then refetches. A
// failed refetch keeps the locally applied turn.
func (s *Store) commit(ctx context.Context, sub *Submission, turn *chatclient.Turn) {
	s.mu.Lock()
	messages := cloneMessages(sub.snapshot)
	if turn.UserMessage != nil {
		messages = append(messages, *turn.UserMessage)
	}
	if turn.AIMessage != nil {
		messages = append(messages, *turn.AIMessage)
	}
	s.messages[sub.ConversationID] = messages
	delete(s.inFlight, sub.ConversationID)
	s.mu.Unlock()

	sub.State = Committed
	_ = s.Refresh(ctx, sub.ConversationID)
	_ = s.RefreshConversations(ctx)
}

// Responding reports whether a submission for the conversation is in flight
func (s *Store) Responding(conversationID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inFlight[conversationID]
}

// Messages returns a copy of the cached messages of a conversation
func (s *Store) Messages(conversationID string) []chatclient.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneMessages(s.messages[conversationID])
}

// Conversations returns a copy of the cached conversation list
func (s *Store) Conversations() []chatclient.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]chatclient.Conversation, len(s.conversations))
	copy(out, s.conversations)
	return out
}

// Refresh reloads the messages of a conversation from the server
func (s *Store) Refresh(ctx context.Context, conversationID string) error {
	messages, err := s.api.ListMessages(ctx, conversationID)
	if err != nil {
		return s.fail(err)
	}
	s.mu.Lock()
	s.messages[conversationID] = cloneMessages(messages)
	s.mu.Unlock()
	return nil
}

// RefreshConversations reloads the conversation list from the server
func (s *Store) RefreshConversations(ctx context.Context) error {
	conversations, err := s.api.ListConversations(ctx)
	if err != nil {
		return s.fail(err)
	}
	s.mu.Lock()
	s.conversations = conversations
	s.mu.Unlock()
	return nil
}

// StartConversation creates a conversation titled after content and submits
// content as its first message.
func (s *Store) StartConversation(ctx context.Context, content string) (*chatclient.Conversation, *Submission, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, nil, ErrEmptyContent
	}

	conv, err := s.api.CreateConversation(ctx, validation.TruncateTitle(content))
	if err != nil {
		return nil, nil, s.fail(err)
	}

	s.mu.Lock()
	s.conversations = append([]chatclient.Conversation{*conv}, s.conversations...)
	s.messages[conv.ID] = []chatclient.Message{}
	s.mu.Unlock()

	sub, err := s.Submit(ctx, conv.ID, content)
	return conv, sub, err
}

// DeleteConversation deletes a conversation, drops its cache and reloads the list
func (s *Store) DeleteConversation(ctx context.Context, conversationID string) error {
	if err := s.api.DeleteConversation(ctx, conversationID); err != nil {
		return s.fail(err)
	}

	s.mu.Lock()
	delete(s.messages, conversationID)
	kept := make([]chatclient.Conversation, 0, len(s.conversations))
	for _, conv := range s.conversations {
		if conv.ID != conversationID {
			kept = append(kept, conv)
		}
	}
	s.conversations = kept
	s.mu.Unlock()

	return s.RefreshConversations(ctx)
}

// fail sends the user to login when the session is gone
func (s *Store) fail(err error) error {
	if chatclient.IsUnauthorized(err) {
		s.ui.RedirectToLogin()
	}
	return err
}

func cloneMessages(messages []chatclient.Message) []chatclient.Message {
	if messages == nil {
		return nil
	}
	out := make([]chatclient.Message, len(messages))
	copy(out, messages)
	return out
}

type nopUI struct{}

func (nopUI) ClearInput() {}

func (nopUI) Notify(string, string) {}

func (nopUI) RedirectToLogin() {}
