// Package memory provides an in-process db.Database used by tests and demo runs.
package memory

import (
	"chatpat/internal/repository/db"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var _ db.Database = (*Store)(nil)

// Store keeps every record in maps guarded by a single RWMutex
type Store struct {
	mu            sync.RWMutex
	users         map[string]db.User
	credentials   map[string]db.Credential
	conversations map[string]db.Conversation
	messages      map[string][]db.Message
	last          time.Time
}

// New returns an empty store
func New() *Store {
	return &Store{
		users:         make(map[string]db.User),
		credentials:   make(map[string]db.Credential),
		conversations: make(map[string]db.Conversation),
		messages:      make(map[string][]db.Message),
	}
}

// now is called with mu held
func (s *Store) now() time.Time {
	t := time.Now().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Nanosecond)
	}
	s.last = t
	return t
}

func (s *Store) GetUser(_ context.Context, id string) (*db.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &user, nil
}

func (s *Store) UpsertUser(_ context.Context, params db.UpsertUserParams) (*db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	user, ok := s.users[params.ID]
	if !ok {
		user = db.User{ID: params.ID, CreatedAt: now}
	}
	user.Email = params.Email
	user.FirstName = params.FirstName
	user.LastName = params.LastName
	user.ProfileImageURL = params.ProfileImageURL
	user.UpdatedAt = now
	s.users[params.ID] = user

	return &user, nil
}

func (s *Store) CreateCredential(_ context.Context, username, passwordHash, userID string) (*db.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.credentials[username]; exists {
		return nil, db.ErrConflict
	}
	cred := db.Credential{Username: username, PasswordHash: passwordHash, UserID: userID, CreatedAt: s.now()}
	s.credentials[username] = cred
	return &cred, nil
}

func (s *Store) GetCredential(_ context.Context, username string) (*db.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cred, ok := s.credentials[username]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &cred, nil
}

func (s *Store) ListConversations(_ context.Context, userID string) ([]db.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []db.Conversation{}
	for _, conv := range s.conversations {
		if conv.UserID == userID {
			out = append(out, conv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (s *Store) CreateConversation(_ context.Context, userID, title string) (*db.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	conv := db.Conversation{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.conversations[conv.ID] = conv
	return &conv, nil
}

func (s *Store) GetConversation(_ context.Context, id, userID string) (*db.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.owned(id, userID)
	if !ok {
		return nil, db.ErrNotFound
	}
	return &conv, nil
}

func (s *Store) RenameConversation(_ context.Context, id, userID, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.owned(id, userID)
	if !ok {
		return db.ErrNotFound
	}
	conv.Title = title
	conv.UpdatedAt = s.now()
	s.conversations[id] = conv
	return nil
}

func (s *Store) DeleteConversation(_ context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.owned(id, userID); !ok {
		return db.ErrNotFound
	}
	delete(s.conversations, id)
	delete(s.messages, id)
	return nil
}

func (s *Store) ListMessages(_ context.Context, conversationID, userID string) ([]db.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.owned(conversationID, userID); !ok {
		return nil, db.ErrNotFound
	}
	out := make([]db.Message, len(s.messages[conversationID]))
	copy(out, s.messages[conversationID])
	return out, nil
}

func (s *Store) AppendMessage(_ context.Context, params db.AppendMessageParams) (*db.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[params.ConversationID]
	if !ok {
		return nil, db.ErrNotFound
	}

	now := s.now()
	msg := db.Message{
		ID:             uuid.New().String(),
		ConversationID: params.ConversationID,
		Role:           params.Role,
		Content:        params.Content,
		ImageURL:       params.ImageURL,
		CreatedAt:      now,
	}
	s.messages[conv.ID] = append(s.messages[conv.ID], msg)
	conv.UpdatedAt = now
	s.conversations[conv.ID] = conv
	return &msg, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// owned is called with mu held
func (s *Store) owned(id, userID string) (db.Conversation, bool) {
	conv, ok := s.conversations[id]
	if !ok || conv.UserID != userID {
		return db.Conversation{}, false
	}
	return conv, true
}
