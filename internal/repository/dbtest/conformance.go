// Package dbtest holds a behavioural test suite shared by every db.Database implementation.
package dbtest

import (
	"chatpat/internal/repository/db"
	"context"
	"errors"
	"reflect"
	"testing"
)

// Factory returns a fresh, empty store. Cleanup is registered on t.
type Factory func(t *testing.T) db.Database

// Run exercises the full db.Database contract against stores built by newStore
func Run(t *testing.T, newStore Factory) {
	t.Run("Users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("Credentials", func(t *testing.T) { testCredentials(t, newStore(t)) })
	t.Run("Conversations", func(t *testing.T) { testConversations(t, newStore(t)) })
	t.Run("Ownership", func(t *testing.T) { testOwnership(t, newStore(t)) })
	t.Run("Messages", func(t *testing.T) { testMessages(t, newStore(t)) })
	t.Run("DeleteCascades", func(t *testing.T) { testDeleteCascades(t, newStore(t)) })
}

func mustUser(t *testing.T, store db.Database, id string) *db.User {
	t.Helper()
	user, err := store.UpsertUser(context.Background(), db.UpsertUserParams{ID: id, Email: id + "@example.com"})
	if err != nil {
		t.Fatalf("UpsertUser(%q) error = %v", id, err)
	}
	return user
}

func mustConversation(t *testing.T, store db.Database, userID, title string) *db.Conversation {
	t.Helper()
	conv, err := store.CreateConversation(context.Background(), userID, title)
	if err != nil {
		t.Fatalf("CreateConversation() error = %v", err)
	}
	return conv
}

func testUsers(t *testing.T, store db.Database) {
	ctx := context.Background()

	if _, err := store.GetUser(ctx, "missing"); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("GetUser(missing) error = %v, want ErrNotFound", err)
	}

	first, err := store.UpsertUser(ctx, db.UpsertUserParams{ID: "sub-1", Email: "a@example.com", FirstName: "Ada"})
	if err != nil {
		t.Fatalf("UpsertUser() error = %v", err)
	}
	if first.Email != "a@example.com" || first.FirstName != "Ada" {
		t.Errorf("UpsertUser() = %+v, want email and first name set", first)
	}

	second, err := store.UpsertUser(ctx, db.UpsertUserParams{ID: "sub-1", Email: "b@example.com", LastName: "Lovelace"})
	if err != nil {
		t.Fatalf("UpsertUser() second call error = %v", err)
	}
	if second.Email != "b@example.com" || second.LastName != "Lovelace" || second.FirstName != "" {
		t.Errorf("UpsertUser() did not refresh profile: %+v", second)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("UpsertUser() created_at changed from %v to %v", first.CreatedAt, second.CreatedAt)
	}
	if second.UpdatedAt.Before(first.UpdatedAt) {
		t.Errorf("UpsertUser() updated_at went backwards")
	}

	got, err := store.GetUser(ctx, "sub-1")
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if got.Email != "b@example.com" {
		t.Errorf("GetUser().Email = %q, want %q", got.Email, "b@example.com")
	}
}

func testCredentials(t *testing.T, store db.Database) {
	ctx := context.Background()
	mustUser(t, store, "local-1")

	if _, err := store.GetCredential(ctx, "alice"); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("GetCredential(missing) error = %v, want ErrNotFound", err)
	}

	if _, err := store.CreateCredential(ctx, "alice", "hash", "local-1"); err != nil {
		t.Fatalf("CreateCredential() error = %v", err)
	}
	if _, err := store.CreateCredential(ctx, "alice", "other", "local-1"); !errors.Is(err, db.ErrConflict) {
		t.Errorf("CreateCredential(duplicate) error = %v, want ErrConflict", err)
	}

	cred, err := store.GetCredential(ctx, "alice")
	if err != nil {
		t.Fatalf("GetCredential() error = %v", err)
	}
	if cred.PasswordHash != "hash" || cred.UserID != "local-1" {
		t.Errorf("GetCredential() = %+v", cred)
	}
}

func testConversations(t *testing.T, store db.Database) {
	ctx := context.Background()
	mustUser(t, store, "u1")

	empty, err := store.ListConversations(ctx, "u1")
	if err != nil {
		t.Fatalf("ListConversations() error = %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("ListConversations() on new user = %d items, want 0", len(empty))
	}

	a := mustConversation(t, store, "u1", "A")
	b := mustConversation(t, store, "u1", "B")

	list, err := store.ListConversations(ctx, "u1")
	if err != nil {
		t.Fatalf("ListConversations() error = %v", err)
	}
	if len(list) != 2 || list[0].ID != b.ID || list[1].ID != a.ID {
		t.Fatalf("ListConversations() order = %v, want [B A]", titles(list))
	}

	// Appending to A makes it the most recently updated.
	_, err = store.AppendMessage(ctx, db.AppendMessageParams{ConversationID: a.ID, Role: db.RoleUser, Content: "hi"})
	if err != nil {
		t.Fatalf("AppendMessage() error = %v", err)
	}
	list, _ = store.ListConversations(ctx, "u1")
	if list[0].ID != a.ID {
		t.Errorf("ListConversations() after append = %v, want A first", titles(list))
	}

	if err := store.RenameConversation(ctx, b.ID, "u1", "Renamed"); err != nil {
		t.Fatalf("RenameConversation() error = %v", err)
	}
	got, err := store.GetConversation(ctx, b.ID, "u1")
	if err != nil {
		t.Fatalf("GetConversation() error = %v", err)
	}
	if got.Title != "Renamed" {
		t.Errorf("GetConversation().Title = %q, want %q", got.Title, "Renamed")
	}
	if !got.UpdatedAt.After(b.UpdatedAt) {
		t.Errorf("RenameConversation() did not bump updated_at")
	}

	if err := store.RenameConversation(ctx, "missing", "u1", "x"); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("RenameConversation(missing) error = %v, want ErrNotFound", err)
	}
}

func testOwnership(t *testing.T, store db.Database) {
	ctx := context.Background()
	mustUser(t, store, "owner")
	mustUser(t, store, "intruder")

	conv := mustConversation(t, store, "owner", "private")
	if _, err := store.AppendMessage(ctx, db.AppendMessageParams{ConversationID: conv.ID, Role: db.RoleUser, Content: "secret"}); err != nil {
		t.Fatalf("AppendMessage() error = %v", err)
	}

	if _, err := store.GetConversation(ctx, conv.ID, "intruder"); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("GetConversation(intruder) error = %v, want ErrNotFound", err)
	}
	msgs, err := store.ListMessages(ctx, conv.ID, "intruder")
	if !errors.Is(err, db.ErrNotFound) {
		t.Errorf("ListMessages(intruder) error = %v, want ErrNotFound", err)
	}
	if len(msgs) != 0 {
		t.Errorf("ListMessages(intruder) leaked %d messages", len(msgs))
	}
	if err := store.RenameConversation(ctx, conv.ID, "intruder", "mine"); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("RenameConversation(intruder) error = %v, want ErrNotFound", err)
	}
	if err := store.DeleteConversation(ctx, conv.ID, "intruder"); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("DeleteConversation(intruder) error = %v, want ErrNotFound", err)
	}

	list, err := store.ListConversations(ctx, "intruder")
	if err != nil {
		t.Fatalf("ListConversations() error = %v", err)
	}
	if len(list) != 0 {
		t.Errorf("ListConversations(intruder) = %d items, want 0", len(list))
	}

	// The owner's data is untouched.
	msgs, err = store.ListMessages(ctx, conv.ID, "owner")
	if err != nil || len(msgs) != 1 {
		t.Errorf("ListMessages(owner) = %d, %v; want 1 message", len(msgs), err)
	}
}

func testMessages(t *testing.T, store db.Database) {
	ctx := context.Background()
	mustUser(t, store, "u1")
	conv := mustConversation(t, store, "u1", "chat")

	image := "data:image/png;base64,AAAA"
	inputs := []db.AppendMessageParams{
		{ConversationID: conv.ID, Role: db.RoleUser, Content: "draw a cat"},
		{ConversationID: conv.ID, Role: db.RoleAssistant, Content: "here", ImageURL: &image},
		{ConversationID: conv.ID, Role: db.RoleUser, Content: "thanks"},
	}
	for _, in := range inputs {
		if _, err := store.AppendMessage(ctx, in); err != nil {
			t.Fatalf("AppendMessage(%q) error = %v", in.Content, err)
		}
	}

	first, err := store.ListMessages(ctx, conv.ID, "u1")
	if err != nil {
		t.Fatalf("ListMessages() error = %v", err)
	}
	if len(first) != len(inputs) {
		t.Fatalf("ListMessages() returned %d messages, want %d", len(first), len(inputs))
	}
	for i, msg := range first {
		if msg.Content != inputs[i].Content || msg.Role != inputs[i].Role {
			t.Errorf("message %d = %s/%q, want %s/%q", i, msg.Role, msg.Content, inputs[i].Role, inputs[i].Content)
		}
	}
	if first[0].ImageURL != nil {
		t.Errorf("message 0 ImageURL = %v, want nil", *first[0].ImageURL)
	}
	if first[1].ImageURL == nil || *first[1].ImageURL != image {
		t.Errorf("message 1 ImageURL = %v, want %q", first[1].ImageURL, image)
	}

	second, err := store.ListMessages(ctx, conv.ID, "u1")
	if err != nil {
		t.Fatalf("ListMessages() second call error = %v", err)
	}
	if !reflect.DeepEqual(ids(first), ids(second)) {
		t.Errorf("ListMessages() not stable: %v then %v", ids(first), ids(second))
	}

	_, err = store.AppendMessage(ctx, db.AppendMessageParams{ConversationID: "missing", Role: db.RoleUser, Content: "x"})
	if !errors.Is(err, db.ErrNotFound) {
		t.Errorf("AppendMessage(missing conversation) error = %v, want ErrNotFound", err)
	}
}

func testDeleteCascades(t *testing.T, store db.Database) {
	ctx := context.Background()
	mustUser(t, store, "u1")
	conv := mustConversation(t, store, "u1", "doomed")
	keep := mustConversation(t, store, "u1", "kept")

	for _, c := range []*db.Conversation{conv, keep} {
		if _, err := store.AppendMessage(ctx, db.AppendMessageParams{ConversationID: c.ID, Role: db.RoleUser, Content: "hello"}); err != nil {
			t.Fatalf("AppendMessage() error = %v", err)
		}
	}

	if err := store.DeleteConversation(ctx, conv.ID, "u1"); err != nil {
		t.Fatalf("DeleteConversation() error = %v", err)
	}
	if _, err := store.ListMessages(ctx, conv.ID, "u1"); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("ListMessages(deleted) error = %v, want ErrNotFound", err)
	}
	if err := store.DeleteConversation(ctx, conv.ID, "u1"); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("DeleteConversation(twice) error = %v, want ErrNotFound", err)
	}

	msgs, err := store.ListMessages(ctx, keep.ID, "u1")
	if err != nil || len(msgs) != 1 {
		t.Errorf("ListMessages(kept) = %d, %v; want 1 message", len(msgs), err)
	}
}

func titles(list []db.Conversation) []string {
	out := make([]string, len(list))
	for i, c := range list {
		out[i] = c.Title
	}
	return out
}

func ids(list []db.Message) []string {
	out := make([]string, len(list))
	for i, m := range list {
		out[i] = m.ID
	}
	return out
}
