package chat

import (
	"chatpat/internal/repository/db"
	"chatpat/internal/repository/memory"
	"chatpat/internal/service/conversation"
	"chatpat/internal/service/llm"
	"chatpat/internal/testutil"
	"context"
	"errors"
	"strings"
	"testing"
)

func newTestService(database db.Database, gateway llm.Gateway) *ChatService {
	return NewChatService(testutil.NewMockConfig(database, gateway))
}

func textGateway(reply string, err error) *testutil.MockGateway {
	return &testutil.MockGateway{
		GenerateTextFunc: func(ctx context.Context, prompt string) (string, error) { return reply, err },
	}
}

func TestNewChatService(t *testing.T) {
	mockDB := &testutil.MockDatabase{}
	service := newTestService(mockDB, &testutil.MockGateway{})

	if service.db == nil {
		t.Error("Expected db to be set")
	}
	if service.gateway == nil {
		t.Error("Expected gateway to be set")
	}
}

func TestSubmitTurn_NewConversation(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	gateway := textGateway("4", nil)
	service := newTestService(store, gateway)

	result, err := service.SubmitTurn(ctx, TurnRequest{UserID: "u1", Content: "  What is 2+2  "})
	if err != nil {
		t.Fatalf("SubmitTurn() error = %v", err)
	}

	if result.Kind != KindText {
		t.Errorf("Kind = %q, want %q", result.Kind, KindText)
	}
	if result.Conversation.Title != "What is 2+2" {
		t.Errorf("Conversation.Title = %q, want %q", result.Conversation.Title, "What is 2+2")
	}
	if result.UserMessage.Content != "What is 2+2" || result.UserMessage.Role != db.RoleUser {
		t.Errorf("UserMessage = %+v", result.UserMessage)
	}
	if result.AssistantMessage.Content != "4" || result.AssistantMessage.Role != db.RoleAssistant {
		t.Errorf("AssistantMessage = %+v", result.AssistantMessage)
	}
	if len(gateway.TextCalls) != 1 || gateway.TextCalls[0] != "What is 2+2" {
		t.Errorf("gateway prompts = %v", gateway.TextCalls)
	}

	messages, err := store.ListMessages(ctx, result.Conversation.ID, "u1")
	if err != nil {
		t.Fatalf("ListMessages() error = %v", err)
	}
	if len(messages) != 2 || messages[0].Role != db.RoleUser || messages[1].Role != db.RoleAssistant {
		t.Errorf("stored messages = %+v, want user then assistant", messages)
	}
}

func TestSubmitTurn_TitleTruncation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "short", content: "Hello", want: "Hello"},
		{name: "exactly fifty", content: strings.Repeat("a", 50), want: strings.Repeat("a", 50)},
		{name: "long", content: strings.Repeat("b", 80), want: strings.Repeat("b", 50) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := memory.New()
			service := newTestService(store, textGateway("ok", nil))

			result, err := service.SubmitTurn(ctx, TurnRequest{UserID: "u1", Content: tt.content})
			if err != nil {
				t.Fatalf("SubmitTurn() error = %v", err)
			}
			stored, _ := store.GetConversation(ctx, result.Conversation.ID, "u1")
			if stored.Title != tt.want {
				t.Errorf("title = %q, want %q", stored.Title, tt.want)
			}
		})
	}
}

func TestSubmitTurn_TitleOnlyAfterFirstExchange(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	service := newTestService(store, textGateway("ok", nil))

	first, err := service.SubmitTurn(ctx, TurnRequest{UserID: "u1", Content: "first question"})
	if err != nil {
		t.Fatalf("SubmitTurn() error = %v", err)
	}
	convID := first.Conversation.ID

	// A manual rename must survive later turns.
	if err := store.RenameConversation(ctx, convID, "u1", "Custom"); err != nil {
		t.Fatalf("RenameConversation() error = %v", err)
	}
	if _, err := service.SubmitTurn(ctx, TurnRequest{ConversationID: convID, UserID: "u1", Content: "second question"}); err != nil {
		t.Fatalf("SubmitTurn() second error = %v", err)
	}

	conv, _ := store.GetConversation(ctx, convID, "u1")
	if conv.Title != "Custom" {
		t.Errorf("title after second turn = %q, want Custom", conv.Title)
	}
	messages, _ := store.ListMessages(ctx, convID, "u1")
	if len(messages) != 4 {
		t.Errorf("message count = %d, want 4", len(messages))
	}
}

func TestSubmitTurn_ExistingEmptyConversationGetsTitle(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	conv, _ := store.CreateConversation(ctx, "u1", "New Chat")
	service := newTestService(store, textGateway("ok", nil))

	result, err := service.SubmitTurn(ctx, TurnRequest{ConversationID: conv.ID, UserID: "u1", Content: "Plan a trip to Rome"})
	if err != nil {
		t.Fatalf("SubmitTurn() error = %v", err)
	}
	if result.Conversation.Title != "Plan a trip to Rome" {
		t.Errorf("result title = %q", result.Conversation.Title)
	}
	stored, _ := store.GetConversation(ctx, conv.ID, "u1")
	if stored.Title != "Plan a trip to Rome" {
		t.Errorf("stored title = %q", stored.Title)
	}
}

func TestSubmitTurn_Replies(t *testing.T) {
	upstream := errors.New("upstream exploded")

	tests := []struct {
		name      string
		content   string
		gateway   *testutil.MockGateway
		wantKind  TurnKind
		wantReply string
		wantImage string
	}{
		{
			name:      "text success",
			content:   "What is 2+2",
			gateway:   textGateway("four", nil),
			wantKind:  KindText,
			wantReply: "four",
		},
		{
			name:      "text failure",
			content:   "What is 2+2",
			gateway:   textGateway("", upstream),
			wantKind:  KindText,
			wantReply: TextErrorReply,
		},
		{
			name:      "text empty",
			content:   "What is 2+2",
			gateway:   textGateway("  ", nil),
			wantKind:  KindText,
			wantReply: EmptyTextReply,
		},
		{
			name:    "image success",
			content: "Please draw a cat",
			gateway: &testutil.MockGateway{GenerateImageFunc: func(ctx context.Context, prompt string) (*llm.Image, error) {
				return &llm.Image{Data: []byte("abc"), MIMEType: "image/png"}, nil
			}},
			wantKind:  KindImage,
			wantReply: ImageGeneratedReply,
			wantImage: "data:image/png;base64,YWJj",
		},
		{
			name:    "image none",
			content: "image of a sunset",
			gateway: &testutil.MockGateway{GenerateImageFunc: func(ctx context.Context, prompt string) (*llm.Image, error) {
				return nil, nil
			}},
			wantKind:  KindImage,
			wantReply: ImageUnavailableReply,
		},
		{
			name:    "image failure",
			content: "SKETCH a house",
			gateway: &testutil.MockGateway{GenerateImageFunc: func(ctx context.Context, prompt string) (*llm.Image, error) {
				return nil, upstream
			}},
			wantKind:  KindImage,
			wantReply: ImageErrorReply,
		},
		{
			name:    "image missing from model response",
			content: "draw a lighthouse",
			gateway: &testutil.MockGateway{GenerateImageFunc: func(ctx context.Context, prompt string) (*llm.Image, error) {
				return nil, llm.ErrNoImageData
			}},
			wantKind:  KindImage,
			wantReply: ImageErrorReply,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := newTestService(memory.New(), tt.gateway)

			result, err := service.SubmitTurn(context.Background(), TurnRequest{UserID: "u1", Content: tt.content})
			if err != nil {
				t.Fatalf("SubmitTurn() error = %v, want gateway failures absorbed", err)
			}
			if result.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", result.Kind, tt.wantKind)
			}
			if result.AssistantMessage.Content != tt.wantReply {
				t.Errorf("reply = %q, want %q", result.AssistantMessage.Content, tt.wantReply)
			}
			if strings.Contains(result.AssistantMessage.Content, upstream.Error()) {
				t.Error("upstream error leaked into reply")
			}

			gotImage := ""
			if result.AssistantMessage.ImageURL != nil {
				gotImage = *result.AssistantMessage.ImageURL
			}
			if gotImage != tt.wantImage {
				t.Errorf("ImageURL = %q, want %q", gotImage, tt.wantImage)
			}

			if tt.wantKind == KindImage && len(tt.gateway.TextCalls) != 0 {
				t.Error("image request also called the text path")
			}
			if tt.wantKind == KindText && len(tt.gateway.ImageCalls) != 0 {
				t.Error("text request also called the image path")
			}
		})
	}
}

func TestSubmitTurn_EmptyContent(t *testing.T) {
	mockDB := &testutil.MockDatabase{
		CreateConversationFunc: func(ctx context.Context, userID, title string) (*db.Conversation, error) {
			t.Error("conversation created for empty content")
			return nil, errors.New("unexpected")
		},
	}
	service := newTestService(mockDB, &testutil.MockGateway{})

	for _, content := range []string{"", "   ", "\n\t"} {
		if _, err := service.SubmitTurn(context.Background(), TurnRequest{UserID: "u1", Content: content}); !errors.Is(err, ErrEmptyContent) {
			t.Errorf("SubmitTurn(%q) error = %v, want ErrEmptyContent", content, err)
		}
	}
}

func TestSubmitTurn_NotOwned(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	conv, _ := store.CreateConversation(ctx, "owner", "private")
	gateway := textGateway("hi", nil)
	service := newTestService(store, gateway)

	_, err := service.SubmitTurn(ctx, TurnRequest{ConversationID: conv.ID, UserID: "intruder", Content: "hello"})
	if !errors.Is(err, conversation.ErrConversationNotFound) {
		t.Fatalf("SubmitTurn() error = %v, want ErrConversationNotFound", err)
	}

	messages, _ := store.ListMessages(ctx, conv.ID, "owner")
	if len(messages) != 0 {
		t.Errorf("messages stored for rejected turn: %d", len(messages))
	}
	if len(gateway.TextCalls) != 0 {
		t.Error("gateway called for rejected turn")
	}
}

func TestSubmitTurn_NotOwnedBlankContent(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	conv, _ := store.CreateConversation(ctx, "owner", "private")
	service := newTestService(store, &testutil.MockGateway{})

	_, err := service.SubmitTurn(ctx, TurnRequest{ConversationID: conv.ID, UserID: "intruder", Content: "   "})
	if !errors.Is(err, conversation.ErrConversationNotFound) {
		t.Errorf("SubmitTurn() error = %v, want ErrConversationNotFound", err)
	}

	_, err = service.SubmitTurn(ctx, TurnRequest{ConversationID: conv.ID, UserID: "owner", Content: "   "})
	if !errors.Is(err, ErrEmptyContent) {
		t.Errorf("SubmitTurn() as owner error = %v, want ErrEmptyContent", err)
	}
}

func TestSubmitTurn_ReturnsStoredConversation(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	conv, _ := store.CreateConversation(ctx, "u1", "")
	service := newTestService(store, textGateway("reply", nil))

	result, err := service.SubmitTurn(ctx, TurnRequest{ConversationID: conv.ID, UserID: "u1", Content: "first question"})
	if err != nil {
		t.Fatalf("SubmitTurn() error = %v", err)
	}

	stored, _ := store.GetConversation(ctx, conv.ID, "u1")
	if result.Conversation.Title != "first question" || stored.Title != "first question" {
		t.Errorf("Title = %q (stored %q), want %q", result.Conversation.Title, stored.Title, "first question")
	}
	if !result.Conversation.UpdatedAt.Equal(stored.UpdatedAt) {
		t.Errorf("UpdatedAt = %v, want stored %v", result.Conversation.UpdatedAt, stored.UpdatedAt)
	}
	if !result.Conversation.UpdatedAt.After(conv.UpdatedAt) {
		t.Errorf("UpdatedAt %v did not move past %v", result.Conversation.UpdatedAt, conv.UpdatedAt)
	}
}

func TestSubmitTurn_UserMessageStoreFailure(t *testing.T) {
	storeErr := errors.New("disk full")
	mockDB := &testutil.MockDatabase{
		GetConversationFunc: func(ctx context.Context, id, userID string) (*db.Conversation, error) {
			return &db.Conversation{ID: id, UserID: userID}, nil
		},
		AppendMessageFunc: func(ctx context.Context, params db.AppendMessageParams) (*db.Message, error) {
			return nil, storeErr
		},
	}
	gateway := textGateway("hi", nil)
	service := newTestService(mockDB, gateway)

	_, err := service.SubmitTurn(context.Background(), TurnRequest{ConversationID: "c1", UserID: "u1", Content: "hello"})
	if !errors.Is(err, storeErr) {
		t.Errorf("SubmitTurn() error = %v, want wrapped store error", err)
	}
	if len(gateway.TextCalls) != 0 {
		t.Error("gateway called although the user message was not stored")
	}
}

func TestSubmitTurn_TitleUpdateFailureIsNotFatal(t *testing.T) {
	var appended []db.AppendMessageParams
	mockDB := &testutil.MockDatabase{
		CreateConversationFunc: func(ctx context.Context, userID, title string) (*db.Conversation, error) {
			return &db.Conversation{ID: "c1", UserID: userID, Title: title}, nil
		},
		AppendMessageFunc: func(ctx context.Context, params db.AppendMessageParams) (*db.Message, error) {
			appended = append(appended, params)
			return &db.Message{ID: "m", ConversationID: params.ConversationID, Role: params.Role, Content: params.Content}, nil
		},
		ListMessagesFunc: func(ctx context.Context, id, userID string) ([]db.Message, error) {
			return make([]db.Message, 2), nil
		},
		RenameConversationFunc: func(ctx context.Context, id, userID, title string) error {
			return errors.New("rename failed")
		},
	}
	service := newTestService(mockDB, textGateway("hi", nil))

	result, err := service.SubmitTurn(context.Background(), TurnRequest{UserID: "u1", Content: "hello"})
	if err != nil {
		t.Fatalf("SubmitTurn() error = %v", err)
	}
	if len(appended) != 2 || appended[0].Role != db.RoleUser || appended[1].Role != db.RoleAssistant {
		t.Errorf("appended = %+v, want user then assistant", appended)
	}
	if result.AssistantMessage == nil {
		t.Error("AssistantMessage missing")
	}
}

func TestIsImageRequest(t *testing.T) {
	tests := []struct {
		content string
		want    bool
	}{
		{"Please draw a cat", true},
		{"What is 2+2", false},
		{"image of a sunset", true},
		{"IMAGE OF a sunset", true},
		{"Generate Image of mountains", true},
		{"can you paint this", true},
		{"show me a dog", true},
		{"don't show me anything", true},
		{"I need a logo design", true},
		{"visualize the data", true},
		{"tell me a joke", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.content, func(t *testing.T) {
			if got := IsImageRequest(tt.content); got != tt.want {
				t.Errorf("IsImageRequest(%q) = %v, want %v", tt.content, got, tt.want)
			}
		})
	}
}
