package chat

import (
	"chatpat/internal/app"
	"chatpat/internal/logger"
	"chatpat/internal/repository/db"
	"chatpat/internal/service/conversation"
	"chatpat/internal/service/llm"
	"chatpat/pkg/validation"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// Fixed assistant replies
const (
	ImageGeneratedReply   = "I've generated an image based on your request."
	ImageUnavailableReply = "I apologize, but I couldn't generate an image for your request. Please try a different description."
	ImageErrorReply       = "I encountered an error while trying to generate the image. Please try again with a different prompt."
	TextErrorReply        = "I apologize, but I'm having trouble processing your request right now. Please try again."
	EmptyTextReply        = "I apologize, but I couldn't generate a response. Please try again."
)

// ErrEmptyContent is returned when the message is blank after trimming
var ErrEmptyContent = errors.New("content cannot be empty")

// TurnKind tells which gateway path answered a turn
type TurnKind string

const (
	KindText  TurnKind = "text"
	KindImage TurnKind = "image"
)

// TurnRequest contains the parameters of one user turn
type TurnRequest struct {
	ConversationID string // empty starts a new conversation
	UserID         string // extracted from auth context
	Content        string
}

// TurnResult holds both stored messages of a turn
type TurnResult struct {
	Conversation     *db.Conversation
	UserMessage      *db.Message
	AssistantMessage *db.Message
	Kind             TurnKind
}

// ChatService handles the business logic for chat turns
type ChatService struct {
	db      db.Database
	gateway llm.Gateway
}

// NewChatService creates a new ChatService from the application dependencies
func NewChatService(config *app.Config) *ChatService {
	return &ChatService{
		db:      config.DB,
		gateway: config.Gateway,
	}
}

// SubmitTurn stores the user message, asks the gateway for a reply and stores it.
// Gateway failures become stored apology messages; only validation, ownership
// and store errors are returned. An existing conversation is checked for
// ownership before the content is validated.
func (s *ChatService) SubmitTurn(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	content := strings.TrimSpace(req.Content)

	var conv *db.Conversation
	var err error
	if req.ConversationID != "" {
		if conv, err = s.getOwned(ctx, req.ConversationID, req.UserID); err != nil {
			return nil, err
		}
	}
	if content == "" {
		return nil, ErrEmptyContent
	}
	if conv == nil {
		conv, err = s.db.CreateConversation(ctx, req.UserID, validation.TruncateTitle(content))
		if err != nil {
			return nil, fmt.Errorf("failed to create conversation: %w", err)
		}
	}

	log := logger.FromContext(ctx).WithFields(logrus.Fields{
		"conversation_id": conv.ID,
		"user_id":         req.UserID,
	})

	userMsg, err := s.db.AppendMessage(ctx, db.AppendMessageParams{
		ConversationID: conv.ID,
		Role:           db.RoleUser,
		Content:        content,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save user message: %w", err)
	}

	kind := KindText
	var reply db.AppendMessageParams
	if IsImageRequest(content) {
		kind = KindImage
		reply = s.imageReply(ctx, log, content)
	} else {
		reply = s.textReply(ctx, log, content)
	}
	reply.ConversationID = conv.ID
	reply.Role = db.RoleAssistant

	assistantMsg, err := s.db.AppendMessage(ctx, reply)
	if err != nil {
		return nil, fmt.Errorf("failed to save assistant message: %w", err)
	}

	s.maybeUpdateTitle(ctx, log, conv, req.UserID, content)

	// appends and the retitle moved updated_at
	if fresh, err := s.db.GetConversation(ctx, conv.ID, req.UserID); err == nil {
		conv = fresh
	} else {
		log.WithError(err).Warn("Failed to re-read conversation after turn")
	}

	log.WithField("kind", kind).Info("Turn completed")

	return &TurnResult{
		Conversation:     conv,
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
		Kind:             kind,
	}, nil
}

// getOwned loads a conversation the user owns
func (s *ChatService) getOwned(ctx context.Context, conversationID, userID string) (*db.Conversation, error) {
	conv, err := s.db.GetConversation(ctx, conversationID, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, conversation.ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return conv, nil
}

func (s *ChatService) imageReply(ctx context.Context, log *logrus.Entry, prompt string) db.AppendMessageParams {
	image, err := s.gateway.GenerateImage(ctx, prompt)
	if err != nil {
		log.WithError(err).Error("Image generation failed")
		return db.AppendMessageParams{Content: ImageErrorReply}
	}
	if image == nil || len(image.Data) == 0 {
		return db.AppendMessageParams{Content: ImageUnavailableReply}
	}

	uri := image.DataURI()
	return db.AppendMessageParams{Content: ImageGeneratedReply, ImageURL: &uri}
}

func (s *ChatService) textReply(ctx context.Context, log *logrus.Entry, prompt string) db.AppendMessageParams {
	text, err := s.gateway.GenerateText(ctx, prompt)
	if err != nil {
		log.WithError(err).Error("Text generation failed")
		return db.AppendMessageParams{Content: TextErrorReply}
	}
	if strings.TrimSpace(text) == "" {
		return db.AppendMessageParams{Content: EmptyTextReply}
	}
	return db.AppendMessageParams{Content: text}
}

// maybeUpdateTitle retitles the conversation after its first exchange.
// Both messages are already stored, so failures are only logged.
func (s *ChatService) maybeUpdateTitle(ctx context.Context, log *logrus.Entry, conv *db.Conversation, userID, content string) {
	messages, err := s.db.ListMessages(ctx, conv.ID, userID)
	if err != nil {
		log.WithError(err).Warn("Failed to re-read messages for title update")
		return
	}
	if len(messages) != 2 {
		return
	}

	title := validation.TruncateTitle(content)
	if err := s.db.RenameConversation(ctx, conv.ID, userID, title); err != nil {
		log.WithError(err).Warn("Failed to update conversation title")
		return
	}
	conv.Title = title
}
