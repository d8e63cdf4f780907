package handlers

import (
	"chatpat/internal/app"
	"chatpat/internal/logger"
	"chatpat/internal/repository/db"
	chatService "chatpat/internal/service/chat"
	conversationService "chatpat/internal/service/conversation"
	"chatpat/pkg/validation"
	"net/http"

	"github.com/sirupsen/logrus"
)

// Request/Response types

type ChatRequest struct {
	Content        string `json:"content"`
	ConversationID string `json:"conversationId,omitempty"`
}

type ChatResponse struct {
	Conversation *db.Conversation `json:"conversation"`
	UserMessage  *db.Message      `json:"userMessage"`
	AIMessage    *db.Message      `json:"aiMessage"`
}

type SendMessageRequest struct {
	Content string `json:"content"`
}

type SendMessageResponse struct {
	UserMessage *db.Message `json:"userMessage"`
	AIMessage   *db.Message `json:"aiMessage"`
}

type ConversationRequest struct {
	Title string `json:"title"`
}

type DeleteResponse struct {
	Message string `json:"message"`
}

// ChatHandlers serves conversations and turns through the service layer
type ChatHandlers struct {
	validator           *validation.ChatRequestValidator
	chatService         *chatService.ChatService
	conversationService *conversationService.ConversationService
}

// NewChatHandlers creates a new ChatHandlers with service layer
func NewChatHandlers(config *app.Config) *ChatHandlers {
	return &ChatHandlers{
		validator:           validation.NewChatRequestValidator(),
		chatService:         chatService.NewChatService(config),
		conversationService: conversationService.NewConversationService(config.DB),
	}
}

// ChatHandler runs a turn, starting a new conversation when none is given
func (ch *ChatHandlers) ChatHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	var req ChatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !ch.checkTurn(w, r, req.ConversationID, userID, req.Content) {
		return
	}

	result, err := ch.chatService.SubmitTurn(r.Context(), chatService.TurnRequest{
		ConversationID: req.ConversationID,
		UserID:         userID,
		Content:        req.Content,
	})
	if err != nil {
		writeServiceError(w, r, err, "Error processing message")
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		Conversation: result.Conversation,
		UserMessage:  result.UserMessage,
		AIMessage:    result.AssistantMessage,
	})
}

// SendMessageHandler runs a turn in an existing conversation
func (ch *ChatHandlers) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	conversationID := r.PathValue("id")

	var req SendMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !ch.checkTurn(w, r, conversationID, userID, req.Content) {
		return
	}

	logger.FromContext(r.Context()).WithFields(logrus.Fields{
		"conversation_id": conversationID,
		"user_id":         userID,
	}).Info("Message received")

	result, err := ch.chatService.SubmitTurn(r.Context(), chatService.TurnRequest{
		ConversationID: conversationID,
		UserID:         userID,
		Content:        req.Content,
	})
	if err != nil {
		writeServiceError(w, r, err, "Error processing message")
		return
	}

	writeJSON(w, http.StatusOK, SendMessageResponse{
		UserMessage: result.UserMessage,
		AIMessage:   result.AssistantMessage,
	})
}

// checkTurn rejects a turn on a conversation the user does not own, then
// rejects invalid content
func (ch *ChatHandlers) checkTurn(w http.ResponseWriter, r *http.Request, conversationID, userID, content string) bool {
	if conversationID != "" {
		if _, err := ch.conversationService.Get(r.Context(), conversationID, userID); err != nil {
			writeServiceError(w, r, err, "Error retrieving conversation")
			return false
		}
	}
	if err := ch.validator.ValidateContent(content); err != nil {
		sendError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}
