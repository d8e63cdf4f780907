package handlers

import (
	"net/http"
)

// GetConversationsHandler lists the user's conversations, most recent first
func (ch *ChatHandlers) GetConversationsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	conversations, err := ch.conversationService.List(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "Error retrieving conversations")
		return
	}
	writeJSON(w, http.StatusOK, conversations)
}

// CreateConversationHandler starts an empty conversation
func (ch *ChatHandlers) CreateConversationHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	var req ConversationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := ch.validator.ValidateTitle(req.Title); err != nil {
		sendError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	conv, err := ch.conversationService.Create(r.Context(), userID, req.Title)
	if err != nil {
		writeServiceError(w, r, err, "Error creating conversation")
		return
	}
	writeJSON(w, http.StatusCreated, conv)
}

// RenameConversationHandler changes a conversation title
func (ch *ChatHandlers) RenameConversationHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	var req ConversationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := ch.validator.ValidateRename(req.Title); err != nil {
		sendError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	conv, err := ch.conversationService.Rename(r.Context(), r.PathValue("id"), userID, req.Title)
	if err != nil {
		writeServiceError(w, r, err, "Error renaming conversation")
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

// DeleteConversationHandler deletes a conversation and its messages
func (ch *ChatHandlers) DeleteConversationHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	if err := ch.conversationService.Delete(r.Context(), r.PathValue("id"), userID); err != nil {
		writeServiceError(w, r, err, "Error deleting conversation")
		return
	}
	writeJSON(w, http.StatusOK, DeleteResponse{Message: "Conversation deleted successfully"})
}

// GetConversationMessagesHandler lists a conversation's messages, oldest first
func (ch *ChatHandlers) GetConversationMessagesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	messages, err := ch.conversationService.Messages(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		writeServiceError(w, r, err, "Error retrieving messages")
		return
	}
	writeJSON(w, http.StatusOK, messages)
}
