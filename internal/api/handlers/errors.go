package handlers

import (
	"chatpat/internal/auth"
	"chatpat/internal/logger"
	"chatpat/internal/service/chat"
	"chatpat/internal/service/conversation"
	"encoding/json"
	"errors"
	"net/http"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// sendError sends a standardized JSON error response
func sendError(w http.ResponseWriter, status int, message string, err error) {
	errResp := ErrorResponse{
		Code:    status,
		Message: message,
	}
	if err != nil {
		errResp.Error = err.Error()
	}
	writeJSON(w, status, errResp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.WithError(err).Warn("Failed to encode response")
	}
}

// decodeJSON reads the request body into v, answering 400 on failure
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			sendError(w, http.StatusRequestEntityTooLarge, "Request body too large", nil)
			return false
		}
		sendError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

// writeServiceError maps service sentinels to status codes. Anything unknown
// is logged and answered with a generic 500 that carries no detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, message string) {
	switch {
	case errors.Is(err, chat.ErrEmptyContent):
		sendError(w, http.StatusBadRequest, "Validation failed", err)
	case errors.Is(err, conversation.ErrConversationNotFound):
		sendError(w, http.StatusNotFound, "Conversation not found", err)
	case errors.Is(err, auth.ErrInvalidCredentials):
		sendError(w, http.StatusUnauthorized, "Invalid credentials", nil)
	case errors.Is(err, auth.ErrUsernameTaken):
		sendError(w, http.StatusConflict, "Username already exists", err)
	default:
		logger.FromContext(r.Context()).WithError(err).Error(message)
		sendError(w, http.StatusInternalServerError, message, nil)
	}
}

// currentUserID returns the authenticated user id, answering 401 when absent
func currentUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		sendError(w, http.StatusUnauthorized, "Unauthorized", nil)
		return "", false
	}
	return userID, true
}
