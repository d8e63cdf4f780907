package auth

import (
	"chatpat/internal/logger"
	"chatpat/internal/repository/db"
	"encoding/json"
	"net/http"
	"strings"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// sendError sends a standardized JSON error response
func sendError(w http.ResponseWriter, status int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	errResp := ErrorResponse{
		Code:    status,
		Message: message,
	}
	if err != nil {
		errResp.Error = err.Error()
	}
	json.NewEncoder(w).Encode(errResp)
}

// Middleware authenticates requests with a bearer token or the session cookie,
// upserts the user from the token claims and stores it in the request context.
type Middleware struct {
	tokens     *TokenManager
	db         db.Database
	cookieName string
}

// NewMiddleware creates the authentication middleware
func NewMiddleware(tokens *TokenManager, database db.Database, cookieName string) *Middleware {
	return &Middleware{tokens: tokens, db: database, cookieName: cookieName}
}

// Require wraps next so that it only runs for authenticated requests
func (m *Middleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, err := m.extractToken(r)
		if err != nil {
			sendError(w, http.StatusUnauthorized, "Unauthorized", err)
			return
		}

		claims, err := m.tokens.ValidateToken(tokenString)
		if err != nil {
			sendError(w, http.StatusUnauthorized, "Unauthorized", ErrInvalidToken)
			return
		}

		user, err := m.db.UpsertUser(r.Context(), db.UpsertUserParams{
			ID:              claims.Subject,
			Email:           claims.Email,
			FirstName:       claims.FirstName,
			LastName:        claims.LastName,
			ProfileImageURL: claims.ProfileImageURL,
		})
		if err != nil {
			logger.FromContext(r.Context()).WithError(err).Error("Failed to upsert user")
			sendError(w, http.StatusInternalServerError, "Internal server error", nil)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// extractToken prefers the Authorization header and falls back to the session cookie
func (m *Middleware) extractToken(r *http.Request) (string, error) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			return "", errInvalidHeader
		}
		return token, nil
	}

	if cookie, err := r.Cookie(m.cookieName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	return "", errMissingCredentials
}

var (
	errInvalidHeader      = authError("invalid authorization header format")
	errMissingCredentials = authError("missing authorization header or session cookie")
)

type authError string

func (e authError) Error() string { return string(e) }

// SessionCookie builds the cookie that carries token
func SessionCookie(name, token string, maxAge int, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearedSessionCookie expires the session cookie
func ClearedSessionCookie(name string, secure bool) *http.Cookie {
	return SessionCookie(name, "", -1, secure)
}
