package handlers

import (
	"chatpat/internal/auth"
	"chatpat/internal/config"
	"chatpat/internal/repository/db"
	"chatpat/pkg/validation"
	"net/http"
)

type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string   `json:"token"`
	User  *db.User `json:"user"`
}

type LoginInfoResponse struct {
	LoginURL    string `json:"loginUrl"`
	RegisterURL string `json:"registerUrl"`
	Method      string `json:"method"`
}

// AuthHandlers exposes the built-in identity provider
type AuthHandlers struct {
	auth      *auth.Service
	validator *validation.AuthRequestValidator
	cookies   config.AuthConfig
}

// NewAuthHandlers creates a new AuthHandlers
func NewAuthHandlers(authService *auth.Service, authConfig config.AuthConfig) *AuthHandlers {
	return &AuthHandlers{
		auth:      authService,
		validator: validation.NewAuthRequestValidator(),
		cookies:   authConfig,
	}
}

// RegisterHandler creates a new user account
func (ah *AuthHandlers) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	in := validation.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}
	if err := ah.validator.ValidateRegisterRequest(in); err != nil {
		sendError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	user, token, err := ah.auth.Register(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err, "Error creating user")
		return
	}

	ah.setSession(w, token)
	writeJSON(w, http.StatusCreated, AuthResponse{Token: token, User: user})
}

// LoginHandler authenticates a user and returns a session token
func (ah *AuthHandlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := ah.validator.ValidateLoginRequest(req.Username, req.Password); err != nil {
		sendError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	user, token, err := ah.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, r, err, "Error logging in")
		return
	}

	ah.setSession(w, token)
	writeJSON(w, http.StatusOK, AuthResponse{Token: token, User: user})
}

// LoginInfoHandler describes the login entry point clients are redirected to
func (ah *AuthHandlers) LoginInfoHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, LoginInfoResponse{
		LoginURL:    "/api/login",
		RegisterURL: "/api/register",
		Method:      "password",
	})
}

// LogoutHandler clears the session cookie
func (ah *AuthHandlers) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, auth.ClearedSessionCookie(ah.cookies.CookieName, ah.cookies.CookieSecure))
	writeJSON(w, http.StatusOK, DeleteResponse{Message: "Logged out"})
}

// CurrentUserHandler returns the authenticated user's profile
func (ah *AuthHandlers) CurrentUserHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		sendError(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (ah *AuthHandlers) setSession(w http.ResponseWriter, token string) {
	maxAge := int(ah.auth.Tokens().Expiration().Seconds())
	http.SetCookie(w, auth.SessionCookie(ah.cookies.CookieName, token, maxAge, ah.cookies.CookieSecure))
}
