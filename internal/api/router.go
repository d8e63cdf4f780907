package api

import (
	"chatpat/internal/api/handlers"
	"chatpat/internal/api/ws"
	"chatpat/internal/app"
	"chatpat/internal/auth"
	"chatpat/internal/logger"
	"net/http"
)

// Deps are the collaborators the router wires into handlers
type Deps struct {
	Config *app.Config
	Auth   *auth.Service
	Hub    *ws.Hub
}

// NewRouter builds the HTTP API on Go 1.22+ method and path patterns
func NewRouter(deps Deps) http.Handler {
	appConfig := deps.Config.AppConfig

	chatHandler := handlers.NewChatHandlers(deps.Config)
	authHandler := handlers.NewAuthHandlers(deps.Auth, appConfig.Auth)
	requireAuth := auth.NewMiddleware(deps.Auth.Tokens(), deps.Config.DB, appConfig.Auth.CookieName).Require
	protected := func(h http.HandlerFunc) http.Handler {
		return requireAuth(h)
	}

	mux := http.NewServeMux()

	// Public routes
	mux.HandleFunc("GET /api/health", healthHandler(deps.Config))
	mux.HandleFunc("POST /api/register", authHandler.RegisterHandler)
	mux.HandleFunc("POST /api/login", authHandler.LoginHandler)
	mux.HandleFunc("GET /api/login", authHandler.LoginInfoHandler)
	mux.HandleFunc("POST /api/logout", authHandler.LogoutHandler)

	// Protected routes
	mux.Handle("GET /api/auth/user", protected(authHandler.CurrentUserHandler))
	mux.Handle("POST /api/chat", protected(chatHandler.ChatHandler))
	mux.Handle("GET /api/conversations", protected(chatHandler.GetConversationsHandler))
	mux.Handle("POST /api/conversations", protected(chatHandler.CreateConversationHandler))
	mux.Handle("PATCH /api/conversations/{id}", protected(chatHandler.RenameConversationHandler))
	mux.Handle("DELETE /api/conversations/{id}", protected(chatHandler.DeleteConversationHandler))
	mux.Handle("GET /api/conversations/{id}/messages", protected(chatHandler.GetConversationMessagesHandler))
	mux.Handle("POST /api/conversations/{id}/messages", protected(chatHandler.SendMessageHandler))
	if deps.Hub != nil {
		mux.Handle("GET /ws", protected(deps.Hub.ServeWS))
	}

	return chain(mux,
		requestLogger,
		recoverer,
		cors(appConfig.Server.AllowedOrigins),
		limitBody(appConfig.Server.MaxBodyBytes),
	)
}

func healthHandler(config *app.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := config.DB.Ping(r.Context()); err != nil {
			logger.FromContext(r.Context()).WithError(err).Error("Health check failed")
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}
}
