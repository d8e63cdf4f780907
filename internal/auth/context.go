package auth

import (
	"chatpat/internal/repository/db"
	"context"
)

type contextKey string

const userContextKey contextKey = "user"

// WithUser stores the authenticated user in ctx
func WithUser(ctx context.Context, user *db.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext returns the authenticated user, if any
func UserFromContext(ctx context.Context) (*db.User, bool) {
	user, ok := ctx.Value(userContextKey).(*db.User)
	return user, ok && user != nil
}

// UserIDFromContext returns the authenticated user's id or ""
func UserIDFromContext(ctx context.Context) string {
	if user, ok := UserFromContext(ctx); ok {
		return user.ID
	}
	return ""
}
