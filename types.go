package auth

import (
	"context"
	"log/slog"
)

// Logger is the structured logger used across the package. *slog.Logger
// satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Identity is the authenticated user projection attached to a request.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// UserStore resolves a subject identifier to an Identity.
// Implementations return ErrUserNotFound when no user matches.
type UserStore interface {
	FindIdentity(ctx context.Context, id string) (*Identity, error)
}

// UserStoreFunc adapts a function into a UserStore.
type UserStoreFunc func(ctx context.Context, id string) (*Identity, error)

// FindIdentity satisfies the UserStore interface.
func (f UserStoreFunc) FindIdentity(ctx context.Context, id string) (*Identity, error) {
	return f(ctx, id)
}

// TokenVerifier verifies a raw token and returns its claims.
type TokenVerifier interface {
	Validate(tokenString string) (*Claims, error)
}

// ConfigurationChecker reports whether a component has what it needs to run.
type ConfigurationChecker interface {
	Configured() bool
}

func defaultLogger() Logger {
	return slog.Default().With("component", "auth")
}
