package domain

import (
	"context"
	"time"
)

// User is a dashboard account. Password holds a bcrypt hash, never plain text.
type User struct {
	ID       string
	Name     string
	Email    string
	Password string
}

// Session is what a successful sign-in hands back to the boundary.
type Session struct {
	UserID    string
	Email     string
	Token     string
	ExpiresAt time.Time
}

// AuthFailureKind enumerates the authentication failures the core understands.
// The identity provider owns the wider taxonomy; only CredentialsSignin is
// distinguished from the rest.
type AuthFailureKind string

const (
	AuthCredentialsSignin  AuthFailureKind = "CredentialsSignin"
	AuthCallbackRouteError AuthFailureKind = "CallbackRouteError"
	AuthConfiguration      AuthFailureKind = "Configuration"
	AuthAccessDenied       AuthFailureKind = "AccessDenied"
)

type callerKey struct{}

// WithCaller records the authenticated user id on the request context.
func WithCaller(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, callerKey{}, userID)
}

// CallerFromContext returns the user id set by WithCaller, or "" for anonymous calls.
func CallerFromContext(ctx context.Context) string {
	id, _ := ctx.Value(callerKey{}).(string)
	return id
}
