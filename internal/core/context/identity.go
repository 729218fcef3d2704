// Package context provides request-scoped values extraction.
package context

import (
	"context"

	"carehub/internal/core/security"
)

type identityKey struct{}

// WithIdentity adds the authenticated identity to context.
func WithIdentity(ctx context.Context, identity *security.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// GetIdentity returns the identity from context, or nil when unauthenticated.
func GetIdentity(ctx context.Context) *security.Identity {
	if v, ok := ctx.Value(identityKey{}).(*security.Identity); ok {
		return v
	}
	return nil
}

// GetUserID returns user ID from context or empty string.
func GetUserID(ctx context.Context) string {
	if i := GetIdentity(ctx); i != nil {
		return i.UserID
	}
	return ""
}
