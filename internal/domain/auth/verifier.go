// Package auth resolves presented credentials into identities.
package auth

import (
	"context"
	"errors"
)

var (
	// ErrInvalidCredential means the verifier rejected the token. It is not retryable.
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrNoCredential means neither a bearer token nor a session cookie was presented.
	ErrNoCredential = errors.New("no credential presented")
)

// Principal is what a verifier vouches for.
type Principal struct {
	UserID   string `json:"userId"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	TenantID string `json:"tenantId,omitempty"`
}

// Verifier checks a token and returns the principal it was issued for.
//
// Implementations return ErrInvalidCredential (possibly wrapped) when the token is
// rejected. Any other error is treated as the verifier being unavailable.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Principal, error)
}
