// Package tx defines the transaction boundary used by membership storage.
package tx

import (
	"context"
)

// Manager runs a unit of work atomically. A call made inside fn with the
// derived ctx joins the outer transaction instead of starting a new one.
type Manager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager adds read-only units of work, used for entitlement lookups.
type ReadOnlyManager interface {
	Manager

	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
