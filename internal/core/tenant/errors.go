package tenant

import "errors"

var (
	// ErrTenantNotFound is returned when tenant does not exist in the directory.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrTenantNotEntitled is returned when the user is not a member of the target tenant.
	ErrTenantNotEntitled = errors.New("tenant not entitled")

	// ErrContextEnded is returned by every operation on an ended context.
	ErrContextEnded = errors.New("tenant context ended")

	// ErrContextNotReady is returned when an operation needs a resolved context.
	ErrContextNotReady = errors.New("tenant context not ready")

	// ErrSwitchConflict is returned when the durable primary tenant differs from the
	// one just written. The context has already adopted the durable value.
	ErrSwitchConflict = errors.New("tenant switch conflict")
)
