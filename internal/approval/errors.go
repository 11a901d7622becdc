package approval

import "errors"

var (
	// ErrNoPendingApproval is returned when the acting user holds no pending
	// step on the expense. Surfaced to callers as an authorization failure.
	ErrNoPendingApproval = errors.New("no pending approval for this user on this expense")

	// ErrNotFound is returned for unknown expenses or templates
	ErrNotFound = errors.New("not found")

	// ErrInvalidTemplate is returned when a flow template fails validation
	ErrInvalidTemplate = errors.New("invalid flow template")

	// ErrInvalidStatus is returned when an override names a status that is
	// not a terminal expense status
	ErrInvalidStatus = errors.New("invalid expense status")
)
