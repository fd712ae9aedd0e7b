package service

import "errors"

var (
	// ErrForbidden signals an attempt to use another user's resource.
	ErrForbidden = errors.New("forbidden")
	// ErrEmailTaken signals a registration with an email already in use.
	ErrEmailTaken = errors.New("user already exists with this email")
	// ErrInvalidCredentials covers both unknown emails and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidResetToken covers unknown, consumed and expired reset tokens.
	ErrInvalidResetToken = errors.New("invalid or expired token")
	// ErrSnapshotUnavailable signals that no raw snapshot is stored for a link.
	ErrSnapshotUnavailable = errors.New("snapshot not available")
)

// ValidationError carries a client-facing message about bad input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}
