package service

import "errors"

// Common service errors
var (
	// ErrPermissionDenied is returned when a role lacks permission for an action
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound is returned when a resource is not found or not visible to the caller
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when the operation conflicts with current state
	ErrConflict = errors.New("resource conflict")

	// ErrUnauthorized is returned when credentials or token are not valid
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidCredentials is returned on a failed login attempt
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrAccountDeactivated is returned when a deactivated account authenticates
	ErrAccountDeactivated = errors.New("account deactivated")

	// ErrDuplicateEmail is returned when registering an email already in use
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrSelfDeletion is returned when a user attempts to delete their own account
	ErrSelfDeletion = errors.New("cannot delete own account")

	// ErrEmptyUpdate is returned when an update request carries no fields
	ErrEmptyUpdate = errors.New("empty update payload")

	// ErrAlreadyDecided is returned when approving an approval that is no longer pending
	ErrAlreadyDecided = errors.New("already decided")
)
