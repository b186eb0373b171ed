package apperr

import (
	"errors"
	"fmt"
)

// Sentinel categories. Callers classify with errors.Is and read details with
// errors.As on the concrete types below.
var (
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("validation failed")
	ErrConflict         = errors.New("conflict")
	ErrIdentityMismatch = errors.New("identity mismatch")
	ErrTransient        = errors.New("transient store error")
)

// NotFoundError names the missing entity (user, event, application).
type NotFoundError struct {
	Kind string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Key)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

func NotFound(kind, key string) error {
	return &NotFoundError{Kind: kind, Key: key}
}

// ValidationError rejects a payload before any store mutation.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 1 {
		return "validation failed: " + e.Issues[0]
	}
	return fmt.Sprintf("validation failed (%d issues)", len(e.Issues))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func Validation(issues ...string) error {
	return &ValidationError{Issues: issues}
}

// IdentityMismatchError: supplied userId does not belong to the user resolved
// from userEmail. Never silently resolved in either direction.
type IdentityMismatchError struct {
	Email  string
	UserID string
}

func (e *IdentityMismatchError) Error() string {
	return fmt.Sprintf("user id mismatch: email %s does not belong to user %s", e.Email, e.UserID)
}

func (e *IdentityMismatchError) Unwrap() error { return ErrIdentityMismatch }

func IdentityMismatch(email, userID string) error {
	return &IdentityMismatchError{Email: email, UserID: userID}
}

// Transient wraps a store error the caller may retry.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrTransient, err)
}
