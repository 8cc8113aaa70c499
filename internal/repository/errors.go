package repository

import "errors"

// ErrConflict indicates a conditional write lost to a concurrent writer on the
// same natural key. The caller re-reads and retries or surfaces the conflict.
var ErrConflict = errors.New("conflict: record was written concurrently for the same identity")

// ErrValidation indicates input that can never succeed (wrong event type for a
// category, inverted interval). Not retriable.
var ErrValidation = errors.New("validation failed")

// IsConflictError checks if an error is a concurrent-write conflict
func IsConflictError(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsValidationError checks if an error is a rejected-input error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}
