package dynamodb

import (
	"errors"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ErrNotFound indicates that the requested resource was not found
var ErrNotFound = errors.New("resource not found")

// ErrDuplicateSpan indicates that a span with the same id already exists
var ErrDuplicateSpan = errors.New("duplicate span: a span with the same id already exists")

// IsNotFoundError checks if an error indicates a resource was not found
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConditionalCheckError checks whether an error is a DynamoDB conditional
// write failure (insert raced a concurrent writer, or replace target vanished)
func IsConditionalCheckError(err error) bool {
	if errors.Is(err, ErrDuplicateSpan) {
		return true
	}
	var condErr *types.ConditionalCheckFailedException
	return errors.As(err, &condErr)
}
