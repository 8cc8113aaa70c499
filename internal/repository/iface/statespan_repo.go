package repository

import (
	"context"

	"nocturne/internal/domain"
)

// SpanFilter narrows a range query. All supplied predicates are ANDed.
// ActiveOnly selects spans that are still open or overlap [From, To].
// Count/Skip apply after filtering, ordered most-recent-start-first.
type SpanFilter struct {
	Category   *domain.Category
	State      *string
	From       *int64
	To         *int64
	Source     *string
	ActiveOnly bool
	Count      int
	Skip       int
}

// StateSpanRepository is the durable keyed store for interval records.
//
// Reads are not transactionally consistent with concurrent writes; a caller
// may observe a span deleted a moment after the read began. Upsert callers
// rely on FindByCategoryAndOriginalID + Insert/Replace being made atomic per
// natural key at the service layer.
type StateSpanRepository interface {
	// QueryRange returns spans matching the filter, start-descending
	QueryRange(ctx context.Context, filter SpanFilter) ([]*domain.StateSpan, error)

	// GetByID returns (nil, nil) when the id does not exist
	GetByID(ctx context.Context, id string) (*domain.StateSpan, error)

	// FindByCategoryAndOriginalID resolves the natural upsert identity.
	// The key is deliberately the composite (category, originalId): two
	// source systems may reuse an id string across categories.
	// Returns (nil, nil) when no span carries the identity.
	FindByCategoryAndOriginalID(ctx context.Context, category domain.Category, originalID string) (*domain.StateSpan, error)

	// Insert stores a new span
	Insert(ctx context.Context, span *domain.StateSpan) error

	// Replace overwrites the span stored at id, keeping that id
	Replace(ctx context.Context, id string, span *domain.StateSpan) error

	// Delete removes a span outright and reports whether one existed.
	// Hard delete only; legacy consumers must never see a tombstone.
	Delete(ctx context.Context, id string) (bool, error)
}
