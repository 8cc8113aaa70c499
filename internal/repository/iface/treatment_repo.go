package repository

import (
	"context"

	"nocturne/internal/domain"
)

// TreatmentFilter narrows a native flat-event range query
type TreatmentFilter struct {
	EventType *string
	From      *int64
	To        *int64
	Count     int
	Skip      int
}

// TreatmentRepository is the native store for legacy flat records. Span-derived
// synthetic records never pass through here; the merge happens above both stores.
type TreatmentRepository interface {
	// QueryRange returns treatments matching the filter, mills-descending
	QueryRange(ctx context.Context, filter TreatmentFilter) ([]*domain.Treatment, error)

	// GetByID returns (nil, nil) when the id does not exist
	GetByID(ctx context.Context, id string) (*domain.Treatment, error)

	// Insert stores a new flat record
	Insert(ctx context.Context, treatment *domain.Treatment) error

	// Delete removes a flat record and reports whether one existed
	Delete(ctx context.Context, id string) (bool, error)
}
