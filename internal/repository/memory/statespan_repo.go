package memory

import (
	"context"
	"sort"
	"sync"

	"nocturne/internal/domain"

	repositoryIface "nocturne/internal/repository/iface"
)

// stateSpanRepository is an in-memory StateSpanRepository used by unit tests
// and local development. Values are cloned on the way in and out so callers
// cannot mutate stored state behind the lock.
type stateSpanRepository struct {
	mu    sync.RWMutex
	spans map[string]*domain.StateSpan
}

// NewStateSpanRepository creates an empty in-memory span store
func NewStateSpanRepository() repositoryIface.StateSpanRepository {
	return &stateSpanRepository{
		spans: make(map[string]*domain.StateSpan),
	}
}

func (r *stateSpanRepository) QueryRange(ctx context.Context, filter repositoryIface.SpanFilter) ([]*domain.StateSpan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*domain.StateSpan, 0)
	for _, span := range r.spans {
		if matchesFilter(span, filter) {
			matched = append(matched, cloneSpan(span))
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].StartMills != matched[j].StartMills {
			return matched[i].StartMills > matched[j].StartMills
		}
		return matched[i].ID < matched[j].ID
	})

	if filter.Skip > 0 {
		if filter.Skip >= len(matched) {
			return []*domain.StateSpan{}, nil
		}
		matched = matched[filter.Skip:]
	}
	if filter.Count > 0 && filter.Count < len(matched) {
		matched = matched[:filter.Count]
	}

	return matched, nil
}

func matchesFilter(span *domain.StateSpan, filter repositoryIface.SpanFilter) bool {
	if filter.Category != nil && span.Category != *filter.Category {
		return false
	}
	if filter.State != nil && span.State != *filter.State {
		return false
	}
	if filter.Source != nil && span.Source != *filter.Source {
		return false
	}
	if filter.To != nil && span.StartMills > *filter.To {
		return false
	}
	if filter.ActiveOnly {
		// Active means open, or still overlapping the window: a span may
		// start before From and qualify, so From bounds end_mills here,
		// never start_mills.
		if span.EndMills == nil {
			return true
		}
		if filter.From == nil {
			return false
		}
		return *span.EndMills >= *filter.From
	}
	if filter.From != nil && span.StartMills < *filter.From {
		return false
	}
	return true
}

func (r *stateSpanRepository) GetByID(ctx context.Context, id string) (*domain.StateSpan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	span, ok := r.spans[id]
	if !ok {
		return nil, nil
	}
	return cloneSpan(span), nil
}

func (r *stateSpanRepository) FindByCategoryAndOriginalID(ctx context.Context, category domain.Category, originalID string) (*domain.StateSpan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, span := range r.spans {
		if span.Category == category && span.OriginalID != nil && *span.OriginalID == originalID {
			return cloneSpan(span), nil
		}
	}
	return nil, nil
}

func (r *stateSpanRepository) Insert(ctx context.Context, span *domain.StateSpan) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.spans[span.ID] = cloneSpan(span)
	return nil
}

func (r *stateSpanRepository) Replace(ctx context.Context, id string, span *domain.StateSpan) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := cloneSpan(span)
	stored.ID = id
	r.spans[id] = stored
	return nil
}

func (r *stateSpanRepository) Delete(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.spans[id]
	delete(r.spans, id)
	return ok, nil
}

func cloneSpan(span *domain.StateSpan) *domain.StateSpan {
	out := *span
	if span.EndMills != nil {
		end := *span.EndMills
		out.EndMills = &end
	}
	if span.OriginalID != nil {
		oid := *span.OriginalID
		out.OriginalID = &oid
	}
	if span.Metadata != nil {
		out.Metadata = make(domain.Metadata, len(span.Metadata))
		for k, v := range span.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}
