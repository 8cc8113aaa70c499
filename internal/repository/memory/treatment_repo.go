package memory

import (
	"context"
	"sort"
	"sync"

	"nocturne/internal/domain"

	repositoryIface "nocturne/internal/repository/iface"
)

// treatmentRepository is an in-memory TreatmentRepository for unit tests and
// local development
type treatmentRepository struct {
	mu         sync.RWMutex
	treatments map[string]*domain.Treatment
}

// NewTreatmentRepository creates an empty in-memory treatment store
func NewTreatmentRepository() repositoryIface.TreatmentRepository {
	return &treatmentRepository{
		treatments: make(map[string]*domain.Treatment),
	}
}

func (r *treatmentRepository) QueryRange(ctx context.Context, filter repositoryIface.TreatmentFilter) ([]*domain.Treatment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*domain.Treatment, 0)
	for _, t := range r.treatments {
		if filter.EventType != nil && t.EventType != *filter.EventType {
			continue
		}
		if filter.From != nil && t.Mills < *filter.From {
			continue
		}
		if filter.To != nil && t.Mills > *filter.To {
			continue
		}
		clone := *t
		matched = append(matched, &clone)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].Mills != matched[j].Mills {
			return matched[i].Mills > matched[j].Mills
		}
		return matched[i].ID < matched[j].ID
	})

	if filter.Skip > 0 {
		if filter.Skip >= len(matched) {
			return []*domain.Treatment{}, nil
		}
		matched = matched[filter.Skip:]
	}
	if filter.Count > 0 && filter.Count < len(matched) {
		matched = matched[:filter.Count]
	}

	return matched, nil
}

func (r *treatmentRepository) GetByID(ctx context.Context, id string) (*domain.Treatment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.treatments[id]
	if !ok {
		return nil, nil
	}
	clone := *t
	return &clone, nil
}

func (r *treatmentRepository) Insert(ctx context.Context, treatment *domain.Treatment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *treatment
	r.treatments[treatment.ID] = &clone
	return nil
}

func (r *treatmentRepository) Delete(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.treatments[id]
	delete(r.treatments, id)
	return ok, nil
}
