package service

import (
	"context"
	"sort"
	"time"

	"nocturne/internal/domain"
	"nocturne/internal/logger"
	"nocturne/internal/mapper"
	repositoryIface "nocturne/internal/repository/iface"

	"github.com/google/uuid"
)

// TreatmentService serves the legacy flat event API. Reads merge the native
// flat store with span-derived synthetic records so callers cannot tell
// which store a record came from.
//
// The merged view is read-mostly consistent: no transaction spans both
// stores, so a page fetched while either store is being written may shift on
// the next call. Within a single call the ordering is globally
// time-consistent.
type TreatmentService interface {
	// GetTreatments returns the merged, paginated, mills-descending view
	GetTreatments(ctx context.Context, filter repositoryIface.TreatmentFilter) ([]*domain.Treatment, error)

	// CreateTreatment stores a native flat record. Records whose event type
	// belongs to an interval category are lifted into the span store instead
	// so the interval model stays authoritative for them.
	CreateTreatment(ctx context.Context, treatment *domain.Treatment) (*domain.Treatment, error)

	// DeleteTreatment removes a record wherever it lives; deleting a
	// span-derived record cascades to the underlying span
	DeleteTreatment(ctx context.Context, id string) (bool, error)
}

type treatmentService struct {
	treatmentRepo repositoryIface.TreatmentRepository
	spanService   StateSpanService
	logger        logger.Logger
}

// NewTreatmentService creates a new treatment service
func NewTreatmentService(
	treatmentRepo repositoryIface.TreatmentRepository,
	spanService StateSpanService,
	log logger.Logger,
) TreatmentService {
	return &treatmentService{
		treatmentRepo: treatmentRepo,
		spanService:   spanService,
		logger:        log.With(logger.String("component", "treatment_service")),
	}
}

func (s *treatmentService) GetTreatments(ctx context.Context, filter repositoryIface.TreatmentFilter) ([]*domain.Treatment, error) {
	// Both sources are fetched unpaginated (skip 0) up to count; pagination
	// is deferred until after the merge. Trimming either source early could
	// drop a newer record in favor of an older one from the other store.
	native, err := s.treatmentRepo.QueryRange(ctx, repositoryIface.TreatmentFilter{
		EventType: filter.EventType,
		From:      filter.From,
		To:        filter.To,
		Count:     mergeFetchBudget(filter),
	})
	if err != nil {
		return nil, err
	}

	synthetic, err := s.fetchSynthetic(ctx, filter)
	if err != nil {
		return nil, err
	}

	return MergeTreatments(native, synthetic, filter.Skip, filter.Count), nil
}

// fetchSynthetic renders span-derived records for the requested window. A
// specific event type narrows to its category; an open query merges every
// interval category.
func (s *treatmentService) fetchSynthetic(ctx context.Context, filter repositoryIface.TreatmentFilter) ([]*domain.Treatment, error) {
	budget := mergeFetchBudget(filter)

	if filter.EventType != nil {
		category, ok := mapper.CategoryForEventType(*filter.EventType)
		if !ok {
			return nil, nil
		}
		return s.spanService.GetAsTreatments(ctx, category, filter.From, filter.To, budget, 0)
	}

	var merged []*domain.Treatment
	for _, category := range domain.Categories() {
		treatments, err := s.spanService.GetAsTreatments(ctx, category, filter.From, filter.To, budget, 0)
		if err != nil {
			return nil, err
		}
		merged = append(merged, treatments...)
	}
	return merged, nil
}

// MergeTreatments interleaves two record lists into one mills-descending,
// paginated window. Ties break on id so paging is deterministic across calls.
func MergeTreatments(native, synthetic []*domain.Treatment, skip, count int) []*domain.Treatment {
	merged := make([]*domain.Treatment, 0, len(native)+len(synthetic))
	merged = append(merged, native...)
	merged = append(merged, synthetic...)

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Mills != merged[j].Mills {
			return merged[i].Mills > merged[j].Mills
		}
		return merged[i].ID < merged[j].ID
	})

	if skip > 0 {
		if skip >= len(merged) {
			return []*domain.Treatment{}
		}
		merged = merged[skip:]
	}
	if count > 0 && count < len(merged) {
		merged = merged[:count]
	}

	return merged
}

func (s *treatmentService) CreateTreatment(ctx context.Context, treatment *domain.Treatment) (*domain.Treatment, error) {
	if category, ok := mapper.CategoryForEventType(treatment.EventType); ok {
		span, err := s.spanService.CreateFromTreatment(ctx, category, treatment)
		if err != nil {
			return nil, err
		}
		// Render the span back so the caller sees the same shape either way
		return mapper.ForCategory(category).ToTreatment(span), nil
	}

	if treatment.ID == "" {
		treatment.ID = uuid.New().String()
	}
	if treatment.CreatedAt == 0 {
		treatment.CreatedAt = time.Now().UnixMilli()
	}

	if err := s.treatmentRepo.Insert(ctx, treatment); err != nil {
		return nil, err
	}
	return treatment, nil
}

func (s *treatmentService) DeleteTreatment(ctx context.Context, id string) (bool, error) {
	existed, err := s.treatmentRepo.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if existed {
		return true, nil
	}

	// Synthetic records carry the span id; removing the legacy record
	// cascades to the span itself
	return s.spanService.DeleteByID(ctx, id)
}

// mergeFetchBudget is how deep each source must be fetched before trimming
func mergeFetchBudget(filter repositoryIface.TreatmentFilter) int {
	if filter.Count <= 0 {
		return 0
	}
	return filter.Count + filter.Skip
}
