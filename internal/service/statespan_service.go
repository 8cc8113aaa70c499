package service

import (
	"context"
	"fmt"
	"time"

	"nocturne/internal/broadcast"
	cache "nocturne/internal/cache/iface"
	"nocturne/internal/domain"
	"nocturne/internal/logger"
	"nocturne/internal/mapper"
	"nocturne/internal/repository"
	repositoryIface "nocturne/internal/repository/iface"

	"github.com/google/uuid"
)

// upsertLockTTL bounds how long a crashed writer can hold a natural key
const upsertLockTTL = 5 * time.Second

// StateSpanService orchestrates CRUD, idempotent upsert and the
// category-specific legacy views over the interval store
type StateSpanService interface {
	// Get returns spans matching the filter, most-recent-start-first
	Get(ctx context.Context, filter repositoryIface.SpanFilter) ([]*domain.StateSpan, error)

	// GetByID returns (nil, nil) when no span has the id
	GetByID(ctx context.Context, id string) (*domain.StateSpan, error)

	// Upsert inserts the span, or overwrites the existing span with the same
	// (category, originalId) while keeping its system id. Connectors replay
	// the same sync window indefinitely without creating duplicates.
	Upsert(ctx context.Context, span *domain.StateSpan) (*domain.StateSpan, error)

	// UpdateByID replaces the span at id; (nil, nil) when id does not exist
	UpdateByID(ctx context.Context, id string, span *domain.StateSpan) (*domain.StateSpan, error)

	// DeleteByID hard-deletes a span and reports whether one existed
	DeleteByID(ctx context.Context, id string) (bool, error)

	// GetAsTreatments renders a category's spans in a window as legacy flat
	// records. Spans that fail to map are logged and skipped.
	GetAsTreatments(ctx context.Context, category domain.Category, from, to *int64, count, skip int) ([]*domain.Treatment, error)

	// GetTempBasalsAsTreatments is the temp-basal convenience view
	GetTempBasalsAsTreatments(ctx context.Context, from, to *int64, count, skip int) ([]*domain.Treatment, error)

	// CreateFromTreatment lifts a legacy flat record into a span of the
	// target category, rejecting records whose event type does not qualify
	CreateFromTreatment(ctx context.Context, category domain.Category, treatment *domain.Treatment) (*domain.StateSpan, error)
}

type stateSpanService struct {
	repo      repositoryIface.StateSpanRepository
	locker    cache.Locker
	publisher broadcast.Publisher
	logger    logger.Logger
}

// NewStateSpanService creates a new state-span service
func NewStateSpanService(
	repo repositoryIface.StateSpanRepository,
	locker cache.Locker,
	publisher broadcast.Publisher,
	log logger.Logger,
) StateSpanService {
	return &stateSpanService{
		repo:      repo,
		locker:    locker,
		publisher: publisher,
		logger:    log.With(logger.String("component", "statespan_service")),
	}
}

func (s *stateSpanService) Get(ctx context.Context, filter repositoryIface.SpanFilter) ([]*domain.StateSpan, error) {
	return s.repo.QueryRange(ctx, filter)
}

func (s *stateSpanService) GetByID(ctx context.Context, id string) (*domain.StateSpan, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *stateSpanService) Upsert(ctx context.Context, span *domain.StateSpan) (*domain.StateSpan, error) {
	if err := span.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", repository.ErrValidation, err.Error())
	}

	now := time.Now().UnixMilli()
	if span.ID == "" {
		span.ID = uuid.New().String()
	}
	if span.CreatedAt == 0 {
		span.CreatedAt = now
	}
	span.UpdatedAt = now

	if span.OriginalID == nil {
		if err := s.repo.Insert(ctx, span); err != nil {
			return nil, err
		}
		s.publishChange(ctx, broadcast.ChangeUpserted, span)
		return span, nil
	}

	// The find-then-write below must be atomic per natural key or two
	// concurrent replays of the same batch insert duplicates
	lockKey := string(span.Category) + ":" + *span.OriginalID
	release, err := s.locker.Acquire(ctx, lockKey, upsertLockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to lock upsert identity: %w", err)
	}
	defer func() {
		if err := release(ctx); err != nil {
			s.logger.Warn("failed to release upsert lock", logger.String("key", lockKey))
		}
	}()

	existing, err := s.repo.FindByCategoryAndOriginalID(ctx, span.Category, *span.OriginalID)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		span.ID = existing.ID
		span.CreatedAt = existing.CreatedAt
		if err := s.repo.Replace(ctx, existing.ID, span); err != nil {
			return nil, err
		}
	} else {
		if err := s.repo.Insert(ctx, span); err != nil {
			return nil, err
		}
	}

	s.publishChange(ctx, broadcast.ChangeUpserted, span)
	return span, nil
}

func (s *stateSpanService) UpdateByID(ctx context.Context, id string, span *domain.StateSpan) (*domain.StateSpan, error) {
	if err := span.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", repository.ErrValidation, err.Error())
	}

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	span.ID = id
	span.CreatedAt = existing.CreatedAt
	span.UpdatedAt = time.Now().UnixMilli()

	if err := s.repo.Replace(ctx, id, span); err != nil {
		return nil, err
	}

	s.publishChange(ctx, broadcast.ChangeUpserted, span)
	return span, nil
}

func (s *stateSpanService) DeleteByID(ctx context.Context, id string) (bool, error) {
	span, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}

	existed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, err
	}

	if existed && span != nil {
		s.publishChange(ctx, broadcast.ChangeDeleted, span)
	}

	return existed, nil
}

func (s *stateSpanService) GetAsTreatments(ctx context.Context, category domain.Category, from, to *int64, count, skip int) ([]*domain.Treatment, error) {
	m := mapper.ForCategory(category)
	if m == nil {
		return nil, fmt.Errorf("%w: no mapper for category %s", repository.ErrValidation, category)
	}

	spans, err := s.repo.QueryRange(ctx, repositoryIface.SpanFilter{
		Category: &category,
		From:     from,
		To:       to,
		Count:    count,
		Skip:     skip,
	})
	if err != nil {
		return nil, err
	}

	treatments := make([]*domain.Treatment, 0, len(spans))
	for _, span := range spans {
		t := m.ToTreatment(span)
		if t == nil {
			// One malformed span never fails the batch
			s.logger.Warn("span failed to map to legacy record, skipping",
				logger.String("span_id", span.ID),
				logger.String("category", string(span.Category)))
			continue
		}
		treatments = append(treatments, t)
	}

	return treatments, nil
}

func (s *stateSpanService) GetTempBasalsAsTreatments(ctx context.Context, from, to *int64, count, skip int) ([]*domain.Treatment, error) {
	return s.GetAsTreatments(ctx, domain.CategoryTempBasal, from, to, count, skip)
}

func (s *stateSpanService) CreateFromTreatment(ctx context.Context, category domain.Category, treatment *domain.Treatment) (*domain.StateSpan, error) {
	m := mapper.ForCategory(category)
	if m == nil {
		return nil, fmt.Errorf("%w: no mapper for category %s", repository.ErrValidation, category)
	}

	span := m.ToStateSpan(treatment)
	if span == nil {
		return nil, fmt.Errorf("%w: event type %q does not map to category %s",
			repository.ErrValidation, treatment.EventType, category)
	}

	return s.Upsert(ctx, span)
}

// publishChange fans the write out; best effort, at-least-once — a publish
// failure never fails the originating write
func (s *stateSpanService) publishChange(ctx context.Context, kind broadcast.ChangeKind, span *domain.StateSpan) {
	err := s.publisher.PublishSpanChange(ctx, broadcast.SpanChangeMessage{
		Kind:       kind,
		SpanID:     span.ID,
		Category:   string(span.Category),
		State:      span.State,
		StartMills: span.StartMills,
		Source:     span.Source,
	})
	if err != nil {
		s.logger.Warn("failed to publish span change",
			logger.String("span_id", span.ID),
			logger.Error(err))
	}
}
