package connector

import (
	"context"
	"fmt"
	"sync"
	"time"

	coordinator "nocturne/internal/coordinator/iface"
	"nocturne/internal/domain"
	"nocturne/internal/logger"
	"nocturne/internal/service"

	"github.com/robfig/cron/v3"
)

const syncLeaderRole = "connector-sync"

// SyncConfig configures the pull-sync loop
type SyncConfig struct {
	NodeID          string
	Source          string
	Schedule        string // 6-field cron spec
	LookbackMinutes int
}

// SyncMetrics mirrors what the connector health endpoint reports
type SyncMetrics struct {
	TotalEvents    int64 `json:"totalEvents"`
	LastEventMills int64 `json:"lastEventMills,omitempty"`
	LastSyncMills  int64 `json:"lastSyncMills,omitempty"`
}

// SyncService pulls pump history from the upstream API on a schedule and
// upserts it as state spans. Only the elected leader node actually syncs;
// every node campaigns at each tick so a dead leader is replaced within one
// schedule interval.
type SyncService interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error

	// SyncOnce runs a single pull immediately, regardless of leadership
	SyncOnce(ctx context.Context) error

	Metrics() SyncMetrics
}

type syncService struct {
	upstream    UpstreamClient
	filter      *EventFilter
	spanService service.StateSpanService
	elector     coordinator.LeaderElector
	config      SyncConfig
	cron        *cron.Cron
	logger      logger.Logger

	mu      sync.Mutex
	metrics SyncMetrics
}

// NewSyncService creates the connector sync loop
func NewSyncService(
	upstream UpstreamClient,
	filter *EventFilter,
	spanService service.StateSpanService,
	elector coordinator.LeaderElector,
	config SyncConfig,
	log logger.Logger,
) SyncService {
	if config.Schedule == "" {
		config.Schedule = "0 * * * * *" // every minute
	}
	if config.LookbackMinutes <= 0 {
		config.LookbackMinutes = 60
	}

	return &syncService{
		upstream:    upstream,
		filter:      filter,
		spanService: spanService,
		elector:     elector,
		config:      config,
		cron:        cron.New(cron.WithSeconds()),
		logger:      log.With(logger.String("component", "sync_service")),
	}
}

func (s *syncService) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.config.Schedule, func() {
		s.runScheduledSync(context.Background())
	})
	if err != nil {
		return fmt.Errorf("failed to schedule sync: %w", err)
	}

	s.cron.Start()
	s.logger.Info("sync loop started",
		logger.String("schedule", s.config.Schedule),
		logger.String("node_id", s.config.NodeID))

	return nil
}

func (s *syncService) Stop(ctx context.Context) error {
	cronCtx := s.cron.Stop()
	<-cronCtx.Done()

	if err := s.elector.Resign(syncLeaderRole, s.config.NodeID); err != nil {
		s.logger.Warn("failed to resign sync leadership", logger.Error(err))
	}

	return nil
}

func (s *syncService) runScheduledSync(ctx context.Context) {
	leader, err := s.elector.Campaign(syncLeaderRole, s.config.NodeID)
	if err != nil {
		s.logger.Error("leader campaign failed", logger.Error(err))
		return
	}
	if !leader {
		s.logger.Debug("not the sync leader, standing by",
			logger.String("node_id", s.config.NodeID))
		return
	}

	if err := s.SyncOnce(ctx); err != nil {
		s.logger.Error("sync run failed", logger.Error(err))
	}
}

func (s *syncService) SyncOnce(ctx context.Context) error {
	sinceMills := time.Now().Add(-time.Duration(s.config.LookbackMinutes) * time.Minute).UnixMilli()

	events, err := s.upstream.FetchEvents(ctx, sinceMills)
	if err != nil {
		return fmt.Errorf("failed to fetch upstream events: %w", err)
	}

	stored := 0
	var lastEventMills int64

	for _, event := range events {
		accepted, err := s.filter.Accept(event)
		if err != nil {
			s.logger.Warn("event filter rejected event with error",
				logger.String("event_id", event.EventID),
				logger.Error(err))
			continue
		}
		if !accepted {
			continue
		}

		span := SpanFromPumpEvent(event, s.config.Source)
		if span == nil {
			s.logger.Debug("unrecognized event type, skipping",
				logger.String("event_id", event.EventID),
				logger.String("type", event.Type))
			continue
		}

		if _, err := s.spanService.Upsert(ctx, span); err != nil {
			s.logger.Warn("failed to upsert synced span",
				logger.String("event_id", event.EventID),
				logger.Error(err))
			continue
		}

		stored++
		if event.Mills > lastEventMills {
			lastEventMills = event.Mills
		}
	}

	s.mu.Lock()
	s.metrics.TotalEvents += int64(stored)
	s.metrics.LastSyncMills = time.Now().UnixMilli()
	if lastEventMills > s.metrics.LastEventMills {
		s.metrics.LastEventMills = lastEventMills
	}
	s.mu.Unlock()

	s.logger.Info("sync run complete",
		logger.Int("fetched", len(events)),
		logger.Int("stored", stored))

	return nil
}

func (s *syncService) Metrics() SyncMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metrics
}

// Upstream event type strings
const (
	eventTypeTempBasal    = "tempBasal"
	eventTypeBasalSegment = "basalSegment"
	eventTypeSuspend      = "suspend"
	eventTypeExercise     = "exercise"
	eventTypeOverride     = "override"
)

// SpanFromPumpEvent maps one upstream event to a state span, nil for event
// types the engine does not model. The upstream event id becomes the span's
// natural identity, which is what makes window replays harmless.
func SpanFromPumpEvent(event PumpEvent, source string) *domain.StateSpan {
	var span *domain.StateSpan

	switch event.Type {
	case eventTypeTempBasal:
		span = domain.NewStateSpan(domain.CategoryTempBasal, "TempBasal", event.Mills, source)
		if event.Rate != nil {
			span.Metadata[domain.MetaKeyRate] = domain.MetaNumber(*event.Rate)
		}
	case eventTypeBasalSegment:
		span = domain.NewStateSpan(domain.CategoryBasalDelivery, "BasalDelivery", event.Mills, source)
		if event.Rate != nil {
			span.Metadata[domain.MetaKeyRate] = domain.MetaNumber(*event.Rate)
		}
		if event.ScheduledRate != 0 {
			span.Metadata[domain.MetaKeyScheduledRate] = domain.MetaNumber(event.ScheduledRate)
		}
	case eventTypeSuspend:
		// A suspension is a zero-rate temp basal in the legacy model
		span = domain.NewStateSpan(domain.CategoryTempBasal, "Suspend", event.Mills, source)
		span.Metadata[domain.MetaKeyRate] = domain.MetaNumber(0)
	case eventTypeExercise:
		state := event.Reason
		if state == "" {
			state = "Exercise"
		}
		span = domain.NewStateSpan(domain.CategoryActivity, state, event.Mills, source)
	case eventTypeOverride:
		state := event.Reason
		if state == "" {
			state = "Override"
		}
		span = domain.NewStateSpan(domain.CategoryOverride, state, event.Mills, source)
	default:
		return nil
	}

	if event.EventID != "" {
		span.OriginalID = domain.StringPtr(event.EventID)
	}

	switch {
	case event.EndMills != nil:
		span.EndMills = event.EndMills
	case event.DurationMins > 0:
		span.EndMills = domain.Int64Ptr(event.Mills + int64(event.DurationMins*60_000))
	}

	return span
}
