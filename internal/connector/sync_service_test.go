package connector

import (
	"context"
	"errors"
	"testing"

	"nocturne/internal/broadcast"
	"nocturne/internal/cache/local"
	"nocturne/internal/domain"
	"nocturne/internal/logger"
	"nocturne/internal/repository/memory"
	repositoryIface "nocturne/internal/repository/iface"
	"nocturne/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUpstream struct {
	events []PumpEvent
	err    error
	calls  int
}

func (f *fakeUpstream) FetchEvents(ctx context.Context, sinceMills int64) ([]PumpEvent, error) {
	f.calls++
	return f.events, f.err
}

type fakeElector struct {
	leader bool
}

func (f *fakeElector) Campaign(role, nodeID string) (bool, error) { return f.leader, nil }
func (f *fakeElector) Resign(role, nodeID string) error           { return nil }
func (f *fakeElector) Close() error                               { return nil }

func newSyncFixture(t *testing.T, upstream *fakeUpstream, elector *fakeElector, filterExpr string) (*syncService, service.StateSpanService) {
	t.Helper()

	log, err := logger.NewZapLoggerForDev()
	require.NoError(t, err)

	filter, err := NewEventFilter(filterExpr)
	require.NoError(t, err)

	spanSvc := service.NewStateSpanService(
		memory.NewStateSpanRepository(),
		local.NewKeyLock(),
		broadcast.NewMockPublisher(log),
		log,
	)

	svc := NewSyncService(upstream, filter, spanSvc, elector, SyncConfig{
		NodeID: "node-test",
		Source: "pump-connector",
	}, log)

	return svc.(*syncService), spanSvc
}

func TestSpanFromPumpEvent(t *testing.T) {
	t.Run("temp basal", func(t *testing.T) {
		span := SpanFromPumpEvent(PumpEvent{
			EventID:      "evt-1",
			Type:         "tempBasal",
			Mills:        60_000,
			DurationMins: 30,
			Rate:         rateOf(0.5),
		}, "pump-connector")

		require.NotNil(t, span)
		assert.Equal(t, domain.CategoryTempBasal, span.Category)
		assert.Equal(t, 0.5, span.MetaFloat(domain.MetaKeyRate))
		require.NotNil(t, span.OriginalID)
		assert.Equal(t, "evt-1", *span.OriginalID)
		require.NotNil(t, span.EndMills)
		assert.Equal(t, int64(60_000+30*60_000), *span.EndMills)
		assert.Equal(t, "pump-connector", span.Source)
	})

	t.Run("explicit end wins over duration", func(t *testing.T) {
		span := SpanFromPumpEvent(PumpEvent{
			EventID:      "evt-2",
			Type:         "tempBasal",
			Mills:        60_000,
			EndMills:     domain.Int64Ptr(90_000),
			DurationMins: 30,
			Rate:         rateOf(0.5),
		}, "pump-connector")

		require.NotNil(t, span)
		require.NotNil(t, span.EndMills)
		assert.Equal(t, int64(90_000), *span.EndMills)
	})

	t.Run("basal segment carries both rates", func(t *testing.T) {
		span := SpanFromPumpEvent(PumpEvent{
			EventID:       "evt-3",
			Type:          "basalSegment",
			Mills:         60_000,
			Rate:          rateOf(0.9),
			ScheduledRate: 1.0,
		}, "pump-connector")

		require.NotNil(t, span)
		assert.Equal(t, domain.CategoryBasalDelivery, span.Category)
		assert.Equal(t, 0.9, span.MetaFloat(domain.MetaKeyRate))
		assert.Equal(t, 1.0, span.MetaFloat(domain.MetaKeyScheduledRate))
	})

	t.Run("suspend is a zero-rate temp basal", func(t *testing.T) {
		span := SpanFromPumpEvent(PumpEvent{
			EventID: "evt-4",
			Type:    "suspend",
			Mills:   60_000,
		}, "pump-connector")

		require.NotNil(t, span)
		assert.Equal(t, domain.CategoryTempBasal, span.Category)
		assert.Equal(t, float64(0), span.MetaFloat(domain.MetaKeyRate))
	})

	t.Run("exercise and override carry the reason as state", func(t *testing.T) {
		span := SpanFromPumpEvent(PumpEvent{
			EventID: "evt-5",
			Type:    "exercise",
			Mills:   60_000,
			Reason:  "Running",
		}, "pump-connector")
		require.NotNil(t, span)
		assert.Equal(t, domain.CategoryActivity, span.Category)
		assert.Equal(t, "Running", span.State)

		span = SpanFromPumpEvent(PumpEvent{
			EventID: "evt-6",
			Type:    "override",
			Mills:   60_000,
		}, "pump-connector")
		require.NotNil(t, span)
		assert.Equal(t, domain.CategoryOverride, span.Category)
		assert.Equal(t, "Override", span.State)
	})

	t.Run("unknown types are dropped", func(t *testing.T) {
		assert.Nil(t, SpanFromPumpEvent(PumpEvent{Type: "heartbeat", Mills: 60_000}, "pump-connector"))
	})
}

func TestSyncOnceUpsertsFetchedEvents(t *testing.T) {
	now := int64(1_700_000_000_000)
	upstream := &fakeUpstream{events: []PumpEvent{
		{EventID: "evt-1", Type: "tempBasal", Mills: now, DurationMins: 30, Rate: rateOf(0.5)},
		{EventID: "evt-2", Type: "exercise", Mills: now + 1, Reason: "Running"},
		{EventID: "evt-3", Type: "heartbeat", Mills: now + 2},
	}}

	svc, spanSvc := newSyncFixture(t, upstream, &fakeElector{leader: true}, "")
	ctx := context.Background()

	require.NoError(t, svc.SyncOnce(ctx))

	spans, err := spanSvc.Get(ctx, repositoryIface.SpanFilter{})
	require.NoError(t, err)
	assert.Len(t, spans, 2, "heartbeat has no span category")

	metrics := svc.Metrics()
	assert.Equal(t, int64(2), metrics.TotalEvents)
	assert.Equal(t, now+1, metrics.LastEventMills)
	assert.NotZero(t, metrics.LastSyncMills)
}

func TestSyncOnceIsIdempotentAcrossReplays(t *testing.T) {
	upstream := &fakeUpstream{events: []PumpEvent{
		{EventID: "evt-1", Type: "tempBasal", Mills: 60_000, DurationMins: 30, Rate: rateOf(0.5)},
	}}

	svc, spanSvc := newSyncFixture(t, upstream, &fakeElector{leader: true}, "")
	ctx := context.Background()

	require.NoError(t, svc.SyncOnce(ctx))
	require.NoError(t, svc.SyncOnce(ctx))

	spans, err := spanSvc.Get(ctx, repositoryIface.SpanFilter{})
	require.NoError(t, err)
	assert.Len(t, spans, 1, "overlapping windows must not duplicate events")
}

func TestSyncOnceAppliesEventFilter(t *testing.T) {
	upstream := &fakeUpstream{events: []PumpEvent{
		{EventID: "evt-1", Type: "tempBasal", Mills: 60_000, Rate: rateOf(0.5)},
		{EventID: "evt-2", Type: "tempBasal", Mills: 60_001, Rate: rateOf(30)},
	}}

	svc, spanSvc := newSyncFixture(t, upstream, &fakeElector{leader: true}, `rate < 25.0`)
	ctx := context.Background()

	require.NoError(t, svc.SyncOnce(ctx))

	spans, err := spanSvc.Get(ctx, repositoryIface.SpanFilter{})
	require.NoError(t, err)
	require.Len(t, spans, 1)
	assert.Equal(t, 0.5, spans[0].MetaFloat(domain.MetaKeyRate))
}

func TestSyncOncePropagatesFetchErrors(t *testing.T) {
	upstream := &fakeUpstream{err: errors.New("upstream down")}
	svc, _ := newSyncFixture(t, upstream, &fakeElector{leader: true}, "")

	err := svc.SyncOnce(context.Background())
	assert.Error(t, err)
	assert.Equal(t, SyncMetrics{}, svc.Metrics())
}

func TestScheduledSyncRunsOnlyOnTheLeader(t *testing.T) {
	upstream := &fakeUpstream{}
	svc, _ := newSyncFixture(t, upstream, &fakeElector{leader: false}, "")

	svc.runScheduledSync(context.Background())
	assert.Equal(t, 0, upstream.calls, "standby nodes must not pull")

	leaderUpstream := &fakeUpstream{}
	leaderSvc, _ := newSyncFixture(t, leaderUpstream, &fakeElector{leader: true}, "")

	leaderSvc.runScheduledSync(context.Background())
	assert.Equal(t, 1, leaderUpstream.calls)
}
