package service

import (
	"context"
	"fmt"
	"testing"

	"nocturne/internal/broadcast"
	"nocturne/internal/cache/local"
	"nocturne/internal/domain"
	"nocturne/internal/logger"
	"nocturne/internal/repository/memory"
	repositoryIface "nocturne/internal/repository/iface"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTreatmentService(t *testing.T) (TreatmentService, StateSpanService, repositoryIface.TreatmentRepository) {
	t.Helper()

	log, err := logger.NewZapLoggerForDev()
	require.NoError(t, err)

	spanRepo := memory.NewStateSpanRepository()
	spanSvc := NewStateSpanService(spanRepo, local.NewKeyLock(), broadcast.NewMockPublisher(log), log)

	treatmentRepo := memory.NewTreatmentRepository()
	svc := NewTreatmentService(treatmentRepo, spanSvc, log)

	return svc, spanSvc, treatmentRepo
}

func nativeTreatment(id string, eventType string, mills int64) *domain.Treatment {
	return &domain.Treatment{
		ID:        id,
		EventType: eventType,
		Mills:     mills,
		CreatedAt: mills,
	}
}

func TestGetTreatmentsMergesBothStores(t *testing.T) {
	svc, spanSvc, treatmentRepo := newTestTreatmentService(t)
	ctx := context.Background()

	require.NoError(t, treatmentRepo.Insert(ctx, nativeTreatment("n-1", "Meal Bolus", 300)))
	require.NoError(t, treatmentRepo.Insert(ctx, nativeTreatment("n-2", "Meal Bolus", 100)))

	span := domain.NewStateSpan(domain.CategoryTempBasal, "TempBasal", 200, "pump-connector")
	span.Metadata[domain.MetaKeyRate] = domain.MetaNumber(0.5)
	_, err := spanSvc.Upsert(ctx, span)
	require.NoError(t, err)

	merged, err := svc.GetTreatments(ctx, repositoryIface.TreatmentFilter{})
	require.NoError(t, err)

	require.Len(t, merged, 3)
	assert.Equal(t, int64(300), merged[0].Mills)
	assert.Equal(t, int64(200), merged[1].Mills)
	assert.Equal(t, int64(100), merged[2].Mills)
	assert.Equal(t, domain.EventTypeTempBasal, merged[1].EventType, "span-derived record interleaves by time")
}

func TestGetTreatmentsPaginatesAcrossStores(t *testing.T) {
	svc, spanSvc, treatmentRepo := newTestTreatmentService(t)
	ctx := context.Background()

	require.NoError(t, treatmentRepo.Insert(ctx, nativeTreatment("n-1", "Meal Bolus", 100)))

	span := domain.NewStateSpan(domain.CategoryTempBasal, "TempBasal", 200, "pump-connector")
	span.Metadata[domain.MetaKeyRate] = domain.MetaNumber(0.5)
	_, err := spanSvc.Upsert(ctx, span)
	require.NoError(t, err)

	// count=1 must surface the newest record regardless of which store owns it
	page, err := svc.GetTreatments(ctx, repositoryIface.TreatmentFilter{Count: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, int64(200), page[0].Mills)
	assert.Equal(t, domain.EventTypeTempBasal, page[0].EventType)

	// skip=1 continues past it into the native store
	page, err = svc.GetTreatments(ctx, repositoryIface.TreatmentFilter{Count: 1, Skip: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, int64(100), page[0].Mills)
}

func TestGetTreatmentsNarrowsByEventType(t *testing.T) {
	svc, spanSvc, treatmentRepo := newTestTreatmentService(t)
	ctx := context.Background()

	require.NoError(t, treatmentRepo.Insert(ctx, nativeTreatment("n-1", "Meal Bolus", 300)))

	span := domain.NewStateSpan(domain.CategoryTempBasal, "TempBasal", 200, "pump-connector")
	span.Metadata[domain.MetaKeyRate] = domain.MetaNumber(0.5)
	_, err := spanSvc.Upsert(ctx, span)
	require.NoError(t, err)

	eventType := domain.EventTypeTempBasal
	merged, err := svc.GetTreatments(ctx, repositoryIface.TreatmentFilter{EventType: &eventType})
	require.NoError(t, err)

	require.Len(t, merged, 1)
	assert.Equal(t, domain.EventTypeTempBasal, merged[0].EventType)
}

func TestMergeTreatmentsOrderingAndTieBreak(t *testing.T) {
	native := []*domain.Treatment{
		nativeTreatment("b", "Meal Bolus", 200),
		nativeTreatment("d", "Meal Bolus", 100),
	}
	synthetic := []*domain.Treatment{
		nativeTreatment("a", domain.EventTypeTempBasal, 200),
		nativeTreatment("c", domain.EventTypeBasal, 300),
	}

	merged := MergeTreatments(native, synthetic, 0, 0)

	require.Len(t, merged, 4)
	assert.Equal(t, "c", merged[0].ID)
	// Equal mills break on id so paging is deterministic
	assert.Equal(t, "a", merged[1].ID)
	assert.Equal(t, "b", merged[2].ID)
	assert.Equal(t, "d", merged[3].ID)
}

func TestMergeTreatmentsPagingEdges(t *testing.T) {
	var records []*domain.Treatment
	for i := 0; i < 5; i++ {
		records = append(records, nativeTreatment(fmt.Sprintf("r-%d", i), "Meal Bolus", int64(100*(i+1))))
	}

	t.Run("skip beyond length returns empty", func(t *testing.T) {
		assert.Empty(t, MergeTreatments(records, nil, 10, 3))
	})

	t.Run("count larger than remainder returns remainder", func(t *testing.T) {
		page := MergeTreatments(records, nil, 3, 10)
		assert.Len(t, page, 2)
	})

	t.Run("zero count returns everything", func(t *testing.T) {
		page := MergeTreatments(records, nil, 0, 0)
		assert.Len(t, page, 5)
	})
}

func TestCreateTreatmentLiftsMappedEventTypes(t *testing.T) {
	svc, spanSvc, treatmentRepo := newTestTreatmentService(t)
	ctx := context.Background()

	created, err := svc.CreateTreatment(ctx, &domain.Treatment{
		EventType: domain.EventTypeTempBasal,
		Mills:     60_000,
		Duration:  30,
		Rate:      0.5,
	})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, 0.5, created.Rate)

	// The record lives in the span store, not the flat store
	native, err := treatmentRepo.QueryRange(ctx, repositoryIface.TreatmentFilter{})
	require.NoError(t, err)
	assert.Empty(t, native)

	spans, err := spanSvc.Get(ctx, repositoryIface.SpanFilter{})
	require.NoError(t, err)
	require.Len(t, spans, 1)
	assert.Equal(t, domain.CategoryTempBasal, spans[0].Category)
}

func TestCreateTreatmentStoresNativeEventTypes(t *testing.T) {
	svc, spanSvc, treatmentRepo := newTestTreatmentService(t)
	ctx := context.Background()

	created, err := svc.CreateTreatment(ctx, &domain.Treatment{
		EventType: "Meal Bolus",
		Mills:     60_000,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID, "native records get a system id")
	assert.NotZero(t, created.CreatedAt)

	native, err := treatmentRepo.QueryRange(ctx, repositoryIface.TreatmentFilter{})
	require.NoError(t, err)
	assert.Len(t, native, 1)

	spans, err := spanSvc.Get(ctx, repositoryIface.SpanFilter{})
	require.NoError(t, err)
	assert.Empty(t, spans)
}

func TestDeleteTreatmentCascadesToSpans(t *testing.T) {
	svc, spanSvc, _ := newTestTreatmentService(t)
	ctx := context.Background()

	span := domain.NewStateSpan(domain.CategoryTempBasal, "TempBasal", 60_000, "pump-connector")
	span.Metadata[domain.MetaKeyRate] = domain.MetaNumber(0.5)
	stored, err := spanSvc.Upsert(ctx, span)
	require.NoError(t, err)

	// Synthetic records carry the span's id in the merged view
	existed, err := svc.DeleteTreatment(ctx, stored.ID)
	require.NoError(t, err)
	assert.True(t, existed)

	got, err := spanSvc.GetByID(ctx, stored.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	existed, err = svc.DeleteTreatment(ctx, stored.ID)
	require.NoError(t, err)
	assert.False(t, existed)
}
