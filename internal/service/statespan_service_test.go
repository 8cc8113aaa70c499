package service

import (
	"context"
	"testing"

	"nocturne/internal/broadcast"
	"nocturne/internal/cache/local"
	"nocturne/internal/domain"
	"nocturne/internal/logger"
	"nocturne/internal/repository"
	"nocturne/internal/repository/memory"
	repositoryIface "nocturne/internal/repository/iface"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSpanService(t *testing.T) (StateSpanService, repositoryIface.StateSpanRepository, *broadcast.MockPublisher) {
	t.Helper()

	log, err := logger.NewZapLoggerForDev()
	require.NoError(t, err)

	repo := memory.NewStateSpanRepository()
	publisher := broadcast.NewMockPublisher(log)
	svc := NewStateSpanService(repo, local.NewKeyLock(), publisher, log)

	return svc, repo, publisher
}

func tempBasalSpan(originalID string, startMills int64, rate float64) *domain.StateSpan {
	span := domain.NewStateSpan(domain.CategoryTempBasal, "TempBasal", startMills, "pump-connector")
	span.ID = "" // let the service assign storage identity
	if originalID != "" {
		span.OriginalID = domain.StringPtr(originalID)
	}
	span.Metadata[domain.MetaKeyRate] = domain.MetaNumber(rate)
	return span
}

func TestUpsertIsIdempotentPerNaturalKey(t *testing.T) {
	svc, repo, _ := newTestSpanService(t)
	ctx := context.Background()

	first, err := svc.Upsert(ctx, tempBasalSpan("evt-1", 1_000, 0.5))
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	// Same (category, originalId), newer values: the connector replayed its
	// sync window after the vendor extended the event
	replay := tempBasalSpan("evt-1", 1_000, 0.8)
	replay.EndMills = domain.Int64Ptr(1_600_000)

	second, err := svc.Upsert(ctx, replay)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "storage identity must survive the replay")
	assert.Equal(t, first.CreatedAt, second.CreatedAt)

	stored, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 0.8, stored.MetaFloat(domain.MetaKeyRate))
	require.NotNil(t, stored.EndMills)
	assert.Equal(t, int64(1_600_000), *stored.EndMills)

	all, err := repo.QueryRange(ctx, repositoryIface.SpanFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1, "replay must not create a duplicate")
}

func TestUpsertWithoutNaturalKeyAlwaysInserts(t *testing.T) {
	svc, repo, _ := newTestSpanService(t)
	ctx := context.Background()

	_, err := svc.Upsert(ctx, tempBasalSpan("", 1_000, 0.5))
	require.NoError(t, err)
	_, err = svc.Upsert(ctx, tempBasalSpan("", 1_000, 0.5))
	require.NoError(t, err)

	all, err := repo.QueryRange(ctx, repositoryIface.SpanFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestUpsertIdentityIsScopedToCategory(t *testing.T) {
	svc, repo, _ := newTestSpanService(t)
	ctx := context.Background()

	_, err := svc.Upsert(ctx, tempBasalSpan("evt-1", 1_000, 0.5))
	require.NoError(t, err)

	// Another source system reuses the id string for a different category
	activity := domain.NewStateSpan(domain.CategoryActivity, "Running", 1_000, "fitness-app")
	activity.OriginalID = domain.StringPtr("evt-1")
	_, err = svc.Upsert(ctx, activity)
	require.NoError(t, err)

	all, err := repo.QueryRange(ctx, repositoryIface.SpanFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2, "same originalId in different categories are distinct spans")
}

func TestUpsertRejectsInvalidSpans(t *testing.T) {
	svc, _, _ := newTestSpanService(t)
	ctx := context.Background()

	bad := domain.NewStateSpan(domain.CategoryTempBasal, "TempBasal", 2_000, "test")
	bad.EndMills = domain.Int64Ptr(1_000)

	_, err := svc.Upsert(ctx, bad)
	require.Error(t, err)
	assert.True(t, repository.IsValidationError(err))
}

func TestDeleteByIDLeavesNoGhost(t *testing.T) {
	svc, _, _ := newTestSpanService(t)
	ctx := context.Background()

	span, err := svc.Upsert(ctx, tempBasalSpan("evt-2", 1_000, 0.5))
	require.NoError(t, err)

	existed, err := svc.DeleteByID(ctx, span.ID)
	require.NoError(t, err)
	assert.True(t, existed)

	got, err := svc.GetByID(ctx, span.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	treatments, err := svc.GetTempBasalsAsTreatments(ctx, nil, nil, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, treatments, "deleted span must vanish from the legacy view")

	existed, err = svc.DeleteByID(ctx, span.ID)
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestUpdateByID(t *testing.T) {
	svc, _, _ := newTestSpanService(t)
	ctx := context.Background()

	t.Run("missing id reports nil", func(t *testing.T) {
		updated, err := svc.UpdateByID(ctx, "no-such-id", tempBasalSpan("", 1_000, 0.5))
		require.NoError(t, err)
		assert.Nil(t, updated)
	})

	t.Run("replaces while keeping identity", func(t *testing.T) {
		created, err := svc.Upsert(ctx, tempBasalSpan("evt-3", 1_000, 0.5))
		require.NoError(t, err)

		updated, err := svc.UpdateByID(ctx, created.ID, tempBasalSpan("evt-3", 2_000, 0.9))
		require.NoError(t, err)
		require.NotNil(t, updated)

		assert.Equal(t, created.ID, updated.ID)
		assert.Equal(t, created.CreatedAt, updated.CreatedAt)
		assert.Equal(t, int64(2_000), updated.StartMills)
		assert.Equal(t, 0.9, updated.MetaFloat(domain.MetaKeyRate))
	})
}

func TestGetAsTreatmentsSkipsUnmappableSpans(t *testing.T) {
	svc, _, _ := newTestSpanService(t)
	ctx := context.Background()

	_, err := svc.Upsert(ctx, tempBasalSpan("evt-4", 1_000, 0.5))
	require.NoError(t, err)

	// A temp basal without a rate cannot render as a legacy record
	rateless := domain.NewStateSpan(domain.CategoryTempBasal, "TempBasal", 2_000, "test")
	_, err = svc.Upsert(ctx, rateless)
	require.NoError(t, err)

	treatments, err := svc.GetTempBasalsAsTreatments(ctx, nil, nil, 0, 0)
	require.NoError(t, err)
	require.Len(t, treatments, 1)
	assert.Equal(t, 0.5, treatments[0].Rate)
}

func TestGetAsTreatmentsRejectsUnknownCategory(t *testing.T) {
	svc, _, _ := newTestSpanService(t)

	_, err := svc.GetAsTreatments(context.Background(), domain.Category("BOLUS"), nil, nil, 0, 0)
	require.Error(t, err)
	assert.True(t, repository.IsValidationError(err))
}

func TestCreateFromTreatment(t *testing.T) {
	svc, repo, _ := newTestSpanService(t)
	ctx := context.Background()

	t.Run("lifts a qualifying record", func(t *testing.T) {
		treatment := &domain.Treatment{
			EventType:  domain.EventTypeTempBasal,
			Mills:      60_000,
			Duration:   30,
			Rate:       0.5,
			OriginalID: "evt-5",
		}

		span, err := svc.CreateFromTreatment(ctx, domain.CategoryTempBasal, treatment)
		require.NoError(t, err)
		require.NotNil(t, span)

		stored, err := repo.GetByID(ctx, span.ID)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, domain.CategoryTempBasal, stored.Category)
	})

	t.Run("rejects mismatched event type", func(t *testing.T) {
		treatment := &domain.Treatment{
			EventType: domain.EventTypeExercise,
			Mills:     60_000,
		}

		_, err := svc.CreateFromTreatment(ctx, domain.CategoryTempBasal, treatment)
		require.Error(t, err)
		assert.True(t, repository.IsValidationError(err))
	})
}

func TestWritesPublishChanges(t *testing.T) {
	svc, _, publisher := newTestSpanService(t)
	ctx := context.Background()

	span, err := svc.Upsert(ctx, tempBasalSpan("evt-6", 1_000, 0.5))
	require.NoError(t, err)

	_, err = svc.DeleteByID(ctx, span.ID)
	require.NoError(t, err)

	messages := publisher.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, broadcast.ChangeUpserted, messages[0].Kind)
	assert.Equal(t, span.ID, messages[0].SpanID)
	assert.Equal(t, broadcast.ChangeDeleted, messages[1].Kind)
	assert.Equal(t, span.ID, messages[1].SpanID)
}
