package service

import (
	"testing"
	"time"

	"nocturne/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func basalSpan(startMills int64, rate float64, durationMins int64) *domain.StateSpan {
	span := domain.NewStateSpan(domain.CategoryBasalDelivery, "BasalDelivery", startMills, "test")
	span.Metadata[domain.MetaKeyRate] = domain.MetaNumber(rate)
	if durationMins > 0 {
		span.EndMills = domain.Int64Ptr(startMills + durationMins*60_000)
	}
	return span
}

func TestExtractRate(t *testing.T) {
	assert.Equal(t, 1.2, ExtractRate(basalSpan(1_000, 1.2, 5)))

	span := domain.NewStateSpan(domain.CategoryBasalDelivery, "BasalDelivery", 1_000, "test")
	assert.Equal(t, float64(0), ExtractRate(span), "missing rate reads as zero")

	span.Metadata[domain.MetaKeyRate] = domain.MetaString("0.85")
	assert.Equal(t, 0.85, ExtractRate(span), "string rates coerce")
}

func TestComputeDeliveredInsulin(t *testing.T) {
	t.Run("closed span", func(t *testing.T) {
		// 1.2 U/hr over 30 minutes
		assert.InDelta(t, 0.6, ComputeDeliveredInsulin(basalSpan(1_000, 1.2, 30)), 1e-9)
	})

	t.Run("ongoing basal segment assumes one pump tick", func(t *testing.T) {
		// 1.2 U/hr over the 5-minute default window
		assert.InDelta(t, 0.1, ComputeDeliveredInsulin(basalSpan(1_000, 1.2, 0)), 1e-9)
	})

	t.Run("zero rate delivers nothing", func(t *testing.T) {
		assert.Equal(t, float64(0), ComputeDeliveredInsulin(basalSpan(1_000, 0, 30)))
	})
}

func TestSumDelivered(t *testing.T) {
	tempBasal := domain.NewStateSpan(domain.CategoryTempBasal, "TempBasal", 1_000, "test")
	tempBasal.Metadata[domain.MetaKeyRate] = domain.MetaNumber(2.0)

	spans := []*domain.StateSpan{
		basalSpan(1_000, 1.2, 30),  // 0.6
		basalSpan(10_000, 0.8, 15), // 0.2
		basalSpan(20_000, 0, 30),   // zero, skipped
		tempBasal,                  // wrong category, skipped
	}

	assert.InDelta(t, 0.8, SumDelivered(spans), 1e-9)
	assert.Equal(t, float64(0), SumDelivered(nil))
}

func TestHourlyRateDistribution(t *testing.T) {
	// 2026-08-23 in UTC: hours picked via explicit timestamps
	at := func(hour int) int64 {
		return time.Date(2026, 8, 23, hour, 15, 0, 0, time.UTC).UnixMilli()
	}

	spans := []*domain.StateSpan{
		basalSpan(at(3), 1.0, 5),
		basalSpan(at(3), 2.0, 5),
		basalSpan(at(3), 3.0, 5),
		basalSpan(at(14), 0.5, 5),
	}

	stats := HourlyRateDistribution(spans, time.UTC)

	t.Run("every hour is present", func(t *testing.T) {
		require.Len(t, stats[:], 24)
		for hour, s := range stats {
			assert.Equal(t, hour, s.Hour)
		}
	})

	t.Run("populated bucket", func(t *testing.T) {
		s := stats[3]
		assert.Equal(t, 3, s.Count)
		assert.Equal(t, 1.0, s.Min)
		assert.Equal(t, 3.0, s.Max)
		assert.InDelta(t, 2.0, s.Mean, 1e-9)
		assert.Equal(t, 2.0, s.Median)
		assert.Equal(t, 1.0, s.P10)
		assert.Equal(t, 3.0, s.P90)
	})

	t.Run("single-sample bucket", func(t *testing.T) {
		s := stats[14]
		assert.Equal(t, 1, s.Count)
		assert.Equal(t, 0.5, s.Min)
		assert.Equal(t, 0.5, s.Median)
		assert.Equal(t, 0.5, s.P90)
	})

	t.Run("empty buckets are zero-filled", func(t *testing.T) {
		s := stats[0]
		assert.Equal(t, 0, s.Count)
		assert.Equal(t, float64(0), s.Median)
	})
}
