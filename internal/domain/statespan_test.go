package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateSpanValidate(t *testing.T) {
	t.Run("valid span", func(t *testing.T) {
		span := NewStateSpan(CategoryTempBasal, "TempBasal", 1_000, "test")
		assert.NoError(t, span.Validate())
	})

	t.Run("rejects unknown category", func(t *testing.T) {
		span := NewStateSpan(Category("BOLUS"), "Bolus", 1_000, "test")
		assert.Error(t, span.Validate())
	})

	t.Run("rejects non-positive start", func(t *testing.T) {
		span := NewStateSpan(CategoryActivity, "Exercise", 0, "test")
		assert.Error(t, span.Validate())
	})

	t.Run("rejects end before start", func(t *testing.T) {
		span := NewStateSpan(CategoryActivity, "Exercise", 2_000, "test")
		span.EndMills = Int64Ptr(1_000)
		assert.Error(t, span.Validate())
	})

	t.Run("allows zero-length span", func(t *testing.T) {
		span := NewStateSpan(CategoryActivity, "Exercise", 2_000, "test")
		span.EndMills = Int64Ptr(2_000)
		assert.NoError(t, span.Validate())
	})
}

func TestStateSpanDuration(t *testing.T) {
	t.Run("closed span uses its own bounds", func(t *testing.T) {
		span := NewStateSpan(CategoryTempBasal, "TempBasal", 1_000, "test")
		span.EndMills = Int64Ptr(1_600_000)

		assert.False(t, span.IsOngoing())
		assert.Equal(t, int64(1_599_000), span.DurationMills())
	})

	t.Run("ongoing span falls back to category default", func(t *testing.T) {
		tests := []struct {
			category Category
			expected int64
		}{
			{CategoryBasalDelivery, 5 * 60 * 1000},
			{CategoryTempBasal, 30 * 60 * 1000},
			{CategoryActivity, 60 * 60 * 1000},
			{CategoryOverride, 60 * 60 * 1000},
			{CategoryDataExclusion, 60 * 60 * 1000},
		}

		for _, tt := range tests {
			span := NewStateSpan(tt.category, "state", 10_000, "test")
			require.True(t, span.IsOngoing())
			assert.Equal(t, tt.expected, span.DurationMills(), "category %s", tt.category)
			assert.Equal(t, span.StartMills+tt.expected, span.EffectiveEndMills())
		}
	})
}

func TestStateSpanOverlaps(t *testing.T) {
	closed := NewStateSpan(CategoryActivity, "Exercise", 1_000, "test")
	closed.EndMills = Int64Ptr(5_000)

	ongoing := NewStateSpan(CategoryActivity, "Exercise", 1_000, "test")

	tests := []struct {
		name     string
		span     *StateSpan
		from, to int64
		expected bool
	}{
		{"window inside span", closed, 2_000, 3_000, true},
		{"window overlapping start", closed, 0, 1_500, true},
		{"window overlapping end", closed, 4_500, 9_000, true},
		{"window touching end", closed, 5_000, 9_000, true},
		{"window after span", closed, 6_000, 9_000, false},
		{"window before span", closed, 0, 500, false},
		{"ongoing overlaps far future", ongoing, 1_000_000, 2_000_000, true},
		{"ongoing does not reach before start", ongoing, 0, 500, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.span.Overlaps(tt.from, tt.to))
		})
	}
}

func TestStateSpanMetaAccessors(t *testing.T) {
	span := NewStateSpan(CategoryTempBasal, "TempBasal", 1_000, "test")
	span.Metadata[MetaKeyRate] = MetaNumber(0.5)
	span.Metadata[MetaKeyReason] = MetaString("exercise")
	span.Metadata["stringRate"] = MetaString("1.75")

	assert.Equal(t, 0.5, span.MetaFloat(MetaKeyRate))
	assert.Equal(t, 1.75, span.MetaFloat("stringRate"))
	assert.Equal(t, float64(0), span.MetaFloat("missing"))
	assert.Equal(t, "exercise", span.MetaString(MetaKeyReason))
	assert.Equal(t, "", span.MetaString("missing"))

	var bare StateSpan
	assert.Equal(t, float64(0), bare.MetaFloat(MetaKeyRate))
	assert.Equal(t, "", bare.MetaString(MetaKeyReason))
}
