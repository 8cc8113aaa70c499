package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetaValueCoercion(t *testing.T) {
	t.Run("AsFloat", func(t *testing.T) {
		tests := []struct {
			name     string
			value    MetaValue
			expected float64
			ok       bool
		}{
			{"number", MetaNumber(1.5), 1.5, true},
			{"zero", MetaNumber(0), 0, true},
			{"numeric string", MetaString("2.75"), 2.75, true},
			{"padded numeric string", MetaString("  3.5 "), 3.5, true},
			{"non-numeric string", MetaString("fast"), 0, false},
			{"empty string", MetaString(""), 0, false},
			{"bool", MetaBool(true), 0, false},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				f, ok := tt.value.AsFloat()
				assert.Equal(t, tt.ok, ok)
				assert.Equal(t, tt.expected, f)
			})
		}
	})

	t.Run("AsString is total", func(t *testing.T) {
		assert.Equal(t, "1.25", MetaNumber(1.25).AsString())
		assert.Equal(t, "true", MetaBool(true).AsString())
		assert.Equal(t, "running", MetaString("running").AsString())
		assert.Equal(t, "", MetaString("").AsString())
	})

	t.Run("AsBool", func(t *testing.T) {
		b, ok := MetaBool(true).AsBool()
		assert.True(t, ok)
		assert.True(t, b)

		b, ok = MetaNumber(2).AsBool()
		assert.True(t, ok)
		assert.True(t, b)

		b, ok = MetaNumber(0).AsBool()
		assert.True(t, ok)
		assert.False(t, b)

		b, ok = MetaString("true").AsBool()
		assert.True(t, ok)
		assert.True(t, b)

		_, ok = MetaString("maybe").AsBool()
		assert.False(t, ok)
	})
}

func TestMetadataJSON(t *testing.T) {
	t.Run("decodes mixed value kinds", func(t *testing.T) {
		raw := `{"rate": 0.85, "reason": "exercise", "automatic": true}`

		var m Metadata
		require.NoError(t, json.Unmarshal([]byte(raw), &m))

		rate, ok := m["rate"].AsFloat()
		assert.True(t, ok)
		assert.Equal(t, 0.85, rate)

		assert.Equal(t, "exercise", m["reason"].AsString())

		auto, ok := m["automatic"].AsBool()
		assert.True(t, ok)
		assert.True(t, auto)
	})

	t.Run("round trips through JSON", func(t *testing.T) {
		m := Metadata{
			"rate":   MetaNumber(1.2),
			"origin": MetaString("pump"),
			"manual": MetaBool(false),
		}

		data, err := json.Marshal(m)
		require.NoError(t, err)

		var decoded Metadata
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, m, decoded)
	})

	t.Run("null becomes empty string", func(t *testing.T) {
		var v MetaValue
		require.NoError(t, json.Unmarshal([]byte(`null`), &v))
		assert.Equal(t, "", v.AsString())
	})
}
