package connector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rateOf(v float64) *float64 {
	return &v
}

func TestEventFilter(t *testing.T) {
	t.Run("empty expression accepts everything", func(t *testing.T) {
		filter, err := NewEventFilter("")
		require.NoError(t, err)

		ok, err := filter.Accept(PumpEvent{Type: "heartbeat"})
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("nil filter accepts everything", func(t *testing.T) {
		var filter *EventFilter
		ok, err := filter.Accept(PumpEvent{})
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("filters on event fields", func(t *testing.T) {
		filter, err := NewEventFilter(`type != "heartbeat" && rate < 25.0`)
		require.NoError(t, err)

		ok, err := filter.Accept(PumpEvent{Type: "tempBasal", Rate: rateOf(0.5)})
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = filter.Accept(PumpEvent{Type: "heartbeat"})
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = filter.Accept(PumpEvent{Type: "tempBasal", Rate: rateOf(30)})
		require.NoError(t, err)
		assert.False(t, ok, "implausible rates are vendor noise")
	})

	t.Run("missing rate evaluates as zero", func(t *testing.T) {
		filter, err := NewEventFilter(`rate < 25.0`)
		require.NoError(t, err)

		ok, err := filter.Accept(PumpEvent{Type: "exercise"})
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("rejects invalid expressions at compile time", func(t *testing.T) {
		_, err := NewEventFilter(`type ==`)
		assert.Error(t, err)
	})

	t.Run("non-boolean expressions never accept", func(t *testing.T) {
		filter, compileErr := NewEventFilter(`rate + 1`)
		if compileErr != nil {
			return
		}

		ok, evalErr := filter.Accept(PumpEvent{Rate: rateOf(1)})
		assert.False(t, ok)
		assert.Error(t, evalErr)
	})
}
