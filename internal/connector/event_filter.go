package connector

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// EventFilter is an operator-configurable accept expression evaluated against
// each raw upstream event before it is mapped and upserted. Typical use is
// dropping vendor noise, e.g. `type != "heartbeat" && rate < 25.0`.
type EventFilter struct {
	program *vm.Program
}

// NewEventFilter compiles an accept expression. An empty expression means
// accept everything.
func NewEventFilter(expression string) (*EventFilter, error) {
	if expression == "" {
		return &EventFilter{}, nil
	}

	program, err := expr.Compile(expression, expr.Env(filterEnv(PumpEvent{})), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("invalid event filter expression: %w", err)
	}

	return &EventFilter{program: program}, nil
}

// Accept evaluates the filter for one event. Evaluation errors reject the
// event; a filter that cannot decide must not let data through.
func (f *EventFilter) Accept(event PumpEvent) (bool, error) {
	if f == nil || f.program == nil {
		return true, nil
	}

	result, err := expr.Run(f.program, filterEnv(event))
	if err != nil {
		return false, fmt.Errorf("event filter evaluation failed: %w", err)
	}

	accepted, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("event filter returned %T, expected bool", result)
	}

	return accepted, nil
}

// filterEnv flattens an event into the expression environment
func filterEnv(event PumpEvent) map[string]interface{} {
	rate := 0.0
	if event.Rate != nil {
		rate = *event.Rate
	}
	return map[string]interface{}{
		"eventId":       event.EventID,
		"type":          event.Type,
		"mills":         event.Mills,
		"duration":      event.DurationMins,
		"rate":          rate,
		"scheduledRate": event.ScheduledRate,
		"reason":        event.Reason,
	}
}
