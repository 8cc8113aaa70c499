package mapper

import (
	"nocturne/internal/domain"
)

// Override maps therapy override spans to legacy "Temporary Override"
// records. The override name lives in the span's State and renders as the
// legacy reason field.
type Override struct{}

func (Override) Category() domain.Category {
	return domain.CategoryOverride
}

func (Override) ToTreatment(span *domain.StateSpan) *domain.Treatment {
	if span == nil || span.Category != domain.CategoryOverride {
		return nil
	}

	t := treatmentFromSpan(domain.EventTypeOverride, span)
	t.Reason = span.State
	return t
}

func (Override) ToStateSpan(treatment *domain.Treatment) *domain.StateSpan {
	if treatment == nil || treatment.EventType != domain.EventTypeOverride {
		return nil
	}

	state := treatment.Reason
	if state == "" {
		state = "Override"
	}
	return spanFromTreatment(domain.CategoryOverride, state, treatment)
}
