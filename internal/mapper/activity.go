package mapper

import (
	"nocturne/internal/domain"
)

// Activity maps exercise/activity spans to legacy "Exercise" records
type Activity struct{}

func (Activity) Category() domain.Category {
	return domain.CategoryActivity
}

func (Activity) ToTreatment(span *domain.StateSpan) *domain.Treatment {
	if span == nil || span.Category != domain.CategoryActivity {
		return nil
	}

	t := treatmentFromSpan(domain.EventTypeExercise, span)
	if t.Notes == "" {
		t.Notes = span.State
	}
	return t
}

func (Activity) ToStateSpan(treatment *domain.Treatment) *domain.StateSpan {
	if treatment == nil || treatment.EventType != domain.EventTypeExercise {
		return nil
	}

	state := treatment.Notes
	if state == "" {
		state = "Exercise"
	}
	return spanFromTreatment(domain.CategoryActivity, state, treatment)
}
