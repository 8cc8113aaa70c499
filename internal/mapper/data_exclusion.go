package mapper

import (
	"nocturne/internal/domain"
)

// DataExclusion maps windows flagged as untrustworthy (sensor compression
// lows, calibration gaps) to legacy "Data Exclusion" records. The condition
// label lives in the span's State.
type DataExclusion struct{}

func (DataExclusion) Category() domain.Category {
	return domain.CategoryDataExclusion
}

func (DataExclusion) ToTreatment(span *domain.StateSpan) *domain.Treatment {
	if span == nil || span.Category != domain.CategoryDataExclusion {
		return nil
	}

	t := treatmentFromSpan(domain.EventTypeDataExclusion, span)
	t.Reason = span.State
	return t
}

func (DataExclusion) ToStateSpan(treatment *domain.Treatment) *domain.StateSpan {
	if treatment == nil || treatment.EventType != domain.EventTypeDataExclusion {
		return nil
	}

	state := treatment.Reason
	if state == "" {
		state = "DataExclusion"
	}
	return spanFromTreatment(domain.CategoryDataExclusion, state, treatment)
}
