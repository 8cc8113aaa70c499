// Package mapper holds the pure bidirectional functions between interval
// StateSpans and the legacy flat treatment shape. Mappers are stateless and
// side-effect free; both directions return nil when the input does not
// qualify for the mapper's category.
//
// Fields the legacy shape does not carry survive only in span metadata and
// are lost on a flat-record round trip.
package mapper

import (
	"nocturne/internal/domain"
)

// Mapper converts between one span category and its legacy record shape
type Mapper interface {
	Category() domain.Category
	// ToTreatment renders a span as a legacy flat record, nil when the span
	// does not qualify (wrong category or malformed metadata)
	ToTreatment(span *domain.StateSpan) *domain.Treatment
	// ToStateSpan lifts a legacy flat record into a span, nil when the
	// record's event type does not indicate this category
	ToStateSpan(treatment *domain.Treatment) *domain.StateSpan
}

// ForCategory binds each category to its mapper. The switch is exhaustive
// over domain.Category; a new category must be added here to compile into
// the read path at all.
func ForCategory(category domain.Category) Mapper {
	switch category {
	case domain.CategoryTempBasal:
		return TempBasal{}
	case domain.CategoryActivity:
		return Activity{}
	case domain.CategoryOverride:
		return Override{}
	case domain.CategoryBasalDelivery:
		return BasalDelivery{}
	case domain.CategoryDataExclusion:
		return DataExclusion{}
	}
	return nil
}

// CategoryForEventType resolves a legacy event type string to the span
// category whose mapper understands it, false for purely native types
func CategoryForEventType(eventType string) (domain.Category, bool) {
	switch eventType {
	case domain.EventTypeTempBasal:
		return domain.CategoryTempBasal, true
	case domain.EventTypeExercise:
		return domain.CategoryActivity, true
	case domain.EventTypeOverride:
		return domain.CategoryOverride, true
	case domain.EventTypeBasal:
		return domain.CategoryBasalDelivery, true
	case domain.EventTypeDataExclusion:
		return domain.CategoryDataExclusion, true
	}
	return "", false
}

const millsPerMinute = 60_000

// durationMinutes renders a span length in the legacy unit (minutes),
// substituting the category default for ongoing spans
func durationMinutes(span *domain.StateSpan) float64 {
	return float64(span.DurationMills()) / millsPerMinute
}

// endMillsFromDuration derives the interval end from a legacy duration,
// nil (ongoing) when the record carries no duration
func endMillsFromDuration(mills int64, durationMins float64) *int64 {
	if durationMins <= 0 {
		return nil
	}
	end := mills + int64(durationMins*millsPerMinute)
	return &end
}

// spanFromTreatment builds the shared span skeleton for all categories
func spanFromTreatment(category domain.Category, state string, t *domain.Treatment) *domain.StateSpan {
	span := domain.NewStateSpan(category, state, t.Mills, t.Source)
	if t.ID != "" {
		span.ID = t.ID
	}
	span.EndMills = endMillsFromDuration(t.Mills, t.Duration)
	if t.OriginalID != "" {
		span.OriginalID = domain.StringPtr(t.OriginalID)
	}
	if t.EnteredBy != "" {
		span.Metadata[domain.MetaKeyEnteredBy] = domain.MetaString(t.EnteredBy)
	}
	if t.Notes != "" {
		span.Metadata[domain.MetaKeyNotes] = domain.MetaString(t.Notes)
	}
	return span
}

// treatmentFromSpan builds the shared flat-record skeleton for all categories
func treatmentFromSpan(eventType string, span *domain.StateSpan) *domain.Treatment {
	originalID := ""
	if span.OriginalID != nil {
		originalID = *span.OriginalID
	}
	return &domain.Treatment{
		ID:         span.ID,
		EventType:  eventType,
		Mills:      span.StartMills,
		Duration:   durationMinutes(span),
		Source:     span.Source,
		OriginalID: originalID,
		EnteredBy:  span.MetaString(domain.MetaKeyEnteredBy),
		Notes:      span.MetaString(domain.MetaKeyNotes),
		CreatedAt:  span.CreatedAt,
	}
}
