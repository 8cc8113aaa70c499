package mapper

import (
	"nocturne/internal/domain"
)

// BasalDelivery maps basal-delivery segments to legacy "Basal" records.
// Delivered segments always carry a rate; the scheduled rate, when the pump
// reported one, survives in metadata and renders on the flat record too.
type BasalDelivery struct{}

func (BasalDelivery) Category() domain.Category {
	return domain.CategoryBasalDelivery
}

func (BasalDelivery) ToTreatment(span *domain.StateSpan) *domain.Treatment {
	if span == nil || span.Category != domain.CategoryBasalDelivery {
		return nil
	}

	rate, ok := rateFromMetadata(span)
	if !ok {
		return nil
	}

	t := treatmentFromSpan(domain.EventTypeBasal, span)
	t.Rate = rate
	t.Absolute = span.MetaFloat(domain.MetaKeyScheduledRate)
	return t
}

func (BasalDelivery) ToStateSpan(treatment *domain.Treatment) *domain.StateSpan {
	if treatment == nil || treatment.EventType != domain.EventTypeBasal {
		return nil
	}

	span := spanFromTreatment(domain.CategoryBasalDelivery, "BasalDelivery", treatment)
	span.Metadata[domain.MetaKeyRate] = domain.MetaNumber(treatment.Rate)
	if treatment.Absolute != 0 {
		span.Metadata[domain.MetaKeyScheduledRate] = domain.MetaNumber(treatment.Absolute)
	}
	return span
}
