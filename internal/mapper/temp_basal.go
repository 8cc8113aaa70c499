package mapper

import (
	"nocturne/internal/domain"
)

// TempBasal maps temporary basal-rate change spans to legacy "Temp Basal"
// records. The legacy shape carries a duration in minutes rather than an end
// timestamp, so EndMills is derived on the way in and the duration on the
// way out.
type TempBasal struct{}

func (TempBasal) Category() domain.Category {
	return domain.CategoryTempBasal
}

func (TempBasal) ToTreatment(span *domain.StateSpan) *domain.Treatment {
	if span == nil || span.Category != domain.CategoryTempBasal {
		return nil
	}

	rate, ok := rateFromMetadata(span)
	if !ok {
		return nil
	}

	t := treatmentFromSpan(domain.EventTypeTempBasal, span)
	t.Rate = rate
	t.Absolute = rate
	t.Reason = span.MetaString(domain.MetaKeyReason)
	return t
}

func (TempBasal) ToStateSpan(treatment *domain.Treatment) *domain.StateSpan {
	if treatment == nil || treatment.EventType != domain.EventTypeTempBasal {
		return nil
	}

	span := spanFromTreatment(domain.CategoryTempBasal, "TempBasal", treatment)
	rate := treatment.Rate
	if rate == 0 && treatment.Absolute != 0 {
		rate = treatment.Absolute
	}
	span.Metadata[domain.MetaKeyRate] = domain.MetaNumber(rate)
	if treatment.Reason != "" {
		span.Metadata[domain.MetaKeyReason] = domain.MetaString(treatment.Reason)
	}
	return span
}

// rateFromMetadata extracts the U/hr rate, reporting false when the span
// never carried one or it cannot be coerced to a number
func rateFromMetadata(span *domain.StateSpan) (float64, bool) {
	if span.Metadata == nil {
		return 0, false
	}
	v, ok := span.Metadata[domain.MetaKeyRate]
	if !ok {
		return 0, false
	}
	return v.AsFloat()
}
