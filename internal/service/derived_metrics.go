package service

import (
	"math"
	"sort"
	"time"

	"nocturne/internal/domain"
)

const millsPerHour = 3_600_000

// ExtractRate reads the span's U/hr rate from metadata, coercing whatever
// wire representation the connector sent. Absent or unparsable rates read as
// zero; this never fails.
func ExtractRate(span *domain.StateSpan) float64 {
	return span.MetaFloat(domain.MetaKeyRate)
}

// ComputeDeliveredInsulin returns rate × duration-hours for a span. Ongoing
// spans are assumed to cover the category default window (one pump tick for
// basal delivery) rather than zero or unbounded time.
func ComputeDeliveredInsulin(span *domain.StateSpan) float64 {
	rate := ExtractRate(span)
	durationHours := float64(span.DurationMills()) / millsPerHour
	return rate * durationHours
}

// SumDelivered totals delivered insulin across basal-delivery spans,
// ignoring non-positive contributions
func SumDelivered(spans []*domain.StateSpan) float64 {
	var total float64
	for _, span := range spans {
		if span.Category != domain.CategoryBasalDelivery {
			continue
		}
		delivered := ComputeDeliveredInsulin(span)
		if delivered <= 0 {
			continue
		}
		total += delivered
	}
	return total
}

// HourlyRateStats summarizes span rates for one local hour of day
type HourlyRateStats struct {
	Hour   int     `json:"hour"`
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	P10    float64 `json:"p10"`
	P90    float64 `json:"p90"`
}

// HourlyRateDistribution buckets spans by the local hour of their start and
// computes percentile statistics per bucket. Every hour 0–23 is present;
// empty buckets report zero-filled stats so consumers can index directly.
func HourlyRateDistribution(spans []*domain.StateSpan, loc *time.Location) [24]HourlyRateStats {
	if loc == nil {
		loc = time.Local
	}

	buckets := make([][]float64, 24)
	for _, span := range spans {
		hour := time.UnixMilli(span.StartMills).In(loc).Hour()
		buckets[hour] = append(buckets[hour], ExtractRate(span))
	}

	var stats [24]HourlyRateStats
	for hour, rates := range buckets {
		stats[hour] = summarize(hour, rates)
	}
	return stats
}

func summarize(hour int, rates []float64) HourlyRateStats {
	s := HourlyRateStats{Hour: hour, Count: len(rates)}
	if len(rates) == 0 {
		return s
	}

	sorted := make([]float64, len(rates))
	copy(sorted, rates)
	sort.Float64s(sorted)

	var sum float64
	for _, r := range sorted {
		sum += r
	}

	s.Min = sorted[0]
	s.Max = sorted[len(sorted)-1]
	s.Mean = sum / float64(len(sorted))
	s.Median = percentile(sorted, 50)
	s.P10 = percentile(sorted, 10)
	s.P90 = percentile(sorted, 90)
	return s
}

// percentile uses the nearest-rank method over an ascending slice
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(math.Ceil(p / 100 * float64(len(sorted))))
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}
