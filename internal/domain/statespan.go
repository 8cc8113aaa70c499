package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Category identifies which kind of physiological or device state a span
// models. The set is closed; each category binds a mapper and a default
// duration policy, and both bindings are exhaustive switches so a new
// category fails to compile until every policy names it.
type Category string

const (
	CategoryTempBasal     Category = "TEMP_BASAL"
	CategoryActivity      Category = "ACTIVITY"
	CategoryOverride      Category = "OVERRIDE"
	CategoryBasalDelivery Category = "BASAL_DELIVERY"
	CategoryDataExclusion Category = "DATA_EXCLUSION"
)

// Categories lists every valid category, in a stable order
func Categories() []Category {
	return []Category{
		CategoryTempBasal,
		CategoryActivity,
		CategoryOverride,
		CategoryBasalDelivery,
		CategoryDataExclusion,
	}
}

func (c Category) Valid() bool {
	switch c {
	case CategoryTempBasal, CategoryActivity, CategoryOverride, CategoryBasalDelivery, CategoryDataExclusion:
		return true
	}
	return false
}

// DefaultSpanMills is the duration assumed for an ongoing span (EndMills nil)
// wherever a derived calculation needs a finite window. Ongoing basal delivery
// segments are assumed to cover one pump tick.
func (c Category) DefaultSpanMills() int64 {
	switch c {
	case CategoryBasalDelivery:
		return 5 * 60 * 1000
	case CategoryTempBasal:
		return 30 * 60 * 1000
	case CategoryActivity, CategoryOverride, CategoryDataExclusion:
		return 60 * 60 * 1000
	}
	return 5 * 60 * 1000
}

// Common metadata keys
const (
	MetaKeyRate          = "rate"
	MetaKeyScheduledRate = "scheduledRate"
	MetaKeyOrigin        = "origin"
	MetaKeyReason        = "reason"
	MetaKeyNotes         = "notes"
	MetaKeyEnteredBy     = "enteredBy"
)

// StateSpan is a time-bounded interval record for a physiological or device
// state. EndMills nil means the span is still open. OriginalID is the natural
// identity assigned by the producing system and drives upsert dedupe; it is
// distinct from the storage-assigned ID.
type StateSpan struct {
	ID         string   `json:"id" dynamodbav:"id"`
	Category   Category `json:"category" dynamodbav:"category"`
	State      string   `json:"state" dynamodbav:"state"`
	StartMills int64    `json:"start_mills" dynamodbav:"start_mills"`
	EndMills   *int64   `json:"end_mills,omitempty" dynamodbav:"end_mills,omitempty"`
	Source     string   `json:"source,omitempty" dynamodbav:"source,omitempty"`
	OriginalID *string  `json:"original_id,omitempty" dynamodbav:"original_id,omitempty"`
	Metadata   Metadata `json:"metadata,omitempty" dynamodbav:"metadata,omitempty"`
	CreatedAt  int64    `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt  int64    `json:"updated_at" dynamodbav:"updated_at"`
}

// NewStateSpan creates a span with a fresh system id
func NewStateSpan(category Category, state string, startMills int64, source string) *StateSpan {
	now := time.Now().UnixMilli()

	return &StateSpan{
		ID:         uuid.New().String(),
		Category:   category,
		State:      state,
		StartMills: startMills,
		Source:     source,
		Metadata:   make(Metadata),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Validate checks the structural invariants of a span
func (s *StateSpan) Validate() error {
	if !s.Category.Valid() {
		return fmt.Errorf("unknown category: %s", s.Category)
	}
	if s.StartMills <= 0 {
		return fmt.Errorf("start_mills must be positive, got %d", s.StartMills)
	}
	if s.EndMills != nil && *s.EndMills < s.StartMills {
		return fmt.Errorf("end_mills %d precedes start_mills %d", *s.EndMills, s.StartMills)
	}
	return nil
}

// IsOngoing reports whether the span has no end yet
func (s *StateSpan) IsOngoing() bool {
	return s.EndMills == nil
}

// EffectiveEndMills returns the end of the span, substituting the category
// default duration for ongoing spans
func (s *StateSpan) EffectiveEndMills() int64 {
	if s.EndMills != nil {
		return *s.EndMills
	}
	return s.StartMills + s.Category.DefaultSpanMills()
}

// DurationMills returns the span length, never zero or unbounded for ongoing spans
func (s *StateSpan) DurationMills() int64 {
	return s.EffectiveEndMills() - s.StartMills
}

// Overlaps reports whether the span intersects [from, to]. An ongoing span
// overlaps anything at or after its start.
func (s *StateSpan) Overlaps(from, to int64) bool {
	if s.StartMills > to {
		return false
	}
	if s.EndMills == nil {
		return true
	}
	return *s.EndMills >= from
}

// MetaFloat reads a numeric metadata key, returning 0 when absent or unparsable
func (s *StateSpan) MetaFloat(key string) float64 {
	if s.Metadata == nil {
		return 0
	}
	v, ok := s.Metadata[key]
	if !ok {
		return 0
	}
	f, ok := v.AsFloat()
	if !ok {
		return 0
	}
	return f
}

// MetaString reads a string metadata key, empty when absent
func (s *StateSpan) MetaString(key string) string {
	if s.Metadata == nil {
		return ""
	}
	v, ok := s.Metadata[key]
	if !ok {
		return ""
	}
	return v.AsString()
}

// Int64Ptr is a convenience for literal optional timestamps
func Int64Ptr(v int64) *int64 {
	return &v
}

// StringPtr is a convenience for literal optional ids
func StringPtr(v string) *string {
	return &v
}
