package domain

import (
	"time"

	"github.com/google/uuid"
)

// Legacy event type strings. These predate interval modeling and must match
// the flat treatment schema already served by the surrounding API.
const (
	EventTypeTempBasal     = "Temp Basal"
	EventTypeExercise      = "Exercise"
	EventTypeOverride      = "Temporary Override"
	EventTypeBasal         = "Basal"
	EventTypeDataExclusion = "Data Exclusion"
)

// Treatment is the legacy point-in-time event record. Duration is minutes,
// Rate and Absolute are U/hr; callers paging the flat API see these exact
// field names regardless of whether a record is native or span-derived.
type Treatment struct {
	ID         string  `json:"_id" dynamodbav:"id"`
	EventType  string  `json:"eventType" dynamodbav:"event_type"`
	Mills      int64   `json:"mills" dynamodbav:"mills"`
	Duration   float64 `json:"duration,omitempty" dynamodbav:"duration_mins,omitempty"`
	Rate       float64 `json:"rate,omitempty" dynamodbav:"rate,omitempty"`
	Absolute   float64 `json:"absolute,omitempty" dynamodbav:"absolute,omitempty"`
	Reason     string  `json:"reason,omitempty" dynamodbav:"reason,omitempty"`
	Notes      string  `json:"notes,omitempty" dynamodbav:"notes,omitempty"`
	EnteredBy  string  `json:"enteredBy,omitempty" dynamodbav:"entered_by,omitempty"`
	Source     string  `json:"source,omitempty" dynamodbav:"source,omitempty"`
	OriginalID string  `json:"originalId,omitempty" dynamodbav:"original_id,omitempty"`
	CreatedAt  int64   `json:"created_at" dynamodbav:"created_at"`
}

// NewTreatment creates a native flat record with a fresh system id
func NewTreatment(eventType string, mills int64, source string) *Treatment {
	return &Treatment{
		ID:        uuid.New().String(),
		EventType: eventType,
		Mills:     mills,
		Source:    source,
		CreatedAt: time.Now().UnixMilli(),
	}
}
