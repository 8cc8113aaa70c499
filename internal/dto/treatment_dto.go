package dto

import "nocturne/internal/domain"

// CreateTreatmentRequest represents request to create a legacy flat record
type CreateTreatmentRequest struct {
	EventType string  `json:"eventType" binding:"required"`
	Mills     int64   `json:"mills" binding:"required"`
	Duration  float64 `json:"duration,omitempty"`
	Rate      float64 `json:"rate,omitempty"`
	Absolute  float64 `json:"absolute,omitempty"`
	Reason    string  `json:"reason,omitempty"`
	Notes     string  `json:"notes,omitempty"`
	EnteredBy string  `json:"enteredBy,omitempty"`
	Source    string  `json:"source,omitempty"`
}

// ListTreatmentsRequest represents request for the merged flat view
type ListTreatmentsRequest struct {
	// No body fields - filters come from query params
}

// ListTreatmentsResponse represents a merged page of flat records. Records
// keep the legacy field names, so domain treatments are returned as-is.
type ListTreatmentsResponse struct {
	Treatments []*domain.Treatment `json:"treatments"`
	PaginationResponse
}

// CreateTreatmentResponse echoes the stored record
type CreateTreatmentResponse struct {
	Treatment *domain.Treatment `json:"treatment"`
}

// DeleteTreatmentRequest represents request to delete a flat record
type DeleteTreatmentRequest struct {
	// No body fields - id comes from path params
}

// DeleteTreatmentResponse reports whether the record existed
type DeleteTreatmentResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}
