package dto

import "nocturne/internal/domain"

// CreateStateSpanRequest represents request to create or upsert a state span
type CreateStateSpanRequest struct {
	Category   string          `json:"category" binding:"required"`
	State      string          `json:"state" binding:"required"`
	StartMills int64           `json:"startMills" binding:"required"`
	EndMills   *int64          `json:"endMills,omitempty"`
	Source     string          `json:"source"`
	OriginalID *string         `json:"originalId,omitempty"`
	Metadata   domain.Metadata `json:"metadata,omitempty"`
}

// UpdateStateSpanRequest represents request to replace a span by id
type UpdateStateSpanRequest struct {
	Category   string          `json:"category" binding:"required"`
	State      string          `json:"state" binding:"required"`
	StartMills int64           `json:"startMills" binding:"required"`
	EndMills   *int64          `json:"endMills,omitempty"`
	Source     string          `json:"source"`
	OriginalID *string         `json:"originalId,omitempty"`
	Metadata   domain.Metadata `json:"metadata,omitempty"`
}

// StateSpanResponse represents one span in API responses
type StateSpanResponse struct {
	ID         string          `json:"id"`
	Category   string          `json:"category"`
	State      string          `json:"state"`
	StartMills int64           `json:"startMills"`
	EndMills   *int64          `json:"endMills,omitempty"`
	Ongoing    bool            `json:"ongoing"`
	Source     string          `json:"source,omitempty"`
	OriginalID *string         `json:"originalId,omitempty"`
	Metadata   domain.Metadata `json:"metadata,omitempty"`
	CreatedAt  int64           `json:"createdAt"`
	UpdatedAt  int64           `json:"updatedAt"`
}

// GetStateSpanRequest represents request to get one span
type GetStateSpanRequest struct {
	// No body fields - id comes from path params
}

// ListStateSpansRequest represents request to query spans
type ListStateSpansRequest struct {
	// No body fields - filters come from query params
}

// ListStateSpansResponse represents a page of spans
type ListStateSpansResponse struct {
	Spans []StateSpanResponse `json:"spans"`
	PaginationResponse
}

// DeleteStateSpanResponse reports whether the span existed
type DeleteStateSpanResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// StateSpanFromDomain converts a domain span to its response shape
func StateSpanFromDomain(span *domain.StateSpan) StateSpanResponse {
	return StateSpanResponse{
		ID:         span.ID,
		Category:   string(span.Category),
		State:      span.State,
		StartMills: span.StartMills,
		EndMills:   span.EndMills,
		Ongoing:    span.IsOngoing(),
		Source:     span.Source,
		OriginalID: span.OriginalID,
		Metadata:   span.Metadata,
		CreatedAt:  span.CreatedAt,
		UpdatedAt:  span.UpdatedAt,
	}
}

// SpanFromCreateRequest converts a create/update request to a domain span
func SpanFromCreateRequest(category, state string, startMills int64, endMills *int64, source string, originalID *string, metadata domain.Metadata) *domain.StateSpan {
	span := domain.NewStateSpan(domain.Category(category), state, startMills, source)
	span.EndMills = endMills
	span.OriginalID = originalID
	if metadata != nil {
		span.Metadata = metadata
	}
	return span
}
