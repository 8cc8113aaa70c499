package ingest_queue

import (
	"context"

	"nocturne/internal/domain"
)

// SpanBatchMessage is one connector sync window: a batch of spans to upsert.
// Connectors replay windows freely; every span carries its natural identity
// so redelivery is harmless.
type SpanBatchMessage struct {
	Source string              `json:"source"`
	SyncID string              `json:"sync_id,omitempty"`
	Spans  []*domain.StateSpan `json:"spans"`
}

// IngestConsumer defines the interface for processing ingest queue messages
type IngestConsumer interface {
	// ProcessMessage upserts a span batch. Returns true when the message can
	// be deleted (everything stored or permanently rejected); false requests
	// redelivery after a transient store failure.
	ProcessMessage(ctx context.Context, message SpanBatchMessage) bool

	// SendMessage enqueues a batch for ingestion
	SendMessage(ctx context.Context, message SpanBatchMessage) error
}
