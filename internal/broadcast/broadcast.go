// Package broadcast fans span changes out to downstream consumers (websocket
// bridges, push relays). Delivery is at-least-once and best effort: a failed
// publish is logged by the caller and never fails the originating write.
package broadcast

import "context"

// ChangeKind tells consumers what happened to the span
type ChangeKind string

const (
	ChangeUpserted ChangeKind = "UPSERTED"
	ChangeDeleted  ChangeKind = "DELETED"
)

// SpanChangeMessage is the fan-out payload for a span write
type SpanChangeMessage struct {
	Kind       ChangeKind `json:"kind"`
	SpanID     string     `json:"span_id"`
	Category   string     `json:"category"`
	State      string     `json:"state,omitempty"`
	StartMills int64      `json:"start_mills"`
	Source     string     `json:"source,omitempty"`
}

// Publisher defines the fan-out interface
type Publisher interface {
	PublishSpanChange(ctx context.Context, msg SpanChangeMessage) error
}
