package ingest_queue

import (
	"context"

	ingest "nocturne/internal/consumer/ingest_queue/iface"
	"nocturne/internal/logger"
	queue "nocturne/internal/queue/iface"
	"nocturne/internal/repository"
	"nocturne/internal/service"
)

type ingestConsumer struct {
	logger      logger.Logger
	queue       queue.Queue
	spanService service.StateSpanService
}

// NewIngestConsumer creates a consumer that upserts connector span batches
func NewIngestConsumer(
	log logger.Logger,
	q queue.Queue,
	spanService service.StateSpanService,
) ingest.IngestConsumer {
	return &ingestConsumer{
		logger:      log.With(logger.String("component", "ingest_consumer")),
		queue:       q,
		spanService: spanService,
	}
}

func (c *ingestConsumer) ProcessMessage(ctx context.Context, message ingest.SpanBatchMessage) bool {
	c.logger.Info("processing span batch",
		logger.String("source", message.Source),
		logger.String("sync_id", message.SyncID),
		logger.Int("span_count", len(message.Spans)))

	transientFailures := 0

	for _, span := range message.Spans {
		if span == nil {
			continue
		}
		if span.Source == "" {
			span.Source = message.Source
		}

		_, err := c.spanService.Upsert(ctx, span)
		if err == nil {
			continue
		}

		if repository.IsValidationError(err) {
			// Rejected input never succeeds on retry; isolate and move on
			c.logger.Warn("span rejected, skipping",
				logger.String("source", message.Source),
				logger.String("category", string(span.Category)),
				logger.Error(err))
			continue
		}

		transientFailures++
		c.logger.Error("failed to upsert span",
			logger.String("source", message.Source),
			logger.String("category", string(span.Category)),
			logger.Error(err))
	}

	if transientFailures > 0 {
		// Redelivery replays the whole batch; upsert identity makes that safe
		c.logger.Warn("span batch had transient failures, requesting redelivery",
			logger.String("sync_id", message.SyncID),
			logger.Int("failed", transientFailures))
		return false
	}

	return true
}

func (c *ingestConsumer) SendMessage(ctx context.Context, message ingest.SpanBatchMessage) error {
	return c.queue.Send(ctx, message)
}
