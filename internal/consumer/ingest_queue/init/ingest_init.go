package ingest_queue

import (
	"context"

	ingest "nocturne/internal/consumer/ingest_queue/iface"
	ingestImpl "nocturne/internal/consumer/ingest_queue/impl"
	"nocturne/internal/logger"
	queue "nocturne/internal/queue/iface"
	"nocturne/internal/queue/sqs"
	"nocturne/internal/service"

	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"go.uber.org/fx"
)

// IngestQueueParams holds dependencies for the ingest queue
type IngestQueueParams struct {
	fx.In

	Logger      logger.Logger
	SQSClient   *awssqs.Client
	SpanService service.StateSpanService
	QueueURL    string `name:"ingest_queue_url"`
}

// IngestQueueResult holds what this module provides
type IngestQueueResult struct {
	fx.Out

	Consumer ingest.IngestConsumer
	Queue    queue.Queue `name:"ingest_queue"`
}

// ProvideIngestQueueAndConsumer wires the queue and the batch consumer. The
// processor closure indirects through the consumer variable because the
// consumer needs the queue to exist first.
func ProvideIngestQueueAndConsumer(params IngestQueueParams) IngestQueueResult {
	var consumer ingest.IngestConsumer

	q := sqs.NewSQSQueue(
		params.SQSClient,
		sqs.QueueConfig{
			QueueURL:        params.QueueURL,
			WorkerCount:     2,
			MaxMessages:     5,
			WaitTimeSeconds: 20,
		},
		queue.MessageProcessorFunc[ingest.SpanBatchMessage](func(ctx context.Context, msg ingest.SpanBatchMessage) bool {
			return consumer.ProcessMessage(ctx, msg)
		}),
		params.Logger,
	)

	consumer = ingestImpl.NewIngestConsumer(params.Logger, q, params.SpanService)

	return IngestQueueResult{
		Consumer: consumer,
		Queue:    q,
	}
}

// IngestQueueModule provides the FX module for the ingest queue
func IngestQueueModule() fx.Option {
	return fx.Options(
		fx.Provide(
			ProvideIngestQueueAndConsumer,
		),
		fx.Invoke(func(params struct {
			fx.In
			Lifecycle fx.Lifecycle
			Queue     queue.Queue `name:"ingest_queue"`
			Logger    logger.Logger
		}) {
			params.Lifecycle.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					params.Logger.Info("starting ingest queue consumer")
					return params.Queue.StartConsumer(ctx)
				},
				OnStop: func(ctx context.Context) error {
					params.Logger.Info("stopping ingest queue consumer")
					return params.Queue.StopConsumer(ctx)
				},
			})
		}),
	)
}
