package broadcast

import (
	"context"
	"encoding/json"
	"fmt"

	"nocturne/internal/logger"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type sqsPublisher struct {
	client   *sqs.Client
	queueURL string
	logger   logger.Logger
}

// NewSQSPublisher creates a span-change publisher backed by an SQS queue
func NewSQSPublisher(client *sqs.Client, queueURL string, log logger.Logger) Publisher {
	return &sqsPublisher{
		client:   client,
		queueURL: queueURL,
		logger:   log.With(logger.String("component", "sqs_publisher")),
	}
}

func (p *sqsPublisher) PublishSpanChange(ctx context.Context, msg SpanChangeMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal span change: %w", err)
	}

	bodyStr := string(body)
	_, err = p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    &p.queueURL,
		MessageBody: &bodyStr,
	})
	if err != nil {
		p.logger.Error("failed to publish span change",
			logger.String("span_id", msg.SpanID),
			logger.Error(err))
		return fmt.Errorf("failed to publish span change: %w", err)
	}

	p.logger.Debug("span change published",
		logger.String("span_id", msg.SpanID),
		logger.String("kind", string(msg.Kind)))

	return nil
}
