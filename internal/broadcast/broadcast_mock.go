package broadcast

import (
	"context"
	"sync"

	"nocturne/internal/logger"
)

// MockPublisher records published messages for development and tests
type MockPublisher struct {
	mu       sync.Mutex
	messages []SpanChangeMessage
	logger   logger.Logger
}

func NewMockPublisher(log logger.Logger) *MockPublisher {
	return &MockPublisher{
		logger: log.With(logger.String("component", "mock_publisher")),
	}
}

func (m *MockPublisher) PublishSpanChange(ctx context.Context, msg SpanChangeMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.messages = append(m.messages, msg)
	m.logger.Debug("span change recorded",
		logger.String("span_id", msg.SpanID),
		logger.String("kind", string(msg.Kind)))
	return nil
}

// Messages returns a copy of everything published so far
func (m *MockPublisher) Messages() []SpanChangeMessage {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]SpanChangeMessage, len(m.messages))
	copy(out, m.messages)
	return out
}
