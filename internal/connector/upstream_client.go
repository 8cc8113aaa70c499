package connector

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"nocturne/internal/logger"

	"github.com/go-resty/resty/v2"
)

// PumpEvent is the wire shape of one upstream pump-history event. Upstream
// vendors disagree on field presence; everything beyond id/type/mills is
// optional.
type PumpEvent struct {
	EventID       string   `json:"eventId"`
	Type          string   `json:"type"`
	Mills         int64    `json:"mills"`
	EndMills      *int64   `json:"endMills,omitempty"`
	DurationMins  float64  `json:"duration,omitempty"`
	Rate          *float64 `json:"rate,omitempty"`
	ScheduledRate float64  `json:"scheduledRate,omitempty"`
	Reason        string   `json:"reason,omitempty"`
}

// UpstreamClient pulls pump history from a vendor cloud API
type UpstreamClient interface {
	// FetchEvents returns events recorded at or after sinceMills
	FetchEvents(ctx context.Context, sinceMills int64) ([]PumpEvent, error)
}

type restyClient struct {
	client *resty.Client
	logger logger.Logger
}

// NewUpstreamClient creates a resty-backed upstream client
func NewUpstreamClient(baseURL, apiToken string, log logger.Logger) UpstreamClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(2 * time.Second)

	if apiToken != "" {
		client.SetAuthToken(apiToken)
	}

	return &restyClient{
		client: client,
		logger: log.With(logger.String("component", "upstream_client")),
	}
}

func (c *restyClient) FetchEvents(ctx context.Context, sinceMills int64) ([]PumpEvent, error) {
	var events []PumpEvent

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("since", strconv.FormatInt(sinceMills, 10)).
		SetResult(&events).
		Get("/api/pump/events")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pump events: %w", err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("upstream returned %d fetching pump events", resp.StatusCode())
	}

	c.logger.Debug("fetched pump events",
		logger.Int("count", len(events)),
		logger.Int64("since_mills", sinceMills))

	return events, nil
}
