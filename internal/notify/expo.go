package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/nurtureapp/nurture-api/internal/observability/metrics"
	"github.com/nurtureapp/nurture-api/internal/reliability/retry"
)

// Message is a single push notification addressed to one device token.
type Message struct {
	To    string `json:"to"`
	Sound string `json:"sound"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Pusher delivers notifications to user devices.
type Pusher interface {
	Send(ctx context.Context, messages []Message) error
}

// ExpoPusher sends notifications through the Expo push gateway.
type ExpoPusher struct {
	client *resty.Client
	logger *slog.Logger
}

// NewExpoPusher creates a pusher for the given Expo endpoint.
func NewExpoPusher(pushURL string, logger *slog.Logger) *ExpoPusher {
	if logger == nil {
		logger = slog.Default()
	}
	client := resty.New().
		SetBaseURL(pushURL).
		SetTimeout(10 * time.Second).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")

	return &ExpoPusher{client: client, logger: logger}
}

// maxMessagesPerRequest is the Expo push API batch limit.
const maxMessagesPerRequest = 100

// Send posts the batch to Expo in chunks of at most 100 messages, the
// gateway's per-request cap. Each chunk is retried with backoff since the
// worker runs off the request path and a transient gateway error should not
// drop the day's reminders.
func (p *ExpoPusher) Send(ctx context.Context, messages []Message) error {
	if len(messages) == 0 {
		return nil
	}

	for start := 0; start < len(messages); start += maxMessagesPerRequest {
		end := min(start+maxMessagesPerRequest, len(messages))
		if err := p.sendChunk(ctx, messages[start:end]); err != nil {
			return err
		}
	}

	metrics.ObservePushNotification("sent")
	p.logger.Info("push notifications delivered", slog.Int("messages", len(messages)))
	return nil
}

func (p *ExpoPusher) sendChunk(ctx context.Context, chunk []Message) error {
	err := retry.Do(ctx, retry.DefaultConfig(), p.logger, "expo push", func(ctx context.Context) error {
		resp, err := p.client.R().
			SetContext(ctx).
			SetBody(chunk).
			Post("")
		if err != nil {
			return err
		}
		if resp.IsError() {
			return fmt.Errorf("expo responded with status %d", resp.StatusCode())
		}
		return nil
	})
	if err != nil {
		metrics.ObservePushNotification("error")
		p.logger.Error("push delivery failed",
			slog.Int("messages", len(chunk)),
			slog.String("error", err.Error()),
		)
		return err
	}
	return nil
}
