package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/VictoriaMetrics/metrics"

	"pix-provider/internal/config"
)

const defaultTimeoutMs = 10_000

var (
	deliverySuccessCounter = metrics.GetOrCreateCounter(`webhook_delivery_total{result="success"}`)
	deliveryErrorCounter   = metrics.GetOrCreateCounter(`webhook_delivery_total{result="failed"}`)

	deliveryDurationHistogram = metrics.GetOrCreateHistogram(`webhook_delivery_duration_milliseconds`)
)

// Event is the outbound notification body.
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Notifier delivers events to the configured subscriber endpoint. Delivery
// is fire-and-forget: one attempt, no retry, no queue. Failures are logged
// and counted but never reach the caller.
type Notifier struct {
	client *http.Client
	url    string
	logger *slog.Logger
}

func NewNotifier(cfg config.Webhook, logger *slog.Logger) *Notifier {
	timeoutMs := cfg.TimeoutMs
	if timeoutMs <= 0 {
		timeoutMs = defaultTimeoutMs
	}

	return &Notifier{
		client: &http.Client{Timeout: time.Duration(timeoutMs) * time.Millisecond},
		url:    cfg.URL,
		logger: logger,
	}
}

// Notify posts {event, data} to the subscriber. With no endpoint
// configured it is a no-op.
func (n *Notifier) Notify(ctx context.Context, event string, data any) {
	if n.url == "" {
		return
	}

	startTime := time.Now()

	if err := n.send(ctx, event, data); err != nil {
		n.logger.ErrorContext(ctx, "Error delivering webhook", "event", event, "url", n.url, "error", err)
		deliveryErrorCounter.Inc()
	} else {
		n.logger.InfoContext(ctx, "Webhook delivered", "event", event, "url", n.url)
		deliverySuccessCounter.Inc()
	}

	deliveryDurationHistogram.Update(float64(time.Since(startTime).Milliseconds()))
}

func (n *Notifier) send(ctx context.Context, event string, data any) error {
	body, err := json.Marshal(Event{Event: event, Data: data})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("error response: %s", resp.Status)
	}

	return nil
}
