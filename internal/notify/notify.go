// Package notify renders canonical hazard records into channel-specific
// payloads and fans them out. Channel sends are independent: a failure on one
// channel never prevents, retries, or blocks the other, and never blocks the
// next item.
package notify

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/hazard-monitor/internal/observability"
)

// Field is one labeled value in a notification.
type Field struct {
	Label string
	Value string
}

// Notification is the channel-independent content of one outbound message.
// Channels render it into their own wire format: Slack into typed content
// blocks, Telegram into escaped MarkdownV2 text.
type Notification struct {
	Title    string
	Fields   []Field
	Lines    []string // free-form rows, used by the daily summary
	ImageURL string
	Priority bool
}

// Channel delivers a rendered notification to one destination.
type Channel interface {
	Name() string
	Send(ctx context.Context, n Notification) error
}

// Dispatcher fans a notification out to every configured channel.
type Dispatcher struct {
	channels []Channel
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewDispatcher creates a Dispatcher over the given channels.
func NewDispatcher(channels []Channel, logger *slog.Logger, metrics *observability.Metrics) *Dispatcher {
	return &Dispatcher{channels: channels, logger: logger, metrics: metrics}
}

// Dispatch sends n to every channel. Failures are logged and counted, never
// retried; the send loop always runs to completion.
func (d *Dispatcher) Dispatch(ctx context.Context, n Notification) {
	for _, ch := range d.channels {
		if err := ch.Send(ctx, n); err != nil {
			d.metrics.Notifications.WithLabelValues(ch.Name(), "failure").Inc()
			d.logger.Error("notification send failed",
				"channel", ch.Name(),
				"title", n.Title,
				"error", err,
			)
			continue
		}
		d.metrics.Notifications.WithLabelValues(ch.Name(), "success").Inc()
		d.logger.Info("notification sent", "channel", ch.Name(), "title", n.Title)
	}
}
