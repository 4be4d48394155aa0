// Package kafka exports newly stored hazard records to a Kafka topic so
// downstream consumers can build on the monitor's dedup work. The export is
// best effort and optional: a publish failure is logged by the caller but
// never rolls back the store insert or blocks notifications.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/couchcryptid/hazard-monitor/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Publisher produces newly inserted hazard records to the export topic.
type Publisher struct {
	writer *kafkago.Writer
}

// NewPublisher creates a producer for the export topic.
func NewPublisher(brokers []string, topic string) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w}
}

// PublishQuake exports one earthquake event, keyed the same way the store
// deduplicates it.
func (p *Publisher) PublishQuake(ctx context.Context, e domain.QuakeEvent) error {
	key := e.Time.UTC().Format(time.RFC3339Nano) + "|" + string(e.Source)
	msg, err := recordMessage(key, string(e.Source), e)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

// PublishWarning exports one early-warning bulletin keyed by its feed
// identifier.
func (p *Publisher) PublishWarning(ctx context.Context, w domain.WarningItem) error {
	msg, err := recordMessage(w.ID, string(domain.FeedWarning), w)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

// PublishForecast exports one forecast sample keyed by region and local
// timestamp.
func (p *Publisher) PublishForecast(ctx context.Context, f domain.ForecastSample) error {
	key := f.Region + "|" + f.LocalTime.UTC().Format(time.RFC3339Nano)
	msg, err := recordMessage(key, string(domain.FeedWeather), f)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// recordMessage marshals a canonical record into a keyed Kafka message with
// the source feed kind in a header.
func recordMessage(key, kind string, record any) (kafkago.Message, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize %s record: %w", kind, err)
	}
	return kafkago.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "feed_kind", Value: []byte(kind)},
		},
	}, nil
}
