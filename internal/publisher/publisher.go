// Package publisher forwards hazardous-approach alerts to downstream consumers.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/mr1hm/go-impactor/internal/config"
	"github.com/mr1hm/go-impactor/internal/models"
)

const EventTypeHazardousApproach = "hazardous_approach"

type Publisher interface {
	Publish(ctx context.Context, alert *models.HazardAlert) error
	Close() error
}

// New returns a Kafka publisher when brokers are configured, otherwise Nop.
func New(cfg config.KafkaConfig) Publisher {
	if !cfg.Enabled() {
		slog.Info("kafka publisher disabled")
		return Nop{}
	}
	slog.Info("kafka publisher enabled", "brokers", cfg.Brokers, "topic", cfg.Topic)
	return NewKafkaPublisher(&kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	})
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// KafkaPublisher keys messages by asteroid ID so every approach of one object
// lands on the same partition.
type KafkaPublisher struct {
	writer messageWriter
	now    func() time.Time
}

func NewKafkaPublisher(w messageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: w, now: time.Now}
}

func (p *KafkaPublisher) Publish(ctx context.Context, alert *models.HazardAlert) error {
	msg, err := serializeToMessage(alert, p.now())
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish alert %s: %w", alert.ID, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func serializeToMessage(alert *models.HazardAlert, publishedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(alert)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize hazard alert: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(alert.AsteroidID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(EventTypeHazardousApproach)},
			{Key: "published_at", Value: []byte(publishedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}

type Nop struct{}

func (Nop) Publish(context.Context, *models.HazardAlert) error { return nil }
func (Nop) Close() error                                       { return nil }
