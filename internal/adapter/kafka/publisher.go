// Package kafka publishes prediction events for downstream consumers.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/hydroforecast/prediction-service/internal/domain"
	"github.com/hydroforecast/prediction-service/internal/observability"
)

// Publisher produces one Kafka message per generated prediction. Messages for
// the same tank share a key, so per-tank ordering holds within a partition.
type Publisher struct {
	writer  *kafkago.Writer
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewPublisher creates a Kafka producer for the predictions topic.
func NewPublisher(brokers []string, topic string, metrics *observability.Metrics, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, metrics: metrics, logger: logger}
}

// Publish serializes and writes one prediction event.
func (p *Publisher) Publish(ctx context.Context, pred domain.PredictionResponse) error {
	msg, err := serializeToMessage(pred)
	if err != nil {
		p.metrics.PublishErrors.Inc()
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.metrics.PublishErrors.Inc()
		return fmt.Errorf("write prediction event: %w", err)
	}
	p.metrics.EventsPublished.Inc()
	p.logger.Debug("prediction event published", "tank_id", pred.TankID)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a prediction into a Kafka message keyed by tank.
func serializeToMessage(pred domain.PredictionResponse) (kafkago.Message, error) {
	data, err := json.Marshal(pred)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize prediction event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(pred.TankID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "tank_id", Value: []byte(pred.TankID)},
			{Key: "generated_at", Value: []byte(pred.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
