//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/hydroforecast/prediction-service/internal/adapter/kafka"
	"github.com/hydroforecast/prediction-service/internal/domain"
	"github.com/hydroforecast/prediction-service/internal/observability"
)

const testPredictionsTopic = "tank-predictions"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka launches a single-broker Kafka container and returns its
// bootstrap address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.6.1",
		tckafka.WithClusterID("test-cluster"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	ctrlConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrlConn.Close()

	require.NoError(t, ctrlConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// TestPublishRoundTrip publishes a prediction through the adapter and reads it
// back from the topic, verifying key, headers, and payload.
func TestPublishRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testPredictionsTopic)

	pub := kafka.NewPublisher([]string{broker}, testPredictionsTopic,
		observability.NewMetricsForTesting(), discardLogger())
	t.Cleanup(func() { _ = pub.Close() })

	depth := 4.2
	pred := domain.PredictionResponse{
		TankID:               "tank-1",
		Location:             "Mumbai, India",
		GroundwaterLevelMBGL: &depth,
		RainfallForecast:     []float64{3.0, 0.5, 0.0},
		Predictions: []domain.PredictedPoint{
			{Date: domain.CivilDate{Time: time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)}, Value: 61.2},
			{Date: domain.CivilDate{Time: time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)}, Value: 62.1},
		},
		GeneratedAt: time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, pub.Publish(ctx, pred))

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testPredictionsTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
	defer readCancel()
	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from predictions topic")

	assert.Equal(t, []byte("tank-1"), msg.Key)

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "tank-1", headers["tank_id"])
	_, err = time.Parse(time.RFC3339, headers["generated_at"])
	assert.NoError(t, err, "generated_at should be valid RFC3339")

	var got domain.PredictionResponse
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, "tank-1", got.TankID)
	require.NotNil(t, got.GroundwaterLevelMBGL)
	assert.Equal(t, 4.2, *got.GroundwaterLevelMBGL)
	require.Len(t, got.Predictions, 2)
	assert.Equal(t, "2026-08-28", got.Predictions[0].Date.Format(domain.DateFormat))
}

// TestPublishOrdering verifies per-tank ordering: messages with the same key
// land on the same partition in publish order.
func TestPublishOrdering(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testPredictionsTopic)

	pub := kafka.NewPublisher([]string{broker}, testPredictionsTopic,
		observability.NewMetricsForTesting(), discardLogger())
	t.Cleanup(func() { _ = pub.Close() })

	for i := 0; i < 3; i++ {
		pred := domain.PredictionResponse{
			TankID:      "tank-1",
			Location:    "Mumbai, India",
			GeneratedAt: time.Date(2026, 8, 27, 12, i, 0, 0, time.UTC),
		}
		require.NoError(t, pub.Publish(ctx, pred))
	}

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testPredictionsTopic,
		GroupID:     fmt.Sprintf("test-order-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	var stamps []string
	for len(stamps) < 3 {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := consumer.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err)

		var got domain.PredictionResponse
		require.NoError(t, json.Unmarshal(msg.Value, &got))
		stamps = append(stamps, got.GeneratedAt.Format(time.RFC3339))
	}

	assert.IsNonDecreasing(t, stamps)
}
