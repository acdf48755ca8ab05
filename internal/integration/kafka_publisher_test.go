//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/anaemia-predictor/internal/adapter/kafka"
	"github.com/couchcryptid/anaemia-predictor/internal/config"
	"github.com/couchcryptid/anaemia-predictor/internal/domain"
	"github.com/couchcryptid/anaemia-predictor/internal/model"
	"github.com/couchcryptid/anaemia-predictor/internal/observability"
	"github.com/couchcryptid/anaemia-predictor/internal/pipeline"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const testTopic = "anaemia-predictions-test"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node KRaft broker and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("anaemia-predictor-test"),
	)
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("terminate kafka container: %v", err)
		}
	})

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
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// readEvent reads the message at offset from the single test partition.
func readEvent(ctx context.Context, t *testing.T, broker string, offset int64) (domain.PredictionEvent, kafkago.Message) {
	t.Helper()
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers: []string{broker},
		Topic:   testTopic,
		MaxWait: 500 * time.Millisecond,
	})
	defer reader.Close()
	require.NoError(t, reader.SetOffset(offset))

	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	msg, err := reader.ReadMessage(readCtx)
	require.NoError(t, err, "read prediction event")

	var event domain.PredictionEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	return event, msg
}

// TestPredictionEventsReachKafka runs a prediction through the pipeline with
// the Kafka writer attached and reads the published event back.
func TestPredictionEventsReachKafka(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaTopic: testTopic}
	metrics := observability.NewMetricsForTesting()
	writer := kafka.NewWriter(cfg, metrics, discardLogger())
	defer writer.Close()

	models := model.NewFileSource("../../models/anaemia_model.json", discardLogger(), metrics)
	p := pipeline.New(models, nil, writer, discardLogger(), metrics)

	lat, lon := -1.29, 36.82
	sub := domain.DefaultSubmission()
	sub.Sex = "F"
	sub.Hemoglobin = 9.5
	sub.Latitude, sub.Longitude = &lat, &lon

	// Warm up the connection so the timed run measures the flush only.
	_, err := p.Run(ctx, domain.DefaultSubmission())
	require.NoError(t, err)
	_, _ = readEvent(ctx, t, broker, 0)

	start := time.Now()
	out, err := p.Run(ctx, sub)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond, "publish must not wait for a batch window")

	event, msg := readEvent(ctx, t, broker, 1)
	assert.Equal(t, out.ID, string(msg.Key))
	assert.Equal(t, out.ID, event.ID)
	assert.Equal(t, domain.LabelAnaemic, event.Label)
	assert.Equal(t, domain.CapabilityConfidence, event.Capability)
	assert.Equal(t, "anaemia-logreg-v1", event.ModelName)
	assert.Equal(t, len(out.Result.Tips), event.TipCount)
	assert.True(t, event.HasCoordinates)
	assert.Equal(t, domain.LocationSourceExplicit, event.LocationSource)

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "Anaemic", headers["label"])
	assert.NotEmpty(t, headers["predicted_at"])

	// The event is anonymised: no raw inputs or coordinates on the wire.
	assert.NotContains(t, string(msg.Value), "36.82")
	assert.NotContains(t, string(msg.Value), "hemoglobin")
}
