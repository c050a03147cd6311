//go:build integration

package integration_test

import (
	"context"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/preservation-eval/internal/eval"
	"github.com/couchcryptid/preservation-eval/internal/lookup"
	"github.com/couchcryptid/preservation-eval/internal/tables"
)

// startKafka launches a single-node Kafka container and returns its broker address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx,
		"confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("test-cluster"),
	)
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic on the broker's controller.
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

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testEvaluator builds an evaluator over a 3x4 table set spanning 18..20 °C
// and 45..48 % rh. PI and EMC clamp; mold raises outside its window.
func testEvaluator(t *testing.T) *eval.Evaluator {
	t.Helper()

	pi, err := lookup.New([][]int16{
		{90, 80, 70, 60},
		{75, 65, 55, 44},
		{50, 46, 40, 30},
	}, 18, 45, lookup.Clamp)
	require.NoError(t, err)

	mold, err := lookup.New([][]int16{
		{0, 0, 0, 0},
		{0, 120, 90, 60},
		{0, 90, 60, 30},
	}, 18, 45, lookup.Raise)
	require.NoError(t, err)

	emc, err := lookup.New([][]float64{
		{4.0, 6.5, 8.0, 10.0},
		{5.0, 7.0, 9.0, 11.0},
		{6.0, 8.0, 10.5, 13.0},
	}, 18, 45, lookup.Clamp)
	require.NoError(t, err)

	return eval.New(&tables.Set{PI: pi, Mold: mold, EMC: emc})
}
