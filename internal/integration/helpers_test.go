//go:build integration

package integration_test

import (
	"context"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const kafkaImage = "confluentinc/confluent-local:7.5.0"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node Kafka container for the duration of the test
// and returns its broker address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, kafkaImage, tckafka.WithClusterID("dengue-rainfall-test"))
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

// createTopic creates a single-partition topic through the cluster controller.
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

// writeInputs writes both datasets with their header lines and returns their
// paths.
func writeInputs(t *testing.T, incidence, rainfall []string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	incidencePath := filepath.Join(dir, "casos_dengue.txt")
	rainfallPath := filepath.Join(dir, "chuvas.csv")

	casos := "id|data_iniSE|casos|ibge_code|cidade|uf|cep|latitude|longitude\n" + strings.Join(incidence, "\n") + "\n"
	chuvas := "data,chuva,estado\n" + strings.Join(rainfall, "\n") + "\n"
	require.NoError(t, os.WriteFile(incidencePath, []byte(casos), 0o644))
	require.NoError(t, os.WriteFile(rainfallPath, []byte(chuvas), 0o644))
	return incidencePath, rainfallPath
}
