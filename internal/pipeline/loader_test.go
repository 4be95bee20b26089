package pipeline_test

import (
	"context"
	"errors"
	"testing"

	"github.com/couchcryptid/dengue-rainfall-etl/internal/domain"
	"github.com/couchcryptid/dengue-rainfall-etl/internal/observability"
	"github.com/couchcryptid/dengue-rainfall-etl/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiLoader_LoadsEverySink(t *testing.T) {
	first, second := &mockLoader{}, &mockLoader{}
	metrics := observability.NewMetricsForTesting()
	ml := pipeline.NewMultiLoader(metrics,
		pipeline.Sink{Name: "file", Loader: first},
		pipeline.Sink{Name: "kafka", Loader: second},
	)

	out := domain.Output{Header: domain.Header, Rows: []domain.OutputRow{{}, {}}}
	require.NoError(t, ml.Load(context.Background(), out))

	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.RowsLoaded.WithLabelValues("file")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.RowsLoaded.WithLabelValues("kafka")))
}

func TestMultiLoader_StopsAtFirstError(t *testing.T) {
	boom := errors.New("broker unreachable")
	failing, after := &mockLoader{err: boom}, &mockLoader{}
	ml := pipeline.NewMultiLoader(observability.NewMetricsForTesting(),
		pipeline.Sink{Name: "kafka", Loader: failing},
		pipeline.Sink{Name: "postgres", Loader: after},
	)

	err := ml.Load(context.Background(), domain.Output{Header: domain.Header})
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "load kafka")
	assert.Zero(t, after.calls)
}
