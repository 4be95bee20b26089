package pipeline

import (
	"context"
	"fmt"

	"github.com/couchcryptid/dengue-rainfall-etl/internal/domain"
	"github.com/couchcryptid/dengue-rainfall-etl/internal/observability"
)

// Sink is a named Loader.
type Sink struct {
	Name   string
	Loader Loader
}

// MultiLoader hands the same output to several sinks in order.
type MultiLoader struct {
	sinks   []Sink
	metrics *observability.Metrics
}

// NewMultiLoader fans a run's output out to sinks.
func NewMultiLoader(metrics *observability.Metrics, sinks ...Sink) *MultiLoader {
	return &MultiLoader{sinks: sinks, metrics: metrics}
}

// Load calls every sink and stops at the first failure.
func (m *MultiLoader) Load(ctx context.Context, out domain.Output) error {
	for _, s := range m.sinks {
		if err := s.Loader.Load(ctx, out); err != nil {
			return fmt.Errorf("load %s: %w", s.Name, err)
		}
		m.metrics.RowsLoaded.WithLabelValues(s.Name).Add(float64(len(out.Rows)))
	}
	return nil
}
