package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/couchcryptid/dengue-rainfall-etl/internal/domain"
	"github.com/couchcryptid/dengue-rainfall-etl/internal/observability"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Extractor reads up to batchSize raw lines from an input. It returns io.EOF
// (possibly alongside a final non-empty batch) once the input is exhausted.
type Extractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawLine, error)
}

// Loader writes the joined output of a run.
type Loader interface {
	Load(ctx context.Context, out domain.Output) error
}

// Options tunes parallelism.
type Options struct {
	Workers   int // aggregation partitions per dataset
	BatchSize int // lines per extract call
}

// Pipeline runs the extract-aggregate-join-load job.
type Pipeline struct {
	incidence Extractor
	rainfall  Extractor
	loader    Loader
	logger    *slog.Logger
	metrics   *observability.Metrics
	opts      Options
	ready     atomic.Bool
}

// New creates a Pipeline reading dengue notifications from incidence and
// rainfall readings from rainfall.
func New(incidence, rainfall Extractor, loader Loader, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Pipeline {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.BatchSize < 1 {
		opts.BatchSize = 1
	}
	return &Pipeline{
		incidence: incidence,
		rainfall:  rainfall,
		loader:    loader,
		logger:    logger,
		metrics:   metrics,
		opts:      opts,
	}
}

// CheckReadiness returns nil once a run has completed successfully.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

// branch is one dataset's path from extractor to aggregates.
type branch struct {
	source      Source
	extractor   Extractor
	transformer Transformer
	finalize    func(float64) float64
}

// Run executes one full job. Both datasets are read and aggregated
// concurrently; the join starts only after both aggregations finish. Any
// row error aborts the run and nothing is loaded.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)
	start := clock.Now()

	logger.Info("pipeline started", "workers", p.opts.Workers, "batch_size", p.opts.BatchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	branches := []branch{
		{source: SourceIncidence, extractor: p.incidence, transformer: IncidenceTransformer{}},
		{source: SourceRainfall, extractor: p.rainfall, transformer: RainfallTransformer{}, finalize: domain.Round1},
	}
	aggregates := make([][]KeyValue, len(branches))
	records := make([]int, len(branches))

	g, gctx := errgroup.WithContext(ctx)
	for i, b := range branches {
		g.Go(func() error {
			var err error
			aggregates[i], records[i], err = p.runBranch(gctx, b)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("pipeline failed", "stage", "aggregate", "error", err)
		return Summary{}, err
	}

	summary := Summary{
		RunID:   runID,
		Records: make(map[Source]int, len(branches)),
		Keys:    make(map[Source]int, len(branches)),
	}
	byName := make(map[Source][]KeyValue, len(branches))
	for i, b := range branches {
		summary.Records[b.source] = records[i]
		summary.Keys[b.source] = len(aggregates[i])
		byName[b.source] = aggregates[i]
		p.metrics.KeysAggregated.WithLabelValues(string(b.source)).Add(float64(len(aggregates[i])))
		logger.Info("dataset aggregated", "dataset", b.source, "records", records[i], "keys", len(aggregates[i]))
	}

	rows, joinStats, err := Join(byName[SourceRainfall], byName[SourceIncidence])
	if err != nil {
		logger.Error("pipeline failed", "stage", "join", "error", err)
		return Summary{}, err
	}
	summary.Join = joinStats
	p.metrics.RowsJoined.Add(float64(joinStats.Joined))
	p.metrics.KeysDropped.WithLabelValues(string(SourceRainfall)).Add(float64(joinStats.MissingRainfall))
	p.metrics.KeysDropped.WithLabelValues(string(SourceIncidence)).Add(float64(joinStats.MissingIncidence))

	summary.ProcessedAt = clock.Now()
	out := domain.Output{
		RunID:       runID,
		ProcessedAt: summary.ProcessedAt,
		Header:      domain.Header,
		Rows:        rows,
	}
	if err := p.loader.Load(ctx, out); err != nil {
		logger.Error("pipeline failed", "stage", "load", "error", err)
		return Summary{}, err
	}

	summarizeRows(&summary, rows)
	summary.Duration = clock.Since(start)
	p.metrics.RunDuration.Observe(summary.Duration.Seconds())
	p.ready.Store(true)

	attrs := []any{
		"rows", joinStats.Joined,
		"missing_rainfall", joinStats.MissingRainfall,
		"missing_incidence", joinStats.MissingIncidence,
		"duration", summary.Duration,
	}
	if summary.Correlation != nil {
		attrs = append(attrs, "correlation", *summary.Correlation)
	}
	logger.Info("pipeline finished", attrs...)

	return summary, nil
}

// runBranch streams one dataset through its transformer into the aggregator
// and returns the per-key aggregates and the number of lines read.
func (p *Pipeline) runBranch(ctx context.Context, b branch) ([]KeyValue, int, error) {
	in := make(chan KeyValue, p.opts.BatchSize)

	g, gctx := errgroup.WithContext(ctx)

	var out []KeyValue
	g.Go(func() error {
		var err error
		out, err = Aggregate(gctx, in, p.opts.Workers, b.finalize)
		return err
	})

	var read int
	g.Go(func() error {
		defer close(in)
		for {
			batch, extractErr := b.extractor.ExtractBatch(gctx, p.opts.BatchSize)
			for _, raw := range batch {
				kv, err := b.transformer.Transform(raw)
				if err != nil {
					p.metrics.RowErrors.WithLabelValues(string(b.source)).Inc()
					return &domain.RowError{Dataset: string(b.source), Line: raw.Number, Err: err}
				}
				select {
				case in <- kv:
				case <-gctx.Done():
					return gctx.Err()
				}
				read++
			}
			p.metrics.RecordsRead.WithLabelValues(string(b.source)).Add(float64(len(batch)))

			if errors.Is(extractErr, io.EOF) {
				return nil
			}
			if extractErr != nil {
				return fmt.Errorf("extract %s: %w", b.source, extractErr)
			}
		}
	})

	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return out, read, nil
}
