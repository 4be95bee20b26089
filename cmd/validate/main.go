// Command validate checks the output of a completed ETL run. It re-runs the
// pipeline in memory over the same inputs, once single-threaded and once with
// the requested worker count, and compares both against the shards on disk:
// every shard must start with the header and the shards together must hold
// exactly the expected rows in key order.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -incidence database/sample_casos_dengue.txt \
//	  -rainfall database/sample_chuvas.csv \
//	  -output-prefix database/resultado -shards 1
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/couchcryptid/dengue-rainfall-etl/internal/adapter/file"
	"github.com/couchcryptid/dengue-rainfall-etl/internal/domain"
	"github.com/couchcryptid/dengue-rainfall-etl/internal/observability"
	"github.com/couchcryptid/dengue-rainfall-etl/internal/pipeline"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// captureLoader keeps the output of an in-memory run.
type captureLoader struct {
	out domain.Output
}

func (c *captureLoader) Load(_ context.Context, out domain.Output) error {
	c.out = out
	return nil
}

type options struct {
	incidence string
	rainfall  string
	prefix    string
	suffix    string
	shards    int
	workers   int
}

func main() {
	var opts options
	flag.StringVar(&opts.incidence, "incidence", "", "dengue notifications input")
	flag.StringVar(&opts.rainfall, "rainfall", "", "rainfall input")
	flag.StringVar(&opts.prefix, "output-prefix", "", "output shard prefix of the run being checked")
	flag.StringVar(&opts.suffix, "output-suffix", ".csv", "output shard suffix")
	flag.IntVar(&opts.shards, "shards", 1, "number of output shards (0 for a single unsharded file)")
	flag.IntVar(&opts.workers, "workers", 4, "aggregation partitions for the parallel re-run")
	flag.Parse()

	if opts.incidence == "" || opts.rainfall == "" || opts.prefix == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(context.Background(), opts, os.Stdout))
}

func run(ctx context.Context, opts options, stdout io.Writer) int {
	fmt.Fprintln(stdout, "=== Dengue Rainfall Output Validation ===")
	fmt.Fprintln(stdout)

	serial, err := rerun(ctx, opts, 1)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: serial re-run: %v\n", err)
		return 1
	}
	parallel, err := rerun(ctx, opts, opts.workers)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: parallel re-run: %v\n", err)
		return 1
	}

	writer := file.NewWriter(opts.prefix, opts.suffix, opts.shards, slog.Default())
	shards, err := loadShards(writer.ShardPaths())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read output shards: %v\n", err)
		return 1
	}

	expected := formatRows(serial.Rows)
	phases := []*phase{
		validateDeterminism(serial, parallel),
		validateHeaders(shards),
		validateRows(shards, expected),
		validateRowShape(shards),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(stdout, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(stdout)
	fmt.Fprintf(stdout, "Rows: %d expected across %d shard(s)\n", len(expected), len(shards))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(stdout, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(stdout, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(stdout, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(stdout, "\nValidation FAILED.")
	return 1
}

// rerun executes the pipeline over the inputs without touching any sink.
func rerun(ctx context.Context, opts options, workers int) (domain.Output, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	incidence, err := file.Open(opts.incidence, 1, logger)
	if err != nil {
		return domain.Output{}, err
	}
	defer incidence.Close()
	rainfall, err := file.Open(opts.rainfall, 1, logger)
	if err != nil {
		return domain.Output{}, err
	}
	defer rainfall.Close()

	capture := &captureLoader{}
	p := pipeline.New(incidence, rainfall, capture, logger, observability.NewMetricsForTesting(), pipeline.Options{
		Workers:   workers,
		BatchSize: 256,
	})
	if _, err := p.Run(ctx); err != nil {
		return domain.Output{}, err
	}
	return capture.out, nil
}

// shard is the content of one output file.
type shard struct {
	path  string
	lines []string
}

func loadShards(paths []string) ([]shard, error) {
	shards := make([]shard, 0, len(paths))
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		var lines []string
		sc := bufio.NewScanner(f)
		for sc.Scan() {
			lines = append(lines, sc.Text())
		}
		f.Close()
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		shards = append(shards, shard{path: path, lines: lines})
	}
	return shards, nil
}

func formatRows(rows []domain.OutputRow) []string {
	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = r.Format(domain.OutputDelimiter)
	}
	return lines
}

// ── Validation phases ──

func validateDeterminism(serial, parallel domain.Output) *phase {
	p := &phase{name: "Re-runs agree across worker counts"}
	a, b := formatRows(serial.Rows), formatRows(parallel.Rows)
	if len(a) != len(b) {
		p.errorf("serial run has %d rows, parallel run has %d", len(a), len(b))
		return p
	}
	for i := range a {
		if a[i] != b[i] {
			p.errorf("row %d: serial %q, parallel %q", i, a[i], b[i])
		}
	}
	return p
}

func validateHeaders(shards []shard) *phase {
	p := &phase{name: "Every shard starts with the header"}
	for _, s := range shards {
		if len(s.lines) == 0 {
			p.errorf("%s: empty file", s.path)
			continue
		}
		if s.lines[0] != domain.Header {
			p.errorf("%s: first line %q, want %q", s.path, s.lines[0], domain.Header)
		}
	}
	return p
}

func validateRows(shards []shard, expected []string) *phase {
	p := &phase{name: "Shards hold exactly the expected rows"}
	var got []string
	for _, s := range shards {
		if len(s.lines) > 1 {
			got = append(got, s.lines[1:]...)
		}
	}
	if slices.Equal(got, expected) {
		return p
	}
	if len(got) != len(expected) {
		p.errorf("found %d rows, expected %d", len(got), len(expected))
	}
	for i := range min(len(got), len(expected)) {
		if got[i] != expected[i] {
			p.errorf("row %d: found %q, expected %q", i, got[i], expected[i])
		}
	}
	return p
}

func validateRowShape(shards []shard) *phase {
	p := &phase{name: "Rows have valid keys and numeric values"}
	seen := map[string]string{}
	for _, s := range shards {
		for i, line := range s.lines {
			if i == 0 {
				continue
			}
			f := strings.Split(line, domain.OutputDelimiter)
			if len(f) != 5 {
				p.errorf("%s:%d: %d fields", s.path, i+1, len(f))
				continue
			}
			if _, _, err := domain.ParseYearMonth(f[1] + "-" + f[2]); err != nil {
				p.errorf("%s:%d: %v", s.path, i+1, err)
			}
			for _, v := range f[3:] {
				if _, err := strconv.ParseFloat(v, 64); err != nil {
					p.errorf("%s:%d: value %q is not numeric", s.path, i+1, v)
				}
			}
			key := strings.Join(f[:3], domain.OutputDelimiter)
			if prev, dup := seen[key]; dup {
				p.errorf("%s:%d: key %s already emitted at %s", s.path, i+1, key, prev)
			}
			seen[key] = fmt.Sprintf("%s:%d", s.path, i+1)
		}
	}
	return p
}
