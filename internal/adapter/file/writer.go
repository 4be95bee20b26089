package file

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/dengue-rainfall-etl/internal/domain"
)

// Writer writes joined rows as delimited text shards, each starting with the
// header line. It implements pipeline.Loader.
type Writer struct {
	prefix string
	suffix string
	shards int
	delim  string
	logger *slog.Logger
}

// NewWriter creates a writer for <prefix>-SSSSS-of-NNNNN<suffix> shards.
// With shards == 0 it writes a single file named <prefix><suffix>.
func NewWriter(prefix, suffix string, shards int, logger *slog.Logger) *Writer {
	return &Writer{
		prefix: prefix,
		suffix: suffix,
		shards: shards,
		delim:  domain.OutputDelimiter,
		logger: logger,
	}
}

// ShardPaths lists the files a Load call produces.
func (w *Writer) ShardPaths() []string {
	if w.shards == 0 {
		return []string{w.prefix + w.suffix}
	}
	paths := make([]string, w.shards)
	for i := range paths {
		paths[i] = fmt.Sprintf("%s-%05d-of-%05d%s", w.prefix, i, w.shards, w.suffix)
	}
	return paths
}

// Load writes out.Rows split into contiguous chunks across the shards. Every
// shard is written to a temp file first and renamed into place only after all
// shards were written, so a failed load leaves no partial shard behind.
func (w *Writer) Load(ctx context.Context, out domain.Output) error {
	paths := w.ShardPaths()
	temps := make([]string, 0, len(paths))
	cleanup := func() {
		for _, t := range temps {
			_ = os.Remove(t)
		}
	}

	n := len(out.Rows)
	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			cleanup()
			return err
		}
		lo, hi := i*n/len(paths), (i+1)*n/len(paths)

		tmp, err := w.writeShard(path, out.Header, out.Rows[lo:hi])
		if tmp != "" {
			temps = append(temps, tmp)
		}
		if err != nil {
			cleanup()
			return err
		}
	}

	for i, tmp := range temps {
		if err := os.Rename(tmp, paths[i]); err != nil {
			cleanup()
			return fmt.Errorf("publish shard %s: %w", paths[i], err)
		}
	}

	w.logger.Info("output written", "shards", len(paths), "rows", n, "run_id", out.RunID)
	return nil
}

// writeShard writes one shard to a temp file beside path and returns the temp
// file name.
func (w *Writer) writeShard(path, header string, rows []domain.OutputRow) (string, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	f, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create shard: %w", err)
	}

	bw := bufio.NewWriter(f)
	_, err = bw.WriteString(header + "\n")
	for _, row := range rows {
		if err != nil {
			break
		}
		_, err = bw.WriteString(row.Format(w.delim) + "\n")
	}
	if err == nil {
		err = bw.Flush()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return f.Name(), fmt.Errorf("write shard %s: %w", path, err)
	}
	return f.Name(), nil
}
