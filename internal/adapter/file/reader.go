package file

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/couchcryptid/dengue-rainfall-etl/internal/domain"
)

const maxLineBytes = 1 << 20

// Reader serves the lines of a text file in batches.
// It implements pipeline.Extractor. It is not safe for concurrent use.
type Reader struct {
	path    string
	file    *os.File
	scanner *bufio.Scanner
	line    int
	logger  *slog.Logger
}

// Open opens path and skips its first skipHeaderLines lines.
func Open(path string, skipHeaderLines int, logger *slog.Logger) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return newReader(path, f, skipHeaderLines, logger), nil
}

func newReader(path string, f *os.File, skipHeaderLines int, logger *slog.Logger) *Reader {
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	r := &Reader{path: path, file: f, scanner: scanner, logger: logger}
	for i := 0; i < skipHeaderLines && r.scanner.Scan(); i++ {
		r.line++
	}
	return r
}

// ExtractBatch returns up to batchSize lines. It returns io.EOF, possibly
// together with a final partial batch, once the file is exhausted.
func (r *Reader) ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawLine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	batch := make([]domain.RawLine, 0, batchSize)
	for len(batch) < batchSize {
		if !r.scanner.Scan() {
			if err := r.scanner.Err(); err != nil {
				return batch, fmt.Errorf("read %s at line %d: %w", r.path, r.line+1, err)
			}
			r.logger.Debug("input exhausted", "path", r.path, "lines", r.line)
			return batch, io.EOF
		}
		r.line++
		batch = append(batch, domain.RawLine{
			Number: r.line,
			Text:   strings.TrimSuffix(r.scanner.Text(), "\r"),
		})
	}
	return batch, nil
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}
