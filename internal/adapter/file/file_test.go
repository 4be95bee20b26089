package file

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/dengue-rainfall-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readAll(t *testing.T, r *Reader, batchSize int) []domain.RawLine {
	t.Helper()
	var all []domain.RawLine
	for {
		batch, err := r.ExtractBatch(context.Background(), batchSize)
		all = append(all, batch...)
		if errors.Is(err, io.EOF) {
			return all
		}
		require.NoError(t, err)
	}
}

func TestReader_SkipsHeaderAndNumbersLines(t *testing.T) {
	path := writeFile(t, "data,mm,uf\n2014-02-01,5.4,RS\r\n2014-02-02,1.0,SC\n")
	r, err := Open(path, 1, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	lines := readAll(t, r, 1)
	assert.Equal(t, []domain.RawLine{
		{Number: 2, Text: "2014-02-01,5.4,RS"},
		{Number: 3, Text: "2014-02-02,1.0,SC"},
	}, lines)
}

func TestReader_FinalBatchWithEOF(t *testing.T) {
	path := writeFile(t, "h\na\nb\nc\n")
	r, err := Open(path, 1, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	batch, err := r.ExtractBatch(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, batch, 2)

	batch, err = r.ExtractBatch(context.Background(), 2)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []domain.RawLine{{Number: 4, Text: "c"}}, batch)
}

func TestReader_HeaderOnly(t *testing.T) {
	path := writeFile(t, "id|data|casos\n")
	r, err := Open(path, 1, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	assert.Empty(t, readAll(t, r, 10))
}

func TestReader_ContextCancelled(t *testing.T) {
	path := writeFile(t, "h\na\n")
	r, err := Open(path, 1, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.ExtractBatch(ctx, 10)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.csv"), 1, slog.Default())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func row(region, month string, rain, cases float64) domain.OutputRow {
	return domain.OutputRow{Key: domain.Key{Region: region, Year: "2014", Month: month}, Rainfall: rain, Cases: cases}
}

func testOutput(rows ...domain.OutputRow) domain.Output {
	return domain.Output{RunID: "run-1", Header: domain.Header, Rows: rows}
}

func TestWriter_ShardPaths(t *testing.T) {
	w := NewWriter("out/resultado", ".csv", 3, slog.Default())
	assert.Equal(t, []string{
		"out/resultado-00000-of-00003.csv",
		"out/resultado-00001-of-00003.csv",
		"out/resultado-00002-of-00003.csv",
	}, w.ShardPaths())

	single := NewWriter("out/resultado", ".csv", 0, slog.Default())
	assert.Equal(t, []string{"out/resultado.csv"}, single.ShardPaths())
}

func TestWriter_SingleShard(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "resultado")
	w := NewWriter(prefix, ".csv", 1, slog.Default())

	err := w.Load(context.Background(), testOutput(row("RS", "02", 5.4, 8)))
	require.NoError(t, err)

	got, err := os.ReadFile(prefix + "-00000-of-00001.csv")
	require.NoError(t, err)
	assert.Equal(t, "UF,ANO,MES,CHUVA,DENGUE\nRS,2014,02,5.4,8.0\n", string(got))
}

func TestWriter_HeaderInEveryShard(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "resultado")
	w := NewWriter(prefix, ".csv", 2, slog.Default())

	err := w.Load(context.Background(), testOutput(
		row("PR", "01", 1, 2),
		row("RS", "01", 3, 4),
		row("SC", "01", 5, 6),
	))
	require.NoError(t, err)

	first, err := os.ReadFile(w.ShardPaths()[0])
	require.NoError(t, err)
	second, err := os.ReadFile(w.ShardPaths()[1])
	require.NoError(t, err)

	assert.Equal(t, "UF,ANO,MES,CHUVA,DENGUE\nPR,2014,01,1.0,2.0\n", string(first))
	assert.Equal(t, "UF,ANO,MES,CHUVA,DENGUE\nRS,2014,01,3.0,4.0\nSC,2014,01,5.0,6.0\n", string(second))
}

func TestWriter_ZeroRowsWritesHeader(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "resultado")
	w := NewWriter(prefix, ".csv", 0, slog.Default())

	require.NoError(t, w.Load(context.Background(), testOutput()))

	got, err := os.ReadFile(prefix + ".csv")
	require.NoError(t, err)
	assert.Equal(t, "UF,ANO,MES,CHUVA,DENGUE\n", string(got))
}

func TestWriter_OverwritesPreviousRun(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "resultado")
	w := NewWriter(prefix, ".csv", 1, slog.Default())

	require.NoError(t, w.Load(context.Background(), testOutput(row("RS", "02", 5.4, 8))))
	require.NoError(t, w.Load(context.Background(), testOutput(row("RS", "02", 5.4, 8))))

	got, err := os.ReadFile(w.ShardPaths()[0])
	require.NoError(t, err)
	assert.Equal(t, "UF,ANO,MES,CHUVA,DENGUE\nRS,2014,02,5.4,8.0\n", string(got))

	entries, err := os.ReadDir(filepath.Dir(prefix))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestWriter_CancelledLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(filepath.Join(dir, "resultado"), ".csv", 2, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := w.Load(ctx, testOutput(row("RS", "02", 5.4, 8)))
	assert.ErrorIs(t, err, context.Canceled)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
