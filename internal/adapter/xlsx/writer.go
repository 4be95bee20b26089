package xlsx

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/dengue-rainfall-etl/internal/domain"
	"github.com/xuri/excelize/v2"
)

const sheet = "Sheet1"

// Writer saves joined rows as a single-sheet workbook. Region, year and month
// are text cells; rainfall and cases are numeric. It implements
// pipeline.Loader.
type Writer struct {
	path   string
	logger *slog.Logger
}

// NewWriter creates a workbook writer for path.
func NewWriter(path string, logger *slog.Logger) *Writer {
	return &Writer{path: path, logger: logger}
}

// Load writes the header and all rows, replacing any previous workbook.
func (w *Writer) Load(ctx context.Context, out domain.Output) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, h := range strings.Split(out.Header, domain.OutputDelimiter) {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	for r, row := range out.Rows {
		if r%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		values := []any{row.Key.Region, row.Key.Year, row.Key.Month, row.Rainfall, row.Cases}
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write row %s: %w", row.Key, err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	// SaveAs picks the format from the extension, so the temp name keeps it.
	tmpFile, err := os.CreateTemp(filepath.Dir(w.path), filepath.Base(w.path)+".tmp-*"+filepath.Ext(w.path))
	if err != nil {
		return fmt.Errorf("create workbook: %w", err)
	}
	tmp := tmpFile.Name()
	if err := tmpFile.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("create workbook: %w", err)
	}
	if err := f.SaveAs(tmp); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("save workbook: %w", err)
	}
	if err := os.Rename(tmp, w.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("publish workbook: %w", err)
	}

	w.logger.Info("workbook written", "path", w.path, "rows", len(out.Rows))
	return nil
}
