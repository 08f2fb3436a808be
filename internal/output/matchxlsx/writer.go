package matchxlsx

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"samesky/internal/logger"
	"samesky/internal/output"
	"samesky/pkg/models"
)

// SheetName is the worksheet holding the match table.
const SheetName = "matches"

// Writer exports the match table as an XLSX workbook.
type Writer struct {
	path string
}

// NewWriter validates the destination of an XLSX export.
func NewWriter(path string) (*Writer, error) {
	if err := output.PrepareFile(path); err != nil {
		return nil, err
	}
	logger.Infof("Match XLSX writer initialized: %s", path)
	return &Writer{path: path}, nil
}

// WriteMatches writes one header row and one row per match.
// Numeric columns are stored as numbers.
func (w *Writer) WriteMatches(ctx context.Context, matches []models.Match) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	idx, err := f.NewSheet(SheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}

	header := make([]interface{}, len(models.ExportColumns))
	for i, c := range models.ExportColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, m := range matches {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			m.EventID,
			m.FRBJD,
			m.FRBDate.String(),
			m.FRBTime,
			m.ZTFDatetime.UTC().Format(models.DatetimeLayout),
			m.Exposure,
			m.ZTFJD,
			m.DeltaMinutes,
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write match row %d: %w", i+1, err)
		}
	}

	return output.WriteFileAtomic(w.path, func(out io.Writer) error {
		if err := f.Write(out); err != nil {
			return fmt.Errorf("failed to write workbook: %w", err)
		}
		return nil
	})
}

// Close releases resources.
func (w *Writer) Close() error {
	return nil
}
