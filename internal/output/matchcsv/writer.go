package matchcsv

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"samesky/internal/logger"
	"samesky/internal/output"
	"samesky/pkg/models"
)

// Writer exports the match table as CSV.
type Writer struct {
	path string
}

// NewWriter validates the destination of a CSV export.
func NewWriter(path string) (*Writer, error) {
	if err := output.PrepareFile(path); err != nil {
		return nil, err
	}
	logger.Infof("Match CSV writer initialized: %s", path)
	return &Writer{path: path}, nil
}

// WriteMatches writes the header and every match, replacing any previous file.
func (w *Writer) WriteMatches(ctx context.Context, matches []models.Match) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return output.WriteFileAtomic(w.path, func(out io.Writer) error {
		cw := csv.NewWriter(out)
		if err := cw.Write(models.ExportColumns); err != nil {
			return fmt.Errorf("failed to write csv header: %w", err)
		}
		for _, m := range matches {
			if err := cw.Write(m.Record()); err != nil {
				return fmt.Errorf("failed to write match: %w", err)
			}
		}
		cw.Flush()
		return cw.Error()
	})
}

// Close releases resources.
func (w *Writer) Close() error {
	return nil
}
