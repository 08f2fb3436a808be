package matchjson

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"samesky/internal/logger"
	"samesky/internal/output"
	"samesky/pkg/models"
)

// Writer outputs matches to a JSON lines file.
type Writer struct {
	path string
}

// NewWriter creates a JSONL writer for matches.
func NewWriter(path string) (*Writer, error) {
	if err := output.PrepareFile(path); err != nil {
		return nil, err
	}
	logger.Infof("Match JSON writer initialized: %s", path)
	return &Writer{path: path}, nil
}

// WriteMatches writes one JSON object per match.
func (w *Writer) WriteMatches(ctx context.Context, matches []models.Match) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return output.WriteFileAtomic(w.path, func(out io.Writer) error {
		bw := bufio.NewWriter(out)
		enc := json.NewEncoder(bw)
		for _, m := range matches {
			if err := enc.Encode(m); err != nil {
				return fmt.Errorf("failed to encode match: %w", err)
			}
		}
		if err := bw.Flush(); err != nil {
			return fmt.Errorf("flush output: %w", err)
		}
		return nil
	})
}

// Close releases resources.
func (w *Writer) Close() error {
	return nil
}
