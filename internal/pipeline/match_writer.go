package pipeline

import (
	"context"

	"samesky/pkg/models"
)

// MatchWriter exports the complete match table once the run has finished.
type MatchWriter interface {
	WriteMatches(ctx context.Context, matches []models.Match) error
	Close() error
}
