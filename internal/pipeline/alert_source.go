package pipeline

import (
	"context"

	"samesky/pkg/models"
)

// AlertSource loads the full alert catalog, retractions included.
type AlertSource interface {
	Alerts(ctx context.Context) ([]models.Alert, error)
}
