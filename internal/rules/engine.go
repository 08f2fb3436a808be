package rules

import "samesky/pkg/models"

// Hit names an exclusion rule that matched an alert.
type Hit struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name,omitempty"`
	Severity string `json:"severity,omitempty"`
}

// Engine evaluates operator exclusion rules against alerts.
type Engine interface {
	Apply(alert *models.Alert) []Hit
}

// NoopEngine excludes nothing.
type NoopEngine struct{}

// Apply returns no hits.
func (n *NoopEngine) Apply(alert *models.Alert) []Hit {
	return nil
}

// Exclude drops the alerts that match any rule and returns the kept alerts
// together with the hits per dropped event id. Order is preserved.
func Exclude(engine Engine, alerts []models.Alert) ([]models.Alert, map[string][]Hit) {
	if engine == nil {
		return alerts, nil
	}
	kept := make([]models.Alert, 0, len(alerts))
	dropped := make(map[string][]Hit)
	for i := range alerts {
		if hits := engine.Apply(&alerts[i]); len(hits) > 0 {
			dropped[alerts[i].EventID] = append(dropped[alerts[i].EventID], hits...)
			continue
		}
		kept = append(kept, alerts[i])
	}
	return kept, dropped
}
