// Package crossmatch joins FRB alerts with survey observations of the same
// sky field taken within a time window.
package crossmatch

import (
	"context"
	"fmt"
	"math"

	"samesky/internal/footprint"
	"samesky/internal/obslog"
	"samesky/pkg/models"
)

const minutesPerDay = 1440.0

// Outcome is the per-alert result of Engine.Match.
type Outcome struct {
	Alert      models.Alert
	Fields     []int
	LogStatus  obslog.Status
	Matches    []models.Match
	Skipped    bool
	SkipReason string
}

// Engine finds the observations coinciding with one alert at a time.
// It holds no state between calls.
type Engine struct {
	resolver  footprint.Resolver
	provider  obslog.Provider
	threshold float64
}

// NewEngine creates an engine with a window of thresholdMinutes on either side.
func NewEngine(resolver footprint.Resolver, provider obslog.Provider, thresholdMinutes float64) (*Engine, error) {
	if resolver == nil || provider == nil {
		return nil, fmt.Errorf("engine needs a footprint resolver and an observation log provider")
	}
	if err := ValidateThreshold(thresholdMinutes); err != nil {
		return nil, err
	}
	return &Engine{resolver: resolver, provider: provider, threshold: thresholdMinutes}, nil
}

// Threshold returns the window half-width in minutes.
func (e *Engine) Threshold() float64 {
	return e.threshold
}

// Match returns the observations of fields containing the alert whose
// |obs_jd - detection_jd| * 1440 is strictly below the threshold.
// An unavailable or malformed log skips the alert with a nil error.
func (e *Engine) Match(ctx context.Context, alert models.Alert) (Outcome, error) {
	out := Outcome{Alert: alert}
	if !finite(alert.DetectionJD) || alert.DetectionDate.IsZero() {
		return out, fmt.Errorf("%w: event %s has no usable detection epoch", ErrUnexpected, alert.EventID)
	}

	fields, err := e.resolver.Resolve(alert.RA, alert.Dec)
	if err != nil {
		return out, fmt.Errorf("%w: resolve fields for event %s: %w", ErrUnexpected, alert.EventID, err)
	}
	out.Fields = fields

	res, err := e.provider.ForDate(ctx, alert.DetectionDate)
	if err != nil {
		return out, fmt.Errorf("observation log for %s: %w", alert.DetectionDate, err)
	}
	out.LogStatus = res.Status
	switch res.Status {
	case obslog.StatusOK:
	case obslog.StatusUnavailable, obslog.StatusMalformed:
		out.Skipped = true
		out.SkipReason = res.Reason
		return out, nil
	default:
		return out, fmt.Errorf("%w: observation log for %s returned status %d", ErrUnexpected, alert.DetectionDate, res.Status)
	}

	inField := make(map[int]struct{}, len(fields))
	for _, f := range fields {
		inField[f] = struct{}{}
	}

	for _, obs := range res.Observations {
		if _, ok := inField[obs.FieldID]; !ok {
			continue
		}
		if !finite(obs.ObsJD) {
			return out, fmt.Errorf("%w: observation of field %d on %s has invalid obsjd", ErrUnexpected, obs.FieldID, alert.DetectionDate)
		}
		delta := (obs.ObsJD - alert.DetectionJD) * minutesPerDay
		if math.Abs(delta) >= e.threshold {
			continue
		}
		out.Matches = append(out.Matches, models.Match{
			EventID:      alert.EventID,
			FRBJD:        alert.DetectionJD,
			FRBDate:      alert.DetectionDate,
			FRBTime:      alert.DetectionTime,
			ZTFDatetime:  obs.ObsTime,
			Exposure:     obs.ExposureSeconds,
			ZTFJD:        obs.ObsJD,
			DeltaMinutes: delta,
		})
	}
	return out, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
