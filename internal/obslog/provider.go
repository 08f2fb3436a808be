// Package obslog retrieves the survey's completed-observation log per date.
package obslog

import (
	"context"

	"samesky/pkg/models"
)

// Status tags the outcome of a per-date log lookup.
type Status int

const (
	// StatusOK means the log was retrieved; it may hold zero observations.
	StatusOK Status = iota
	// StatusUnavailable means no log could be retrieved for the date.
	StatusUnavailable
	// StatusMalformed means a log exists but could not be read.
	StatusMalformed
)

// String returns the metric/log label for s.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusUnavailable:
		return "unavailable"
	case StatusMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Result is the tagged outcome of Provider.ForDate.
type Result struct {
	Status       Status
	Observations []models.Observation
	Reason       string
}

// OK wraps a retrieved log.
func OK(obs []models.Observation) Result {
	return Result{Status: StatusOK, Observations: obs}
}

// Unavailable reports a date whose log could not be retrieved.
func Unavailable(reason string) Result {
	return Result{Status: StatusUnavailable, Reason: reason}
}

// Malformed reports a date whose log could not be parsed.
func Malformed(reason string) Result {
	return Result{Status: StatusMalformed, Reason: reason}
}

// Provider returns the observation log for one calendar date.
// The error return is reserved for failures that must abort the run,
// such as context cancellation.
type Provider interface {
	ForDate(ctx context.Context, date models.Date) (Result, error)
}
