package crossmatch

import (
	"context"
	"errors"

	"samesky/internal/obslog"
	"samesky/internal/timeconv"
	"samesky/pkg/models"
)

type fakeResolver struct {
	fields []int
	err    error
	calls  int
}

func (f *fakeResolver) Resolve(ra, dec float64) ([]int, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.fields, nil
}

type fakeProvider struct {
	logs  map[string]obslog.Result
	err   error
	calls []string
}

func (f *fakeProvider) ForDate(_ context.Context, date models.Date) (obslog.Result, error) {
	f.calls = append(f.calls, date.String())
	if f.err != nil {
		return obslog.Result{}, f.err
	}
	res, ok := f.logs[date.String()]
	if !ok {
		return obslog.Unavailable("no log"), nil
	}
	return res, nil
}

var errBoom = errors.New("boom")

// alertAt builds an alert detected at the given julian date.
func alertAt(id string, jd float64) models.Alert {
	ep := timeconv.FromTime(timeconv.TimeFromJD(jd))
	return models.Alert{
		EventID:        id,
		AlertType:      "Initial",
		RA:             180,
		Dec:            30,
		DetectionEpoch: ep.Time,
		DetectionJD:    jd,
		DetectionDate:  ep.Date,
		DetectionTime:  ep.TimeOfDay,
	}
}

func obsAt(field int, jd float64) models.Observation {
	return models.Observation{FieldID: field, ObsJD: jd, ObsTime: timeconv.TimeFromJD(jd), ExposureSeconds: 30}
}
