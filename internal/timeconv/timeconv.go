// Package timeconv converts feed epochs to julian dates and calendar parts.
package timeconv

import (
	"fmt"
	"math"
	"strings"
	"time"

	"samesky/pkg/models"
)

// unixEpochJD is the julian date of 1970-01-01T00:00:00 UTC.
const unixEpochJD = 2440587.5

const secondsPerDay = 86400.0

// TimeOfDayLayout is the text form of an alert's detection time-of-day.
const TimeOfDayLayout = "15:04:05.000000"

// Epoch is a decomposed absolute timestamp.
type Epoch struct {
	Time      time.Time
	JD        float64
	Date      models.Date
	TimeOfDay string
}

// Converter turns an epoch string into its decomposed form.
type Converter interface {
	Convert(epoch string) (Epoch, error)
}

// UTCConverter reads epochs as UTC wall-clock time.
type UTCConverter struct{}

// Convert strips any "+hh:mm" offset suffix and parses the remainder as UTC.
func (UTCConverter) Convert(epoch string) (Epoch, error) {
	t, ok := ParseEpoch(epoch)
	if !ok {
		return Epoch{}, fmt.Errorf("unrecognized epoch %q", epoch)
	}
	return FromTime(t), nil
}

// FromTime decomposes t (converted to UTC).
func FromTime(t time.Time) Epoch {
	t = t.UTC()
	return Epoch{
		Time:      t,
		JD:        JulianDate(t),
		Date:      models.DateOf(t),
		TimeOfDay: t.Format(TimeOfDayLayout),
	}
}

// JulianDate returns the julian date of t.
func JulianDate(t time.Time) float64 {
	t = t.UTC()
	return unixEpochJD + float64(t.Unix())/secondsPerDay + float64(t.Nanosecond())/(secondsPerDay*1e9)
}

// TimeFromJD converts a julian date to UTC, rounded to the microsecond.
func TimeFromJD(jd float64) time.Time {
	days := jd - unixEpochJD
	whole := math.Floor(days)
	secs := int64(whole) * int64(secondsPerDay)
	frac := time.Duration(math.Round((days - whole) * secondsPerDay * 1e6)) * time.Microsecond
	return time.Unix(secs, 0).UTC().Add(frac)
}

// ParseEpoch parses the timestamp forms seen in the VOEvent feed and logs.
func ParseEpoch(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if idx := strings.Index(value, "+"); idx > 0 {
		value = strings.TrimSpace(value[:idx])
	}
	value = strings.TrimSuffix(value, "Z")

	for _, layout := range []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
	} {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
