package crossmatch

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"samesky/pkg/models"
)

// DefaultFromDate is the first day of the public CHIME/FRB VOEvent service.
const DefaultFromDate = "2021-10-09"

// RemoveRetracted drops every record of any event that has a retraction record.
// Order is preserved.
func RemoveRetracted(alerts []models.Alert) []models.Alert {
	retracted := RetractedIDs(alerts)
	out := make([]models.Alert, 0, len(alerts))
	for _, a := range alerts {
		if _, ok := retracted[a.EventID]; ok {
			continue
		}
		out = append(out, a)
	}
	return out
}

// RetractedIDs returns the event ids carrying a retraction record.
func RetractedIDs(alerts []models.Alert) map[string]struct{} {
	ids := make(map[string]struct{})
	for i := range alerts {
		if alerts[i].IsRetraction() {
			ids[alerts[i].EventID] = struct{}{}
		}
	}
	return ids
}

// DateRange is an inclusive calendar date interval.
type DateRange struct {
	From models.Date
	To   models.Date
}

// ParseDateRange parses the window bounds. An empty to means today.
func ParseDateRange(from, to string) (DateRange, error) {
	from = strings.TrimSpace(from)
	to = strings.TrimSpace(to)

	f, err := models.ParseDate(from)
	if err != nil {
		return DateRange{}, &InputError{Field: "from date", Value: from, Err: err}
	}
	t := models.Today()
	if to != "" {
		t, err = models.ParseDate(to)
		if err != nil {
			return DateRange{}, &InputError{Field: "to date", Value: to, Err: err}
		}
	}
	if t.Before(f) {
		return DateRange{}, &InputError{Field: "date range", Value: f.String() + " : " + t.String(), Err: errors.New("from is after to")}
	}
	return DateRange{From: f, To: t}, nil
}

// Contains reports whether d lies in the range.
func (r DateRange) Contains(d models.Date) bool {
	return d.Between(r.From, r.To)
}

// FilterDateRange keeps the alerts detected inside r. Order is preserved.
func FilterDateRange(alerts []models.Alert, r DateRange) []models.Alert {
	out := make([]models.Alert, 0, len(alerts))
	for _, a := range alerts {
		if r.Contains(a.DetectionDate) {
			out = append(out, a)
		}
	}
	return out
}

// ValidateThreshold checks the window half-width in minutes.
func ValidateThreshold(minutes float64) error {
	if math.IsNaN(minutes) || math.IsInf(minutes, 0) || minutes <= 0 {
		return &InputError{Field: "threshold minutes", Value: strconv.FormatFloat(minutes, 'g', -1, 64), Err: errors.New("must be a positive number")}
	}
	return nil
}
