package crossmatch

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"samesky/internal/obslog"
	"samesky/pkg/models"
)

// Header describes the run in the narrative report.
type Header struct {
	RunID            string
	AlertCount       int
	Range            DateRange
	ThresholdMinutes float64
}

// Skip records an alert whose observation log could not be used.
type Skip struct {
	EventID string
	Date    models.Date
	Status  obslog.Status
	Reason  string
}

// Aggregator folds engine outcomes into the match table and streams the
// narrative report. Rows are kept in insertion order and never removed.
type Aggregator struct {
	narrative io.Writer
	rows      []models.Match
	skipped   []Skip
	matched   int
	processed int
}

// NewAggregator writes the report header to narrative (which may be nil).
func NewAggregator(narrative io.Writer, h Header) (*Aggregator, error) {
	a := &Aggregator{narrative: narrative}
	if narrative == nil {
		return a, nil
	}
	_, err := fmt.Fprintf(narrative, "%d FRB events found b/w %s : %s\nList of ZTF obs of FRB field within time range %s min\n",
		h.AlertCount, h.Range.From, h.Range.To, formatMinutes(h.ThresholdMinutes))
	if err != nil {
		return nil, fmt.Errorf("write report header: %w", err)
	}
	if h.RunID != "" {
		if _, err := fmt.Fprintf(narrative, "run %s\n", h.RunID); err != nil {
			return nil, fmt.Errorf("write report header: %w", err)
		}
	}
	return a, nil
}

// Add appends an outcome's matches and reports the alert if it matched.
func (a *Aggregator) Add(o Outcome) error {
	a.processed++
	if o.Skipped {
		a.skipped = append(a.skipped, Skip{
			EventID: o.Alert.EventID,
			Date:    o.Alert.DetectionDate,
			Status:  o.LogStatus,
			Reason:  o.SkipReason,
		})
		return nil
	}
	if len(o.Matches) == 0 {
		return nil
	}
	a.matched++
	a.rows = append(a.rows, o.Matches...)
	if a.narrative == nil {
		return nil
	}
	if err := writeBlock(a.narrative, o); err != nil {
		return fmt.Errorf("write report block for event %s: %w", o.Alert.EventID, err)
	}
	return nil
}

// Rows returns a copy of the match table.
func (a *Aggregator) Rows() []models.Match {
	return append([]models.Match(nil), a.rows...)
}

// Skipped returns the alerts skipped for an unusable observation log.
func (a *Aggregator) Skipped() []Skip {
	return append([]Skip(nil), a.skipped...)
}

// Processed is the number of outcomes added.
func (a *Aggregator) Processed() int {
	return a.processed
}

// MatchedAlerts is the number of alerts with at least one match.
func (a *Aggregator) MatchedAlerts() int {
	return a.matched
}

func writeBlock(w io.Writer, o Outcome) error {
	deltas := make([]string, len(o.Matches))
	for i, m := range o.Matches {
		deltas[i] = strconv.FormatFloat(m.DeltaMinutes, 'f', 3, 64)
	}
	if _, err := fmt.Fprintf(w, "\nFound ZTF obs of FRB field within [%s] min\nFRB details:\n", strings.Join(deltas, " ")); err != nil {
		return err
	}

	al := o.Alert
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, " event_id\t%s\n", al.EventID)
	fmt.Fprintf(tw, " alert_type\t%s\n", al.AlertType)
	fmt.Fprintf(tw, " ra\t%s\n", strconv.FormatFloat(al.RA, 'f', -1, 64))
	fmt.Fprintf(tw, " dec\t%s\n", strconv.FormatFloat(al.Dec, 'f', -1, 64))
	fmt.Fprintf(tw, " jd_det\t%s\n", strconv.FormatFloat(al.DetectionJD, 'f', 6, 64))
	fmt.Fprintf(tw, " date\t%s\n", al.DetectionDate)
	fmt.Fprintf(tw, " time\t%s\n", al.DetectionTime)
	keys := make([]string, 0, len(al.Attributes))
	for k := range al.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(tw, " %s\t%s\n", k, al.Attributes[k])
	}
	fmt.Fprintf(tw, " fields\t%s\n", formatFields(o.Fields))
	return tw.Flush()
}

func formatFields(fields []int) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = strconv.Itoa(f)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func formatMinutes(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
