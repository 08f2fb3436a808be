package models

import (
	"strconv"
	"time"
)

// DatetimeLayout is the text form of observation timestamps in exports.
const DatetimeLayout = "2006-01-02 15:04:05.000000"

// Match pairs an alert with an observation inside the time window.
type Match struct {
	EventID      string    `json:"event_id"`
	FRBJD        float64   `json:"FRB_jd"`
	FRBDate      Date      `json:"FRB_date"`
	FRBTime      string    `json:"FRB_time"`
	ZTFDatetime  time.Time `json:"ztf_datetime"`
	Exposure     float64   `json:"exposure"`
	ZTFJD        float64   `json:"ztf_jd"`
	DeltaMinutes float64   `json:"delta_min"`
}

// ExportColumns is the column order of the structured match export.
var ExportColumns = []string{
	"event_id",
	"FRB_jd",
	"FRB_date",
	"FRB_time",
	"ztf_datetime",
	"exposure",
	"ztf_jd",
	"delta_min",
}

// Record renders the match as text cells in ExportColumns order.
func (m Match) Record() []string {
	return []string{
		m.EventID,
		formatFloat(m.FRBJD),
		m.FRBDate.String(),
		m.FRBTime,
		m.ZTFDatetime.UTC().Format(DatetimeLayout),
		formatFloat(m.Exposure),
		formatFloat(m.ZTFJD),
		formatFloat(m.DeltaMinutes),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
