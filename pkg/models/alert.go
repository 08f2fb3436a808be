package models

import "time"

// AlertTypeRetraction marks a record that retracts an earlier alert.
const AlertTypeRetraction = "Retraction"

// Alert is one FRB alert record from the VOEvent feed.
type Alert struct {
	EventID        string            `json:"event_id"`
	AlertType      string            `json:"alert_type"`
	RA             float64           `json:"ra"`
	Dec            float64           `json:"dec"`
	DetectionEpoch time.Time         `json:"detected"`
	DetectionJD    float64           `json:"detection_jd"`
	DetectionDate  Date              `json:"detection_date"`
	DetectionTime  string            `json:"detection_time"`
	Attributes     map[string]string `json:"attributes,omitempty"`
}

// IsRetraction reports whether the record is a retraction notice.
func (a *Alert) IsRetraction() bool {
	return a != nil && a.AlertType == AlertTypeRetraction
}
