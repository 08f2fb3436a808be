package models

import "time"

// Observation is one ZTF exposure of a survey field.
type Observation struct {
	FieldID         int       `json:"field"`
	ObsJD           float64   `json:"obsjd"`
	ObsTime         time.Time `json:"datetime"`
	ExposureSeconds float64   `json:"exptime"`
}
