// Package voevent flattens CHIME/FRB VOEvent JSON documents into alerts.
package voevent

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"samesky/internal/logger"
	"samesky/internal/timeconv"
	"samesky/pkg/models"
)

var coreKeys = map[string]struct{}{
	"Alert_Type": {},
	"RA":         {},
	"Dec":        {},
	"Detected":   {},
}

// ParseFeed parses a JSON array of event documents. Entries that are not
// valid event documents are logged and skipped.
func ParseFeed(data []byte, conv timeconv.Converter) ([]models.Alert, error) {
	var docs []json.RawMessage
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}
	alerts := make([]models.Alert, 0, len(docs)*2)
	for i, doc := range docs {
		out, err := Parse(doc, conv)
		if err != nil {
			logger.Warnf("Skipping feed entry %d: %v", i, err)
			continue
		}
		alerts = append(alerts, out...)
	}
	return alerts, nil
}

// Parse converts one event document ({event_id, records: [...]}) into one alert per record.
// Records missing required fields are logged and dropped.
func Parse(data []byte, conv timeconv.Converter) ([]models.Alert, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode event document: %w", err)
	}

	eventID := getString(raw, "event_id")
	if eventID == "" {
		return nil, fmt.Errorf("event document without event_id")
	}
	records, ok := raw["records"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("event %s: records is not a list", eventID)
	}

	alerts := make([]models.Alert, 0, len(records))
	for i, r := range records {
		rec, ok := r.(map[string]interface{})
		if !ok {
			logger.Warnf("Skipping non-object record %d of event %s", i, eventID)
			continue
		}
		alert, err := parseRecord(eventID, rec, conv)
		if err != nil {
			logger.Warnf("Skipping record %d of event %s: %v", i, eventID, err)
			continue
		}
		alerts = append(alerts, alert)
	}
	return alerts, nil
}

func parseRecord(eventID string, rec map[string]interface{}, conv timeconv.Converter) (models.Alert, error) {
	alert := models.Alert{
		EventID:    eventID,
		AlertType:  getString(rec, "Alert_Type"),
		Attributes: flatten(rec),
	}
	if alert.AlertType == "" {
		return models.Alert{}, fmt.Errorf("missing Alert_Type")
	}
	// Retraction notices only need to name the event they retract.
	if alert.IsRetraction() {
		return alert, nil
	}

	ra, ok := getFloat(rec, "RA")
	if !ok {
		return models.Alert{}, fmt.Errorf("missing or non-numeric RA")
	}
	decl, ok := getFloat(rec, "Dec")
	if !ok {
		return models.Alert{}, fmt.Errorf("missing or non-numeric Dec")
	}
	detected := getString(rec, "Detected")
	if detected == "" {
		return models.Alert{}, fmt.Errorf("missing Detected")
	}
	ep, err := conv.Convert(detected)
	if err != nil {
		return models.Alert{}, fmt.Errorf("convert Detected: %w", err)
	}

	alert.RA = ra
	alert.Dec = decl
	alert.DetectionEpoch = ep.Time
	alert.DetectionJD = ep.JD
	alert.DetectionDate = ep.Date
	alert.DetectionTime = ep.TimeOfDay
	return alert, nil
}

// flatten keeps the non-core attributes with dotted keys for nested objects.
func flatten(rec map[string]interface{}) map[string]string {
	out := make(map[string]string)
	var walk func(prefix string, m map[string]interface{})
	walk = func(prefix string, m map[string]interface{}) {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			full := k
			if prefix != "" {
				full = prefix + "." + k
			}
			if _, core := coreKeys[full]; core {
				continue
			}
			if nested, ok := m[k].(map[string]interface{}); ok {
				walk(full, nested)
				continue
			}
			if s := stringify(m[k]); s != "" {
				out[full] = s
			}
		}
	}
	walk("", rec)
	if len(out) == 0 {
		return nil
	}
	return out
}

func stringify(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case fmt.Stringer:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		if val {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", val)
	}
}

func getString(root map[string]interface{}, paths ...string) string {
	for _, path := range paths {
		if v, ok := getPath(root, path); ok {
			if s := strings.TrimSpace(stringify(v)); s != "" {
				return s
			}
		}
	}
	return ""
}

func getFloat(root map[string]interface{}, paths ...string) (float64, bool) {
	for _, path := range paths {
		v, ok := getPath(root, path)
		if !ok {
			continue
		}
		switch val := v.(type) {
		case json.Number:
			if f, err := val.Float64(); err == nil {
				return f, true
			}
		case float64:
			return val, true
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

func getPath(root map[string]interface{}, path string) (interface{}, bool) {
	parts := strings.Split(path, ".")
	var current interface{} = root
	for _, part := range parts {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		v, ok := m[part]
		if !ok {
			return nil, false
		}
		current = v
	}
	return current, true
}
