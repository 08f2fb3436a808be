// Package footprint maps sky positions to the survey fields covering them.
package footprint

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Resolver returns the identifiers of fields whose footprint contains a point.
type Resolver interface {
	Resolve(ra, dec float64) ([]int, error)
}

// Field is a survey field center in degrees.
type Field struct {
	ID  int
	RA  float64
	Dec float64
}

// Config controls the camera footprint size.
type Config struct {
	HalfWidthDeg  float64
	HalfHeightDeg float64
}

// GridResolver tests a point against rectangular footprints centered on each field.
type GridResolver struct {
	fields    []Field
	tanHalfW  float64
	tanHalfH  float64
	cosHalfDg float64
}

// NewGridResolver builds a resolver over a fixed field list.
func NewGridResolver(fields []Field, cfg Config) (*GridResolver, error) {
	if len(fields) == 0 {
		return nil, errors.New("field list is empty")
	}
	if cfg.HalfWidthDeg <= 0 {
		cfg.HalfWidthDeg = 3.75
	}
	if cfg.HalfHeightDeg <= 0 {
		cfg.HalfHeightDeg = 3.65
	}
	if cfg.HalfWidthDeg >= 45 || cfg.HalfHeightDeg >= 45 {
		return nil, fmt.Errorf("footprint half-size must be below 45 degrees")
	}
	sorted := append([]Field(nil), fields...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	diag := math.Hypot(cfg.HalfWidthDeg, cfg.HalfHeightDeg)
	return &GridResolver{
		fields:    sorted,
		tanHalfW:  math.Tan(rad(cfg.HalfWidthDeg)),
		tanHalfH:  math.Tan(rad(cfg.HalfHeightDeg)),
		cosHalfDg: math.Cos(rad(diag)),
	}, nil
}

// LoadFields reads field centers from a CSV file with at least field, ra and dec columns.
func LoadFields(path string) ([]Field, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open field table: %w", err)
	}
	defer f.Close()
	return ReadFields(f)
}

// ReadFields parses a field-center CSV table.
func ReadFields(r io.Reader) ([]Field, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read field table header: %w", err)
	}
	idx := map[string]int{}
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	idCol, ok1 := idx["field"]
	raCol, ok2 := idx["ra"]
	decCol, ok3 := idx["dec"]
	if !ok1 || !ok2 || !ok3 {
		return nil, fmt.Errorf("field table needs field, ra and dec columns, got %v", header)
	}

	var fields []Field
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read field table: %w", err)
		}
		id, err := strconv.Atoi(strings.TrimSpace(rec[idCol]))
		if err != nil {
			return nil, fmt.Errorf("field table line %d: bad field id: %w", line, err)
		}
		ra, err := strconv.ParseFloat(strings.TrimSpace(rec[raCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("field table line %d: bad ra: %w", line, err)
		}
		dec, err := strconv.ParseFloat(strings.TrimSpace(rec[decCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("field table line %d: bad dec: %w", line, err)
		}
		fields = append(fields, Field{ID: id, RA: ra, Dec: dec})
	}
	return fields, nil
}

// Resolve returns the sorted, unique field ids containing (ra, dec).
func (g *GridResolver) Resolve(ra, dec float64) ([]int, error) {
	if math.IsNaN(ra) || math.IsNaN(dec) || dec < -90 || dec > 90 {
		return nil, fmt.Errorf("position out of range: ra=%v dec=%v", ra, dec)
	}
	ra = math.Mod(ra, 360)
	if ra < 0 {
		ra += 360
	}

	sinD, cosD := math.Sincos(rad(dec))
	var out []int
	for _, f := range g.fields {
		sinD0, cosD0 := math.Sincos(rad(f.Dec))
		sinDA, cosDA := math.Sincos(rad(ra - f.RA))

		cosc := sinD0*sinD + cosD0*cosD*cosDA
		if cosc < g.cosHalfDg {
			continue
		}
		xi := cosD * sinDA / cosc
		eta := (cosD0*sinD - sinD0*cosD*cosDA) / cosc
		if math.Abs(xi) <= g.tanHalfW && math.Abs(eta) <= g.tanHalfH {
			if n := len(out); n == 0 || out[n-1] != f.ID {
				out = append(out, f.ID)
			}
		}
	}
	return out, nil
}

func rad(deg float64) float64 {
	return deg * math.Pi / 180
}
