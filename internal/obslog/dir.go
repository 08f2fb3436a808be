package obslog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"samesky/internal/timeconv"
	"samesky/pkg/models"
)

// DirProvider reads one CSV log per date from a directory (<dir>/<YYYY-MM-DD>.csv).
// Columns: field, obsjd, exptime and an optional datetime.
type DirProvider struct {
	dir string
}

// NewDirProvider creates a directory-backed provider.
func NewDirProvider(dir string) (*DirProvider, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("observation log directory is empty")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat observation log directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("observation log path is not a directory: %s", dir)
	}
	return &DirProvider{dir: dir}, nil
}

// ForDate loads the log file for date.
func (p *DirProvider) ForDate(ctx context.Context, date models.Date) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	path := filepath.Join(p.dir, date.String()+".csv")
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Unavailable("no log file for " + date.String()), nil
	}
	if err != nil {
		return Unavailable(fmt.Sprintf("open %s: %v", path, err)), nil
	}
	defer f.Close()

	obs, err := ReadCSV(f)
	if err != nil {
		return Malformed(fmt.Sprintf("%s: %v", path, err)), nil
	}
	return OK(obs), nil
}

// ReadCSV parses an observation log table.
func ReadCSV(r io.Reader) ([]models.Observation, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := map[string]int{}
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	fieldCol, ok1 := idx["field"]
	jdCol, ok2 := idx["obsjd"]
	expCol, ok3 := idx["exptime"]
	if !ok1 || !ok2 || !ok3 {
		return nil, fmt.Errorf("log needs field, obsjd and exptime columns, got %v", header)
	}
	dtCol, hasDT := idx["datetime"]

	obs := make([]models.Observation, 0, 256)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		field, err := strconv.Atoi(strings.TrimSpace(rec[fieldCol]))
		if err != nil {
			return nil, fmt.Errorf("line %d: bad field: %w", line, err)
		}
		jd, err := strconv.ParseFloat(strings.TrimSpace(rec[jdCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad obsjd: %w", line, err)
		}
		exp, err := strconv.ParseFloat(strings.TrimSpace(rec[expCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad exptime: %w", line, err)
		}
		o := models.Observation{FieldID: field, ObsJD: jd, ExposureSeconds: exp}
		if hasDT {
			if t, ok := timeconv.ParseEpoch(rec[dtCol]); ok {
				o.ObsTime = t
			}
		}
		if o.ObsTime.IsZero() {
			o.ObsTime = timeconv.TimeFromJD(jd)
		}
		obs = append(obs, o)
	}
	return obs, nil
}
