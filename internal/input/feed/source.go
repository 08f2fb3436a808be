// Package feed loads the FRB VOEvent catalog from a file or over HTTP.
package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"samesky/internal/logger"
	"samesky/internal/timeconv"
	"samesky/internal/transform/voevent"
	"samesky/pkg/models"
)

// DefaultURL is the public CHIME/FRB VOEvent catalog.
const DefaultURL = "https://storage.googleapis.com/chimefrb-dev.appspot.com/voevents/chimefrb_voevent_data.json"

const maxFeedBytes = 256 << 20

// FileSource reads the catalog from a local JSON file.
type FileSource struct {
	Path      string
	Converter timeconv.Converter
}

// Alerts reads and parses the file.
func (s *FileSource) Alerts(ctx context.Context) ([]models.Alert, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read alert feed: %w", err)
	}
	alerts, err := voevent.ParseFeed(data, converterOrDefault(s.Converter))
	if err != nil {
		return nil, err
	}
	logger.Infof("Loaded %d alert records from %s", len(alerts), s.Path)
	return alerts, nil
}

// HTTPConfig configures the HTTP catalog source.
type HTTPConfig struct {
	URL     string
	Timeout time.Duration
	Headers map[string]string
}

// HTTPSource downloads the catalog.
type HTTPSource struct {
	url       string
	headers   map[string]string
	client    *http.Client
	converter timeconv.Converter
}

// NewHTTPSource creates an HTTP catalog source.
func NewHTTPSource(cfg HTTPConfig, conv timeconv.Converter) (*HTTPSource, error) {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPSource{
		url:       cfg.URL,
		headers:   cfg.Headers,
		client:    &http.Client{Timeout: timeout},
		converter: converterOrDefault(conv),
	}, nil
}

// Alerts fetches and parses the catalog.
func (s *HTTPSource) Alerts(ctx context.Context) ([]models.Alert, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("alert feed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("alert feed request failed with status %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read alert feed: %w", err)
	}
	if len(data) > maxFeedBytes {
		return nil, errors.New("alert feed exceeds size limit")
	}

	alerts, err := voevent.ParseFeed(data, s.converter)
	if err != nil {
		return nil, err
	}
	logger.Infof("Fetched %d alert records from %s", len(alerts), s.url)
	return alerts, nil
}

func converterOrDefault(c timeconv.Converter) timeconv.Converter {
	if c == nil {
		return timeconv.UTCConverter{}
	}
	return c
}
