package matchclickhouse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"samesky/pkg/models"
)

// Config configures the ClickHouse HTTP writer.
type Config struct {
	URL      string
	Database string
	Table    string
	Username string
	Password string
	Timeout  time.Duration
	Headers  map[string]string
	RunID    string
}

// Writer sends matches to ClickHouse via HTTP JSONEachRow.
type Writer struct {
	endpoint string
	headers  map[string]string
	client   *http.Client
	runID    string
}

type row struct {
	RunID        string  `json:"run_id"`
	EventID      string  `json:"event_id"`
	FRBJD        float64 `json:"FRB_jd"`
	FRBDate      string  `json:"FRB_date"`
	FRBTime      string  `json:"FRB_time"`
	ZTFDatetime  string  `json:"ztf_datetime"`
	Exposure     float64 `json:"exposure"`
	ZTFJD        float64 `json:"ztf_jd"`
	DeltaMinutes float64 `json:"delta_min"`
}

// NewWriter creates a ClickHouse HTTP writer.
func NewWriter(cfg Config) (*Writer, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("clickhouse URL is empty")
	}
	if cfg.Database == "" {
		cfg.Database = "default"
	}
	if cfg.Table == "" {
		cfg.Table = "frb_ztf_matches"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	q := fmt.Sprintf("INSERT INTO %s.%s FORMAT JSONEachRow", quoteIdent(cfg.Database), quoteIdent(cfg.Table))
	base := strings.TrimRight(cfg.URL, "/")
	endpoint := base + "/?query=" + url.QueryEscape(q)

	headers := map[string]string{}
	for k, v := range cfg.Headers {
		headers[k] = v
	}
	if cfg.Username != "" {
		headers["X-ClickHouse-User"] = cfg.Username
	}
	if cfg.Password != "" {
		headers["X-ClickHouse-Key"] = cfg.Password
	}

	return &Writer{
		endpoint: endpoint,
		headers:  headers,
		client:   &http.Client{Timeout: timeout},
		runID:    cfg.RunID,
	}, nil
}

// WriteMatches inserts the match table.
func (w *Writer) WriteMatches(ctx context.Context, matches []models.Match) error {
	if len(matches) == 0 {
		return nil
	}

	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	for _, m := range matches {
		r := row{
			RunID:        w.runID,
			EventID:      m.EventID,
			FRBJD:        m.FRBJD,
			FRBDate:      m.FRBDate.String(),
			FRBTime:      m.FRBTime,
			ZTFDatetime:  m.ZTFDatetime.UTC().Format(models.DatetimeLayout),
			Exposure:     m.Exposure,
			ZTFJD:        m.ZTFJD,
			DeltaMinutes: m.DeltaMinutes,
		}
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("failed to marshal match: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, &body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("clickhouse request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= 300 {
		return fmt.Errorf("clickhouse request failed with status %s: %s", resp.Status, strings.TrimSpace(string(respBody)))
	}
	return nil
}

// Close releases resources.
func (w *Writer) Close() error {
	return nil
}

func quoteIdent(v string) string {
	if v == "" {
		return ""
	}
	v = strings.ReplaceAll(v, "`", "")
	return "`" + v + "`"
}
