package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
samesky:
  match:
    threshold_minutes: 90
    from: "2021-10-09"
    to: "2022-01-31"
  alerts:
    source: file
    path: data/chime_voe.json
  footprint:
    fields_path: data/ztf_fields.csv
  observations:
    source: postgres
    postgres:
      url: postgres://ztf@localhost/ztf
      table: ztf_observations
    cache:
      enabled: true
      addr: 127.0.0.1:6379
      ttl: 12h
  output:
    report_dir: out
    export:
      mode: xlsx
      path: out/matches.xlsx
      clickhouse:
        headers:
          X-Trace: "1"
  metrics:
    textfile: /var/lib/node_exporter/samesky.prom
  logging:
    enabled: true
    level: debug
    console: true
`

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "samesky.yml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	s := cfg.SameSky
	assert.Equal(t, 90.0, s.Match.ThresholdMinutes)
	assert.Equal(t, "2022-01-31", s.Match.To)
	assert.Equal(t, "file", s.Alerts.Source)
	assert.Equal(t, "postgres", s.Observations.Source)
	assert.Equal(t, "ztf_observations", s.Observations.Postgres.Table)
	assert.True(t, s.Observations.Cache.Enabled)
	assert.Equal(t, 12*time.Hour, s.Observations.Cache.TTL)
	assert.Equal(t, "xlsx", s.Output.Export.Mode)
	assert.Equal(t, "1", s.Output.Export.ClickHouse.Headers["X-Trace"])
	assert.Equal(t, "debug", s.Logging.Level)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yml")
	require.NoError(t, os.WriteFile(path, []byte("samesky: [unclosed"), 0644))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}
