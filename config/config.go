package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	SameSky SameSkyConfig `yaml:"samesky"`
}

// SameSkyConfig is the project configuration.
type SameSkyConfig struct {
	Match        MatchConfig        `yaml:"match"`
	Alerts       AlertsConfig       `yaml:"alerts"`
	Footprint    FootprintConfig    `yaml:"footprint"`
	Observations ObservationsConfig `yaml:"observations"`
	Rules        RulesConfig        `yaml:"rules"`
	Output       OutputConfig       `yaml:"output"`
	Metrics      MetricsConfig      `yaml:"metrics"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// MatchConfig controls the coincidence window and the alert date range.
type MatchConfig struct {
	ThresholdMinutes float64 `yaml:"threshold_minutes"`
	From             string  `yaml:"from"`
	To               string  `yaml:"to"`
}

// AlertsConfig controls where the FRB catalog is read from.
type AlertsConfig struct {
	Source  string        `yaml:"source"` // http|file|redis
	URL     string        `yaml:"url"`
	Path    string        `yaml:"path"`
	Timeout time.Duration `yaml:"timeout"`
	Redis   RedisConfig   `yaml:"redis"`
}

// RedisConfig controls a Redis connection.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Key      string        `yaml:"key"`
	Timeout  time.Duration `yaml:"timeout"`
}

// FootprintConfig controls field resolution.
type FootprintConfig struct {
	FieldsPath    string  `yaml:"fields_path"`
	HalfWidthDeg  float64 `yaml:"half_width_deg"`
	HalfHeightDeg float64 `yaml:"half_height_deg"`
}

// ObservationsConfig controls the observation log provider.
type ObservationsConfig struct {
	Source   string         `yaml:"source"` // dir|postgres
	Dir      DirConfig      `yaml:"dir"`
	Postgres PostgresConfig `yaml:"postgres"`
	Cache    CacheConfig    `yaml:"cache"`
}

// DirConfig points at per-date observation CSV files.
type DirConfig struct {
	Path string `yaml:"path"`
}

// PostgresConfig points at an observation log table.
type PostgresConfig struct {
	URL   string `yaml:"url"`
	Table string `yaml:"table"`
}

// CacheConfig controls the Redis cache in front of the observation log.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Addr      string        `yaml:"addr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	KeyPrefix string        `yaml:"key_prefix"`
	TTL       time.Duration `yaml:"ttl"`
}

// RulesConfig controls Sigma exclusion rules.
type RulesConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// OutputConfig controls the report and the match export.
type OutputConfig struct {
	ReportDir string       `yaml:"report_dir"`
	Export    ExportConfig `yaml:"export"`
}

// ExportConfig controls the match table sink.
type ExportConfig struct {
	Mode       string                 `yaml:"mode"` // csv|xlsx|jsonl|clickhouse|http
	Path       string                 `yaml:"path"`
	HTTP       HTTPOutputConfig       `yaml:"http"`
	ClickHouse ClickHouseOutputConfig `yaml:"clickhouse"`
}

// ClickHouseOutputConfig config for ClickHouse HTTP JSONEachRow writes.
type ClickHouseOutputConfig struct {
	URL      string            `yaml:"url"`
	Database string            `yaml:"database"`
	Table    string            `yaml:"table"`
	Username string            `yaml:"username"`
	Password string            `yaml:"password"`
	Timeout  time.Duration     `yaml:"timeout"`
	Headers  map[string]string `yaml:"headers"`
}

// HTTPOutputConfig config for remote output.
type HTTPOutputConfig struct {
	URL     string            `yaml:"url"`
	Timeout time.Duration     `yaml:"timeout"`
	Headers map[string]string `yaml:"headers"`
}

// MetricsConfig controls where run metrics go.
type MetricsConfig struct {
	Textfile       string `yaml:"textfile"`
	PushgatewayURL string `yaml:"pushgateway_url"`
	Job            string `yaml:"job"`
}

// LoggingConfig controls logging output.
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
	File    string `yaml:"file"`
	Console bool   `yaml:"console"`
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
