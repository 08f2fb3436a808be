// samesky cross-matches CHIME/FRB alerts with the ZTF completed-observation
// log and reports the observations of an FRB's field taken close in time.
//
// Usage:
//
//	samesky match -c samesky.yml -t 1440 --from 2021-10-09
//	samesky fields --ra 180.5 --dec 30.2
//	samesky summarize --input output/matches.jsonl
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"samesky/config"
	"samesky/internal/crossmatch"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configArg string
	rootCmd := &cobra.Command{
		Use:   "samesky",
		Short: "Find ZTF observations of FRB fields taken close in time",
		Long: `samesky reads the CHIME/FRB VOEvent catalog, drops retracted events,
keeps the events detected inside a date range and lists the ZTF exposures
of each event's field taken within a time window of the detection.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configArg, "config", "c", "", "Path to samesky.yml")

	rootCmd.AddCommand(matchCmd(&configArg))
	rootCmd.AddCommand(fieldsCmd(&configArg))
	rootCmd.AddCommand(summarizeCmd())
	return rootCmd
}

func findConfigFile(configArg string) string {
	if configArg != "" {
		path := configArg
		if _, err := os.Stat(path); err == nil {
			return path
		}
		log.Printf("Warning: config file not found at %s, trying default locations", path)
	}

	if _, err := os.Stat("samesky.yml"); err == nil {
		return "samesky.yml"
	}

	exePath, err := os.Executable()
	if err == nil {
		exeDir := filepath.Dir(exePath)
		path := filepath.Join(exeDir, "samesky.yml")
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadConfig reads the config file if one is found. Without a file every
// setting falls back to its default.
func loadConfig(configArg string) (*config.Config, string, error) {
	path := findConfigFile(configArg)
	cfg := &config.Config{}
	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, path, fmt.Errorf("failed to load config %s: %w", path, err)
		}
		cfg = loaded
	}
	applyDefaults(cfg)
	return cfg, path, nil
}

func applyDefaults(cfg *config.Config) {
	s := &cfg.SameSky

	if s.Match.ThresholdMinutes == 0 {
		s.Match.ThresholdMinutes = 1440
	}
	if strings.TrimSpace(s.Match.From) == "" {
		s.Match.From = crossmatch.DefaultFromDate
	}

	if s.Alerts.Source == "" {
		s.Alerts.Source = "http"
	}
	if s.Alerts.Timeout <= 0 {
		s.Alerts.Timeout = 60 * time.Second
	}
	if s.Alerts.Redis.Addr == "" {
		s.Alerts.Redis.Addr = "127.0.0.1:6379"
	}
	if s.Alerts.Redis.Key == "" {
		s.Alerts.Redis.Key = "chime_voevents"
	}

	if s.Footprint.FieldsPath == "" {
		s.Footprint.FieldsPath = "ztf_fields.csv"
	}
	if s.Footprint.HalfWidthDeg <= 0 {
		s.Footprint.HalfWidthDeg = 3.75
	}
	if s.Footprint.HalfHeightDeg <= 0 {
		s.Footprint.HalfHeightDeg = 3.65
	}

	if s.Observations.Source == "" {
		s.Observations.Source = "dir"
	}
	if s.Observations.Dir.Path == "" {
		s.Observations.Dir.Path = "obslogs"
	}
	if s.Observations.Postgres.Table == "" {
		s.Observations.Postgres.Table = "ztf_observations"
	}
	if s.Observations.Cache.Addr == "" {
		s.Observations.Cache.Addr = "127.0.0.1:6379"
	}
	if s.Observations.Cache.KeyPrefix == "" {
		s.Observations.Cache.KeyPrefix = "samesky"
	}
	if s.Observations.Cache.TTL <= 0 {
		s.Observations.Cache.TTL = 24 * time.Hour
	}

	if s.Output.ReportDir == "" {
		s.Output.ReportDir = "."
	}
	if s.Output.Export.Mode == "" {
		s.Output.Export.Mode = "csv"
	}
	if s.Output.Export.ClickHouse.Database == "" {
		s.Output.Export.ClickHouse.Database = "samesky"
	}
	if s.Output.Export.ClickHouse.Table == "" {
		s.Output.Export.ClickHouse.Table = "frb_ztf_matches"
	}

	if s.Metrics.Job == "" {
		s.Metrics.Job = "samesky"
	}

	if s.Logging.Level == "" {
		s.Logging.Level = "info"
	}
}
