package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"samesky/config"
	"samesky/internal/crossmatch"
	"samesky/internal/footprint"
	"samesky/internal/input/feed"
	inputredis "samesky/internal/input/redis"
	"samesky/internal/logger"
	"samesky/internal/metrics"
	"samesky/internal/obslog"
	"samesky/internal/output/matchclickhouse"
	"samesky/internal/output/matchcsv"
	"samesky/internal/output/matchhttp"
	"samesky/internal/output/matchjson"
	"samesky/internal/output/matchxlsx"
	"samesky/internal/pipeline"
	"samesky/internal/rules"
	"samesky/internal/timeconv"
)

// ReportFile is the narrative report name inside the report directory.
const ReportFile = "frb.txt"

const metricsPushTimeout = 10 * time.Second

type matchFlags struct {
	threshold  float64
	from       string
	to         string
	reportDir  string
	exportPath string
	exportMode string
}

func matchCmd(configArg *string) *cobra.Command {
	var f matchFlags
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Cross-match FRB alerts with the ZTF observation log",
		Long: `Cross-match FRB alerts with the ZTF completed-observation log.

Writes the narrative report to <report_dir>/frb.txt and the match table
to the configured export.

Examples:
  # One day window since the start of the public catalog
  samesky match -c samesky.yml

  # One hour window, November 2021 only, exported as XLSX
  samesky match -t 60 --from 2021-11-01 --to 2021-11-30 --export-mode xlsx --export out/nov.xlsx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := loadConfig(*configArg)
			if err != nil {
				return err
			}
			applyMatchFlags(cmd, cfg, f)
			return runMatch(cmd.Context(), cfg, path, cmd.OutOrStdout())
		},
	}

	cmd.Flags().Float64VarP(&f.threshold, "threshold", "t", 0, "Time window in minutes on either side of the detection")
	cmd.Flags().StringVar(&f.from, "from", "", "First detection date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.to, "to", "", "Last detection date (YYYY-MM-DD), default today")
	cmd.Flags().StringVarP(&f.reportDir, "report-dir", "o", "", "Directory for frb.txt")
	cmd.Flags().StringVar(&f.exportPath, "export", "", "Match table export path")
	cmd.Flags().StringVar(&f.exportMode, "export-mode", "", "Export mode: csv, xlsx, jsonl, clickhouse, http")
	return cmd
}

func applyMatchFlags(cmd *cobra.Command, cfg *config.Config, f matchFlags) {
	s := &cfg.SameSky
	if cmd.Flags().Changed("threshold") {
		s.Match.ThresholdMinutes = f.threshold
	}
	if cmd.Flags().Changed("from") {
		s.Match.From = f.from
	}
	if cmd.Flags().Changed("to") {
		s.Match.To = f.to
	}
	if cmd.Flags().Changed("report-dir") {
		s.Output.ReportDir = f.reportDir
	}
	if cmd.Flags().Changed("export") {
		s.Output.Export.Path = f.exportPath
	}
	if cmd.Flags().Changed("export-mode") {
		s.Output.Export.Mode = f.exportMode
	}
}

func runMatch(ctx context.Context, cfg *config.Config, configPath string, stdout io.Writer) error {
	s := cfg.SameSky
	if err := logger.Init(s.Logging.Enabled, s.Logging.Level, s.Logging.File, s.Logging.Console); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	logger.Infof("SameSky starting")
	if configPath != "" {
		logger.Infof("Config loaded from: %s", configPath)
	}

	rng, err := crossmatch.ParseDateRange(s.Match.From, s.Match.To)
	if err != nil {
		return err
	}
	if err := crossmatch.ValidateThreshold(s.Match.ThresholdMinutes); err != nil {
		return err
	}
	if err := validateExport(s.Output.Export); err != nil {
		return err
	}

	runID := uuid.NewString()
	rec := metrics.NewRecorder()
	conv := timeconv.UTCConverter{}

	source, err := buildAlertSource(s.Alerts, conv)
	if err != nil {
		return err
	}

	fields, err := footprint.LoadFields(s.Footprint.FieldsPath)
	if err != nil {
		return fmt.Errorf("failed to load ZTF fields: %w", err)
	}
	resolver, err := footprint.NewGridResolver(fields, footprint.Config{
		HalfWidthDeg:  s.Footprint.HalfWidthDeg,
		HalfHeightDeg: s.Footprint.HalfHeightDeg,
	})
	if err != nil {
		return fmt.Errorf("failed to build footprint resolver: %w", err)
	}
	logger.Infof("Footprint: %d fields from %s", len(fields), s.Footprint.FieldsPath)

	provider, closeProvider, err := buildProvider(ctx, s.Observations)
	if err != nil {
		return err
	}
	defer closeProvider()

	engine, err := buildRules(s.Rules)
	if err != nil {
		return err
	}

	writer, err := buildMatchWriter(s.Output.Export, runID)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.Output.ReportDir, 0755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	reportPath := filepath.Join(s.Output.ReportDir, ReportFile)
	report, err := os.Create(reportPath)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer report.Close()

	pipe, err := pipeline.NewCrossMatchPipeline(pipeline.Options{
		Source:           source,
		Resolver:         resolver,
		Provider:         obslog.NewMemo(pipeline.CountLookups(provider, rec)),
		Rules:            engine,
		Writer:           writer,
		Metrics:          rec,
		Range:            rng,
		ThresholdMinutes: s.Match.ThresholdMinutes,
		RunID:            runID,
		Report:           report,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := pipe.Close(); err != nil {
			logger.Errorf("Error closing pipeline: %v", err)
		}
	}()

	sum, runErr := pipe.Run(ctx)
	flushMetrics(rec, s.Metrics)
	if runErr != nil {
		logger.Errorf("Cross-match run %s failed: %v", runID, runErr)
		return runErr
	}

	fmt.Fprintf(stdout, "run=%s alerts=%d matched=%d matches=%d skipped=%d report=%s export=%s\n",
		sum.RunID, sum.Processed, sum.MatchedAlerts, len(sum.Matches), len(sum.Skipped), reportPath, exportTarget(s.Output.Export))
	logger.Infof("SameSky stopped")
	return nil
}

func validateExport(cfg config.ExportConfig) error {
	switch cfg.Mode {
	case "csv", "xlsx", "jsonl":
		if strings.TrimSpace(cfg.Path) == "" {
			return fmt.Errorf("output.export.path is required for %s export", cfg.Mode)
		}
	case "clickhouse":
		if strings.TrimSpace(cfg.ClickHouse.URL) == "" {
			return fmt.Errorf("output.export.clickhouse.url is required for clickhouse export")
		}
	case "http":
		if strings.TrimSpace(cfg.HTTP.URL) == "" {
			return fmt.Errorf("output.export.http.url is required for http export")
		}
	default:
		return fmt.Errorf("unknown export mode: %s", cfg.Mode)
	}
	return nil
}

func exportTarget(cfg config.ExportConfig) string {
	switch cfg.Mode {
	case "clickhouse":
		return cfg.ClickHouse.URL
	case "http":
		return cfg.HTTP.URL
	default:
		return cfg.Path
	}
}

func buildAlertSource(cfg config.AlertsConfig, conv timeconv.Converter) (pipeline.AlertSource, error) {
	switch cfg.Source {
	case "http":
		src, err := feed.NewHTTPSource(feed.HTTPConfig{URL: cfg.URL, Timeout: cfg.Timeout}, conv)
		if err != nil {
			return nil, fmt.Errorf("failed to create feed source: %w", err)
		}
		logger.Infof("Alert source: http (%s)", firstNonEmpty(cfg.URL, feed.DefaultURL))
		return src, nil
	case "file":
		if strings.TrimSpace(cfg.Path) == "" {
			return nil, fmt.Errorf("alerts.path is required for file source")
		}
		logger.Infof("Alert source: file (%s)", cfg.Path)
		return &feed.FileSource{Path: cfg.Path, Converter: conv}, nil
	case "redis":
		c, err := inputredis.NewConsumer(inputredis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Key:      cfg.Redis.Key,
			Timeout:  cfg.Redis.Timeout,
		}, conv)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis alert source: %w", err)
		}
		logger.Infof("Alert source: redis (%s %s)", cfg.Redis.Addr, cfg.Redis.Key)
		return c, nil
	default:
		return nil, fmt.Errorf("unknown alert source: %s", cfg.Source)
	}
}

func buildProvider(ctx context.Context, cfg config.ObservationsConfig) (obslog.Provider, func(), error) {
	var provider obslog.Provider
	var closers []func() error

	switch cfg.Source {
	case "dir":
		p, err := obslog.NewDirProvider(cfg.Dir.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open observation log directory: %w", err)
		}
		provider = p
		logger.Infof("Observation log: dir (%s)", cfg.Dir.Path)
	case "postgres":
		p, err := obslog.NewPostgresProvider(ctx, obslog.PostgresConfig{URL: cfg.Postgres.URL, Table: cfg.Postgres.Table})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect observation log database: %w", err)
		}
		provider = p
		closers = append(closers, p.Close)
		logger.Infof("Observation log: postgres (%s)", cfg.Postgres.Table)
	default:
		return nil, nil, fmt.Errorf("unknown observation source: %s", cfg.Source)
	}

	if cfg.Cache.Enabled {
		cache, err := obslog.NewRedisCache(obslog.RedisConfig{
			Addr:      cfg.Cache.Addr,
			Password:  cfg.Cache.Password,
			DB:        cfg.Cache.DB,
			KeyPrefix: cfg.Cache.KeyPrefix,
			TTL:       cfg.Cache.TTL,
		}, provider)
		if err != nil {
			logger.Warnf("Observation log cache disabled: %v", err)
		} else {
			provider = cache
			closers = append(closers, cache.Close)
			logger.Infof("Observation log cache: redis (%s)", cfg.Cache.Addr)
		}
	}

	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Errorf("Failed to close observation log: %v", err)
			}
		}
	}
	return provider, closeAll, nil
}

func buildRules(cfg config.RulesConfig) (rules.Engine, error) {
	if !cfg.Enabled {
		return &rules.NoopEngine{}, nil
	}
	if strings.TrimSpace(cfg.Path) == "" {
		logger.Warnf("Rules enabled but rules.path is empty; exclusion disabled")
		return &rules.NoopEngine{}, nil
	}
	engine, stats, err := rules.NewSigmaEngine(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load Sigma rules from %s: %w", cfg.Path, err)
	}
	logger.Infof("Sigma rules loaded: loaded=%d skipped_complex=%d skipped_datasource=%d skipped_invalid=%d files=%d",
		stats.Loaded,
		stats.SkippedComplex,
		stats.SkippedDatasource,
		stats.SkippedInvalid,
		stats.TotalFiles,
	)
	if stats.Loaded == 0 {
		logger.Warnf("No compatible Sigma rules loaded; exclusion is effectively disabled")
		return &rules.NoopEngine{}, nil
	}
	return engine, nil
}

func buildMatchWriter(cfg config.ExportConfig, runID string) (pipeline.MatchWriter, error) {
	var (
		w   pipeline.MatchWriter
		err error
	)
	switch cfg.Mode {
	case "csv":
		w, err = matchcsv.NewWriter(cfg.Path)
	case "xlsx":
		w, err = matchxlsx.NewWriter(cfg.Path)
	case "jsonl":
		w, err = matchjson.NewWriter(cfg.Path)
	case "clickhouse":
		w, err = matchclickhouse.NewWriter(matchclickhouse.Config{
			URL:      cfg.ClickHouse.URL,
			Database: cfg.ClickHouse.Database,
			Table:    cfg.ClickHouse.Table,
			Username: cfg.ClickHouse.Username,
			Password: cfg.ClickHouse.Password,
			Timeout:  cfg.ClickHouse.Timeout,
			Headers:  cfg.ClickHouse.Headers,
			RunID:    runID,
		})
	case "http":
		w, err = matchhttp.NewWriter(matchhttp.Config{
			URL:     cfg.HTTP.URL,
			Timeout: cfg.HTTP.Timeout,
			Headers: cfg.HTTP.Headers,
			RunID:   runID,
		})
	default:
		return nil, fmt.Errorf("unknown export mode: %s", cfg.Mode)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s match writer: %w", cfg.Mode, err)
	}
	logger.Infof("Export mode: %s (%s)", cfg.Mode, exportTarget(cfg))
	return w, nil
}

func flushMetrics(rec *metrics.Recorder, cfg config.MetricsConfig) {
	if err := rec.WriteTextfile(cfg.Textfile); err != nil {
		logger.Errorf("Failed to write metrics: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), metricsPushTimeout)
	defer cancel()
	if err := rec.Push(ctx, cfg.PushgatewayURL, cfg.Job); err != nil {
		logger.Errorf("Failed to push metrics: %v", err)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
