package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"samesky/internal/crossmatch"
	"samesky/internal/footprint"
	"samesky/internal/logger"
	"samesky/internal/metrics"
	"samesky/internal/obslog"
	"samesky/internal/rules"
	"samesky/pkg/models"
)

// Options wires a cross-match run.
type Options struct {
	Source   AlertSource
	Resolver footprint.Resolver
	Provider obslog.Provider
	Rules    rules.Engine
	Writer   MatchWriter
	Metrics  *metrics.Recorder

	Range            crossmatch.DateRange
	ThresholdMinutes float64
	RunID            string

	// Report receives the narrative report; nil disables it.
	Report io.Writer
}

// Summary describes a finished run.
type Summary struct {
	RunID         string
	Loaded        int
	Retracted     int
	InRange       int
	Excluded      int
	Processed     int
	MatchedAlerts int
	Matches       []models.Match
	Skipped       []crossmatch.Skip
	Duration      time.Duration
}

// CrossMatchPipeline runs alerts through the filters and the engine in
// catalog order and exports the match table at the end.
type CrossMatchPipeline struct {
	source  AlertSource
	engine  *crossmatch.Engine
	rules   rules.Engine
	writer  MatchWriter
	metrics *metrics.Recorder
	rng     crossmatch.DateRange
	runID   string
	report  io.Writer
}

// NewCrossMatchPipeline validates the options and builds the engine.
func NewCrossMatchPipeline(opts Options) (*CrossMatchPipeline, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("pipeline needs an alert source")
	}
	if opts.Range.To.Before(opts.Range.From) {
		return nil, &crossmatch.InputError{Field: "date range", Value: opts.Range.From.String() + " : " + opts.Range.To.String(), Err: fmt.Errorf("from is after to")}
	}
	engine, err := crossmatch.NewEngine(opts.Resolver, opts.Provider, opts.ThresholdMinutes)
	if err != nil {
		return nil, err
	}
	return &CrossMatchPipeline{
		source:  opts.Source,
		engine:  engine,
		rules:   opts.Rules,
		writer:  opts.Writer,
		metrics: opts.Metrics,
		rng:     opts.Range,
		runID:   opts.RunID,
		report:  opts.Report,
	}, nil
}

// Run processes the whole catalog once. A skipped alert never fails the
// run; source, engine and writer errors do.
func (p *CrossMatchPipeline) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	sum := Summary{RunID: p.runID}
	logger.Infof("Cross-match run %s started: range=%s:%s threshold=%gmin", p.runID, p.rng.From, p.rng.To, p.engine.Threshold())

	all, err := p.source.Alerts(ctx)
	if err != nil {
		return sum, fmt.Errorf("load alerts: %w", err)
	}
	sum.Loaded = len(all)
	p.metrics.Alerts(metrics.StageLoaded, len(all))

	kept := crossmatch.RemoveRetracted(all)
	sum.Retracted = len(all) - len(kept)
	p.metrics.Alerts(metrics.StageRetracted, sum.Retracted)
	if sum.Retracted > 0 {
		logger.Infof("Dropped %d records of retracted events", sum.Retracted)
	}

	candidates := crossmatch.FilterDateRange(kept, p.rng)
	sum.InRange = len(candidates)
	p.metrics.Alerts(metrics.StageInRange, len(candidates))

	candidates, excluded := rules.Exclude(p.rules, candidates)
	for id, hits := range excluded {
		for _, h := range hits {
			logger.Infof("Event %s excluded by rule %s (%s)", id, h.ID, h.Name)
		}
	}
	sum.Excluded = sum.InRange - len(candidates)
	p.metrics.Alerts(metrics.StageExcluded, sum.Excluded)

	agg, err := crossmatch.NewAggregator(p.report, crossmatch.Header{
		RunID:            p.runID,
		AlertCount:       sum.InRange,
		Range:            p.rng,
		ThresholdMinutes: p.engine.Threshold(),
	})
	if err != nil {
		return sum, err
	}

	for _, alert := range candidates {
		if err := ctx.Err(); err != nil {
			return p.finish(sum, agg, start), err
		}
		outcome, err := p.engine.Match(ctx, alert)
		if err != nil {
			return p.finish(sum, agg, start), fmt.Errorf("match event %s: %w", alert.EventID, err)
		}
		if outcome.Skipped {
			logger.Warnf("Skipping event %s: observation log for %s is %s: %s", alert.EventID, alert.DetectionDate, outcome.LogStatus, outcome.SkipReason)
			p.metrics.Skipped(outcome.LogStatus.String())
		} else if len(outcome.Matches) > 0 {
			logger.Debugf("Event %s: %d coincident observations in fields %v", alert.EventID, len(outcome.Matches), outcome.Fields)
			p.metrics.Alerts(metrics.StageMatched, 1)
			p.metrics.Matches(len(outcome.Matches))
		}
		if err := agg.Add(outcome); err != nil {
			return p.finish(sum, agg, start), err
		}
	}

	sum = p.finish(sum, agg, start)
	if p.writer != nil {
		if err := p.writer.WriteMatches(ctx, sum.Matches); err != nil {
			return sum, fmt.Errorf("export matches: %w", err)
		}
	}

	logger.Infof("Cross-match run %s finished: alerts=%d matched=%d rows=%d skipped=%d in %s",
		p.runID, sum.Processed, sum.MatchedAlerts, len(sum.Matches), len(sum.Skipped), sum.Duration.Round(time.Millisecond))
	return sum, nil
}

func (p *CrossMatchPipeline) finish(sum Summary, agg *crossmatch.Aggregator, start time.Time) Summary {
	sum.Processed = agg.Processed()
	sum.MatchedAlerts = agg.MatchedAlerts()
	sum.Matches = agg.Rows()
	sum.Skipped = agg.Skipped()
	sum.Duration = time.Since(start)
	p.metrics.ObserveDuration(sum.Duration)
	return sum
}

// Close releases the writer and any closable source.
func (p *CrossMatchPipeline) Close() error {
	var firstErr error
	if p.writer != nil {
		if err := p.writer.Close(); err != nil {
			logger.Errorf("Failed to close match writer: %v", err)
			firstErr = err
		}
	}
	if c, ok := p.source.(io.Closer); ok {
		if err := c.Close(); err != nil {
			logger.Errorf("Failed to close alert source: %v", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// CountLookups records every lookup that reaches inner in
// samesky_obslog_requests_total. Wrap it inside any memo so repeated dates
// are counted once.
func CountLookups(inner obslog.Provider, rec *metrics.Recorder) obslog.Provider {
	return &countingProvider{inner: inner, metrics: rec}
}

type countingProvider struct {
	inner   obslog.Provider
	metrics *metrics.Recorder
}

func (c *countingProvider) ForDate(ctx context.Context, date models.Date) (obslog.Result, error) {
	res, err := c.inner.ForDate(ctx, date)
	if err != nil {
		c.metrics.ObslogRequest("error")
		return res, err
	}
	c.metrics.ObslogRequest(res.Status.String())
	return res, nil
}
