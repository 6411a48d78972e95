// Package analyzer is the entry point for zone export analysis. It detects the provider,
// picks streaming or worker-parallel mode and returns scored records with a run summary.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/dbsmedya/zoneaudit/internal/config"
	"github.com/dbsmedya/zoneaudit/internal/logger"
	"github.com/dbsmedya/zoneaudit/internal/memory"
	"github.com/dbsmedya/zoneaudit/internal/provider"
	"github.com/dbsmedya/zoneaudit/internal/record"
	"github.com/dbsmedya/zoneaudit/internal/rules"
	"github.com/dbsmedya/zoneaudit/internal/source"
	"github.com/dbsmedya/zoneaudit/internal/stream"
	"github.com/dbsmedya/zoneaudit/internal/types"
	"github.com/dbsmedya/zoneaudit/internal/worker"
)

// Mode selects the processing strategy.
type Mode string

const (
	ModeStream      Mode = stream.ModeName
	ModeDistributed Mode = worker.ModeName
	ModeAuto        Mode = "auto"
)

// ParseMode parses a mode name. Empty means auto.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeStream, ModeDistributed, ModeAuto:
		return m, nil
	case "":
		return ModeAuto, nil
	}
	return "", fmt.Errorf("unknown mode %q (expected stream, distributed or auto)", s)
}

// Options are per-call settings. Zero values fall back to the analyzer's configuration.
type Options struct {
	Mode          Mode
	ChunkSize     int
	WorkerCount   int
	MemoryLimitMB int
	OnProgress    func(types.Progress)
	OnWarning     func(types.RowWarning)
	Provider      string // forces an adapter by name, skipping detection
	Zone          string // resolves "@" and relative names
}

// Report is the outcome of an analysis run.
type Report struct {
	Results []rules.Result
	Summary *types.Summary
}

// Analyzer runs analyses with a fixed configuration. It holds no per-run state and can be
// used for several runs, including concurrently.
type Analyzer struct {
	analysis config.AnalysisConfig
	workers  config.WorkerConfig
	memory   config.MemoryConfig
	logger   *logger.Logger
}

// New creates an Analyzer from cfg, applying the named profile when profile is non-empty.
func New(cfg *config.Config, profile string, log *logger.Logger) (*Analyzer, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if log == nil {
		log = logger.NewDefault()
	}

	a := &Analyzer{
		analysis: cfg.Analysis,
		workers:  cfg.Workers,
		memory:   cfg.Memory,
		logger:   log,
	}
	if profile != "" {
		p, err := cfg.GetProfile(profile)
		if err != nil {
			return nil, err
		}
		a.analysis = p.GetProfileAnalysis(cfg.Analysis)
		a.workers = p.GetProfileWorkers(cfg.Workers)
	}
	return a, nil
}

// DetectProvider picks the adapter for headers, trial-parsing samples when the headers are
// not conclusive. A configured provider bypasses detection.
func (a *Analyzer) DetectProvider(headers []string, samples []record.Row) (*provider.Detection, error) {
	return a.detect(headers, samples, a.resolve(Options{Mode: ModeStream}, 0))
}

// ScoreRecord scores a single record.
func (a *Analyzer) ScoreRecord(rec record.Record, rs *rules.RuleSet) rules.Result {
	return rules.Score(rec, rs)
}

// AnalyzeFile analyzes a CSV export on disk. On cancellation or a mid-run failure the
// partial report is returned along with the error.
func (a *Analyzer) AnalyzeFile(ctx context.Context, path string, rs rules.Source, opts Options) (*Report, error) {
	if err := checkRules(rs); err != nil {
		return nil, err
	}

	src, err := source.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := src.Close(); err != nil {
			a.logger.Warnf("Failed to close %s: %v", path, err)
		}
	}()

	return a.run(ctx, src, rs, a.resolve(opts, src.TotalBytes()))
}

// AnalyzeReader analyzes CSV input from r in streaming mode. size is the input length
// for progress reporting, or 0 when unknown.
func (a *Analyzer) AnalyzeReader(ctx context.Context, r io.Reader, size int64, rs rules.Source, opts Options) (*Report, error) {
	if err := checkRules(rs); err != nil {
		return nil, err
	}

	src, err := source.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	opts.Mode = ModeStream
	return a.run(ctx, src, rs, a.resolve(opts, size))
}

func (a *Analyzer) run(ctx context.Context, src *source.Reader, rs rules.Source, opts Options) (*Report, error) {
	samples, err := src.Peek(a.sampleRows())
	if err != nil {
		return nil, fmt.Errorf("failed to sample input: %w", err)
	}
	detection, err := a.detect(src.Headers(), samples, opts)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	log := a.logger.WithRun(runID).WithProvider(detection.Adapter.Name())
	log.Infow("Starting analysis",
		"mode", opts.Mode,
		"confidence", detection.Confidence,
		"detection", detection.Method,
		"rules", rs.Current().Source,
	)

	monitor := memory.NewMonitor(config.MemoryConfig{
		LimitMB:       opts.MemoryLimitMB,
		CheckInterval: a.memory.CheckInterval,
	}, log)

	report := &Report{}
	var summary *types.Summary
	switch opts.Mode {
	case ModeDistributed:
		coordinator, cerr := worker.NewCoordinator(worker.Options{
			Adapter:          detection.Adapter,
			Workers:          opts.WorkerCount,
			ChunkSize:        opts.ChunkSize,
			QueueCapacity:    a.workers.QueueCapacity,
			ProgressInterval: a.analysis.ProgressInterval,
			OnProgress:       opts.OnProgress,
			OnWarning:        opts.OnWarning,
			Monitor:          monitor,
			Logger:           log,
			RunID:            runID,
		})
		if cerr != nil {
			return nil, cerr
		}
		var outcome *worker.Outcome
		outcome, err = coordinator.Process(ctx, src, rs)
		if outcome != nil {
			report.Results = outcome.Results
			summary = outcome.Summary
		}
	default:
		params := stream.ParamsFromConfig(a.analysis)
		params.Initial = opts.ChunkSize
		engine, eerr := stream.NewEngine(stream.Options{
			Adapter:          detection.Adapter,
			Rules:            rs,
			Params:           params,
			ProgressInterval: a.analysis.ProgressInterval,
			OnProgress:       opts.OnProgress,
			OnWarning:        opts.OnWarning,
			Monitor:          monitor,
			Logger:           log,
			RunID:            runID,
		})
		if eerr != nil {
			return nil, eerr
		}
		summary, err = engine.Process(ctx, src, func(chunk []rules.Result) error {
			report.Results = append(report.Results, chunk...)
			return nil
		})
	}

	if summary != nil {
		summary.Provider = detection.Adapter.Name()
		summary.Confidence = detection.Confidence
		summary.DetectionMethod = detection.Method
		report.Summary = summary
	}
	if err != nil {
		return report, err
	}
	if report.Results == nil {
		report.Results = []rules.Result{}
	}
	return report, nil
}

// resolve fills unset options from configuration. Auto mode is decided from size.
func (a *Analyzer) resolve(opts Options, size int64) Options {
	if opts.Mode == "" {
		opts.Mode = Mode(a.analysis.Mode)
	}
	if opts.Mode == "" || opts.Mode == ModeAuto {
		opts.Mode = a.chooseMode(size)
	}
	if opts.Provider == "" {
		opts.Provider = a.analysis.Provider
	}
	if opts.Zone == "" {
		opts.Zone = a.analysis.Zone
	}
	if opts.ChunkSize <= 0 {
		if opts.Mode == ModeDistributed {
			opts.ChunkSize = a.workers.ChunkSize
		} else {
			opts.ChunkSize = a.analysis.ChunkSize
		}
	}
	if opts.WorkerCount <= 0 {
		opts.WorkerCount = a.workers.Count
	}
	if opts.MemoryLimitMB <= 0 {
		opts.MemoryLimitMB = a.memory.LimitMB
	}
	return opts
}

func (a *Analyzer) chooseMode(size int64) Mode {
	threshold := int64(a.analysis.DistributedThresholdMB) * 1024 * 1024
	if threshold > 0 && size >= threshold {
		return ModeDistributed
	}
	return ModeStream
}

func (a *Analyzer) sampleRows() int {
	if a.analysis.SampleRows > 0 {
		return a.analysis.SampleRows
	}
	return config.DefaultConfig().Analysis.SampleRows
}

func (a *Analyzer) detect(headers []string, samples []record.Row, opts Options) (*provider.Detection, error) {
	detector := provider.NewDetector(provider.DefaultRegistry(provider.Options{Zone: opts.Zone}), a.logger)
	if opts.Provider != "" {
		return detector.ByName(opts.Provider)
	}
	detection, err := detector.Detect(headers, samples)
	if err != nil {
		return nil, err
	}
	return detection, nil
}

// checkRules re-validates the caller's rule set before any input is read.
func checkRules(rs rules.Source) error {
	if rs == nil {
		return errors.New("a rule set is required")
	}
	return rs.Current().Validate()
}

// fileSize returns the size of path, or 0 if it cannot be determined.
func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
