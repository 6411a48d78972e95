// Package stream runs the single-goroutine analysis loop with adaptive chunk sizing.
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dbsmedya/zoneaudit/internal/config"
	"github.com/dbsmedya/zoneaudit/internal/logger"
	"github.com/dbsmedya/zoneaudit/internal/memory"
	"github.com/dbsmedya/zoneaudit/internal/provider"
	"github.com/dbsmedya/zoneaudit/internal/record"
	"github.com/dbsmedya/zoneaudit/internal/rules"
	"github.com/dbsmedya/zoneaudit/internal/source"
	"github.com/dbsmedya/zoneaudit/internal/types"
)

// ModeName is the mode recorded in summaries produced by the engine.
const ModeName = "stream"

// Options configures an Engine.
type Options struct {
	Adapter          provider.Adapter
	Rules            rules.Source
	Params           Params
	ProgressInterval int // records between progress callbacks, 0 for none until the end
	OnProgress       func(types.Progress)
	OnWarning        func(types.RowWarning)
	Monitor          *memory.Monitor
	Logger           *logger.Logger
	RunID            string
}

// Engine reads rows, parses them with one adapter and scores them chunk by chunk.
type Engine struct {
	adapter          provider.Adapter
	rules            rules.Source
	params           Params
	progressInterval int
	onProgress       func(types.Progress)
	onWarning        func(types.RowWarning)
	monitor          *memory.Monitor
	logger           *logger.Logger
	runID            string
}

// NewEngine creates an engine. The adapter and a valid rule source are required.
func NewEngine(opts Options) (*Engine, error) {
	if opts.Adapter == nil {
		return nil, errors.New("stream engine requires a provider adapter")
	}
	if opts.Rules == nil {
		return nil, errors.New("stream engine requires a rule source")
	}
	if err := opts.Rules.Current().Validate(); err != nil {
		return nil, err
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}
	monitor := opts.Monitor
	if monitor == nil {
		monitor = memory.NewMonitor(config.MemoryConfig{}, log)
	}

	return &Engine{
		adapter:          opts.Adapter,
		rules:            opts.Rules,
		params:           opts.Params.normalized(),
		progressInterval: opts.ProgressInterval,
		onProgress:       opts.OnProgress,
		onWarning:        opts.OnWarning,
		monitor:          monitor,
		logger:           log.WithProvider(opts.Adapter.Name()),
		runID:            opts.RunID,
	}, nil
}

// Process streams src through the adapter and rule engine, handing each scored chunk to
// sink. Cancellation is honoured between chunks: the chunk in flight completes and the
// partial summary is returned with the context error.
func (e *Engine) Process(ctx context.Context, src source.RowSource, sink func([]rules.Result) error) (*types.Summary, error) {
	summary := types.NewSummary(e.runID, ModeName)
	summary.Provider = e.adapter.Name()

	e.logger.Infof("Starting streaming analysis (chunk size %d, bounds %d-%d, target %s)",
		e.params.Initial, e.params.Min, e.params.Max, e.params.Target)

	var (
		history      History
		size         = e.params.Initial
		nextProgress = e.progressInterval
		eof          bool
	)

	for !eof {
		if err := ctx.Err(); err != nil {
			e.logger.Warnf("Analysis interrupted: %v (processed %d chunks, %d records)",
				err, summary.Chunks, summary.TotalRecords)
			e.finish(summary, size)
			return summary, fmt.Errorf("analysis cancelled: %w", err)
		}

		stats := types.NewChunkStats(summary.Chunks + 1)
		start := time.Now()

		recs := make([]record.Record, 0, size)
		for len(recs) < size {
			row, err := src.Next()
			if err == io.EOF {
				eof = true
				break
			}
			var malformed *source.MalformedRowError
			if errors.As(err, &malformed) {
				stats.Rows++
				stats.Skipped++
				e.warn(malformed.Line, fmt.Sprintf("malformed CSV row: %v", malformed.Err))
				continue
			}
			if err != nil {
				e.finish(summary, size)
				return summary, fmt.Errorf("failed to read input: %w", err)
			}

			stats.Rows++
			rec, err := e.adapter.Parse(row)
			if err != nil {
				stats.Skipped++
				e.warn(row.Line(), rowReason(err))
				continue
			}
			recs = append(recs, rec)
		}

		if stats.Rows == 0 {
			break
		}

		// Rule set changes take effect here, between chunks.
		rs := e.rules.Current()
		if rs == nil {
			e.finish(summary, size)
			return summary, fmt.Errorf("chunk %d: %w: no current rule set", stats.ChunkID, rules.ErrInvalidRuleSet)
		}
		results := rules.ScoreAll(recs, rs)
		for _, r := range results {
			stats.Categories[string(r.Category)]++
		}
		stats.Records = len(results)

		if sink != nil && len(results) > 0 {
			if err := sink(results); err != nil {
				e.finish(summary, size)
				return summary, fmt.Errorf("chunk %d sink failed: %w", stats.ChunkID, err)
			}
		}
		stats.Elapsed = time.Since(start)

		e.monitor.Tick(stats.Rows)
		stats.PeakMemory = e.monitor.Peak()
		summary.FoldChunk(stats)

		history.Add(Sample{Size: stats.Rows, Latency: stats.Elapsed})
		prev := size
		size = NextChunkSize(history.Samples(), size, e.params)

		e.logger.WithChunk(stats.ChunkID).Debugf(
			"Chunk %d complete: %d rows, %d records, %d skipped in %s (next size %d)",
			stats.ChunkID, stats.Rows, stats.Records, stats.Skipped, stats.Elapsed, size)
		if size != prev {
			e.logger.Debugf("Chunk size adjusted %d -> %d", prev, size)
		}

		if e.progressInterval > 0 && summary.TotalRecords >= nextProgress {
			e.progress(src, summary, size)
			for nextProgress <= summary.TotalRecords {
				nextProgress += e.progressInterval
			}
		}
	}

	e.progress(src, summary, size)
	e.finish(summary, size)
	e.logger.Infof("Streaming analysis complete: %d rows, %d records, %d skipped, %d chunks, duration: %s",
		summary.TotalRows, summary.TotalRecords, summary.Skipped, summary.Chunks, summary.Duration)
	return summary, nil
}

func (e *Engine) finish(summary *types.Summary, size int) {
	if e.monitor.Peak() == 0 {
		e.monitor.Check()
	}
	if peak := e.monitor.Peak(); peak > summary.PeakMemory {
		summary.PeakMemory = peak
	}
	summary.MemoryWarnings = e.monitor.Warnings()
	summary.FinalChunkSize = size
	summary.Finish()
}

func (e *Engine) warn(line int, reason string) {
	e.logger.Warnw("Skipping row", "line", line, "reason", reason)
	if e.onWarning != nil {
		e.onWarning(types.RowWarning{Line: line, Reason: reason})
	}
}

func (e *Engine) progress(src source.RowSource, summary *types.Summary, size int) {
	if e.onProgress == nil {
		return
	}
	p := types.Progress{
		RecordsProcessed: summary.TotalRecords,
		RowsRead:         summary.TotalRows,
		ChunksProcessed:  summary.Chunks,
		ChunkSize:        size,
		Elapsed:          time.Since(summary.StartedAt),
	}
	if ps, ok := src.(source.ProgressSource); ok {
		p.BytesRead = ps.BytesRead()
		p.TotalBytes = ps.TotalBytes()
	}
	e.onProgress(p)
}

func rowReason(err error) string {
	var rowErr *provider.RowError
	if errors.As(err, &rowErr) {
		return rowErr.Reason
	}
	return err.Error()
}
