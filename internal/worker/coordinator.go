package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime/debug"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dbsmedya/zoneaudit/internal/config"
	"github.com/dbsmedya/zoneaudit/internal/logger"
	"github.com/dbsmedya/zoneaudit/internal/memory"
	"github.com/dbsmedya/zoneaudit/internal/provider"
	"github.com/dbsmedya/zoneaudit/internal/record"
	"github.com/dbsmedya/zoneaudit/internal/rules"
	"github.com/dbsmedya/zoneaudit/internal/source"
	"github.com/dbsmedya/zoneaudit/internal/types"
)

// ModeName is the mode recorded in summaries produced by the coordinator.
const ModeName = "distributed"

// DefaultQueueCapacity bounds the chunk queue when none is configured.
const DefaultQueueCapacity = 100

// Options configures a Coordinator.
type Options struct {
	Adapter          provider.Adapter
	Workers          int
	ChunkSize        int
	QueueCapacity    int
	ProgressInterval int
	OnProgress       func(types.Progress)
	OnWarning        func(types.RowWarning)
	Monitor          *memory.Monitor
	Logger           *logger.Logger
	RunID            string
}

// Outcome is the aggregated result of a worker-parallel run. Results are in completion order.
type Outcome struct {
	Results     []rules.Result
	WorkerStats []types.WorkerStats
	Summary     *types.Summary
}

// Coordinator fans chunks out to workers and folds their messages back together.
type Coordinator struct {
	opts    Options
	monitor *memory.Monitor
	logger  *logger.Logger
}

// NewCoordinator creates a coordinator. Zero sizes fall back to the configured defaults.
func NewCoordinator(opts Options) (*Coordinator, error) {
	if opts.Adapter == nil {
		return nil, errors.New("worker coordinator requires a provider adapter")
	}
	defaults := config.DefaultConfig().Workers
	if opts.Workers <= 0 {
		opts.Workers = defaults.Count
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = defaults.ChunkSize
	}
	if opts.QueueCapacity <= 0 {
		opts.QueueCapacity = DefaultQueueCapacity
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}
	monitor := opts.Monitor
	if monitor == nil {
		monitor = memory.NewMonitor(config.MemoryConfig{}, log)
	}

	return &Coordinator{
		opts:    opts,
		monitor: monitor,
		logger:  log.WithProvider(opts.Adapter.Name()),
	}, nil
}

// Process reads src on a producer goroutine, scores chunks on the worker pool and returns
// once every worker has sent its final stats. On cancellation the producer stops reading,
// chunks already queued are finished, and the partial outcome is returned with the
// context error.
func (c *Coordinator) Process(ctx context.Context, src source.RowSource, rs rules.Source) (*Outcome, error) {
	if rs == nil {
		return nil, errors.New("worker coordinator requires a rule source")
	}
	if err := rs.Current().Validate(); err != nil {
		return nil, err
	}

	summary := types.NewSummary(c.opts.RunID, ModeName)
	summary.Provider = c.opts.Adapter.Name()

	c.logger.Infof("Starting worker analysis (%d workers, chunk size %d, queue capacity %d)",
		c.opts.Workers, c.opts.ChunkSize, c.opts.QueueCapacity)

	queue := make(chan Message, c.opts.QueueCapacity)
	out := make(chan Message, c.opts.Workers)

	var g errgroup.Group
	g.Go(func() error {
		return c.produce(ctx, src, queue)
	})
	for id := 1; id <= c.opts.Workers; id++ {
		w := &worker{
			id:      id,
			adapter: c.opts.Adapter,
			rules:   rs,
			logger:  c.logger.WithWorker(id),
		}
		g.Go(func() error {
			w.run(queue, out)
			return nil
		})
	}

	outcome := &Outcome{Summary: summary}
	// Workers never see the monitor, so the peak observed while folding each worker's
	// chunks is attached to its final stats here.
	peaks := make(map[int]uint64, c.opts.Workers)
	nextProgress := c.opts.ProgressInterval
	finished := 0
	for finished < c.opts.Workers {
		msg := <-out
		switch msg.Kind {
		case KindResult:
			outcome.Results = append(outcome.Results, msg.Results...)
			peaks[msg.WorkerID] = max(peaks[msg.WorkerID], c.fold(summary, msg))
			if c.opts.ProgressInterval > 0 && summary.TotalRecords >= nextProgress {
				c.progress(src, summary)
				for nextProgress <= summary.TotalRecords {
					nextProgress += c.opts.ProgressInterval
				}
			}
		case KindError:
			summary.Errors++
			c.logger.WithWorker(msg.WorkerID).Errorf("Chunk %d failed: %v", msg.Stats.ChunkID, msg.Err)
			peaks[msg.WorkerID] = max(peaks[msg.WorkerID], c.fold(summary, msg))
		case KindStats:
			ws := msg.WorkerStats
			ws.PeakMemory = max(ws.PeakMemory, peaks[msg.WorkerID])
			outcome.WorkerStats = append(outcome.WorkerStats, ws)
			finished++
		}
	}

	err := g.Wait()

	sort.Slice(outcome.WorkerStats, func(i, j int) bool {
		return outcome.WorkerStats[i].WorkerID < outcome.WorkerStats[j].WorkerID
	})
	summary.Workers = outcome.WorkerStats
	summary.FinalChunkSize = c.opts.ChunkSize
	if c.monitor.Peak() == 0 {
		c.monitor.Check()
	}
	if peak := c.monitor.Peak(); peak > summary.PeakMemory {
		summary.PeakMemory = peak
	}
	summary.MemoryWarnings = c.monitor.Warnings()
	c.progress(src, summary)
	summary.Finish()

	if err != nil {
		return outcome, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		c.logger.Warnf("Analysis interrupted: %v (processed %d chunks, %d records)",
			ctxErr, summary.Chunks, summary.TotalRecords)
		return outcome, fmt.Errorf("analysis cancelled: %w", ctxErr)
	}

	c.logger.Infof("Worker analysis complete: %d rows, %d records, %d skipped, %d chunks, %d errors, duration: %s",
		summary.TotalRows, summary.TotalRecords, summary.Skipped, summary.Chunks, summary.Errors, summary.Duration)
	return outcome, nil
}

// produce reads rows into fixed-size chunks and queues them. It always ends by queueing
// one shutdown sentinel per worker, even after a read error or cancellation.
func (c *Coordinator) produce(ctx context.Context, src source.RowSource, queue chan<- Message) error {
	defer func() {
		for i := 0; i < c.opts.Workers; i++ {
			queue <- Message{Kind: KindShutdown}
		}
	}()

	chunkID := 0
	chunk := &Chunk{ID: chunkID + 1}
	send := func() bool {
		if len(chunk.Rows) == 0 && len(chunk.Defects) == 0 {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case queue <- Message{Kind: KindChunk, Chunk: chunk}:
		}
		chunkID++
		chunk = &Chunk{ID: chunkID + 1}
		return true
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		row, err := src.Next()
		if err == io.EOF {
			send()
			return nil
		}
		var malformed *source.MalformedRowError
		if errors.As(err, &malformed) {
			chunk.Defects = append(chunk.Defects, types.RowWarning{
				Line:   malformed.Line,
				Reason: fmt.Sprintf("malformed CSV row: %v", malformed.Err),
			})
			continue
		}
		if err != nil {
			send()
			return fmt.Errorf("failed to read input: %w", err)
		}

		chunk.Rows = append(chunk.Rows, row)
		if len(chunk.Rows) >= c.opts.ChunkSize {
			if !send() {
				return nil
			}
		}
	}
}

// fold merges one chunk into the summary and returns the memory peak seen so far.
func (c *Coordinator) fold(summary *types.Summary, msg Message) uint64 {
	for _, w := range msg.Warnings {
		c.logger.Warnw("Skipping row", "line", w.Line, "reason", w.Reason)
		if c.opts.OnWarning != nil {
			c.opts.OnWarning(w)
		}
	}
	c.monitor.Tick(msg.Stats.Rows)
	msg.Stats.PeakMemory = c.monitor.Peak()
	summary.FoldChunk(msg.Stats)
	return msg.Stats.PeakMemory
}

func (c *Coordinator) progress(src source.RowSource, summary *types.Summary) {
	if c.opts.OnProgress == nil {
		return
	}
	p := types.Progress{
		RecordsProcessed: summary.TotalRecords,
		RowsRead:         summary.TotalRows,
		ChunksProcessed:  summary.Chunks,
		ChunkSize:        c.opts.ChunkSize,
		Elapsed:          time.Since(summary.StartedAt),
	}
	if ps, ok := src.(source.ProgressSource); ok {
		p.BytesRead = ps.BytesRead()
		p.TotalBytes = ps.TotalBytes()
	}
	c.opts.OnProgress(p)
}

// worker handles chunks until it receives its shutdown sentinel.
type worker struct {
	id      int
	adapter provider.Adapter
	rules   rules.Source
	logger  *logger.Logger
	stats   types.WorkerStats
}

func (w *worker) run(queue <-chan Message, out chan<- Message) {
	w.stats.WorkerID = w.id
	for msg := range queue {
		if msg.Kind == KindShutdown {
			out <- Message{Kind: KindStats, WorkerID: w.id, WorkerStats: w.stats}
			return
		}
		if msg.Kind != KindChunk || msg.Chunk == nil {
			continue
		}
		out <- w.handle(msg.Chunk)
	}
}

// handle processes one chunk. A panic is turned into an error message and the worker
// keeps going.
func (w *worker) handle(chunk *Chunk) (msg Message) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			w.stats.Errors++
			w.logger.Errorf("Recovered panic in chunk %d: %v\n%s", chunk.ID, r, debug.Stack())

			stats := types.NewChunkStats(chunk.ID)
			stats.Rows = len(chunk.Rows) + len(chunk.Defects)
			stats.Skipped = stats.Rows
			stats.Elapsed = time.Since(start)
			msg = Message{
				Kind:     KindError,
				WorkerID: w.id,
				Stats:    stats,
				Warnings: chunk.Defects,
				Err:      fmt.Errorf("worker %d panicked processing chunk %d: %v", w.id, chunk.ID, r),
			}
		}
	}()

	stats := types.NewChunkStats(chunk.ID)
	stats.Rows = len(chunk.Rows) + len(chunk.Defects)
	stats.Skipped = len(chunk.Defects)
	warnings := append([]types.RowWarning(nil), chunk.Defects...)

	recs := make([]record.Record, 0, len(chunk.Rows))
	for _, row := range chunk.Rows {
		rec, err := w.adapter.Parse(row)
		if err != nil {
			stats.Skipped++
			warnings = append(warnings, types.RowWarning{Line: row.Line(), Reason: rowReason(err)})
			continue
		}
		recs = append(recs, rec)
	}

	// Rule set changes take effect here, between chunks.
	rs := w.rules.Current()
	if rs == nil {
		panic("no current rule set")
	}
	results := rules.ScoreAll(recs, rs)
	for _, r := range results {
		stats.Categories[string(r.Category)]++
	}
	stats.Records = len(results)
	stats.Elapsed = time.Since(start)
	w.stats.Fold(stats)

	w.logger.Debugf("Chunk %d complete: %d rows, %d records, %d skipped in %s",
		chunk.ID, stats.Rows, stats.Records, stats.Skipped, stats.Elapsed)

	return Message{
		Kind:     KindResult,
		WorkerID: w.id,
		Results:  results,
		Stats:    stats,
		Warnings: warnings,
	}
}

func rowReason(err error) string {
	var rowErr *provider.RowError
	if errors.As(err, &rowErr) {
		return rowErr.Reason
	}
	return err.Error()
}
