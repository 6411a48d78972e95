package worker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/zoneaudit/internal/config"
	"github.com/dbsmedya/zoneaudit/internal/logger"
	"github.com/dbsmedya/zoneaudit/internal/memory"
	"github.com/dbsmedya/zoneaudit/internal/provider"
	"github.com/dbsmedya/zoneaudit/internal/record"
	"github.com/dbsmedya/zoneaudit/internal/rules"
	"github.com/dbsmedya/zoneaudit/internal/source"
	"github.com/dbsmedya/zoneaudit/internal/stream"
	"github.com/dbsmedya/zoneaudit/internal/types"
)

var testAsOf = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

const cloudflareHeader = "Name,Type,Content,TTL,Proxied\n"

func cloudflareCSV(n int, special map[int]string) string {
	var b strings.Builder
	b.WriteString(cloudflareHeader)
	for i := 0; i < n; i++ {
		if line, ok := special[i]; ok {
			b.WriteString(line + "\n")
			continue
		}
		prefix := "www"
		if i%4 == 0 {
			prefix = "legacy-api"
		}
		fmt.Fprintf(&b, "%s%d.example.com,A,192.0.2.%d,300,false\n", prefix, i, i%250)
	}
	return b.String()
}

func newReader(t *testing.T, data string) *source.Reader {
	t.Helper()
	r, err := source.NewReader(strings.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	return r
}

func newCoordinator(t *testing.T, opts Options) *Coordinator {
	t.Helper()
	if opts.Adapter == nil {
		opts.Adapter = provider.NewCloudflare(provider.Options{})
	}
	opts.Logger = logger.NewNop()
	c, err := NewCoordinator(opts)
	require.NoError(t, err)
	return c
}

func sortByLine(results []rules.Result) {
	sort.Slice(results, func(i, j int) bool { return results[i].Record.Line < results[j].Record.Line })
}

func TestCoordinator_AllRecordsProcessed(t *testing.T) {
	monitor := memory.NewMonitor(config.MemoryConfig{CheckInterval: 1}, logger.NewNop())
	monitor.SetSampler(func() (memory.Sample, error) {
		return memory.Sample{HeapAlloc: 4096}, nil
	})
	c := newCoordinator(t, Options{Workers: 4, ChunkSize: 100, Monitor: monitor})

	outcome, err := c.Process(context.Background(), newReader(t, cloudflareCSV(1000, nil)), rules.Default(testAsOf))
	require.NoError(t, err)

	assert.Len(t, outcome.Results, 1000)
	require.Len(t, outcome.WorkerStats, 4)

	total := 0
	chunks := 0
	for i, ws := range outcome.WorkerStats {
		assert.Equal(t, i+1, ws.WorkerID)
		total += ws.TotalProcessed
		chunks += ws.ChunksProcessed
		if ws.ChunksProcessed > 0 {
			assert.Equal(t, uint64(4096), ws.PeakMemory, "worker %d peak memory", ws.WorkerID)
		}
	}
	assert.Equal(t, 1000, total)
	assert.Equal(t, 10, chunks)
	assert.Equal(t, uint64(4096), outcome.Summary.PeakMemory)

	s := outcome.Summary
	assert.Equal(t, ModeName, s.Mode)
	assert.Equal(t, 1000, s.TotalRecords)
	assert.Equal(t, 1000, s.TotalRows)
	assert.Equal(t, 10, s.Chunks)
	assert.Equal(t, 0, s.Errors)
	assert.Equal(t, 250, s.Categories[string(rules.CategoryCritical)])
	assert.Equal(t, outcome.WorkerStats, s.Workers)
}

func TestCoordinator_MatchesStreaming(t *testing.T) {
	data := cloudflareCSV(237, nil)
	rs := rules.Default(testAsOf)

	c := newCoordinator(t, Options{Workers: 3, ChunkSize: 20})
	outcome, err := c.Process(context.Background(), newReader(t, data), rs)
	require.NoError(t, err)

	engine, err := stream.NewEngine(stream.Options{
		Adapter: provider.NewCloudflare(provider.Options{}),
		Rules:   rs,
		Params:  stream.Params{Initial: 50, Min: 10, Max: 100},
		Logger:  logger.NewNop(),
	})
	require.NoError(t, err)
	var streamed []rules.Result
	_, err = engine.Process(context.Background(), newReader(t, data), func(chunk []rules.Result) error {
		streamed = append(streamed, chunk...)
		return nil
	})
	require.NoError(t, err)

	got := append([]rules.Result(nil), outcome.Results...)
	sortByLine(got)
	assert.Equal(t, streamed, got)
}

func TestCoordinator_Idempotent(t *testing.T) {
	data := cloudflareCSV(300, nil)
	run := func() []rules.Result {
		c := newCoordinator(t, Options{Workers: 4, ChunkSize: 25})
		outcome, err := c.Process(context.Background(), newReader(t, data), rules.Default(testAsOf))
		require.NoError(t, err)
		sortByLine(outcome.Results)
		return outcome.Results
	}
	assert.Equal(t, run(), run())
}

// panicAdapter panics on rows whose name contains "boom".
type panicAdapter struct {
	provider.Adapter
}

func (p panicAdapter) Parse(row record.Row) (record.Record, error) {
	if v, _ := row.Get("name"); strings.Contains(v, "boom") {
		panic("unexpected row shape")
	}
	return p.Adapter.Parse(row)
}

func TestCoordinator_RecoversWorkerPanic(t *testing.T) {
	data := cloudflareCSV(30, map[int]string{5: "boom.example.com,A,192.0.2.1,300,false"})
	c := newCoordinator(t, Options{
		Adapter:   panicAdapter{Adapter: provider.NewCloudflare(provider.Options{})},
		Workers:   2,
		ChunkSize: 10,
	})

	outcome, err := c.Process(context.Background(), newReader(t, data), rules.Default(testAsOf))
	require.NoError(t, err)

	assert.Len(t, outcome.Results, 20)
	assert.Equal(t, 1, outcome.Summary.Errors)
	assert.Equal(t, 10, outcome.Summary.Skipped)
	assert.Equal(t, 30, outcome.Summary.TotalRows)

	errs := 0
	for _, ws := range outcome.WorkerStats {
		errs += ws.Errors
	}
	assert.Equal(t, 1, errs)
	assert.Len(t, outcome.WorkerStats, 2, "the worker that panicked still reports final stats")
}

func TestCoordinator_SkipsDefectiveRows(t *testing.T) {
	data := cloudflareCSV(3, map[int]string{1: "broken.example.com,,192.0.2.2,300,false"})

	var warnings []types.RowWarning
	c := newCoordinator(t, Options{
		Workers:   2,
		ChunkSize: 2,
		OnWarning: func(w types.RowWarning) { warnings = append(warnings, w) },
	})

	outcome, err := c.Process(context.Background(), newReader(t, data), rules.Default(testAsOf))
	require.NoError(t, err)
	assert.Len(t, outcome.Results, 2)
	assert.Equal(t, 1, outcome.Summary.Skipped)
	require.Len(t, warnings, 1)
	assert.Equal(t, 3, warnings[0].Line)
	assert.Contains(t, warnings[0].Reason, "missing record type")
}

func TestCoordinator_ZeroRows(t *testing.T) {
	c := newCoordinator(t, Options{Workers: 3})

	outcome, err := c.Process(context.Background(), newReader(t, cloudflareHeader), rules.Default(testAsOf))
	require.NoError(t, err)
	assert.Empty(t, outcome.Results)
	assert.Equal(t, 0, outcome.Summary.TotalRecords)
	assert.Len(t, outcome.WorkerStats, 3)
}

func TestCoordinator_SmallQueue(t *testing.T) {
	c := newCoordinator(t, Options{Workers: 2, ChunkSize: 3, QueueCapacity: 1})

	outcome, err := c.Process(context.Background(), newReader(t, cloudflareCSV(100, nil)), rules.Default(testAsOf))
	require.NoError(t, err)
	assert.Len(t, outcome.Results, 100)
	assert.Equal(t, 34, outcome.Summary.Chunks)
}

func TestCoordinator_Cancelled(t *testing.T) {
	c := newCoordinator(t, Options{Workers: 4, ChunkSize: 10})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome, err := c.Process(ctx, newReader(t, cloudflareCSV(100, nil)), rules.Default(testAsOf))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, outcome)
	assert.Empty(t, outcome.Results)
	assert.Len(t, outcome.WorkerStats, 4)
}

// failingSource yields n rows and then a read error.
type failingSource struct {
	n    int
	sent int
}

func (s *failingSource) Headers() []string { return []string{"Name", "Type", "Content"} }

func (s *failingSource) Next() (record.Row, error) {
	if s.sent >= s.n {
		return nil, errors.New("disk read failed")
	}
	s.sent++
	return record.NewMapRow(s.sent+1,
		"Name", fmt.Sprintf("host%d.example.com", s.sent), "Type", "A", "Content", "192.0.2.1"), nil
}

func TestCoordinator_ReadError(t *testing.T) {
	c := newCoordinator(t, Options{Workers: 2, ChunkSize: 10})

	outcome, err := c.Process(context.Background(), &failingSource{n: 5}, rules.Default(testAsOf))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk read failed")
	require.NotNil(t, outcome)
	assert.Len(t, outcome.Results, 5, "rows read before the failure are still scored")
}

func TestCoordinator_Progress(t *testing.T) {
	var calls []types.Progress
	c := newCoordinator(t, Options{
		Workers:          1,
		ChunkSize:        10,
		ProgressInterval: 25,
		OnProgress:       func(p types.Progress) { calls = append(calls, p) },
	})

	_, err := c.Process(context.Background(), newReader(t, cloudflareCSV(60, nil)), rules.Default(testAsOf))
	require.NoError(t, err)

	// After 30 and 50 records, then the final report.
	require.Len(t, calls, 3)
	assert.Equal(t, 30, calls[0].RecordsProcessed)
	assert.Equal(t, 50, calls[1].RecordsProcessed)
	assert.Equal(t, 60, calls[2].RecordsProcessed)
}

func TestNewCoordinator(t *testing.T) {
	_, err := NewCoordinator(Options{})
	assert.Error(t, err)

	c, err := NewCoordinator(Options{Adapter: provider.NewGeneric(provider.Options{})})
	require.NoError(t, err)
	assert.Equal(t, 4, c.opts.Workers)
	assert.Equal(t, 1000, c.opts.ChunkSize)
	assert.Equal(t, DefaultQueueCapacity, c.opts.QueueCapacity)

	_, err = c.Process(context.Background(), &failingSource{}, nil)
	assert.Error(t, err)
}

func TestMessageKind_String(t *testing.T) {
	assert.Equal(t, "chunk", KindChunk.String())
	assert.Equal(t, "shutdown", KindShutdown.String())
	assert.Equal(t, "unknown", MessageKind(99).String())
}
