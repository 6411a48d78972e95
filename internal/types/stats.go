// Package types contains shared types used across multiple packages to avoid import cycles.
package types

import "time"

// CategoryCounts maps a risk category name to the number of records in it.
type CategoryCounts map[string]int

// Add folds other into c.
func (c CategoryCounts) Add(other CategoryCounts) {
	for k, v := range other {
		c[k] += v
	}
}

// Total returns the sum of all counts.
func (c CategoryCounts) Total() int {
	total := 0
	for _, v := range c {
		total += v
	}
	return total
}

// ChunkStats describes one processed chunk. It is discarded once folded into a summary.
type ChunkStats struct {
	ChunkID    int
	Rows       int // raw rows read into the chunk
	Records    int // rows that produced a scored record
	Skipped    int
	Categories CategoryCounts
	Elapsed    time.Duration
	PeakMemory uint64 // bytes
}

// NewChunkStats returns ChunkStats with an initialized category map.
func NewChunkStats(chunkID int) ChunkStats {
	return ChunkStats{ChunkID: chunkID, Categories: make(CategoryCounts)}
}

// WorkerStats accumulates per-worker counters in worker-parallel mode.
type WorkerStats struct {
	WorkerID        int
	ChunksProcessed int
	TotalProcessed  int // records scored
	Skipped         int
	Errors          int
	PeakMemory      uint64
	Busy            time.Duration
}

// Fold adds a chunk's counters to the worker totals.
func (w *WorkerStats) Fold(c ChunkStats) {
	w.ChunksProcessed++
	w.TotalProcessed += c.Records
	w.Skipped += c.Skipped
	w.Busy += c.Elapsed
	if c.PeakMemory > w.PeakMemory {
		w.PeakMemory = c.PeakMemory
	}
}

// Progress is reported at a fixed record cadence.
type Progress struct {
	RecordsProcessed int
	RowsRead         int
	ChunksProcessed  int
	ChunkSize        int
	BytesRead        int64
	TotalBytes       int64 // 0 when unknown
	Elapsed          time.Duration
}

// Percent returns read progress in [0,100], or 0 if the total size is unknown.
func (p Progress) Percent() int {
	if p.TotalBytes <= 0 {
		return 0
	}
	pct := int(p.BytesRead * 100 / p.TotalBytes)
	if pct > 100 {
		return 100
	}
	return pct
}

// RowWarning reports a skipped input row.
type RowWarning struct {
	Line   int
	Reason string
}

// Summary describes a completed analysis run.
type Summary struct {
	RunID           string
	Provider        string
	Confidence      float64
	DetectionMethod string
	Mode            string
	TotalRows       int
	TotalRecords    int
	Skipped         int
	Categories      CategoryCounts
	Chunks          int
	FinalChunkSize  int
	Workers         []WorkerStats
	Errors          int
	MemoryWarnings  int
	PeakMemory      uint64
	StartedAt       time.Time
	CompletedAt     time.Time
	Duration        time.Duration
}

// NewSummary returns a Summary with an initialized category map.
func NewSummary(runID, mode string) *Summary {
	return &Summary{
		RunID:      runID,
		Mode:       mode,
		Categories: make(CategoryCounts),
		StartedAt:  time.Now(),
	}
}

// FoldChunk adds a chunk's counters to the summary.
func (s *Summary) FoldChunk(c ChunkStats) {
	s.Chunks++
	s.TotalRows += c.Rows
	s.TotalRecords += c.Records
	s.Skipped += c.Skipped
	s.Categories.Add(c.Categories)
	if c.PeakMemory > s.PeakMemory {
		s.PeakMemory = c.PeakMemory
	}
}

// Finish stamps completion time and duration.
func (s *Summary) Finish() {
	s.CompletedAt = time.Now()
	s.Duration = s.CompletedAt.Sub(s.StartedAt)
}
