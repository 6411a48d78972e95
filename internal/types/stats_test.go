package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCategoryCounts(t *testing.T) {
	c := CategoryCounts{"high": 2}
	c.Add(CategoryCounts{"high": 1, "safe": 4})

	assert.Equal(t, 3, c["high"])
	assert.Equal(t, 4, c["safe"])
	assert.Equal(t, 7, c.Total())
}

func TestWorkerStats_Fold(t *testing.T) {
	w := WorkerStats{WorkerID: 1}

	w.Fold(ChunkStats{Records: 10, Skipped: 1, Elapsed: time.Second, PeakMemory: 100})
	w.Fold(ChunkStats{Records: 5, Elapsed: time.Second, PeakMemory: 50})

	assert.Equal(t, 2, w.ChunksProcessed)
	assert.Equal(t, 15, w.TotalProcessed)
	assert.Equal(t, 1, w.Skipped)
	assert.Equal(t, 2*time.Second, w.Busy)
	assert.Equal(t, uint64(100), w.PeakMemory)
}

func TestSummary_FoldChunk(t *testing.T) {
	s := NewSummary("run", "stream")

	c1 := NewChunkStats(1)
	c1.Rows, c1.Records, c1.Skipped = 10, 9, 1
	c1.Categories["low"] = 9
	c1.PeakMemory = 2048

	c2 := NewChunkStats(2)
	c2.Rows, c2.Records = 3, 3
	c2.Categories["critical"] = 3

	s.FoldChunk(c1)
	s.FoldChunk(c2)
	s.Finish()

	assert.Equal(t, 2, s.Chunks)
	assert.Equal(t, 13, s.TotalRows)
	assert.Equal(t, 12, s.TotalRecords)
	assert.Equal(t, 1, s.Skipped)
	assert.Equal(t, 9, s.Categories["low"])
	assert.Equal(t, 3, s.Categories["critical"])
	assert.Equal(t, uint64(2048), s.PeakMemory)
	assert.False(t, s.CompletedAt.Before(s.StartedAt))
}

func TestProgress_Percent(t *testing.T) {
	assert.Equal(t, 0, Progress{BytesRead: 10}.Percent())
	assert.Equal(t, 50, Progress{BytesRead: 50, TotalBytes: 100}.Percent())
	assert.Equal(t, 100, Progress{BytesRead: 150, TotalBytes: 100}.Percent())
}
