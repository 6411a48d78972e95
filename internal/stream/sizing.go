package stream

import (
	"math"
	"time"

	"github.com/dbsmedya/zoneaudit/internal/config"
)

// HistorySize is how many chunk timings feed the sizing decision.
const HistorySize = 10

const (
	growFactor   = 1.5
	shrinkFactor = 0.5
)

// Params bounds adaptive chunk sizing.
type Params struct {
	Initial int
	Min     int
	Max     int
	Target  time.Duration // desired per-chunk latency
}

// ParamsFromConfig builds sizing parameters from analysis settings.
func ParamsFromConfig(cfg config.AnalysisConfig) Params {
	return Params{
		Initial: cfg.ChunkSize,
		Min:     cfg.MinChunkSize,
		Max:     cfg.MaxChunkSize,
		Target:  time.Duration(cfg.TargetChunkMillis) * time.Millisecond,
	}.normalized()
}

func (p Params) normalized() Params {
	if p.Min <= 0 {
		p.Min = 1
	}
	if p.Max < p.Min {
		p.Max = p.Min
	}
	if p.Initial <= 0 {
		p.Initial = p.Min
	}
	p.Initial = p.clamp(p.Initial)
	return p
}

func (p Params) clamp(n int) int {
	if n < p.Min {
		return p.Min
	}
	if n > p.Max {
		return p.Max
	}
	return n
}

// Sample is one chunk's size and processing latency.
type Sample struct {
	Size    int
	Latency time.Duration
}

// History is a fixed-size ring buffer of chunk samples.
type History struct {
	buf  [HistorySize]Sample
	next int
	n    int
}

// Add records a sample, evicting the oldest when full.
func (h *History) Add(s Sample) {
	h.buf[h.next] = s
	h.next = (h.next + 1) % HistorySize
	if h.n < HistorySize {
		h.n++
	}
}

// Samples returns the recorded samples, oldest first.
func (h *History) Samples() []Sample {
	out := make([]Sample, 0, h.n)
	start := (h.next - h.n + HistorySize) % HistorySize
	for i := 0; i < h.n; i++ {
		out = append(out, h.buf[(start+i)%HistorySize])
	}
	return out
}

// Len returns the number of recorded samples.
func (h *History) Len() int {
	return h.n
}

// NextChunkSize computes the next chunk size from recent samples. It grows by half when
// the average latency is under half the target, halves when it is over one and a half
// times the target, and always stays within [Min, Max].
func NextChunkSize(history []Sample, current int, p Params) int {
	p = p.normalized()
	if len(history) == 0 || p.Target <= 0 {
		return p.clamp(current)
	}

	var total time.Duration
	for _, s := range history {
		total += s.Latency
	}
	avg := total / time.Duration(len(history))

	next := current
	switch {
	case avg < p.Target/2:
		next = int(math.Ceil(float64(current) * growFactor))
	case avg > p.Target*3/2:
		next = int(math.Floor(float64(current) * shrinkFactor))
	}
	return p.clamp(next)
}
