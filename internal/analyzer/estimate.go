package analyzer

import (
	"fmt"
	"math"
	"strings"

	"github.com/dbsmedya/zoneaudit/internal/source"
)

// Estimate is a dry-run plan for a file: what would be detected and how it would be processed.
type Estimate struct {
	Path            string
	SizeBytes       int64
	Headers         []string
	Provider        string
	Confidence      float64
	DetectionMethod string
	SampledRows     int
	AvgRowBytes     float64
	EstimatedRows   int64
	Exact           bool // the whole file fit in the sample
	Mode            Mode
	ChunkSize       int
	Workers         int
	EstimatedChunks int64
	MemoryLimitMB   int
}

// Estimate samples the head of a file and projects row and chunk counts without scoring.
func (a *Analyzer) Estimate(path string, opts Options) (*Estimate, error) {
	src, err := source.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = src.Close() }()

	eff := a.resolve(opts, src.TotalBytes())

	limit := a.sampleRows()
	samples, err := src.Peek(limit)
	if err != nil {
		return nil, fmt.Errorf("failed to sample %s: %w", path, err)
	}

	detection, err := a.detect(src.Headers(), samples, eff)
	if err != nil {
		return nil, err
	}

	est := &Estimate{
		Path:            path,
		SizeBytes:       fileSize(path),
		Headers:         src.Headers(),
		Provider:        detection.Adapter.Name(),
		Confidence:      detection.Confidence,
		DetectionMethod: detection.Method,
		SampledRows:     len(samples),
		Mode:            eff.Mode,
		ChunkSize:       eff.ChunkSize,
		MemoryLimitMB:   eff.MemoryLimitMB,
	}
	if eff.Mode == ModeDistributed {
		est.Workers = eff.WorkerCount
	}

	sampleBytes := 0
	for _, row := range samples {
		if sized, ok := row.(interface{ Size() int }); ok {
			sampleBytes += sized.Size()
		}
	}

	switch {
	case len(samples) < limit:
		est.EstimatedRows = int64(len(samples))
		est.Exact = true
		if len(samples) > 0 {
			est.AvgRowBytes = float64(sampleBytes) / float64(len(samples))
		}
	case sampleBytes > 0:
		est.AvgRowBytes = float64(sampleBytes) / float64(len(samples))
		body := est.SizeBytes - int64(len(strings.Join(est.Headers, ","))+1)
		if body < 0 {
			body = 0
		}
		est.EstimatedRows = int64(math.Round(float64(body) / est.AvgRowBytes))
	}

	if est.ChunkSize > 0 {
		est.EstimatedChunks = int64(math.Ceil(float64(est.EstimatedRows) / float64(est.ChunkSize)))
	}

	a.logger.Debugw("Estimated analysis plan",
		"path", path,
		"provider", est.Provider,
		"rows", est.EstimatedRows,
		"mode", est.Mode,
		"chunks", est.EstimatedChunks,
	)
	return est, nil
}
