package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dbsmedya/zoneaudit/internal/rules"
	"github.com/dbsmedya/zoneaudit/internal/types"
)

var csvHeader = []string{"line", "name", "type", "content", "ttl", "score", "category", "matched_patterns", "reasons", "provider"}

func renderCSV(w io.Writer, results []rules.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range results {
		row := []string{
			strconv.Itoa(r.Record.Line),
			r.Record.Name,
			string(r.Record.Type),
			r.Record.Content,
			strconv.Itoa(r.Record.TTL),
			strconv.Itoa(r.Score),
			string(r.Category),
			strings.Join(r.MatchedPatterns, ";"),
			strings.Join(r.Reasons, "; "),
			r.Record.SourceProvider,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

type jsonResult struct {
	Line     int               `json:"line"`
	Name     string            `json:"name"`
	Type     string            `json:"type"`
	Content  string            `json:"content"`
	TTL      int               `json:"ttl"`
	Priority *int              `json:"priority,omitempty"`
	Provider string            `json:"provider"`
	Extra    map[string]string `json:"provider_specific,omitempty"`
	Score    int               `json:"score"`
	Category string            `json:"category"`
	Matched  []string          `json:"matched_patterns"`
	Reasons  []string          `json:"reasons"`
}

type jsonWorker struct {
	ID        int `json:"id"`
	Chunks    int `json:"chunks"`
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
}

type jsonSummary struct {
	RunID           string         `json:"run_id"`
	Provider        string         `json:"provider"`
	Confidence      float64        `json:"confidence"`
	DetectionMethod string         `json:"detection_method"`
	Mode            string         `json:"mode"`
	TotalRows       int            `json:"total_rows"`
	TotalRecords    int            `json:"total_records"`
	Skipped         int            `json:"skipped"`
	Categories      map[string]int `json:"categories"`
	Chunks          int            `json:"chunks"`
	FinalChunkSize  int            `json:"final_chunk_size"`
	Workers         []jsonWorker   `json:"workers,omitempty"`
	Errors          int            `json:"errors"`
	MemoryWarnings  int            `json:"memory_warnings"`
	PeakMemoryBytes uint64         `json:"peak_memory_bytes"`
	StartedAt       time.Time      `json:"started_at"`
	DurationMillis  int64          `json:"duration_ms"`
}

type jsonDocument struct {
	Summary *jsonSummary `json:"summary,omitempty"`
	Results []jsonResult `json:"results"`
}

func renderJSON(w io.Writer, results []rules.Result, summary *types.Summary) error {
	doc := jsonDocument{Results: make([]jsonResult, 0, len(results))}
	for _, r := range results {
		matched := r.MatchedPatterns
		if matched == nil {
			matched = []string{}
		}
		doc.Results = append(doc.Results, jsonResult{
			Line:     r.Record.Line,
			Name:     r.Record.Name,
			Type:     string(r.Record.Type),
			Content:  r.Record.Content,
			TTL:      r.Record.TTL,
			Priority: r.Record.Priority,
			Provider: r.Record.SourceProvider,
			Extra:    r.Record.ProviderSpecific,
			Score:    r.Score,
			Category: string(r.Category),
			Matched:  matched,
			Reasons:  r.Reasons,
		})
	}

	if summary != nil {
		js := &jsonSummary{
			RunID:           summary.RunID,
			Provider:        summary.Provider,
			Confidence:      summary.Confidence,
			DetectionMethod: summary.DetectionMethod,
			Mode:            summary.Mode,
			TotalRows:       summary.TotalRows,
			TotalRecords:    summary.TotalRecords,
			Skipped:         summary.Skipped,
			Categories:      make(map[string]int),
			Chunks:          summary.Chunks,
			FinalChunkSize:  summary.FinalChunkSize,
			Errors:          summary.Errors,
			MemoryWarnings:  summary.MemoryWarnings,
			PeakMemoryBytes: summary.PeakMemory,
			StartedAt:       summary.StartedAt,
			DurationMillis:  summary.Duration.Milliseconds(),
		}
		for el := CategoryBreakdown(summary.Categories).Front(); el != nil; el = el.Next() {
			js.Categories[el.Key] = el.Value
		}
		for _, ws := range summary.Workers {
			js.Workers = append(js.Workers, jsonWorker{
				ID:        ws.WorkerID,
				Chunks:    ws.ChunksProcessed,
				Processed: ws.TotalProcessed,
				Skipped:   ws.Skipped,
				Errors:    ws.Errors,
			})
		}
		doc.Summary = js
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode JSON report: %w", err)
	}
	return nil
}
