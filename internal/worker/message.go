// Package worker runs analysis across a pool of goroutines fed through a bounded queue.
package worker

import (
	"github.com/dbsmedya/zoneaudit/internal/record"
	"github.com/dbsmedya/zoneaudit/internal/rules"
	"github.com/dbsmedya/zoneaudit/internal/types"
)

// MessageKind tags a message on the coordinator's channels.
type MessageKind int

const (
	KindChunk MessageKind = iota
	KindResult
	KindError
	KindStats
	KindShutdown
)

func (k MessageKind) String() string {
	switch k {
	case KindChunk:
		return "chunk"
	case KindResult:
		return "result"
	case KindError:
		return "error"
	case KindStats:
		return "stats"
	case KindShutdown:
		return "shutdown"
	}
	return "unknown"
}

// Chunk is a batch of raw rows. Defects holds rows the reader could not parse; they are
// reported by the worker that handles the chunk.
type Chunk struct {
	ID      int
	Rows    []record.Row
	Defects []types.RowWarning
}

// Message is the only thing exchanged between the producer, the workers and the coordinator.
type Message struct {
	Kind     MessageKind
	WorkerID int

	Chunk *Chunk // KindChunk

	Results  []rules.Result     // KindResult
	Stats    types.ChunkStats   // KindResult, KindError
	Warnings []types.RowWarning // KindResult, KindError

	Err error // KindError

	WorkerStats types.WorkerStats // KindStats
}
