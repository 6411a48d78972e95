// Package memory samples process memory against an advisory limit.
package memory

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/elastic/go-sysinfo"

	"github.com/dbsmedya/zoneaudit/internal/config"
	"github.com/dbsmedya/zoneaudit/internal/logger"
)

// Sample is one memory reading.
type Sample struct {
	HeapAlloc uint64 // bytes of live Go heap
	Resident  uint64 // process RSS, 0 when the platform does not report it
	Time      time.Time
}

// InUse returns resident memory when known, otherwise the Go heap.
func (s Sample) InUse() uint64 {
	if s.Resident > 0 {
		return s.Resident
	}
	return s.HeapAlloc
}

// Sampler takes a memory reading.
type Sampler func() (Sample, error)

// Status is the outcome of a check.
type Status struct {
	Sample
	Limit uint64 // 0 when no limit is set
	Over  bool
}

func (s Status) String() string {
	if s.Limit == 0 {
		return fmt.Sprintf("%s in use (no limit)", humanize.Bytes(s.InUse()))
	}
	return fmt.Sprintf("%s in use of %s limit", humanize.Bytes(s.InUse()), humanize.Bytes(s.Limit))
}

// Monitor samples memory every CheckInterval records. Going over the limit is advisory:
// it logs a warning and hints the garbage collector, and processing continues.
type Monitor struct {
	limit    uint64
	interval int
	sampler  Sampler
	logger   *logger.Logger

	mu         sync.Mutex
	sinceCheck int
	peak       uint64
	warnings   int
}

// NewMonitor creates a monitor from configuration. A zero LimitMB disables warnings but
// peak tracking still runs.
func NewMonitor(cfg config.MemoryConfig, log *logger.Logger) *Monitor {
	if log == nil {
		log = logger.NewNop()
	}

	interval := cfg.CheckInterval
	if interval <= 0 {
		interval = 10000
	}

	m := &Monitor{
		limit:    uint64(cfg.LimitMB) * 1024 * 1024,
		interval: interval,
		sampler:  DefaultSampler,
		logger:   log,
	}
	if m.limit > 0 {
		log.Debugf("Memory monitoring enabled (limit: %s, every %d records)", humanize.Bytes(m.limit), interval)
	}
	return m
}

// SetSampler replaces the memory source.
func (m *Monitor) SetSampler(s Sampler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sampler = s
}

// Tick records that n more records were processed and checks memory once the interval
// has elapsed. The second return reports whether a check ran.
func (m *Monitor) Tick(n int) (Status, bool) {
	m.mu.Lock()
	m.sinceCheck += n
	due := m.sinceCheck >= m.interval
	if due {
		m.sinceCheck = 0
	}
	m.mu.Unlock()

	if !due {
		return Status{}, false
	}
	return m.Check(), true
}

// Check samples memory now. A failed sample is logged and reported as not over the limit.
func (m *Monitor) Check() Status {
	m.mu.Lock()
	sampler := m.sampler
	log := m.logger
	m.mu.Unlock()

	sample, err := sampler()
	if err != nil {
		log.Debugf("Memory sample failed: %v", err)
		return Status{Limit: m.limit}
	}

	status := Status{Sample: sample, Limit: m.limit}
	status.Over = m.limit > 0 && sample.InUse() > m.limit

	m.mu.Lock()
	if sample.InUse() > m.peak {
		m.peak = sample.InUse()
	}
	if status.Over {
		m.warnings++
	}
	m.mu.Unlock()

	if status.Over {
		log.Warnf("Memory usage above limit: %s", status)
		runtime.GC()
	}
	return status
}

// Peak returns the highest reading seen.
func (m *Monitor) Peak() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.peak
}

// Warnings returns how many checks found memory over the limit.
func (m *Monitor) Warnings() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.warnings
}

// Limit returns the limit in bytes.
func (m *Monitor) Limit() uint64 {
	return m.limit
}

// Interval returns the number of records between checks.
func (m *Monitor) Interval() int {
	return m.interval
}

// DefaultSampler reads the Go heap from the runtime and the resident set size from the OS.
func DefaultSampler() (Sample, error) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	sample := Sample{HeapAlloc: ms.HeapAlloc, Time: time.Now()}

	proc, err := sysinfo.Self()
	if err != nil {
		return sample, nil
	}
	info, err := proc.Memory()
	if err != nil {
		return sample, nil
	}
	sample.Resident = info.Resident
	return sample, nil
}
