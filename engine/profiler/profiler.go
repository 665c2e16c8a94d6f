package profiler

import (
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sample is the measurement of one profiled section.
type Sample struct {
	Label     string
	Duration  time.Duration
	HeapDelta int64
	// AllocBytes is the cumulative allocation during the section, which tracks churn rather than live memory.
	AllocBytes uint64
	GCCount    uint32
	MaxPause   time.Duration
}

// Profiler measures wall time and memory statistics of labelled sections such as asset imports
// and resource streaming, and logs each measurement.
type Profiler struct {
	mu      sync.Mutex
	logger  *zap.Logger
	samples []Sample
	limit   int
}

// Span is an open section started by Begin.
type Span struct {
	p         *Profiler
	label     string
	start     time.Time
	heap      uint64
	total     uint64
	gcCount   uint32
	completed bool
}

// NewProfiler creates a new Profiler that logs to logger. A nil logger discards the log output.
// The most recent 256 samples are retained.
//
// Parameters:
//   - logger: the logger that receives one debug entry per completed section
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(logger *zap.Logger) *Profiler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Profiler{
		logger: logger.Named("profiler"),
		limit:  256,
	}
}

// Begin opens a section.
//
// Parameters:
//   - label: the name reported with the sample
//
// Returns:
//   - *Span: the open section, to be closed with End
func (p *Profiler) Begin(label string) *Span {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return &Span{
		p:       p,
		label:   label,
		start:   time.Now(),
		heap:    ms.HeapAlloc,
		total:   ms.TotalAlloc,
		gcCount: ms.NumGC,
	}
}

// End closes the section, records its sample and logs it with any extra fields.
// Ending a span twice returns the zero Sample.
//
// Parameters:
//   - fields: extra structured fields for the log entry
//
// Returns:
//   - Sample: the measurement of the section
func (s *Span) End(fields ...zap.Field) Sample {
	if s == nil || s.completed {
		return Sample{}
	}
	s.completed = true

	elapsed := time.Since(s.start)
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	sample := Sample{
		Label:      s.label,
		Duration:   elapsed,
		HeapDelta:  int64(ms.HeapAlloc) - int64(s.heap),
		AllocBytes: ms.TotalAlloc - s.total,
		GCCount:    ms.NumGC - s.gcCount,
	}

	// PauseNs is a circular buffer of the last 256 GC pauses
	start := s.gcCount
	if ms.NumGC-start > 256 {
		start = ms.NumGC - 256
	}
	for i := start; i < ms.NumGC; i++ {
		if pause := time.Duration(ms.PauseNs[i%256]); pause > sample.MaxPause {
			sample.MaxPause = pause
		}
	}

	s.p.record(sample)
	s.p.logger.Debug("section complete", append([]zap.Field{
		zap.String("label", sample.Label),
		zap.Duration("elapsed", sample.Duration),
		zap.Int64("heap_delta", sample.HeapDelta),
		zap.Uint64("alloc_bytes", sample.AllocBytes),
		zap.Uint32("gc", sample.GCCount),
		zap.Duration("max_pause", sample.MaxPause),
	}, fields...)...)
	return sample
}

func (p *Profiler) record(s Sample) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.samples = append(p.samples, s)
	if len(p.samples) > p.limit {
		p.samples = p.samples[len(p.samples)-p.limit:]
	}
}

// Samples returns a copy of the retained samples, oldest first.
func (p *Profiler) Samples() []Sample {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Sample, len(p.samples))
	copy(out, p.samples)
	return out
}

// Reset discards the retained samples.
func (p *Profiler) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.samples = nil
}
