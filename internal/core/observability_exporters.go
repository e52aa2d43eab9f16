package core

import (
	"context"
	"encoding/json"
	"expvar"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/biosustain/consortia-synthetic-anaerobe/pkg/metabolic"
)

var expvarSeq uint64

// opStats aggregates one operation: cumulative latency, success/error counts,
// and for flux studies the solver verdicts and the last achieved objective.
type opStats struct {
	durationMS float64
	results    map[string]int64
	solves     map[string]int64
	objective  float64
	solved     bool
}

// ExpvarMetricsRecorder publishes per-operation counters via expvar for
// deployments that prefer process-local metrics without external
// dependencies. Besides success/error counts it tracks how solves end
// (optimal, infeasible, unbounded, error) and the objective last reached, the
// numbers a knockout screen is actually watched by.
type ExpvarMetricsRecorder struct {
	name string
	mu   sync.Mutex
	ops  map[string]*opStats
}

var _ MetricsRecorder = (*ExpvarMetricsRecorder)(nil)

// ExpvarMetricsSnapshot captures a read-only view of the recorded metrics.
type ExpvarMetricsSnapshot struct {
	DurationsMS   map[string]float64          `json:"durations_ms_total"`
	Results       map[string]map[string]int64 `json:"results_total"`
	SolveStatuses map[string]map[string]int64 `json:"solve_statuses_total,omitempty"`
	LastObjective map[string]float64          `json:"last_objective,omitempty"`
	RecordedAt    time.Time                   `json:"recorded_at"`
}

// NewExpvarMetricsRecorder constructs an expvar-backed recorder and publishes
// it under the supplied name. When name is empty a unique one is generated.
func NewExpvarMetricsRecorder(name string) *ExpvarMetricsRecorder {
	if name == "" {
		id := atomic.AddUint64(&expvarSeq, 1)
		name = fmt.Sprintf("flux_service_metrics_%d", id)
	}
	rec := &ExpvarMetricsRecorder{name: name, ops: make(map[string]*opStats)}
	expvar.Publish(name, expvar.Func(func() any {
		return rec.Snapshot()
	}))
	return rec
}

// Name returns the expvar export name associated with the recorder.
func (r *ExpvarMetricsRecorder) Name() string {
	return r.name
}

// Snapshot returns an immutable copy of the aggregated metrics.
func (r *ExpvarMetricsRecorder) Snapshot() ExpvarMetricsSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := ExpvarMetricsSnapshot{
		DurationsMS: make(map[string]float64, len(r.ops)),
		Results:     make(map[string]map[string]int64, len(r.ops)),
		RecordedAt:  time.Now().UTC(),
	}
	for op, stats := range r.ops {
		snap.DurationsMS[op] = stats.durationMS
		results := make(map[string]int64, len(stats.results))
		for status, count := range stats.results {
			results[status] = count
		}
		snap.Results[op] = results
		if len(stats.solves) > 0 {
			if snap.SolveStatuses == nil {
				snap.SolveStatuses = make(map[string]map[string]int64)
			}
			solves := make(map[string]int64, len(stats.solves))
			for status, count := range stats.solves {
				solves[status] = count
			}
			snap.SolveStatuses[op] = solves
		}
		if stats.solved {
			if snap.LastObjective == nil {
				snap.LastObjective = make(map[string]float64)
			}
			snap.LastObjective[op] = stats.objective
		}
	}
	return snap
}

func (r *ExpvarMetricsRecorder) stats(operation string) *opStats {
	stats, ok := r.ops[operation]
	if !ok {
		stats = &opStats{results: make(map[string]int64, 2), solves: make(map[string]int64, 2)}
		r.ops[operation] = stats
	}
	return stats
}

// Observe records a service operation outcome.
func (r *ExpvarMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	status := "error"
	if success {
		status = "success"
	}

	r.mu.Lock()
	stats := r.stats(operation)
	stats.durationMS += float64(duration) / float64(time.Millisecond)
	stats.results[status]++
	r.mu.Unlock()
}

// ObserveSolve records the optimizer verdict of a flux study.
func (r *ExpvarMetricsRecorder) ObserveSolve(_ context.Context, operation string, status metabolic.SolveStatus, objective float64) {
	if operation == "" {
		return
	}
	r.mu.Lock()
	stats := r.stats(operation)
	stats.solves[string(status)]++
	stats.objective = objective
	stats.solved = true
	r.mu.Unlock()
}

// JSONTraceEntry represents a serialized span emitted by JSONTraceTracer.
// Fields carries the span attributes, for flux studies the solve status and
// the achieved objective.
type JSONTraceEntry struct {
	Operation  string         `json:"operation"`
	Status     string         `json:"status"`
	DurationMS float64        `json:"duration_ms"`
	Error      string         `json:"error,omitempty"`
	Fields     map[string]any `json:"fields,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
	EndedAt    time.Time      `json:"ended_at"`
}

// JSONTraceTracer serializes spans to a writer and retains them for
// inspection.
type JSONTraceTracer struct {
	mu      sync.Mutex
	entries []JSONTraceEntry
	enc     *json.Encoder
}

var _ Tracer = (*JSONTraceTracer)(nil)

// NewJSONTracer constructs a tracer that writes spans as JSON lines to the
// writer. All encoded spans stay available via Entries().
func NewJSONTracer(w io.Writer) *JSONTraceTracer {
	var enc *json.Encoder
	if w != nil {
		enc = json.NewEncoder(w)
	}
	return &JSONTraceTracer{enc: enc}
}

// Entries returns a copy of all recorded spans.
func (t *JSONTraceTracer) Entries() []JSONTraceEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]JSONTraceEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Start implements the Tracer interface.
func (t *JSONTraceTracer) Start(ctx context.Context, operation string) (context.Context, TraceSpan) {
	span := &jsonTraceSpan{
		tracer:    t,
		operation: operation,
		started:   time.Now().UTC(),
	}
	return ctx, span
}

type jsonTraceSpan struct {
	tracer    *JSONTraceTracer
	operation string
	started   time.Time
	fields    map[string]any
}

// SetField attaches an attribute to the span. The span owner calls this
// before End from a single goroutine.
func (s *jsonTraceSpan) SetField(key string, value any) {
	if s.fields == nil {
		s.fields = make(map[string]any, 2)
	}
	s.fields[key] = value
}

func (s *jsonTraceSpan) End(err error) {
	status := "success"
	var errMsg string
	if err != nil {
		status = "error"
		errMsg = err.Error()
	}
	ended := time.Now().UTC()
	entry := JSONTraceEntry{
		Operation:  s.operation,
		Status:     status,
		DurationMS: float64(ended.Sub(s.started)) / float64(time.Millisecond),
		Error:      errMsg,
		Fields:     s.fields,
		StartedAt:  s.started,
		EndedAt:    ended,
	}

	s.tracer.mu.Lock()
	s.tracer.entries = append(s.tracer.entries, entry)
	if s.tracer.enc != nil {
		_ = s.tracer.enc.Encode(entry)
	}
	s.tracer.mu.Unlock()
}
