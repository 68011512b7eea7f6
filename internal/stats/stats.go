// Package stats implements the stats & observability component (spec.md
// §2 component I, expanded in SPEC_FULL.md §4): engine-wide counters and
// latency histograms, additionally exported as OTel metrics once
// internal/telemetry.Init has installed a real provider. Instruments are
// registered against the global delegating provider at init time so they
// are safe to use before telemetry is configured, mirroring the pattern
// the teacher's internal/storage/dolt/store.go uses for its own
// OTel counters.
package stats

import (
	"context"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("github.com/bingo-rules/bingo/internal/stats")

var instruments struct {
	cycleLatencyMs        metric.Float64Histogram
	batchLatencyMs        metric.Float64Histogram
	activationsFired      metric.Int64Counter
	calculatorInvocations metric.Int64Counter
}

func init() {
	instruments.cycleLatencyMs, _ = meter.Float64Histogram("bingo.engine.cycle_latency_ms",
		metric.WithDescription("Wall-clock time to drain one conflict-set cycle"),
		metric.WithUnit("ms"),
	)
	instruments.batchLatencyMs, _ = meter.Float64Histogram("bingo.engine.batch_latency_ms",
		metric.WithDescription("Wall-clock time for one process_facts call"),
		metric.WithUnit("ms"),
	)
	instruments.activationsFired, _ = meter.Int64Counter("bingo.engine.activations_fired",
		metric.WithDescription("Rule activations whose actions executed"),
		metric.WithUnit("{activation}"),
	)
	instruments.calculatorInvocations, _ = meter.Int64Counter("bingo.engine.calculator_invocations",
		metric.WithDescription("Calculator invocations by name"),
		metric.WithUnit("{invocation}"),
	)
}

// Histogram is a minimal running summary (count/sum/min/max), kept
// in-process so GetStats() can report numbers without scraping a metrics
// backend; OTel still receives every observation via Record.
type Histogram struct {
	mu    sync.Mutex
	count uint64
	sum   float64
	min   float64
	max   float64
}

func (h *Histogram) record(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.count == 0 || v < h.min {
		h.min = v
	}
	if h.count == 0 || v > h.max {
		h.max = v
	}
	h.sum += v
	h.count++
}

// HistogramSnapshot is a point-in-time read of a Histogram.
type HistogramSnapshot struct {
	Count uint64
	Sum   float64
	Min   float64
	Max   float64
	Mean  float64
}

func (h *Histogram) Snapshot() HistogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := HistogramSnapshot{Count: h.count, Sum: h.sum, Min: h.min, Max: h.max}
	if h.count > 0 {
		s.Mean = h.sum / float64(h.count)
	}
	return s
}

// Collector aggregates the per-engine-instance counters EngineStats
// reports (SPEC_FULL.md §4): cycle/batch latency, activation and
// calculator-invocation counts, rule churn. Pool hit-rate and memory-size
// counters live on the alpha/beta networks themselves and are read
// directly by the engine facade when GetStats assembles EngineStats.
type Collector struct {
	CycleLatency *Histogram
	BatchLatency *Histogram

	rulesAdded       atomic.Int64
	rulesRemoved     atomic.Int64
	activationsFired atomic.Int64
	batchesRun       atomic.Int64
	limitExceeded    atomic.Int64

	mu                    sync.Mutex
	calculatorInvocations map[string]uint64
}

// New returns an empty Collector.
func New() *Collector {
	return &Collector{
		CycleLatency:          &Histogram{},
		BatchLatency:          &Histogram{},
		calculatorInvocations: make(map[string]uint64),
	}
}

func (c *Collector) RecordRuleAdded()   { c.rulesAdded.Add(1) }
func (c *Collector) RecordRuleRemoved() { c.rulesRemoved.Add(1) }

func (c *Collector) RecordBatch(durationMs float64) {
	c.batchesRun.Add(1)
	c.BatchLatency.record(durationMs)
	instruments.batchLatencyMs.Record(context.Background(), durationMs)
}

func (c *Collector) RecordCycle(durationMs float64) {
	c.CycleLatency.record(durationMs)
	instruments.cycleLatencyMs.Record(context.Background(), durationMs)
}

func (c *Collector) RecordActivationFired() {
	c.activationsFired.Add(1)
	instruments.activationsFired.Add(context.Background(), 1)
}

func (c *Collector) RecordLimitExceeded() { c.limitExceeded.Add(1) }

func (c *Collector) RecordCalculatorInvocation(name string) {
	c.mu.Lock()
	c.calculatorInvocations[name]++
	c.mu.Unlock()
	instruments.calculatorInvocations.Add(context.Background(), 1, metric.WithAttributes(attribute.String("calculator", name)))
}

// Snapshot is the subset of EngineStats this package owns; the engine
// facade merges it with live counts it reads from the fact store and
// the alpha/beta networks.
type Snapshot struct {
	RulesAdded            int64
	RulesRemoved          int64
	ActivationsFired      int64
	BatchesRun            int64
	LimitExceededCount    int64
	CalculatorInvocations map[string]uint64
	CycleLatency          HistogramSnapshot
	BatchLatency          HistogramSnapshot
}

func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	calc := make(map[string]uint64, len(c.calculatorInvocations))
	for k, v := range c.calculatorInvocations {
		calc[k] = v
	}
	c.mu.Unlock()
	return Snapshot{
		RulesAdded:            c.rulesAdded.Load(),
		RulesRemoved:          c.rulesRemoved.Load(),
		ActivationsFired:      c.activationsFired.Load(),
		BatchesRun:            c.batchesRun.Load(),
		LimitExceededCount:    c.limitExceeded.Load(),
		CalculatorInvocations: calc,
		CycleLatency:          c.CycleLatency.Snapshot(),
		BatchLatency:          c.BatchLatency.Snapshot(),
	}
}
