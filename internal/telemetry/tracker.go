// Package telemetry records response-source, latency and cost events
// without ever blocking the request path.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"lingocache/internal/model"
)

// Sink receives every event accepted by the tracker
type Sink interface {
	Name() string
	Record(ctx context.Context, ev model.TelemetryEvent) error
}

// Tracker aggregates events in process and fans them out to sinks from a
// single background goroutine.
type Tracker struct {
	events  chan model.TelemetryEvent
	sinks   []Sink
	logger  *slog.Logger
	timeout time.Duration

	closeMu sync.RWMutex
	closed  bool
	done    chan struct{}

	dropped atomic.Int64

	mu         sync.Mutex
	total      int64
	degraded   int64
	cost       float64
	bySource   map[model.ResponseSource]int64
	latencySum map[model.ResponseSource]float64
}

// NewTracker starts the dispatcher. bufferSize bounds queued events.
func NewTracker(bufferSize int, logger *slog.Logger, sinks ...Sink) *Tracker {
	if bufferSize <= 0 {
		bufferSize = 1024
	}
	if logger == nil {
		logger = slog.Default()
	}
	t := &Tracker{
		events:     make(chan model.TelemetryEvent, bufferSize),
		sinks:      sinks,
		logger:     logger,
		timeout:    2 * time.Second,
		done:       make(chan struct{}),
		bySource:   make(map[model.ResponseSource]int64),
		latencySum: make(map[model.ResponseSource]float64),
	}
	go t.dispatch()
	return t
}

// Record accepts an event. It never blocks: when the queue is full the
// event still counts towards the snapshot but is not delivered to sinks.
func (t *Tracker) Record(ev model.TelemetryEvent) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	t.aggregate(ev)

	t.closeMu.RLock()
	defer t.closeMu.RUnlock()
	if t.closed {
		t.dropped.Add(1)
		return
	}
	select {
	case t.events <- ev:
	default:
		t.dropped.Add(1)
	}
}

func (t *Tracker) aggregate(ev model.TelemetryEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.total++
	t.bySource[ev.Source]++
	t.latencySum[ev.Source] += ev.LatencyMS
	if ev.Degraded {
		t.degraded++
	}
	if ev.CostUnits != nil {
		t.cost += *ev.CostUnits
	}
}

func (t *Tracker) dispatch() {
	defer close(t.done)
	for ev := range t.events {
		for _, s := range t.sinks {
			ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
			if err := s.Record(ctx, ev); err != nil {
				t.logger.Warn("telemetry sink failed", "sink", s.Name(), "error", err)
			}
			cancel()
		}
	}
}

// Snapshot returns the aggregates so far
func (t *Tracker) Snapshot() model.TelemetrySnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	snap := model.TelemetrySnapshot{
		Events:       t.total,
		Dropped:      t.dropped.Load(),
		BySource:     make(map[model.ResponseSource]int64, len(t.bySource)),
		Degraded:     t.degraded,
		CostUnits:    t.cost,
		AvgLatencyMS: make(map[model.ResponseSource]float64, len(t.latencySum)),
	}
	for src, n := range t.bySource {
		snap.BySource[src] = n
		if n > 0 {
			snap.AvgLatencyMS[src] = t.latencySum[src] / float64(n)
		}
	}
	if t.total > 0 {
		snap.ExternalRatio = float64(t.bySource[model.ResponseExternal]) / float64(t.total)
	}
	return snap
}

// Close stops accepting events and waits for queued ones to reach the sinks
func (t *Tracker) Close(ctx context.Context) error {
	t.closeMu.Lock()
	if !t.closed {
		t.closed = true
		close(t.events)
	}
	t.closeMu.Unlock()

	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
