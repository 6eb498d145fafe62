package service

import (
	"context"
	"log/slog"
	"time"

	"lingocache/internal/model"
	"lingocache/internal/store"
)

// Telemetry accepts fire-and-forget events
type Telemetry interface {
	Record(ev model.TelemetryEvent)
}

// CacheWriter persists fresh evaluations, bumps usage on reuse and records
// telemetry. Its failures are logged and never reach the caller.
type CacheWriter struct {
	backend   store.Persistence
	telemetry Telemetry
	logger    *slog.Logger
	now       func() time.Time
}

// NewCacheWriter creates a writer. telemetry may be nil.
func NewCacheWriter(backend store.Persistence, telemetry Telemetry, logger *slog.Logger) *CacheWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CacheWriter{backend: backend, telemetry: telemetry, logger: logger, now: time.Now}
}

// Persist upserts rec unless the event is degraded, then records ev.
func (w *CacheWriter) Persist(ctx context.Context, rec *model.EvaluationRecord, ev model.TelemetryEvent) {
	if !ev.Degraded && rec.SourceKind != model.SourceDegraded {
		if err := w.backend.Put(ctx, rec); err != nil {
			w.logger.Warn("evaluation not cached",
				"contentId", rec.ContentID,
				"sourceKind", rec.SourceKind,
				"error", err,
			)
			if ev.Failure == "" {
				ev.Failure = "store_write"
			}
		}
	}
	w.record(ev)
}

// Touch atomically increments usage for key and records ev. On failure the
// stale record is returned unchanged.
func (w *CacheWriter) Touch(ctx context.Context, rec *model.EvaluationRecord, ev model.TelemetryEvent) *model.EvaluationRecord {
	updated, err := w.backend.IncrementUsage(ctx, rec.Key(), w.now())
	if err != nil {
		w.logger.Warn("usage increment failed", "contentId", rec.ContentID, "error", err)
		ev.Failure = "store_write"
		updated = rec
	}
	w.record(ev)
	return updated
}

// Observe records ev for a request whose record was written by someone else
func (w *CacheWriter) Observe(_ context.Context, ev model.TelemetryEvent) {
	w.record(ev)
}

func (w *CacheWriter) record(ev model.TelemetryEvent) {
	if w.telemetry == nil {
		return
	}
	w.telemetry.Record(ev)
}
