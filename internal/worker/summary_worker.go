package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finreport/internal/amqp"
)

// SummaryStore is the slice of the repository the worker needs.
type SummaryStore interface {
	RecomputeDailySummary(ctx context.Context, owner string, day time.Time) error
	RebuildDailySummaries(ctx context.Context, since time.Time) error
}

// SummaryWorker keeps the daily_summary rollup table in step with the
// ledger. Single days are recomputed as change events arrive; a periodic
// rebuild sweeps a recent window to catch anything a lost event missed.
type SummaryWorker struct {
	storage     SummaryStore
	rebuildDays int
}

func NewSummaryWorker(storage SummaryStore, rebuildDays int) *SummaryWorker {
	return &SummaryWorker{
		storage:     storage,
		rebuildDays: rebuildDays,
	}
}

// HandleLedgerEvent recomputes the rollup for the day named by the event.
// Returning an error requeues the message.
func (w *SummaryWorker) HandleLedgerEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	day, err := time.ParseInLocation("2006-01-02", msg.Day, time.UTC)
	if err != nil {
		return fmt.Errorf("parse event day %q: %w", msg.Day, err)
	}

	slog.InfoContext(ctx, "Processing ledger event",
		"id", msg.ID,
		"owner", msg.Owner,
		"op", msg.Op,
		"day", msg.Day)

	if err := w.storage.RecomputeDailySummary(ctx, msg.Owner, day); err != nil {
		return fmt.Errorf("recompute daily summary: %w", err)
	}

	return nil
}

// RebuildRecent rebuilds rollups for the configured trailing window.
func (w *SummaryWorker) RebuildRecent(ctx context.Context) error {
	since := time.Now().UTC().AddDate(0, 0, -w.rebuildDays)
	if err := w.storage.RebuildDailySummaries(ctx, since); err != nil {
		return fmt.Errorf("rebuild daily summaries: %w", err)
	}
	return nil
}

// RunRebuildLoop runs RebuildRecent once at startup and then on every tick
// until the context ends. Failures are logged and retried on the next tick.
func (w *SummaryWorker) RunRebuildLoop(ctx context.Context, interval time.Duration) error {
	if err := w.RebuildRecent(ctx); err != nil {
		slog.ErrorContext(ctx, "Initial summary rebuild failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping summary rebuild loop", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			if err := w.RebuildRecent(ctx); err != nil {
				slog.ErrorContext(ctx, "Summary rebuild failed", "error", err)
			}
		}
	}
}
