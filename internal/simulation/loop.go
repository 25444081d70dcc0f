// Package simulation drives the tick loop: the single consumer of every
// empire inbox.
package simulation

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"empires-server/internal/empire"
	"empires-server/internal/shared/metrics"
)

type SummaryPublisher interface {
	Publish(ctx context.Context, summaries []empire.Summary) error
}

type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, tick int64, catalogDigest string, enc empire.EncodedSnapshot) error
}

type Loop struct {
	registry      *empire.Registry
	publisher     SummaryPublisher
	store         SnapshotStore
	interval      time.Duration
	snapshotEvery int64
	tick          atomic.Int64
	logger        *slog.Logger
}

type Option func(*Loop)

// WithSnapshots persists every empire to store once per every ticks.
func WithSnapshots(store SnapshotStore, every int) Option {
	return func(l *Loop) {
		l.store = store
		l.snapshotEvery = int64(every)
	}
}

func NewLoop(registry *empire.Registry, publisher SummaryPublisher, interval time.Duration, logger *slog.Logger, opts ...Option) *Loop {
	l := &Loop{
		registry:  registry,
		publisher: publisher,
		interval:  interval,
		logger:    logger.With("component", "simulation_loop"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// TickReport describes one pass over every empire.
type TickReport struct {
	Tick      int64
	Applied   int
	Failed    int
	Snapshots int
	Empires   []empire.ApplyReport
}

// Run ticks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	logger := l.logger.With("operation", "run", "interval", l.interval)
	logger.Info("Simulation loop started", "empires", l.registry.Len(), "snapshot_every", l.snapshotEvery)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Simulation loop stopped", "tick", l.tick.Load())
			return ctx.Err()
		case <-ticker.C:
			if _, err := l.Tick(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Tick failed", "error", err)
			}
		}
	}
}

func (l *Loop) CurrentTick() int64 { return l.tick.Load() }

// Tick drains and applies every inbox once, visiting empires by ascending id,
// then publishes summaries and, when due, snapshots. Apply failures are per
// command and never abort the tick; the returned error covers publishing and
// persistence only.
func (l *Loop) Tick(ctx context.Context) (TickReport, error) {
	start := time.Now()
	tick := l.tick.Add(1)
	report := TickReport{Tick: tick}

	empires := l.registry.Ordered()
	summaries := make([]empire.Summary, 0, len(empires))
	for _, e := range empires {
		r := e.ApplyPending()
		report.Applied += r.Applied
		report.Failed += len(r.Failed)
		report.Empires = append(report.Empires, r)
		summaries = append(summaries, e.Summary())
	}

	var errs []error
	if l.publisher != nil {
		if err := l.publisher.Publish(ctx, summaries); err != nil {
			errs = append(errs, err)
		}
	}

	if l.store != nil && l.snapshotEvery > 0 && tick%l.snapshotEvery == 0 {
		n, err := l.persist(ctx, tick, empires)
		report.Snapshots = n
		if err != nil {
			errs = append(errs, err)
		}
	}

	elapsed := time.Since(start)
	metrics.ObserveTick(elapsed)
	if report.Applied > 0 || report.Failed > 0 || report.Snapshots > 0 {
		l.logger.Debug("Tick applied",
			"tick", tick,
			"applied", report.Applied,
			"failed", report.Failed,
			"snapshots", report.Snapshots,
			"duration", elapsed,
		)
	}
	return report, errors.Join(errs...)
}

// Flush runs a final tick and snapshots every empire regardless of schedule.
// Call it after closing the inboxes so nothing accepted is lost.
func (l *Loop) Flush(ctx context.Context) error {
	report, err := l.Tick(ctx)
	if l.store == nil || report.Snapshots > 0 {
		return err
	}
	_, persistErr := l.persist(ctx, report.Tick, l.registry.Ordered())
	return errors.Join(err, persistErr)
}

func (l *Loop) persist(ctx context.Context, tick int64, empires []*empire.Empire) (int, error) {
	logger := l.logger.With("operation", "persist", "tick", tick)

	saved := 0
	var errs []error
	for _, e := range empires {
		enc, err := empire.EncodeSnapshot(e.Snapshot())
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := l.store.SaveSnapshot(ctx, tick, e.Catalog().Digest, enc); err != nil {
			errs = append(errs, err)
			continue
		}
		saved++
	}

	if len(errs) > 0 {
		logger.Error("Failed to persist snapshots", "saved", saved, "failed", len(errs))
	} else {
		logger.Info("Snapshots persisted", "count", saved)
	}
	return saved, errors.Join(errs...)
}
