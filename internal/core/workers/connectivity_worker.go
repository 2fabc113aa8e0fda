package workers

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/habitloop/stats-engine/internal/core/services"
)

// Prober checks whether the platform API answers.
type Prober interface {
	Ping(ctx context.Context) error
}

// Engine is the slice of the presentation controller the worker drives.
type Engine interface {
	Offline() bool
	Refresh(ctx context.Context) services.SyncOutcome
}

const defaultProbeInterval = 30 * time.Second

// ConnectivityWorker realizes the regained-connectivity sync trigger:
// while the engine serves cached data it probes the gateway, and on the
// first answered probe it refreshes. While the engine is online the
// ticks are no-ops.
type ConnectivityWorker struct {
	prober   Prober
	engine   Engine
	interval time.Duration
	logger   *zap.Logger
}

func NewConnectivityWorker(prober Prober, engine Engine, interval time.Duration, logger *zap.Logger) *ConnectivityWorker {
	if interval <= 0 {
		interval = defaultProbeInterval
	}

	return &ConnectivityWorker{
		prober:   prober,
		engine:   engine,
		interval: interval,
		logger:   logger,
	}
}

func (w *ConnectivityWorker) Start(ctx context.Context) {
	go func() {
		w.logger.Info("connectivity worker started", zap.Duration("probe_interval", w.interval))
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				w.probe(ctx)
			case <-ctx.Done():
				w.logger.Info("connectivity worker shutting down")
				return
			}
		}
	}()
}

func (w *ConnectivityWorker) probe(ctx context.Context) {
	if !w.engine.Offline() {
		return
	}

	if err := w.prober.Ping(ctx); err != nil {
		w.logger.Debug("connectivity probe failed", zap.Error(err))
		return
	}

	w.logger.Info("connectivity restored, refreshing")
	if out := w.engine.Refresh(ctx); out.Err != nil {
		w.logger.Warn("refresh after reconnect failed", zap.Error(out.Err))
	}
}
