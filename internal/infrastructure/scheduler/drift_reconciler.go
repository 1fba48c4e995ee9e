package scheduler

import (
	"context"
	"time"

	"github.com/bookvine/cart-service/internal/application/use_cases"
	"github.com/bookvine/cart-service/internal/pkg/logger"
)

// DriftReconciler periodically repairs cart lines whose remote
// mutation failed, and evicts idle sessions while it is at it. It is
// the backstop that keeps optimistic local state from diverging from
// the server cart for the rest of a session.
type DriftReconciler struct {
	sessions *use_cases.SessionRegistry
	logger   *logger.Logger
	interval time.Duration
	stopChan chan struct{}
}

func NewDriftReconciler(
	sessions *use_cases.SessionRegistry,
	log *logger.Logger,
	interval time.Duration,
) *DriftReconciler {
	return &DriftReconciler{
		sessions: sessions,
		logger:   log,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

func (r *DriftReconciler) Start(ctx context.Context) {
	r.logger.Info("Starting drift reconciler", "interval", r.interval.String())

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Drift reconciler stopped")
			return
		case <-r.stopChan:
			r.logger.Info("Drift reconciler stopped")
			return
		case <-ticker.C:
			r.runOnce(ctx)
		}
	}
}

func (r *DriftReconciler) Stop() {
	close(r.stopChan)
}

func (r *DriftReconciler) runOnce(ctx context.Context) {
	r.sessions.EvictIdle()

	r.sessions.ForEach(func(id string, sync *use_cases.CartSyncUseCase) {
		if !sync.HasDrift() {
			return
		}
		r.logger.Info("Reconciling drifted session", "session_id", id)
		sync.ReconcileDrift(ctx)
	})
}
