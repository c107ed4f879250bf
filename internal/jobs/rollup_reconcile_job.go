package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RollupReconcileJobName is the name of the nightly aggregate reconcile job
const RollupReconcileJobName = "rollup_reconcile"

// DealLister lists every deal ID. This interface lets the job call the
// repository without importing the package directly.
type DealLister interface {
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
}

// ProgressReconciler recomputes a deal's rollup progress from its tasks.
type ProgressReconciler interface {
	RecalculateProgress(ctx context.Context, dealID uuid.UUID) error
}

// RollupReconcileJob walks every deal and recomputes its rollup progress.
// Aggregate writes after child mutations are sequential and non-atomic, so a
// crash in between can leave an aggregate stale; this job bounds how long
// such a window lasts.
type RollupReconcileJob struct {
	deals      DealLister
	reconciler ProgressReconciler
	logger     *zap.Logger
	timeout    time.Duration
}

// NewRollupReconcileJob creates a new reconcile job. The timeout bounds one
// whole run.
func NewRollupReconcileJob(deals DealLister, reconciler ProgressReconciler, logger *zap.Logger, timeout time.Duration) *RollupReconcileJob {
	return &RollupReconcileJob{
		deals:      deals,
		reconciler: reconciler,
		logger:     logger,
		timeout:    timeout,
	}
}

// Run executes one reconcile pass. A failure on one deal is logged and does
// not stop the pass.
func (j *RollupReconcileJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()

	ids, err := j.deals.ListIDs(ctx)
	if err != nil {
		j.logger.Error("rollup reconcile failed to list deals", zap.Error(err))
		return
	}

	reconciled := 0
	failed := 0
	for _, id := range ids {
		if err := j.reconciler.RecalculateProgress(ctx, id); err != nil {
			failed++
			j.logger.Warn("rollup reconcile failed for deal",
				zap.String("dealId", id.String()), zap.Error(err))
			continue
		}
		reconciled++
	}

	j.logger.Info("rollup reconcile completed",
		zap.Int("reconciled", reconciled),
		zap.Int("failed", failed),
		zap.Duration("duration", time.Since(start)))
}
