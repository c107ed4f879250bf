package jobs

import (
	"context"
	"time"

	"github.com/structura-group/pipeline-api/internal/auth"
	"github.com/structura-group/pipeline-api/internal/domain"
	"github.com/structura-group/pipeline-api/internal/reporting"
	"go.uber.org/zap"
)

// ReportingExportJobName is the name of the hourly warehouse export job
const ReportingExportJobName = "reporting_export"

// PipelineSource produces the per-stage pipeline breakdown.
type PipelineSource interface {
	Pipeline(ctx context.Context, user *auth.UserContext) ([]domain.PipelineStageDTO, error)
}

// CommissionSource lists every commission record.
type CommissionSource interface {
	ListAll(ctx context.Context) ([]domain.Commission, error)
}

// ReportingExportJob pushes pipeline and commission snapshots to the
// reporting warehouse. With no configured warehouse client the job is a
// no-op.
type ReportingExportJob struct {
	pipeline    PipelineSource
	commissions CommissionSource
	client      *reporting.Client
	logger      *zap.Logger
	timeout     time.Duration
}

// NewReportingExportJob creates a new export job.
func NewReportingExportJob(
	pipeline PipelineSource,
	commissions CommissionSource,
	client *reporting.Client,
	logger *zap.Logger,
	timeout time.Duration,
) *ReportingExportJob {
	return &ReportingExportJob{
		pipeline:    pipeline,
		commissions: commissions,
		client:      client,
		logger:      logger,
		timeout:     timeout,
	}
}

// Run executes one export. Snapshots are read with an unrestricted view so
// the warehouse sees the whole pipeline.
func (j *ReportingExportJob) Run() {
	if j.client == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	snapshotAt := start.UTC()
	admin := &auth.UserContext{Role: domain.RoleAdmin}

	breakdown, err := j.pipeline.Pipeline(ctx, admin)
	if err != nil {
		j.logger.Error("reporting export failed to read pipeline", zap.Error(err))
		return
	}
	pipelineRows := make([]reporting.PipelineStageSnapshot, len(breakdown))
	for i, stage := range breakdown {
		pipelineRows[i] = reporting.PipelineStageSnapshot{
			SnapshotAt: snapshotAt,
			Stage:      string(stage.Stage),
			DealCount:  stage.Count,
			TotalValue: stage.Value,
		}
	}
	if err := j.client.ExportPipelineSnapshot(ctx, pipelineRows); err != nil {
		j.logger.Error("reporting export failed to write pipeline snapshot", zap.Error(err))
		return
	}

	commissions, err := j.commissions.ListAll(ctx)
	if err != nil {
		j.logger.Error("reporting export failed to read commissions", zap.Error(err))
		return
	}
	commissionRows := make([]reporting.CommissionSnapshot, len(commissions))
	for i, c := range commissions {
		commissionRows[i] = reporting.CommissionSnapshot{
			SnapshotAt:     snapshotAt,
			CommissionID:   c.ID.String(),
			DealID:         c.DealID.String(),
			AgentID:        c.AgentID.String(),
			Rate:           c.Rate,
			EarnedAmount:   c.EarnedAmount,
			ReleasedAmount: c.ReleasedAmount,
			Status:         string(c.Status),
		}
	}
	if err := j.client.ExportCommissionSnapshot(ctx, commissionRows); err != nil {
		j.logger.Error("reporting export failed to write commission snapshot", zap.Error(err))
		return
	}

	j.logger.Info("reporting export completed",
		zap.Int("pipeline_rows", len(pipelineRows)),
		zap.Int("commission_rows", len(commissionRows)),
		zap.Duration("duration", time.Since(start)))
}
