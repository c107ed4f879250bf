package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/structura-group/pipeline-api/internal/domain"
	"github.com/structura-group/pipeline-api/internal/testutil"
)

func TestDashboardService_Stats(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc := newServices(t, db)

	admin := testutil.CreateTestUser(t, db, domain.RoleAdmin)
	agent := testutil.CreateTestUser(t, db, domain.RoleSalesAgent)

	open := testutil.CreateTestDeal(t, db, admin.ID, func(d *domain.Deal) {
		d.EstimatedValue = 100000
	})
	testutil.CreateTestDeal(t, db, admin.ID, func(d *domain.Deal) {
		d.Stage = domain.DealStageCompleted
		d.EstimatedValue = 50000
	})

	commission := &domain.Commission{
		DealID:         open.ID,
		AgentID:        agent.ID,
		Rate:           5,
		EarnedAmount:   5000,
		ReleasedAmount: 2000,
		Status:         domain.CommissionStatusPartiallyReleased,
	}
	require.NoError(t, db.Create(commission).Error)

	t.Run("admin gets totals and value stats", func(t *testing.T) {
		stats, err := svc.dashboard.Stats(testutil.ContextFor(admin), testutil.UserCtx(admin))
		require.NoError(t, err)
		assert.EqualValues(t, 2, stats.TotalDeals)
		assert.EqualValues(t, 1, stats.ActiveDeals)
		require.NotNil(t, stats.TotalPipelineValue)
		assert.Equal(t, 150000.0, *stats.TotalPipelineValue)
		require.NotNil(t, stats.TotalUsers)
		assert.EqualValues(t, 2, *stats.TotalUsers)
		assert.Nil(t, stats.TotalCommissionEarned)
	})

	t.Run("agent gets commission stats over own records only", func(t *testing.T) {
		stats, err := svc.dashboard.Stats(testutil.ContextFor(agent), testutil.UserCtx(agent))
		require.NoError(t, err)
		require.NotNil(t, stats.TotalCommissionEarned)
		assert.Equal(t, 5000.0, *stats.TotalCommissionEarned)
		require.NotNil(t, stats.CommissionReleased)
		assert.Equal(t, 2000.0, *stats.CommissionReleased)
		assert.Nil(t, stats.TotalPipelineValue)
		assert.Nil(t, stats.TotalUsers)
	})
}

func TestDashboardService_Pipeline(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc := newServices(t, db)

	admin := testutil.CreateTestUser(t, db, domain.RoleAdmin)
	testutil.CreateTestDeal(t, db, admin.ID, func(d *domain.Deal) {
		d.EstimatedValue = 100
	})
	testutil.CreateTestDeal(t, db, admin.ID, func(d *domain.Deal) {
		d.EstimatedValue = 200
	})
	testutil.CreateTestDeal(t, db, admin.ID, func(d *domain.Deal) {
		d.Stage = domain.DealStageExecution
		d.EstimatedValue = 900
	})

	breakdown, err := svc.dashboard.Pipeline(testutil.ContextFor(admin), testutil.UserCtx(admin))
	require.NoError(t, err)

	// Every stage appears in pipeline order, empty ones included.
	require.Len(t, breakdown, len(domain.AllDealStages))
	byStage := make(map[domain.DealStage]domain.PipelineStageDTO, len(breakdown))
	for i, row := range breakdown {
		assert.Equal(t, domain.AllDealStages[i], row.Stage)
		byStage[row.Stage] = row
	}

	assert.EqualValues(t, 2, byStage[domain.DealStageInquiry].Count)
	assert.Equal(t, 300.0, byStage[domain.DealStageInquiry].Value)
	assert.EqualValues(t, 1, byStage[domain.DealStageExecution].Count)
	assert.EqualValues(t, 0, byStage[domain.DealStageHandover].Count)
}
