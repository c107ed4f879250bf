package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/structura-group/pipeline-api/internal/domain"
	"github.com/structura-group/pipeline-api/internal/service"
	"github.com/structura-group/pipeline-api/internal/testutil"
)

func TestDealService_Create(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc := newServices(t, db)

	admin := testutil.CreateTestUser(t, db, domain.RoleAdmin)
	agent := testutil.CreateTestUser(t, db, domain.RoleSalesAgent)
	partner := testutil.CreateTestUser(t, db, domain.RolePartner)

	t.Run("defaults", func(t *testing.T) {
		deal, err := svc.deals.Create(testutil.ContextFor(admin), testutil.UserCtx(admin), &domain.CreateDealRequest{
			Title:      "Warehouse extension",
			ClientName: "Acme Logistics",
		})
		require.NoError(t, err)
		assert.Equal(t, domain.DealStageInquiry, deal.Stage)
		assert.Equal(t, domain.ClientCategoryBusiness, deal.ClientCategory)
		assert.Equal(t, admin.ID, deal.CreatedBy)
	})

	t.Run("unknown stage rejected", func(t *testing.T) {
		_, err := svc.deals.Create(testutil.ContextFor(admin), testutil.UserCtx(admin), &domain.CreateDealRequest{
			Title:      "Bad stage",
			ClientName: "Acme",
			Stage:      domain.DealStage("limbo"),
		})
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("agent becomes referral agent by default", func(t *testing.T) {
		deal, err := svc.deals.Create(testutil.ContextFor(agent), testutil.UserCtx(agent), &domain.CreateDealRequest{
			Title:      "Referred job",
			ClientName: "Homeowner",
		})
		require.NoError(t, err)
		require.NotNil(t, deal.ReferralAgentID)
		assert.Equal(t, agent.ID, *deal.ReferralAgentID)
	})

	t.Run("partner is appended to partner list", func(t *testing.T) {
		deal, err := svc.deals.Create(testutil.ContextFor(partner), testutil.UserCtx(partner), &domain.CreateDealRequest{
			Title:      "Partner job",
			ClientName: "Homeowner",
		})
		require.NoError(t, err)
		assert.Contains(t, deal.PartnerIDs, partner.ID)
	})
}

func TestDealService_Update(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc := newServices(t, db)

	admin := testutil.CreateTestUser(t, db, domain.RoleAdmin)
	pm := testutil.CreateTestUser(t, db, domain.RoleProjectManager)
	agent := testutil.CreateTestUser(t, db, domain.RoleSalesAgent)

	t.Run("partial update leaves other fields untouched", func(t *testing.T) {
		deal := testutil.CreateTestDeal(t, db, admin.ID, func(d *domain.Deal) {
			d.Description = "original description"
			d.EstimatedValue = 1000
		})

		title := "Renamed deal"
		updated, err := svc.deals.Update(testutil.ContextFor(admin), testutil.UserCtx(admin), deal.ID, &domain.UpdateDealRequest{
			Title: &title,
		})
		require.NoError(t, err)
		assert.Equal(t, "Renamed deal", updated.Title)
		assert.Equal(t, "original description", updated.Description)
		assert.Equal(t, 1000.0, updated.EstimatedValue)
	})

	t.Run("empty update rejected", func(t *testing.T) {
		deal := testutil.CreateTestDeal(t, db, admin.ID)
		_, err := svc.deals.Update(testutil.ContextFor(admin), testutil.UserCtx(admin), deal.ID, &domain.UpdateDealRequest{})
		assert.ErrorIs(t, err, service.ErrEmptyUpdate)
	})

	t.Run("assignment fields require the assign permission", func(t *testing.T) {
		deal := testutil.CreateTestDeal(t, db, agent.ID)

		_, err := svc.deals.Update(testutil.ContextFor(agent), testutil.UserCtx(agent), deal.ID, &domain.UpdateDealRequest{
			AssignedPM: &pm.ID,
		})
		assert.ErrorIs(t, err, service.ErrPermissionDenied)

		// An agent may still edit non-assignment fields of its own deal.
		notes := "spoke with the client"
		_, err = svc.deals.Update(testutil.ContextFor(agent), testutil.UserCtx(agent), deal.ID, &domain.UpdateDealRequest{
			Description: &notes,
		})
		assert.NoError(t, err)
	})

	t.Run("invisible deal reads as not found", func(t *testing.T) {
		deal := testutil.CreateTestDeal(t, db, admin.ID)
		title := "hijack"
		_, err := svc.deals.Update(testutil.ContextFor(agent), testutil.UserCtx(agent), deal.ID, &domain.UpdateDealRequest{
			Title: &title,
		})
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestDealService_RecalculateProgress(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc := newServices(t, db)
	ctx := testutil.ContextFor(testutil.CreateTestUser(t, db, domain.RoleAdmin))

	admin := testutil.CreateTestUser(t, db, domain.RoleAdmin)
	deal := testutil.CreateTestDeal(t, db, admin.ID)

	t.Run("no tasks means zero progress", func(t *testing.T) {
		require.NoError(t, svc.deals.RecalculateProgress(ctx, deal.ID))

		stored, err := svc.dealRepo.FindByID(ctx, deal.ID)
		require.NoError(t, err)
		assert.Equal(t, 0.0, stored.ProgressPercentage)
	})

	t.Run("mean of task progress rounded to two decimals", func(t *testing.T) {
		for _, p := range []float64{0, 50, 50} {
			task := &domain.Task{DealID: deal.ID, Name: "t", Status: domain.TaskStatusInProgress, Progress: p, CreatedBy: admin.ID}
			require.NoError(t, db.Create(task).Error)
		}

		require.NoError(t, svc.deals.RecalculateProgress(ctx, deal.ID))

		stored, err := svc.dealRepo.FindByID(ctx, deal.ID)
		require.NoError(t, err)
		assert.Equal(t, 33.33, stored.ProgressPercentage)
	})
}

func TestDealService_Delete(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc := newServices(t, db)

	admin := testutil.CreateTestUser(t, db, domain.RoleAdmin)
	deal := testutil.CreateTestDeal(t, db, admin.ID)
	task := &domain.Task{DealID: deal.ID, Name: "doomed", Status: domain.TaskStatusPending, CreatedBy: admin.ID}
	require.NoError(t, db.Create(task).Error)

	require.NoError(t, svc.deals.Delete(testutil.ContextFor(admin), testutil.UserCtx(admin), deal.ID))

	var dealCount, taskCount int64
	require.NoError(t, db.Model(&domain.Deal{}).Where("id = ?", deal.ID).Count(&dealCount).Error)
	require.NoError(t, db.Model(&domain.Task{}).Where("deal_id = ?", deal.ID).Count(&taskCount).Error)
	assert.Zero(t, dealCount)
	assert.Zero(t, taskCount)
}
