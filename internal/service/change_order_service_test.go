package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/structura-group/pipeline-api/internal/domain"
	"github.com/structura-group/pipeline-api/internal/service"
	"github.com/structura-group/pipeline-api/internal/testutil"
)

func TestChangeOrderService_Approve(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc := newServices(t, db)

	admin := testutil.CreateTestUser(t, db, domain.RoleAdmin)
	ctx := testutil.ContextFor(admin)
	user := testutil.UserCtx(admin)

	deal := testutil.CreateTestDeal(t, db, admin.ID, func(d *domain.Deal) {
		d.ApprovedValue = 100000
		d.Budget = 80000
	})

	order, err := svc.changes.Create(ctx, user, deal.ID, &domain.CreateChangeOrderRequest{
		Title:       "Extra balcony",
		ValueImpact: 25000,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ApprovalStatusPending, order.Status)

	t.Run("approval adds the impact to approved value and budget", func(t *testing.T) {
		approved, err := svc.changes.Approve(ctx, user, order.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.ApprovalStatusApproved, approved.Status)
		require.NotNil(t, approved.ApprovedBy)
		assert.Equal(t, admin.ID, *approved.ApprovedBy)

		stored, err := svc.dealRepo.FindByID(ctx, deal.ID)
		require.NoError(t, err)
		assert.Equal(t, 125000.0, stored.ApprovedValue)
		assert.Equal(t, 105000.0, stored.Budget)
	})

	t.Run("second approval does not double-apply", func(t *testing.T) {
		_, err := svc.changes.Approve(ctx, user, order.ID)
		assert.ErrorIs(t, err, service.ErrAlreadyDecided)

		stored, err := svc.dealRepo.FindByID(ctx, deal.ID)
		require.NoError(t, err)
		assert.Equal(t, 125000.0, stored.ApprovedValue)
	})

	t.Run("rejection leaves aggregates alone", func(t *testing.T) {
		rejected, err := svc.changes.Create(ctx, user, deal.ID, &domain.CreateChangeOrderRequest{
			Title:       "Gold-plated taps",
			ValueImpact: 900000,
		})
		require.NoError(t, err)

		result, err := svc.changes.Reject(ctx, user, rejected.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.ApprovalStatusRejected, result.Status)

		stored, err := svc.dealRepo.FindByID(ctx, deal.ID)
		require.NoError(t, err)
		assert.Equal(t, 125000.0, stored.ApprovedValue)
		assert.Equal(t, 105000.0, stored.Budget)
	})

	t.Run("negative impact shrinks the aggregates", func(t *testing.T) {
		descope, err := svc.changes.Create(ctx, user, deal.ID, &domain.CreateChangeOrderRequest{
			Title:       "Drop the carport",
			ValueImpact: -5000,
		})
		require.NoError(t, err)

		_, err = svc.changes.Approve(ctx, user, descope.ID)
		require.NoError(t, err)

		stored, err := svc.dealRepo.FindByID(ctx, deal.ID)
		require.NoError(t, err)
		assert.Equal(t, 120000.0, stored.ApprovedValue)
		assert.Equal(t, 100000.0, stored.Budget)
	})
}
