package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/structura-group/pipeline-api/internal/domain"
	"github.com/structura-group/pipeline-api/internal/service"
	"github.com/structura-group/pipeline-api/internal/testutil"
)

func TestCommissionService_Release(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc := newServices(t, db)

	admin := testutil.CreateTestUser(t, db, domain.RoleAdmin)
	agent := testutil.CreateTestUser(t, db, domain.RoleSalesAgent)
	ctx := testutil.ContextFor(admin)
	user := testutil.UserCtx(admin)

	deal := testutil.CreateTestDeal(t, db, admin.ID, func(d *domain.Deal) {
		d.ReferralAgentID = &agent.ID
	})
	commission := &domain.Commission{
		DealID:       deal.ID,
		AgentID:      agent.ID,
		Rate:         5,
		EarnedAmount: 10000,
		Status:       domain.CommissionStatusPending,
	}
	require.NoError(t, db.Create(commission).Error)

	t.Run("partial release", func(t *testing.T) {
		released, err := svc.commissions.Release(ctx, user, commission.ID, 4000)
		require.NoError(t, err)
		assert.Equal(t, 4000.0, released.ReleasedAmount)
		assert.Equal(t, domain.CommissionStatusPartiallyReleased, released.Status)

		stored, err := svc.userRepo.FindByID(ctx, agent.ID)
		require.NoError(t, err)
		assert.Equal(t, 4000.0, stored.TotalCommissionEarned)
	})

	t.Run("full release", func(t *testing.T) {
		released, err := svc.commissions.Release(ctx, user, commission.ID, 6000)
		require.NoError(t, err)
		assert.Equal(t, 10000.0, released.ReleasedAmount)
		assert.Equal(t, domain.CommissionStatusReleased, released.Status)

		stored, err := svc.userRepo.FindByID(ctx, agent.ID)
		require.NoError(t, err)
		assert.Equal(t, 10000.0, stored.TotalCommissionEarned)
	})

	t.Run("over-release is allowed, not capped", func(t *testing.T) {
		released, err := svc.commissions.Release(ctx, user, commission.ID, 500)
		require.NoError(t, err)
		assert.Equal(t, 10500.0, released.ReleasedAmount)
		assert.Equal(t, domain.CommissionStatusReleased, released.Status)
	})

	t.Run("non-positive amount rejected", func(t *testing.T) {
		_, err := svc.commissions.Release(ctx, user, commission.ID, 0)
		assert.ErrorIs(t, err, service.ErrInvalidInput)

		_, err = svc.commissions.Release(ctx, user, commission.ID, -10)
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})
}

func TestCommissionService_Visibility(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc := newServices(t, db)

	admin := testutil.CreateTestUser(t, db, domain.RoleAdmin)
	agent := testutil.CreateTestUser(t, db, domain.RoleSalesAgent)
	otherAgent := testutil.CreateTestUser(t, db, domain.RoleSalesAgent)

	// The deal is not visible to the agent (created by admin, no referral
	// link), yet the agent still sees its own commission on it.
	deal := testutil.CreateTestDeal(t, db, admin.ID)
	commission := &domain.Commission{
		DealID:       deal.ID,
		AgentID:      agent.ID,
		Rate:         3,
		EarnedAmount: 1500,
		Status:       domain.CommissionStatusPending,
	}
	require.NoError(t, db.Create(commission).Error)

	mine, err := svc.commissions.GetByID(testutil.ContextFor(agent), testutil.UserCtx(agent), commission.ID)
	require.NoError(t, err)
	assert.Equal(t, commission.ID, mine.ID)

	_, err = svc.commissions.GetByID(testutil.ContextFor(otherAgent), testutil.UserCtx(otherAgent), commission.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}
