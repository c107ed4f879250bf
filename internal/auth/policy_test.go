package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/structura-group/pipeline-api/internal/auth"
	"github.com/structura-group/pipeline-api/internal/domain"
)

func TestCan(t *testing.T) {
	t.Run("admin passes every check", func(t *testing.T) {
		actions := []auth.Action{
			auth.ActionManageUsers,
			auth.ActionCreateDeal,
			auth.ActionDeleteDeal,
			auth.ActionApproveQuotation,
			auth.ActionReleaseCommission,
			auth.ActionViewDashboard,
		}
		for _, action := range actions {
			assert.True(t, auth.Can(domain.RoleAdmin, action), "admin denied %s", action)
		}
	})

	t.Run("only admin manages users", func(t *testing.T) {
		roles := []domain.Role{
			domain.RoleProjectManager,
			domain.RoleSalesAgent,
			domain.RolePartner,
			domain.RoleSupervisor,
			domain.RoleFabricator,
			domain.RoleClientB2B,
			domain.RoleClientResidential,
		}
		for _, role := range roles {
			assert.False(t, auth.Can(role, auth.ActionManageUsers), "%s may manage users", role)
		}
	})

	t.Run("admin and project manager read users", func(t *testing.T) {
		assert.True(t, auth.Can(domain.RoleAdmin, auth.ActionViewUsers))
		assert.True(t, auth.Can(domain.RoleProjectManager, auth.ActionViewUsers))

		denied := []domain.Role{
			domain.RoleSalesAgent,
			domain.RolePartner,
			domain.RoleSupervisor,
			domain.RoleFabricator,
			domain.RoleClientB2B,
			domain.RoleClientResidential,
		}
		for _, role := range denied {
			assert.False(t, auth.Can(role, auth.ActionViewUsers), "%s may read users", role)
		}
	})

	t.Run("project manager approvals", func(t *testing.T) {
		assert.True(t, auth.Can(domain.RoleProjectManager, auth.ActionApproveChangeOrder))
		assert.True(t, auth.Can(domain.RoleProjectManager, auth.ActionApproveQuotation))
		assert.True(t, auth.Can(domain.RoleProjectManager, auth.ActionReleaseCommission))
		assert.True(t, auth.Can(domain.RoleProjectManager, auth.ActionAssignTeam))
	})

	t.Run("sales agent may create and update deals but not approve", func(t *testing.T) {
		assert.True(t, auth.Can(domain.RoleSalesAgent, auth.ActionCreateDeal))
		assert.True(t, auth.Can(domain.RoleSalesAgent, auth.ActionUpdateDeal))
		assert.False(t, auth.Can(domain.RoleSalesAgent, auth.ActionApproveQuotation))
		assert.False(t, auth.Can(domain.RoleSalesAgent, auth.ActionAssignTeam))
		assert.False(t, auth.Can(domain.RoleSalesAgent, auth.ActionDeleteDeal))
	})

	t.Run("partner may create deals but not update them", func(t *testing.T) {
		assert.True(t, auth.Can(domain.RolePartner, auth.ActionCreateDeal))
		assert.False(t, auth.Can(domain.RolePartner, auth.ActionUpdateDeal))
	})

	t.Run("operational roles work tasks only", func(t *testing.T) {
		assert.True(t, auth.Can(domain.RoleSupervisor, auth.ActionCreateTask))
		assert.True(t, auth.Can(domain.RoleSupervisor, auth.ActionUpdateTaskStatus))
		assert.True(t, auth.Can(domain.RoleFabricator, auth.ActionUpdateTaskStatus))
		assert.False(t, auth.Can(domain.RoleFabricator, auth.ActionCreateTask))
		assert.False(t, auth.Can(domain.RoleSupervisor, auth.ActionCreateDeal))
		assert.False(t, auth.Can(domain.RoleFabricator, auth.ActionUploadDocument))
	})

	t.Run("clients are read-mostly", func(t *testing.T) {
		for _, role := range []domain.Role{domain.RoleClientB2B, domain.RoleClientResidential} {
			assert.True(t, auth.Can(role, auth.ActionCreateMessage))
			assert.True(t, auth.Can(role, auth.ActionCreateProgressLog))
			assert.False(t, auth.Can(role, auth.ActionCreateDeal))
			assert.False(t, auth.Can(role, auth.ActionUploadDocument))
			assert.False(t, auth.Can(role, auth.ActionUpdateTaskStatus))
		}
	})

	t.Run("every role sees the dashboard", func(t *testing.T) {
		roles := []domain.Role{
			domain.RoleAdmin,
			domain.RoleProjectManager,
			domain.RoleSalesAgent,
			domain.RolePartner,
			domain.RoleSupervisor,
			domain.RoleFabricator,
			domain.RoleClientB2B,
			domain.RoleClientResidential,
		}
		for _, role := range roles {
			assert.True(t, auth.Can(role, auth.ActionViewDashboard), "%s denied dashboard", role)
		}
	})

	t.Run("unknown role matches nothing", func(t *testing.T) {
		assert.False(t, auth.Can(domain.Role("intern"), auth.ActionViewDashboard))
	})
}

func TestCanSeeInternalNotes(t *testing.T) {
	assert.True(t, auth.CanSeeInternalNotes(domain.RoleAdmin))
	assert.True(t, auth.CanSeeInternalNotes(domain.RoleProjectManager))
	assert.True(t, auth.CanSeeInternalNotes(domain.RolePartner))
	assert.True(t, auth.CanSeeInternalNotes(domain.RoleSupervisor))
	assert.True(t, auth.CanSeeInternalNotes(domain.RoleFabricator))

	assert.False(t, auth.CanSeeInternalNotes(domain.RoleSalesAgent))
	assert.False(t, auth.CanSeeInternalNotes(domain.RoleClientB2B))
	assert.False(t, auth.CanSeeInternalNotes(domain.RoleClientResidential))
}

func TestCanSeeReferralAgent(t *testing.T) {
	assert.True(t, auth.CanSeeReferralAgent(domain.RoleAdmin))
	assert.True(t, auth.CanSeeReferralAgent(domain.RoleSalesAgent))
	assert.False(t, auth.CanSeeReferralAgent(domain.RoleClientB2B))
	assert.False(t, auth.CanSeeReferralAgent(domain.RoleClientResidential))
}
