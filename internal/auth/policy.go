package auth

import (
	"github.com/structura-group/pipeline-api/internal/domain"
)

// Action is a permission-checked operation. The set is closed; the policy
// table below must stay exhaustive over it.
type Action string

const (
	ActionManageUsers          Action = "manage_users"
	ActionViewUsers            Action = "view_users"
	ActionCreateDeal           Action = "create_deal"
	ActionUpdateDeal           Action = "update_deal"
	ActionDeleteDeal           Action = "delete_deal"
	ActionAssignTeam           Action = "assign_team"
	ActionCreateTask           Action = "create_task"
	ActionUpdateTaskStatus     Action = "update_task_status"
	ActionUploadDocument       Action = "upload_document"
	ActionApproveDocument      Action = "approve_document"
	ActionApproveChangeOrder   Action = "approve_change_order"
	ActionApproveQuotation     Action = "approve_quotation"
	ActionCreateFinancialEntry Action = "create_financial_entry"
	ActionSetFinancialStatus   Action = "set_financial_status"
	ActionReleaseCommission    Action = "release_commission"
	ActionCreateProgressLog    Action = "create_progress_log"
	ActionCreateMessage        Action = "create_message"
	ActionViewDashboard        Action = "view_dashboard"
)

// rolePermissions maps each non-admin role to its permitted actions.
// Admin is handled in Can and passes every check. Project managers hold
// everything except user management, where they keep read access only;
// operational roles are limited to task status, progress and messaging;
// client roles to reads plus message and progress creation.
var rolePermissions = map[domain.Role][]Action{
	domain.RoleProjectManager: {
		ActionViewUsers,
		ActionCreateDeal,
		ActionUpdateDeal,
		ActionDeleteDeal,
		ActionAssignTeam,
		ActionCreateTask,
		ActionUpdateTaskStatus,
		ActionUploadDocument,
		ActionApproveDocument,
		ActionApproveChangeOrder,
		ActionApproveQuotation,
		ActionCreateFinancialEntry,
		ActionSetFinancialStatus,
		ActionReleaseCommission,
		ActionCreateProgressLog,
		ActionCreateMessage,
		ActionViewDashboard,
	},
	domain.RoleSalesAgent: {
		ActionCreateDeal,
		ActionUpdateDeal,
		ActionUploadDocument,
		ActionCreateMessage,
		ActionViewDashboard,
	},
	domain.RolePartner: {
		ActionCreateDeal,
		ActionUploadDocument,
		ActionCreateMessage,
		ActionViewDashboard,
	},
	domain.RoleSupervisor: {
		ActionCreateTask,
		ActionUpdateTaskStatus,
		ActionUploadDocument,
		ActionCreateProgressLog,
		ActionCreateMessage,
		ActionViewDashboard,
	},
	domain.RoleFabricator: {
		ActionUpdateTaskStatus,
		ActionCreateProgressLog,
		ActionCreateMessage,
		ActionViewDashboard,
	},
	domain.RoleClientB2B: {
		ActionCreateMessage,
		ActionCreateProgressLog,
		ActionViewDashboard,
	},
	domain.RoleClientResidential: {
		ActionCreateMessage,
		ActionCreateProgressLog,
		ActionViewDashboard,
	},
}

// Can reports whether the role may perform the action. Admin passes every
// check.
func Can(role domain.Role, action Action) bool {
	if role == domain.RoleAdmin {
		return true
	}
	for _, a := range rolePermissions[role] {
		if a == action {
			return true
		}
	}
	return false
}

// CanSeeInternalNotes reports whether a role may read a deal's internal
// notes. Client roles and sales agents never see them.
func CanSeeInternalNotes(role domain.Role) bool {
	switch role {
	case domain.RoleAdmin, domain.RoleProjectManager, domain.RolePartner,
		domain.RoleSupervisor, domain.RoleFabricator:
		return true
	case domain.RoleSalesAgent, domain.RoleClientB2B, domain.RoleClientResidential:
		return false
	}
	return false
}

// CanSeeReferralAgent reports whether a role may see the referring agent's
// identity on a deal. Hidden from client roles.
func CanSeeReferralAgent(role domain.Role) bool {
	return !role.IsClient()
}
