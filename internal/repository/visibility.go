package repository

import (
	"fmt"

	"github.com/structura-group/pipeline-api/internal/auth"
	"github.com/structura-group/pipeline-api/internal/domain"
	"gorm.io/gorm"
)

// jsonListPattern builds the LIKE pattern matching a value inside a
// JSON-encoded list column. IDs and role names contain no wildcard
// characters, so a substring match on the quoted value is exact.
func jsonListPattern(value string) string {
	return fmt.Sprintf("%%\"%s\"%%", value)
}

// DealVisibilityScope narrows a deal query to the records the caller may
// see. Admin is unrestricted; every other role is bound to ownership,
// assignment or client identity. The switch is exhaustive over the role
// enum; an unknown role matches nothing.
func DealVisibilityScope(user *auth.UserContext) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch user.Role {
		case domain.RoleAdmin:
			return db
		case domain.RoleProjectManager:
			return db.Where("assigned_pm = ?", user.UserID)
		case domain.RoleSalesAgent:
			return db.Where("referral_agent_id = ? OR created_by = ?", user.UserID, user.UserID)
		case domain.RolePartner:
			return db.Where("partner_ids LIKE ? OR created_by = ?", jsonListPattern(user.UserID.String()), user.UserID)
		case domain.RoleSupervisor:
			return db.Where("assigned_supervisor = ?", user.UserID)
		case domain.RoleFabricator:
			return db.Where("assigned_fabricators LIKE ?", jsonListPattern(user.UserID.String()))
		case domain.RoleClientB2B, domain.RoleClientResidential:
			return db.Where("client_email = ? OR client_id = ?", user.Email, user.UserID)
		}
		return db.Where("1 = 0")
	}
}

// TaskVisibilityScope narrows a task query beyond the parent deal filter.
// Operational roles only see tasks assigned to them; client roles only see
// client-visible tasks.
func TaskVisibilityScope(user *auth.UserContext) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch user.Role {
		case domain.RoleSupervisor, domain.RoleFabricator:
			return db.Where("assigned_to LIKE ?", jsonListPattern(user.UserID.String()))
		case domain.RoleClientB2B, domain.RoleClientResidential:
			return db.Where("client_visible = ?", true)
		}
		return db
	}
}

// DocumentVisibilityScope narrows a document query for client roles to
// approved, client-visible documents.
func DocumentVisibilityScope(user *auth.UserContext) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if user.Role.IsClient() {
			return db.Where("client_visible = ? AND status = ?", true, domain.ApprovalStatusApproved)
		}
		return db
	}
}

// ProgressLogVisibilityScope hides internal progress logs from client roles.
func ProgressLogVisibilityScope(user *auth.UserContext) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if user.Role.IsClient() {
			return db.Where("client_visible = ?", true)
		}
		return db
	}
}

// MessageVisibilityScope limits messages to those whose visibility list is
// empty or contains the caller's role. Senders always see their own
// messages.
func MessageVisibilityScope(user *auth.UserContext) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if user.Role == domain.RoleAdmin {
			return db
		}
		return db.Where(
			"visible_to_roles IS NULL OR visible_to_roles = '' OR visible_to_roles = '[]' OR visible_to_roles LIKE ? OR sender_id = ?",
			jsonListPattern(string(user.Role)), user.UserID,
		)
	}
}

// visibleDealIDs returns a subquery selecting the ids of deals the caller
// may see. Child repositories use it to constrain their listings.
func visibleDealIDs(db *gorm.DB, user *auth.UserContext) *gorm.DB {
	return DealVisibilityScope(user)(db.Model(&domain.Deal{}).Select("id"))
}
