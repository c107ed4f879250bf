package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate assigns an ID when one was not provided.
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// Role represents a user's role in the system. The set is closed: every
// authorization and visibility decision switches exhaustively over it.
type Role string

const (
	RoleAdmin             Role = "admin"
	RoleProjectManager    Role = "project_manager"
	RoleSalesAgent        Role = "sales_agent"
	RolePartner           Role = "partner"
	RoleSupervisor        Role = "supervisor"
	RoleFabricator        Role = "fabricator"
	RoleClientB2B         Role = "client_b2b"
	RoleClientResidential Role = "client_residential"
)

// IsValid checks if the Role is a valid enum value
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleProjectManager, RoleSalesAgent, RolePartner,
		RoleSupervisor, RoleFabricator, RoleClientB2B, RoleClientResidential:
		return true
	}
	return false
}

// IsClient reports whether the role is one of the client roles.
func (r Role) IsClient() bool {
	return r == RoleClientB2B || r == RoleClientResidential
}

// User represents an account in the system. Users are never hard-deleted;
// deactivation clears IsActive and blocks token resolution.
type User struct {
	BaseModel
	Email                 string  `gorm:"type:varchar(255);not null;uniqueIndex"`
	PasswordHash          string  `gorm:"type:varchar(255);not null;column:password_hash"`
	Name                  string  `gorm:"type:varchar(200);not null"`
	Phone                 string  `gorm:"type:varchar(50)"`
	Role                  Role    `gorm:"type:varchar(50);not null;index"`
	IsActive              bool    `gorm:"not null;default:true;column:is_active"`
	CommissionRate        float64 `gorm:"not null;default:0;column:commission_rate"`
	TotalCommissionEarned float64 `gorm:"not null;default:0;column:total_commission_earned"`
}

// ClientCategory classifies the deal's client
type ClientCategory string

const (
	ClientCategoryBusiness    ClientCategory = "business"
	ClientCategoryResidential ClientCategory = "residential"
)

// IsValid checks if the ClientCategory is a valid enum value
func (c ClientCategory) IsValid() bool {
	return c == ClientCategoryBusiness || c == ClientCategoryResidential
}

// DealStage represents the stage of a deal in the pipeline
type DealStage string

const (
	DealStageInquiry      DealStage = "inquiry"
	DealStageQuotation    DealStage = "quotation"
	DealStageNegotiation  DealStage = "negotiation"
	DealStageContract     DealStage = "contract"
	DealStageExecution    DealStage = "execution"
	DealStageFabrication  DealStage = "fabrication"
	DealStageInstallation DealStage = "installation"
	DealStageHandover     DealStage = "handover"
	DealStageCompleted    DealStage = "completed"
	DealStageClosed       DealStage = "closed"
)

// AllDealStages lists every stage in pipeline order. Dashboard pipeline
// breakdowns iterate this so empty stages still appear with zero counts.
var AllDealStages = []DealStage{
	DealStageInquiry,
	DealStageQuotation,
	DealStageNegotiation,
	DealStageContract,
	DealStageExecution,
	DealStageFabrication,
	DealStageInstallation,
	DealStageHandover,
	DealStageCompleted,
	DealStageClosed,
}

// IsValid checks if the DealStage is a valid enum value
func (s DealStage) IsValid() bool {
	for _, stage := range AllDealStages {
		if s == stage {
			return true
		}
	}
	return false
}

// Deal represents a construction deal moving through the pipeline.
// ProgressPercentage, ApprovedValue, Budget, Actuals and ContractValue are
// denormalized aggregates maintained by the services after child mutations.
type Deal struct {
	BaseModel
	Title              string         `gorm:"type:varchar(200);not null;index"`
	Description        string         `gorm:"type:text"`
	ClientID           *uuid.UUID     `gorm:"type:uuid;column:client_id;index"`
	ClientName         string         `gorm:"type:varchar(200);not null;column:client_name"`
	ClientEmail        string         `gorm:"type:varchar(255);column:client_email;index"`
	ClientPhone        string         `gorm:"type:varchar(50);column:client_phone"`
	ClientCategory     ClientCategory `gorm:"type:varchar(50);not null;default:'business';column:client_category"`
	ServiceTypes       StringList     `gorm:"type:text;column:service_types"`
	Location           string         `gorm:"type:varchar(500)"`
	Stage              DealStage      `gorm:"type:varchar(50);not null;default:'inquiry';index"`
	EstimatedValue     float64        `gorm:"not null;default:0;column:estimated_value"`
	ApprovedValue      float64        `gorm:"not null;default:0;column:approved_value"`
	Budget             float64        `gorm:"not null;default:0"`
	Actuals            float64        `gorm:"not null;default:0"`
	ContractValue      float64        `gorm:"not null;default:0;column:contract_value"`
	ProgressPercentage float64        `gorm:"not null;default:0;column:progress_percentage"`
	AssignedPM         *uuid.UUID     `gorm:"type:uuid;column:assigned_pm;index"`
	AssignedSupervisor *uuid.UUID     `gorm:"type:uuid;column:assigned_supervisor;index"`
	AssignedFabricators UUIDList      `gorm:"type:text;column:assigned_fabricators"`
	ReferralAgentID    *uuid.UUID     `gorm:"type:uuid;column:referral_agent_id;index"`
	PartnerIDs         UUIDList       `gorm:"type:text;column:partner_ids"`
	InternalNotes      string         `gorm:"type:text;column:internal_notes"`
	ExpectedStartDate  *time.Time     `gorm:"column:expected_start_date"`
	ExpectedEndDate    *time.Time     `gorm:"column:expected_end_date"`
	CreatedBy          uuid.UUID      `gorm:"type:uuid;not null;column:created_by;index"`
}

// TaskStatus represents the status of a task
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusBlocked    TaskStatus = "blocked"
)

// IsValid checks if the TaskStatus is a valid enum value
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted, TaskStatusBlocked:
		return true
	}
	return false
}

// Task represents a unit of work under a deal. Progress feeds the parent
// deal's rollup. DependsOn references sibling tasks; the list is not
// validated for cycles.
type Task struct {
	BaseModel
	DealID        uuid.UUID  `gorm:"type:uuid;not null;column:deal_id;index"`
	Name          string     `gorm:"type:varchar(200);not null"`
	Description   string     `gorm:"type:text"`
	StartDate     *time.Time `gorm:"column:start_date"`
	EndDate       *time.Time `gorm:"column:end_date"`
	Status        TaskStatus `gorm:"type:varchar(50);not null;default:'pending';index"`
	Progress      float64    `gorm:"not null;default:0"`
	AssignedTo    UUIDList   `gorm:"type:text;column:assigned_to"`
	IsMilestone   bool       `gorm:"not null;default:false;column:is_milestone"`
	ClientVisible bool       `gorm:"not null;default:false;column:client_visible"`
	DependsOn     UUIDList   `gorm:"type:text;column:depends_on"`
	CreatedBy     uuid.UUID  `gorm:"type:uuid;not null;column:created_by"`
}

// DocumentCategory classifies a document
type DocumentCategory string

const (
	DocumentCategoryClientFacing DocumentCategory = "client_facing"
	DocumentCategoryInternal     DocumentCategory = "internal"
	DocumentCategoryRelationship DocumentCategory = "relationship"
)

// ApprovalStatus represents an approval workflow state
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "pending"
	ApprovalStatusApproved ApprovalStatus = "approved"
	ApprovalStatusRejected ApprovalStatus = "rejected"
)

// IsValid checks if the ApprovalStatus is a valid enum value
func (s ApprovalStatus) IsValid() bool {
	switch s {
	case ApprovalStatusPending, ApprovalStatusApproved, ApprovalStatusRejected:
		return true
	}
	return false
}

// Document represents file metadata under a deal. Version is monotonic per
// deal+name; prior file content is not retained, only the counter.
type Document struct {
	BaseModel
	DealID        uuid.UUID        `gorm:"type:uuid;not null;column:deal_id;index"`
	Name          string           `gorm:"type:varchar(255);not null;index"`
	DocumentType  string           `gorm:"type:varchar(100);column:document_type"`
	Category      DocumentCategory `gorm:"type:varchar(50);not null;default:'internal'"`
	StoragePath   string           `gorm:"type:varchar(500);not null;column:storage_path"`
	ContentType   string           `gorm:"type:varchar(255);column:content_type"`
	SizeBytes     int64            `gorm:"not null;default:0;column:size_bytes"`
	Version       int              `gorm:"not null;default:1"`
	Status        ApprovalStatus   `gorm:"type:varchar(50);not null;default:'pending';index"`
	ClientVisible bool             `gorm:"not null;default:false;column:client_visible"`
	UploadedBy    uuid.UUID        `gorm:"type:uuid;not null;column:uploaded_by"`
}

// ChangeOrder represents a scope/value change request against a deal.
// Approval adds ValueImpact to the deal's approved value and budget.
type ChangeOrder struct {
	BaseModel
	DealID      uuid.UUID      `gorm:"type:uuid;not null;column:deal_id;index"`
	Title       string         `gorm:"type:varchar(200);not null"`
	Description string         `gorm:"type:text"`
	ValueImpact float64        `gorm:"not null;default:0;column:value_impact"`
	Status      ApprovalStatus `gorm:"type:varchar(50);not null;default:'pending';index"`
	RequestedBy uuid.UUID      `gorm:"type:uuid;not null;column:requested_by"`
	ApprovedBy  *uuid.UUID     `gorm:"type:uuid;column:approved_by"`
	ApprovedAt  *time.Time     `gorm:"column:approved_at"`
}

// QuotationStatus represents the lifecycle state of a quotation
type QuotationStatus string

const (
	QuotationStatusDraft    QuotationStatus = "draft"
	QuotationStatusSent     QuotationStatus = "sent"
	QuotationStatusApproved QuotationStatus = "approved"
	QuotationStatusRejected QuotationStatus = "rejected"
)

// QuotationItem is one line of a quotation, stored JSON-encoded on the parent.
type QuotationItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Total       float64 `json:"total"`
}

// QuotationItems stores quotation lines as a JSON-encoded text column.
type QuotationItems []QuotationItem

// Quotation represents a priced offer on a deal. Approval promotes the deal
// to the contract stage and fixes its contract value.
type Quotation struct {
	BaseModel
	DealID      uuid.UUID       `gorm:"type:uuid;not null;column:deal_id;index"`
	QuoteNumber string          `gorm:"type:varchar(50);not null;column:quote_number;index"`
	Items       QuotationItems  `gorm:"type:text"`
	TotalAmount float64         `gorm:"not null;default:0;column:total_amount"`
	Status      QuotationStatus `gorm:"type:varchar(50);not null;default:'draft';index"`
	ValidUntil  *time.Time      `gorm:"column:valid_until"`
	CreatedBy   uuid.UUID       `gorm:"type:uuid;not null;column:created_by"`
	ApprovedBy  *uuid.UUID      `gorm:"type:uuid;column:approved_by"`
	ApprovedAt  *time.Time      `gorm:"column:approved_at"`
}

// FinancialEntryType classifies a financial entry
type FinancialEntryType string

const (
	FinancialEntryInvoice    FinancialEntryType = "invoice"
	FinancialEntryPayment    FinancialEntryType = "payment"
	FinancialEntryBudgetLine FinancialEntryType = "budget_line"
	FinancialEntryVariation  FinancialEntryType = "variation"
)

// IsValid checks if the FinancialEntryType is a valid enum value
func (t FinancialEntryType) IsValid() bool {
	switch t {
	case FinancialEntryInvoice, FinancialEntryPayment, FinancialEntryBudgetLine, FinancialEntryVariation:
		return true
	}
	return false
}

// FinancialEntryStatus represents the settlement state of an entry
type FinancialEntryStatus string

const (
	FinancialEntryStatusPending   FinancialEntryStatus = "pending"
	FinancialEntryStatusPaid      FinancialEntryStatus = "paid"
	FinancialEntryStatusOverdue   FinancialEntryStatus = "overdue"
	FinancialEntryStatusCancelled FinancialEntryStatus = "cancelled"
)

// IsValid checks if the FinancialEntryStatus is a valid enum value
func (s FinancialEntryStatus) IsValid() bool {
	switch s {
	case FinancialEntryStatusPending, FinancialEntryStatusPaid,
		FinancialEntryStatusOverdue, FinancialEntryStatusCancelled:
		return true
	}
	return false
}

// FinancialEntry represents a money movement on a deal. Payment entries
// increment the deal's actuals at creation time.
type FinancialEntry struct {
	BaseModel
	DealID      uuid.UUID            `gorm:"type:uuid;not null;column:deal_id;index"`
	EntryType   FinancialEntryType   `gorm:"type:varchar(50);not null;column:entry_type;index"`
	Amount      float64              `gorm:"not null"`
	Description string               `gorm:"type:text"`
	Status      FinancialEntryStatus `gorm:"type:varchar(50);not null;default:'pending';index"`
	EntryDate   time.Time            `gorm:"not null;column:entry_date"`
	CreatedBy   uuid.UUID            `gorm:"type:uuid;not null;column:created_by"`
}

// CommissionStatus represents how much of a commission has been released
type CommissionStatus string

const (
	CommissionStatusPending           CommissionStatus = "pending"
	CommissionStatusPartiallyReleased CommissionStatus = "partially_released"
	CommissionStatusReleased          CommissionStatus = "released"
)

// Commission represents a referral agent's commission on a deal. EarnedAmount
// is fixed when the deal enters the contract stage; ReleasedAmount accumulates
// via explicit release actions and is not capped at EarnedAmount.
type Commission struct {
	BaseModel
	DealID         uuid.UUID        `gorm:"type:uuid;not null;column:deal_id;index"`
	AgentID        uuid.UUID        `gorm:"type:uuid;not null;column:agent_id;index"`
	Rate           float64          `gorm:"not null;default:0"`
	EarnedAmount   float64          `gorm:"not null;default:0;column:earned_amount"`
	ReleasedAmount float64          `gorm:"not null;default:0;column:released_amount"`
	Status         CommissionStatus `gorm:"type:varchar(50);not null;default:'pending';index"`
}

// ProgressLog is an append-only site note with optional photos. When linked
// to a task it overwrites that task's progress and triggers the deal rollup.
type ProgressLog struct {
	BaseModel
	DealID        uuid.UUID  `gorm:"type:uuid;not null;column:deal_id;index"`
	TaskID        *uuid.UUID `gorm:"type:uuid;column:task_id;index"`
	Note          string     `gorm:"type:text;not null"`
	Progress      *float64   `gorm:""`
	PhotoPaths    StringList `gorm:"type:text;column:photo_paths"`
	ClientVisible bool       `gorm:"not null;default:false;column:client_visible"`
	CreatedBy     uuid.UUID  `gorm:"type:uuid;not null;column:created_by"`
}

// Message is a deal-scoped message. VisibleToRoles limits which roles may
// read it; an empty list means every role with access to the deal.
type Message struct {
	BaseModel
	DealID         uuid.UUID  `gorm:"type:uuid;not null;column:deal_id;index"`
	Content        string     `gorm:"type:text;not null"`
	SenderID       uuid.UUID  `gorm:"type:uuid;not null;column:sender_id"`
	SenderName     string     `gorm:"type:varchar(200);not null;column:sender_name"`
	SenderRole     Role       `gorm:"type:varchar(50);not null;column:sender_role"`
	VisibleToRoles StringList `gorm:"type:text;column:visible_to_roles"`
}

// ActivityLog is an append-only record of a state-changing action.
// Rows are never updated or deleted.
type ActivityLog struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key"`
	EntityType  string     `gorm:"type:varchar(50);not null;column:entity_type;index"`
	EntityID    uuid.UUID  `gorm:"type:uuid;not null;column:entity_id;index"`
	DealID      *uuid.UUID `gorm:"type:uuid;column:deal_id;index"`
	Action      string     `gorm:"type:varchar(100);not null"`
	Description string     `gorm:"type:text"`
	ActorID     uuid.UUID  `gorm:"type:uuid;not null;column:actor_id"`
	ActorName   string     `gorm:"type:varchar(200);not null;column:actor_name"`
	CreatedAt   time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP;index"`
}

// BeforeCreate assigns an ID when one was not provided.
func (a *ActivityLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// NotificationType classifies a notification
type NotificationType string

const (
	NotificationTypeAssignment  NotificationType = "assignment"
	NotificationTypeApproval    NotificationType = "approval"
	NotificationTypeStageChange NotificationType = "stage_change"
	NotificationTypeMessage     NotificationType = "message"
	NotificationTypeCommission  NotificationType = "commission"
)

// Notification is a poll-based in-app notification for a single recipient.
type Notification struct {
	BaseModel
	RecipientID       uuid.UUID        `gorm:"type:uuid;not null;column:recipient_id;index"`
	Type              NotificationType `gorm:"type:varchar(50);not null;index"`
	Title             string           `gorm:"type:varchar(200);not null"`
	Message           string           `gorm:"type:text"`
	RelatedEntityType string           `gorm:"type:varchar(50);column:related_entity_type"`
	RelatedEntityID   *uuid.UUID       `gorm:"type:uuid;column:related_entity_id"`
	IsRead            bool             `gorm:"not null;default:false;column:is_read;index"`
}
