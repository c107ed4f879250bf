package domain

import (
	"time"

	"github.com/google/uuid"
)

// DTOs for API responses. Timestamps are ISO 8601 strings.

// UserDTO is the wire representation of a user. The password hash is never
// part of any DTO.
type UserDTO struct {
	ID                    uuid.UUID `json:"id"`
	Email                 string    `json:"email"`
	Name                  string    `json:"name"`
	Phone                 string    `json:"phone,omitempty"`
	Role                  Role      `json:"role"`
	IsActive              bool      `json:"isActive"`
	CommissionRate        float64   `json:"commissionRate,omitempty"`
	TotalCommissionEarned float64   `json:"totalCommissionEarned,omitempty"`
	CreatedAt             string    `json:"createdAt"`
	UpdatedAt             string    `json:"updatedAt"`
}

// DealDTO is the wire representation of a deal. InternalNotes and
// ReferralAgentID are cleared by the mapper for roles that must not see them.
type DealDTO struct {
	ID                  uuid.UUID      `json:"id"`
	Title               string         `json:"title"`
	Description         string         `json:"description,omitempty"`
	ClientID            *uuid.UUID     `json:"clientId,omitempty"`
	ClientName          string         `json:"clientName"`
	ClientEmail         string         `json:"clientEmail,omitempty"`
	ClientPhone         string         `json:"clientPhone,omitempty"`
	ClientCategory      ClientCategory `json:"clientCategory"`
	ServiceTypes        []string       `json:"serviceTypes,omitempty"`
	Location            string         `json:"location,omitempty"`
	Stage               DealStage      `json:"stage"`
	EstimatedValue      float64        `json:"estimatedValue"`
	ApprovedValue       float64        `json:"approvedValue"`
	Budget              float64        `json:"budget"`
	Actuals             float64        `json:"actuals"`
	ContractValue       float64        `json:"contractValue"`
	ProgressPercentage  float64        `json:"progressPercentage"`
	AssignedPM          *uuid.UUID     `json:"assignedPm,omitempty"`
	AssignedSupervisor  *uuid.UUID     `json:"assignedSupervisor,omitempty"`
	AssignedFabricators []uuid.UUID    `json:"assignedFabricators,omitempty"`
	ReferralAgentID     *uuid.UUID     `json:"referralAgentId,omitempty"`
	PartnerIDs          []uuid.UUID    `json:"partnerIds,omitempty"`
	InternalNotes       string         `json:"internalNotes,omitempty"`
	ExpectedStartDate   *string        `json:"expectedStartDate,omitempty"`
	ExpectedEndDate     *string        `json:"expectedEndDate,omitempty"`
	CreatedBy           uuid.UUID      `json:"createdBy"`
	CreatedAt           string         `json:"createdAt"`
	UpdatedAt           string         `json:"updatedAt"`
}

type TaskDTO struct {
	ID            uuid.UUID   `json:"id"`
	DealID        uuid.UUID   `json:"dealId"`
	Name          string      `json:"name"`
	Description   string      `json:"description,omitempty"`
	StartDate     *string     `json:"startDate,omitempty"`
	EndDate       *string     `json:"endDate,omitempty"`
	Status        TaskStatus  `json:"status"`
	Progress      float64     `json:"progress"`
	AssignedTo    []uuid.UUID `json:"assignedTo,omitempty"`
	IsMilestone   bool        `json:"isMilestone"`
	ClientVisible bool        `json:"clientVisible"`
	DependsOn     []uuid.UUID `json:"dependsOn,omitempty"`
	CreatedBy     uuid.UUID   `json:"createdBy"`
	CreatedAt     string      `json:"createdAt"`
	UpdatedAt     string      `json:"updatedAt"`
}

type DocumentDTO struct {
	ID            uuid.UUID        `json:"id"`
	DealID        uuid.UUID        `json:"dealId"`
	Name          string           `json:"name"`
	DocumentType  string           `json:"documentType,omitempty"`
	Category      DocumentCategory `json:"category"`
	ContentType   string           `json:"contentType,omitempty"`
	SizeBytes     int64            `json:"sizeBytes"`
	Version       int              `json:"version"`
	Status        ApprovalStatus   `json:"status"`
	ClientVisible bool             `json:"clientVisible"`
	UploadedBy    uuid.UUID        `json:"uploadedBy"`
	CreatedAt     string           `json:"createdAt"`
	UpdatedAt     string           `json:"updatedAt"`
}

type ChangeOrderDTO struct {
	ID          uuid.UUID      `json:"id"`
	DealID      uuid.UUID      `json:"dealId"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	ValueImpact float64        `json:"valueImpact"`
	Status      ApprovalStatus `json:"status"`
	RequestedBy uuid.UUID      `json:"requestedBy"`
	ApprovedBy  *uuid.UUID     `json:"approvedBy,omitempty"`
	ApprovedAt  *string        `json:"approvedAt,omitempty"`
	CreatedAt   string         `json:"createdAt"`
	UpdatedAt   string         `json:"updatedAt"`
}

type QuotationDTO struct {
	ID          uuid.UUID       `json:"id"`
	DealID      uuid.UUID       `json:"dealId"`
	QuoteNumber string          `json:"quoteNumber"`
	Items       []QuotationItem `json:"items,omitempty"`
	TotalAmount float64         `json:"totalAmount"`
	Status      QuotationStatus `json:"status"`
	ValidUntil  *string         `json:"validUntil,omitempty"`
	CreatedBy   uuid.UUID       `json:"createdBy"`
	ApprovedBy  *uuid.UUID      `json:"approvedBy,omitempty"`
	ApprovedAt  *string         `json:"approvedAt,omitempty"`
	CreatedAt   string          `json:"createdAt"`
	UpdatedAt   string          `json:"updatedAt"`
}

type FinancialEntryDTO struct {
	ID          uuid.UUID            `json:"id"`
	DealID      uuid.UUID            `json:"dealId"`
	EntryType   FinancialEntryType   `json:"entryType"`
	Amount      float64              `json:"amount"`
	Description string               `json:"description,omitempty"`
	Status      FinancialEntryStatus `json:"status"`
	EntryDate   string               `json:"entryDate"`
	CreatedBy   uuid.UUID            `json:"createdBy"`
	CreatedAt   string               `json:"createdAt"`
	UpdatedAt   string               `json:"updatedAt"`
}

type CommissionDTO struct {
	ID             uuid.UUID        `json:"id"`
	DealID         uuid.UUID        `json:"dealId"`
	AgentID        uuid.UUID        `json:"agentId"`
	Rate           float64          `json:"rate"`
	EarnedAmount   float64          `json:"earnedAmount"`
	ReleasedAmount float64          `json:"releasedAmount"`
	Status         CommissionStatus `json:"status"`
	CreatedAt      string           `json:"createdAt"`
	UpdatedAt      string           `json:"updatedAt"`
}

type ProgressLogDTO struct {
	ID            uuid.UUID  `json:"id"`
	DealID        uuid.UUID  `json:"dealId"`
	TaskID        *uuid.UUID `json:"taskId,omitempty"`
	Note          string     `json:"note"`
	Progress      *float64   `json:"progress,omitempty"`
	PhotoPaths    []string   `json:"photoPaths,omitempty"`
	ClientVisible bool       `json:"clientVisible"`
	CreatedBy     uuid.UUID  `json:"createdBy"`
	CreatedAt     string     `json:"createdAt"`
}

type MessageDTO struct {
	ID             uuid.UUID `json:"id"`
	DealID         uuid.UUID `json:"dealId"`
	Content        string    `json:"content"`
	SenderID       uuid.UUID `json:"senderId"`
	SenderName     string    `json:"senderName"`
	SenderRole     Role      `json:"senderRole"`
	VisibleToRoles []string  `json:"visibleToRoles,omitempty"`
	CreatedAt      string    `json:"createdAt"`
}

type ActivityLogDTO struct {
	ID          uuid.UUID  `json:"id"`
	EntityType  string     `json:"entityType"`
	EntityID    uuid.UUID  `json:"entityId"`
	DealID      *uuid.UUID `json:"dealId,omitempty"`
	Action      string     `json:"action"`
	Description string     `json:"description,omitempty"`
	ActorID     uuid.UUID  `json:"actorId"`
	ActorName   string     `json:"actorName"`
	CreatedAt   string     `json:"createdAt"`
}

type NotificationDTO struct {
	ID                uuid.UUID        `json:"id"`
	Type              NotificationType `json:"type"`
	Title             string           `json:"title"`
	Message           string           `json:"message,omitempty"`
	RelatedEntityType string           `json:"relatedEntityType,omitempty"`
	RelatedEntityID   *uuid.UUID       `json:"relatedEntityId,omitempty"`
	IsRead            bool             `json:"isRead"`
	CreatedAt         string           `json:"createdAt"`
}

// LoginResponseDTO carries the bearer token and the authenticated user.
type LoginResponseDTO struct {
	Token     string  `json:"token"`
	TokenType string  `json:"tokenType"`
	ExpiresAt string  `json:"expiresAt"`
	User      UserDTO `json:"user"`
}

// PipelineStageDTO is one row of the dashboard pipeline breakdown.
type PipelineStageDTO struct {
	Stage DealStage `json:"stage"`
	Count int64     `json:"count"`
	Value float64   `json:"value"`
}

// DashboardStatsDTO holds role-conditional dashboard counters. Only the
// fields relevant to the caller's role are populated.
type DashboardStatsDTO struct {
	TotalDeals            int64    `json:"totalDeals"`
	ActiveDeals           int64    `json:"activeDeals"`
	TotalPipelineValue    *float64 `json:"totalPipelineValue,omitempty"`
	TotalContractValue    *float64 `json:"totalContractValue,omitempty"`
	TotalUsers            *int64   `json:"totalUsers,omitempty"`
	PendingApprovals      *int64   `json:"pendingApprovals,omitempty"`
	TotalCommissionEarned *float64 `json:"totalCommissionEarned,omitempty"`
	CommissionReleased    *float64 `json:"commissionReleased,omitempty"`
	AssignedJobs          *int64   `json:"assignedJobs,omitempty"`
	OpenTasks             *int64   `json:"openTasks,omitempty"`
}

// Request structs. Update requests use pointer fields so omitted fields are
// left untouched; there is no way to clear a field through a partial update.

type RegisterRequest struct {
	Email          string  `json:"email" validate:"required,email"`
	Password       string  `json:"password" validate:"required,min=8"`
	Name           string  `json:"name" validate:"required,max=200"`
	Phone          string  `json:"phone,omitempty" validate:"max=50"`
	Role           Role    `json:"role" validate:"required"`
	CommissionRate float64 `json:"commissionRate,omitempty" validate:"gte=0,lte=100"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateUserRequest struct {
	Name           *string  `json:"name,omitempty" validate:"omitempty,max=200"`
	Phone          *string  `json:"phone,omitempty" validate:"omitempty,max=50"`
	Role           *Role    `json:"role,omitempty"`
	IsActive       *bool    `json:"isActive,omitempty"`
	CommissionRate *float64 `json:"commissionRate,omitempty" validate:"omitempty,gte=0,lte=100"`
	Password       *string  `json:"password,omitempty" validate:"omitempty,min=8"`
}

type CreateDealRequest struct {
	Title               string         `json:"title" validate:"required,max=200"`
	Description         string         `json:"description,omitempty"`
	ClientID            *uuid.UUID     `json:"clientId,omitempty"`
	ClientName          string         `json:"clientName" validate:"required,max=200"`
	ClientEmail         string         `json:"clientEmail,omitempty" validate:"omitempty,email"`
	ClientPhone         string         `json:"clientPhone,omitempty" validate:"max=50"`
	ClientCategory      ClientCategory `json:"clientCategory,omitempty"`
	ServiceTypes        []string       `json:"serviceTypes,omitempty"`
	Location            string         `json:"location,omitempty" validate:"max=500"`
	Stage               DealStage      `json:"stage,omitempty"`
	EstimatedValue      float64        `json:"estimatedValue,omitempty" validate:"gte=0"`
	AssignedPM          *uuid.UUID     `json:"assignedPm,omitempty"`
	AssignedSupervisor  *uuid.UUID     `json:"assignedSupervisor,omitempty"`
	AssignedFabricators []uuid.UUID    `json:"assignedFabricators,omitempty"`
	ReferralAgentID     *uuid.UUID     `json:"referralAgentId,omitempty"`
	PartnerIDs          []uuid.UUID    `json:"partnerIds,omitempty"`
	InternalNotes       string         `json:"internalNotes,omitempty"`
	ExpectedStartDate   *time.Time     `json:"expectedStartDate,omitempty"`
	ExpectedEndDate     *time.Time     `json:"expectedEndDate,omitempty"`
}

type UpdateDealRequest struct {
	Title               *string         `json:"title,omitempty" validate:"omitempty,max=200"`
	Description         *string         `json:"description,omitempty"`
	ClientID            *uuid.UUID      `json:"clientId,omitempty"`
	ClientName          *string         `json:"clientName,omitempty" validate:"omitempty,max=200"`
	ClientEmail         *string         `json:"clientEmail,omitempty" validate:"omitempty,email"`
	ClientPhone         *string         `json:"clientPhone,omitempty" validate:"omitempty,max=50"`
	ClientCategory      *ClientCategory `json:"clientCategory,omitempty"`
	ServiceTypes        []string        `json:"serviceTypes,omitempty"`
	Location            *string         `json:"location,omitempty" validate:"omitempty,max=500"`
	Stage               *DealStage      `json:"stage,omitempty"`
	EstimatedValue      *float64        `json:"estimatedValue,omitempty" validate:"omitempty,gte=0"`
	AssignedPM          *uuid.UUID      `json:"assignedPm,omitempty"`
	AssignedSupervisor  *uuid.UUID      `json:"assignedSupervisor,omitempty"`
	AssignedFabricators []uuid.UUID     `json:"assignedFabricators,omitempty"`
	ReferralAgentID     *uuid.UUID      `json:"referralAgentId,omitempty"`
	PartnerIDs          []uuid.UUID     `json:"partnerIds,omitempty"`
	InternalNotes       *string         `json:"internalNotes,omitempty"`
	ExpectedStartDate   *time.Time      `json:"expectedStartDate,omitempty"`
	ExpectedEndDate     *time.Time      `json:"expectedEndDate,omitempty"`
}

type CreateTaskRequest struct {
	Name          string      `json:"name" validate:"required,max=200"`
	Description   string      `json:"description,omitempty"`
	StartDate     *time.Time  `json:"startDate,omitempty"`
	EndDate       *time.Time  `json:"endDate,omitempty"`
	Status        TaskStatus  `json:"status,omitempty"`
	Progress      float64     `json:"progress,omitempty" validate:"gte=0,lte=100"`
	AssignedTo    []uuid.UUID `json:"assignedTo,omitempty"`
	IsMilestone   bool        `json:"isMilestone,omitempty"`
	ClientVisible bool        `json:"clientVisible,omitempty"`
	DependsOn     []uuid.UUID `json:"dependsOn,omitempty"`
}

type UpdateTaskRequest struct {
	Name          *string     `json:"name,omitempty" validate:"omitempty,max=200"`
	Description   *string     `json:"description,omitempty"`
	StartDate     *time.Time  `json:"startDate,omitempty"`
	EndDate       *time.Time  `json:"endDate,omitempty"`
	Status        *TaskStatus `json:"status,omitempty"`
	Progress      *float64    `json:"progress,omitempty" validate:"omitempty,gte=0,lte=100"`
	AssignedTo    []uuid.UUID `json:"assignedTo,omitempty"`
	IsMilestone   *bool       `json:"isMilestone,omitempty"`
	ClientVisible *bool       `json:"clientVisible,omitempty"`
	DependsOn     []uuid.UUID `json:"dependsOn,omitempty"`
}

type CreateChangeOrderRequest struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Description string  `json:"description,omitempty"`
	ValueImpact float64 `json:"valueImpact"`
}

type CreateQuotationRequest struct {
	Items      []QuotationItem `json:"items" validate:"required,min=1,dive"`
	ValidUntil *time.Time      `json:"validUntil,omitempty"`
}

type CreateFinancialEntryRequest struct {
	EntryType   FinancialEntryType `json:"entryType" validate:"required"`
	Amount      float64            `json:"amount" validate:"required"`
	Description string             `json:"description,omitempty"`
	EntryDate   *time.Time         `json:"entryDate,omitempty"`
}

type UpdateFinancialStatusRequest struct {
	Status FinancialEntryStatus `json:"status" validate:"required"`
}

type ReleaseCommissionRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

type CreateProgressLogRequest struct {
	TaskID        *uuid.UUID `json:"taskId,omitempty"`
	Note          string     `json:"note" validate:"required"`
	Progress      *float64   `json:"progress,omitempty" validate:"omitempty,gte=0,lte=100"`
	PhotoPaths    []string   `json:"photoPaths,omitempty"`
	ClientVisible bool       `json:"clientVisible,omitempty"`
}

type CreateMessageRequest struct {
	Content        string   `json:"content" validate:"required"`
	VisibleToRoles []string `json:"visibleToRoles,omitempty"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// FormatTime renders a timestamp the way every DTO does.
func FormatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}

// FormatTimePtr renders an optional timestamp, nil in means nil out.
func FormatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := FormatTime(*t)
	return &s
}
