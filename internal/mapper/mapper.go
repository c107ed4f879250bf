package mapper

import (
	"github.com/structura-group/pipeline-api/internal/auth"
	"github.com/structura-group/pipeline-api/internal/domain"
)

// ToUserDTO converts User to UserDTO
func ToUserDTO(user *domain.User) domain.UserDTO {
	return domain.UserDTO{
		ID:                    user.ID,
		Email:                 user.Email,
		Name:                  user.Name,
		Phone:                 user.Phone,
		Role:                  user.Role,
		IsActive:              user.IsActive,
		CommissionRate:        user.CommissionRate,
		TotalCommissionEarned: user.TotalCommissionEarned,
		CreatedAt:             domain.FormatTime(user.CreatedAt),
		UpdatedAt:             domain.FormatTime(user.UpdatedAt),
	}
}

// ToDealDTO converts Deal to DealDTO, redacting fields the viewer's role
// must not see.
func ToDealDTO(deal *domain.Deal, viewer domain.Role) domain.DealDTO {
	dto := domain.DealDTO{
		ID:                  deal.ID,
		Title:               deal.Title,
		Description:         deal.Description,
		ClientID:            deal.ClientID,
		ClientName:          deal.ClientName,
		ClientEmail:         deal.ClientEmail,
		ClientPhone:         deal.ClientPhone,
		ClientCategory:      deal.ClientCategory,
		ServiceTypes:        deal.ServiceTypes,
		Location:            deal.Location,
		Stage:               deal.Stage,
		EstimatedValue:      deal.EstimatedValue,
		ApprovedValue:       deal.ApprovedValue,
		Budget:              deal.Budget,
		Actuals:             deal.Actuals,
		ContractValue:       deal.ContractValue,
		ProgressPercentage:  deal.ProgressPercentage,
		AssignedPM:          deal.AssignedPM,
		AssignedSupervisor:  deal.AssignedSupervisor,
		AssignedFabricators: deal.AssignedFabricators,
		ReferralAgentID:     deal.ReferralAgentID,
		PartnerIDs:          deal.PartnerIDs,
		InternalNotes:       deal.InternalNotes,
		ExpectedStartDate:   domain.FormatTimePtr(deal.ExpectedStartDate),
		ExpectedEndDate:     domain.FormatTimePtr(deal.ExpectedEndDate),
		CreatedBy:           deal.CreatedBy,
		CreatedAt:           domain.FormatTime(deal.CreatedAt),
		UpdatedAt:           domain.FormatTime(deal.UpdatedAt),
	}
	if !auth.CanSeeInternalNotes(viewer) {
		dto.InternalNotes = ""
	}
	if !auth.CanSeeReferralAgent(viewer) {
		dto.ReferralAgentID = nil
	}
	return dto
}

// ToTaskDTO converts Task to TaskDTO
func ToTaskDTO(task *domain.Task) domain.TaskDTO {
	return domain.TaskDTO{
		ID:            task.ID,
		DealID:        task.DealID,
		Name:          task.Name,
		Description:   task.Description,
		StartDate:     domain.FormatTimePtr(task.StartDate),
		EndDate:       domain.FormatTimePtr(task.EndDate),
		Status:        task.Status,
		Progress:      task.Progress,
		AssignedTo:    task.AssignedTo,
		IsMilestone:   task.IsMilestone,
		ClientVisible: task.ClientVisible,
		DependsOn:     task.DependsOn,
		CreatedBy:     task.CreatedBy,
		CreatedAt:     domain.FormatTime(task.CreatedAt),
		UpdatedAt:     domain.FormatTime(task.UpdatedAt),
	}
}

// ToDocumentDTO converts Document to DocumentDTO. The storage path stays
// server-side; clients download through the document endpoint.
func ToDocumentDTO(doc *domain.Document) domain.DocumentDTO {
	return domain.DocumentDTO{
		ID:            doc.ID,
		DealID:        doc.DealID,
		Name:          doc.Name,
		DocumentType:  doc.DocumentType,
		Category:      doc.Category,
		ContentType:   doc.ContentType,
		SizeBytes:     doc.SizeBytes,
		Version:       doc.Version,
		Status:        doc.Status,
		ClientVisible: doc.ClientVisible,
		UploadedBy:    doc.UploadedBy,
		CreatedAt:     domain.FormatTime(doc.CreatedAt),
		UpdatedAt:     domain.FormatTime(doc.UpdatedAt),
	}
}

// ToChangeOrderDTO converts ChangeOrder to ChangeOrderDTO
func ToChangeOrderDTO(co *domain.ChangeOrder) domain.ChangeOrderDTO {
	return domain.ChangeOrderDTO{
		ID:          co.ID,
		DealID:      co.DealID,
		Title:       co.Title,
		Description: co.Description,
		ValueImpact: co.ValueImpact,
		Status:      co.Status,
		RequestedBy: co.RequestedBy,
		ApprovedBy:  co.ApprovedBy,
		ApprovedAt:  domain.FormatTimePtr(co.ApprovedAt),
		CreatedAt:   domain.FormatTime(co.CreatedAt),
		UpdatedAt:   domain.FormatTime(co.UpdatedAt),
	}
}

// ToQuotationDTO converts Quotation to QuotationDTO
func ToQuotationDTO(q *domain.Quotation) domain.QuotationDTO {
	return domain.QuotationDTO{
		ID:          q.ID,
		DealID:      q.DealID,
		QuoteNumber: q.QuoteNumber,
		Items:       q.Items,
		TotalAmount: q.TotalAmount,
		Status:      q.Status,
		ValidUntil:  domain.FormatTimePtr(q.ValidUntil),
		CreatedBy:   q.CreatedBy,
		ApprovedBy:  q.ApprovedBy,
		ApprovedAt:  domain.FormatTimePtr(q.ApprovedAt),
		CreatedAt:   domain.FormatTime(q.CreatedAt),
		UpdatedAt:   domain.FormatTime(q.UpdatedAt),
	}
}

// ToFinancialEntryDTO converts FinancialEntry to FinancialEntryDTO
func ToFinancialEntryDTO(entry *domain.FinancialEntry) domain.FinancialEntryDTO {
	return domain.FinancialEntryDTO{
		ID:          entry.ID,
		DealID:      entry.DealID,
		EntryType:   entry.EntryType,
		Amount:      entry.Amount,
		Description: entry.Description,
		Status:      entry.Status,
		EntryDate:   domain.FormatTime(entry.EntryDate),
		CreatedBy:   entry.CreatedBy,
		CreatedAt:   domain.FormatTime(entry.CreatedAt),
		UpdatedAt:   domain.FormatTime(entry.UpdatedAt),
	}
}

// ToCommissionDTO converts Commission to CommissionDTO
func ToCommissionDTO(c *domain.Commission) domain.CommissionDTO {
	return domain.CommissionDTO{
		ID:             c.ID,
		DealID:         c.DealID,
		AgentID:        c.AgentID,
		Rate:           c.Rate,
		EarnedAmount:   c.EarnedAmount,
		ReleasedAmount: c.ReleasedAmount,
		Status:         c.Status,
		CreatedAt:      domain.FormatTime(c.CreatedAt),
		UpdatedAt:      domain.FormatTime(c.UpdatedAt),
	}
}

// ToProgressLogDTO converts ProgressLog to ProgressLogDTO
func ToProgressLogDTO(log *domain.ProgressLog) domain.ProgressLogDTO {
	return domain.ProgressLogDTO{
		ID:            log.ID,
		DealID:        log.DealID,
		TaskID:        log.TaskID,
		Note:          log.Note,
		Progress:      log.Progress,
		PhotoPaths:    log.PhotoPaths,
		ClientVisible: log.ClientVisible,
		CreatedBy:     log.CreatedBy,
		CreatedAt:     domain.FormatTime(log.CreatedAt),
	}
}

// ToMessageDTO converts Message to MessageDTO
func ToMessageDTO(msg *domain.Message) domain.MessageDTO {
	return domain.MessageDTO{
		ID:             msg.ID,
		DealID:         msg.DealID,
		Content:        msg.Content,
		SenderID:       msg.SenderID,
		SenderName:     msg.SenderName,
		SenderRole:     msg.SenderRole,
		VisibleToRoles: msg.VisibleToRoles,
		CreatedAt:      domain.FormatTime(msg.CreatedAt),
	}
}

// ToActivityLogDTO converts ActivityLog to ActivityLogDTO
func ToActivityLogDTO(entry *domain.ActivityLog) domain.ActivityLogDTO {
	return domain.ActivityLogDTO{
		ID:          entry.ID,
		EntityType:  entry.EntityType,
		EntityID:    entry.EntityID,
		DealID:      entry.DealID,
		Action:      entry.Action,
		Description: entry.Description,
		ActorID:     entry.ActorID,
		ActorName:   entry.ActorName,
		CreatedAt:   domain.FormatTime(entry.CreatedAt),
	}
}

// ToNotificationDTO converts Notification to NotificationDTO
func ToNotificationDTO(n *domain.Notification) domain.NotificationDTO {
	return domain.NotificationDTO{
		ID:                n.ID,
		Type:              n.Type,
		Title:             n.Title,
		Message:           n.Message,
		RelatedEntityType: n.RelatedEntityType,
		RelatedEntityID:   n.RelatedEntityID,
		IsRead:            n.IsRead,
		CreatedAt:         domain.FormatTime(n.CreatedAt),
	}
}
