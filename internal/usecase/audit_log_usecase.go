package usecase

import (
	"context"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type AuditLogUsecase struct {
	auditRepo repo.AuditLogRepository
}

func NewAuditLogUsecase(auditRepo repo.AuditLogRepository) *AuditLogUsecase {
	return &AuditLogUsecase{auditRepo: auditRepo}
}

type ListAuditLogsInput struct {
	Page         int
	Limit        int
	ActorUserID  string
	Action       string
	ResourceType string
	ResourceID   string
	From         *time.Time
	To           *time.Time
}

type AuditLogListOutput struct {
	Items []model.AuditLog `json:"items"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

// 管理者操作の履歴（新しい順）
func (u *AuditLogUsecase) List(ctx context.Context, in ListAuditLogsInput) (AuditLogListOutput, error) {
	if in.Page < 1 {
		return AuditLogListOutput{}, NewValidationError("invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return AuditLogListOutput{}, NewValidationError("invalid limit")
	}
	if in.From != nil && in.To != nil && in.From.After(*in.To) {
		return AuditLogListOutput{}, NewValidationError("from must be before to")
	}

	f := repo.AuditLogFilter{
		ActorUserID: in.ActorUserID,
		ResourceID:  in.ResourceID,
		CreatedFrom: in.From,
		CreatedTo:   in.To,
		Limit:       in.Limit,
		Offset:      (in.Page - 1) * in.Limit,
	}
	if in.Action != "" {
		a := model.AuditAction(in.Action)
		switch a {
		case model.AuditActionUpdateOrderStatus, model.AuditActionUpdateProduct,
			model.AuditActionDeleteProduct, model.AuditActionDeleteUser:
		default:
			return AuditLogListOutput{}, NewValidationError("invalid action")
		}
		f.Action = &a
	}
	if in.ResourceType != "" {
		rt := model.AuditResourceType(in.ResourceType)
		switch rt {
		case model.AuditResourceProduct, model.AuditResourceOrder, model.AuditResourceUser:
		default:
			return AuditLogListOutput{}, NewValidationError("invalid resourceType")
		}
		f.ResourceType = &rt
	}

	logs, err := u.auditRepo.List(ctx, f)
	if err != nil {
		return AuditLogListOutput{}, NewInternalError(err)
	}
	if logs == nil {
		logs = []model.AuditLog{}
	}
	return AuditLogListOutput{Items: logs, Page: in.Page, Limit: in.Limit}, nil
}
