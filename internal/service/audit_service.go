package service

import (
	"context"
	"fmt"

	"clearancehub/internal/model"
	"clearancehub/internal/repository"
	"clearancehub/pkg/apperrors"
	"clearancehub/pkg/pagination"
)

// AuditService exposes the append-only audit trail for review. Writes happen
// only through the lifecycle and creation flows.
type AuditService interface {
	List(ctx context.Context, p pagination.Params, principal *model.Principal) ([]model.AuditLog, int64, error)
}

type auditService struct {
	audit repository.AuditRepository
}

func NewAuditService(audit repository.AuditRepository) AuditService {
	return &auditService{audit: audit}
}

func (s *auditService) List(ctx context.Context, p pagination.Params, principal *model.Principal) ([]model.AuditLog, int64, error) {
	if principal == nil || principal.Role != model.RoleAdmin {
		return nil, 0, apperrors.Forbidden("forbidden")
	}
	logs, total, err := s.audit.List(ctx, p.Page, p.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}
	return logs, total, nil
}
