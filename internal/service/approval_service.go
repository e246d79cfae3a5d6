package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"clearancehub/internal/model"
	"clearancehub/internal/repository"
	ws "clearancehub/internal/websocket"
	"clearancehub/pkg/apperrors"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TransitionResult is the projection returned after a successful lifecycle
// transition.
type TransitionResult struct {
	ID          int64  `json:"id"`
	RequestType string `json:"request_type"`
	Status      string `json:"status"`
}

// ApprovalService drives the request state machine. Every transition runs in
// a transaction holding a row lock on the target request, so concurrent
// actions on the same request serialize and the loser observes the new state.
type ApprovalService interface {
	Approve(ctx context.Context, id int64, typeHint string, principal *model.Principal) (*TransitionResult, error)
	Reject(ctx context.Context, id int64, typeHint string, reason string, principal *model.Principal) (*TransitionResult, error)
	Complete(ctx context.Context, id int64, typeHint string, principal *model.Principal) (*TransitionResult, error)
	Cancel(ctx context.Context, id int64, typeHint string, reason string, principal *model.Principal) (*TransitionResult, error)
}

type approvalService struct {
	employees repository.EmployeeRepository
	cards     repository.CardRequestRepository
	permits   repository.PermitRequestRepository
	audit     repository.AuditRepository
	tx        repository.TransactionManager
	hub       *ws.Hub
	log       *zap.Logger
	now       func() time.Time
}

func NewApprovalService(
	employees repository.EmployeeRepository,
	cards repository.CardRequestRepository,
	permits repository.PermitRequestRepository,
	audit repository.AuditRepository,
	tx repository.TransactionManager,
	hub *ws.Hub,
	log *zap.Logger,
) ApprovalService {
	return &approvalService{
		employees: employees,
		cards:     cards,
		permits:   permits,
		audit:     audit,
		tx:        tx,
		hub:       hub,
		log:       log,
		now:       time.Now,
	}
}

// lockRequestByID is the write-path sibling of findRequestByID: same
// resolution and ambiguity semantics, but rows come back locked FOR UPDATE.
func (s *approvalService) lockRequestByID(ctx context.Context, id int64, typeHint string) (model.Request, error) {
	kind, err := normalizeRequestType(typeHint)
	if err != nil {
		return nil, err
	}

	switch kind {
	case model.RequestKindCard:
		card, err := s.cards.FindByIDForUpdate(ctx, id)
		if err != nil {
			return nil, translateRequestErr(err)
		}
		return card, nil
	case model.RequestKindAccess:
		permit, err := s.permits.FindByIDForUpdate(ctx, id)
		if err != nil {
			return nil, translateRequestErr(err)
		}
		return permit, nil
	}

	card, cardErr := s.cards.FindByIDForUpdate(ctx, id)
	if cardErr != nil && !errors.Is(cardErr, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load card request: %w", cardErr)
	}
	permit, permitErr := s.permits.FindByIDForUpdate(ctx, id)
	if permitErr != nil && !errors.Is(permitErr, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load permit request: %w", permitErr)
	}

	switch {
	case card != nil && permit != nil:
		return nil, apperrors.Ambiguous("ambiguous request id")
	case card != nil:
		return card, nil
	case permit != nil:
		return permit, nil
	}
	return nil, apperrors.NotFound("request not found")
}

func (s *approvalService) saveRequest(ctx context.Context, req model.Request) error {
	switch typed := req.(type) {
	case *model.CardRequest:
		return s.cards.Update(ctx, typed)
	case *model.PermitRequest:
		return s.permits.Update(ctx, typed)
	}
	return fmt.Errorf("unknown request variant %T", req)
}

func entityTypeFor(req model.Request) string {
	if req.RequestKind() == model.RequestKindCard {
		return model.EntityCardRequest
	}
	return model.EntityPermitRequest
}

// transition holds the shared skeleton: resolve and lock the request, apply
// the mutation, persist, audit, then broadcast after commit.
func (s *approvalService) transition(
	ctx context.Context,
	id int64,
	typeHint string,
	principal *model.Principal,
	action string,
	metadata map[string]interface{},
	mutate func(ctx context.Context, req model.Request) error,
) (*TransitionResult, error) {
	var result *TransitionResult
	var event ws.Event

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		req, err := s.lockRequestByID(txCtx, id, typeHint)
		if err != nil {
			return err
		}
		if err := mutate(txCtx, req); err != nil {
			return err
		}
		if err := s.saveRequest(txCtx, req); err != nil {
			return fmt.Errorf("save request: %w", err)
		}
		if err := writeAudit(txCtx, s.audit, entityTypeFor(req), req.RequestID(), action, principal, metadata); err != nil {
			return err
		}
		result = &TransitionResult{
			ID:          req.RequestID(),
			RequestType: req.RequestKind(),
			Status:      req.Lifecycle().Status,
		}
		event = ws.Event{
			EntityType: entityTypeFor(req),
			EntityID:   req.RequestID(),
			Action:     action,
			Status:     req.Lifecycle().Status,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.hub != nil {
		s.hub.Publish(event)
	}
	return result, nil
}

func checkNotTerminal(req model.Request) error {
	if model.IsTerminalStatus(req.Lifecycle().Status) {
		return apperrors.InvalidState("request already finalized")
	}
	return nil
}

func (s *approvalService) Approve(ctx context.Context, id int64, typeHint string, principal *model.Principal) (*TransitionResult, error) {
	if principal == nil || (principal.Role != model.RoleManager && principal.Role != model.RoleSecurity) {
		return nil, apperrors.Forbidden("forbidden")
	}

	return s.transition(ctx, id, typeHint, principal, model.ActionApproved,
		map[string]interface{}{"role": principal.Role},
		func(txCtx context.Context, req model.Request) error {
			if err := checkNotTerminal(req); err != nil {
				return err
			}
			lc := req.Lifecycle()
			now := s.now()

			switch principal.Role {
			case model.RoleManager:
				if lc.Status != model.StatusPendingManager {
					return apperrors.InvalidState("invalid status")
				}
				if err := ensureManagerScope(txCtx, s.employees, principal, req.SubjectEmployeeID()); err != nil {
					return err
				}
				actor := principal.EmployeeID
				lc.Status = model.StatusPendingSecurity
				lc.ManagerEmployeeID = &actor
				lc.ManagerUpdatedAt = &now
			case model.RoleSecurity:
				if lc.Status != model.StatusPendingSecurity {
					return apperrors.InvalidState("invalid status")
				}
				actor := principal.EmployeeID
				lc.Status = model.StatusInProcess
				lc.SecurityEmployeeID = &actor
				lc.SecurityUpdatedAt = &now
			}
			lc.RejectionReason = nil
			return nil
		})
}

func (s *approvalService) Reject(ctx context.Context, id int64, typeHint string, reason string, principal *model.Principal) (*TransitionResult, error) {
	if principal == nil || (principal.Role != model.RoleManager && principal.Role != model.RoleSecurity) {
		return nil, apperrors.Forbidden("forbidden")
	}

	return s.transition(ctx, id, typeHint, principal, model.ActionRejected,
		map[string]interface{}{"role": principal.Role, "reason": strings.TrimSpace(reason)},
		func(txCtx context.Context, req model.Request) error {
			if err := checkNotTerminal(req); err != nil {
				return err
			}
			lc := req.Lifecycle()
			now := s.now()

			switch principal.Role {
			case model.RoleManager:
				if lc.Status != model.StatusPendingManager {
					return apperrors.InvalidState("invalid status")
				}
				if err := ensureManagerScope(txCtx, s.employees, principal, req.SubjectEmployeeID()); err != nil {
					return err
				}
				trimmed := strings.TrimSpace(reason)
				if trimmed == "" {
					return apperrors.Validation("rejection reason required")
				}
				actor := principal.EmployeeID
				lc.Status = model.StatusRejectedManager
				lc.ManagerEmployeeID = &actor
				lc.ManagerUpdatedAt = &now
				lc.RejectionReason = &trimmed
			case model.RoleSecurity:
				if lc.Status != model.StatusPendingSecurity {
					return apperrors.InvalidState("invalid status")
				}
				trimmed := strings.TrimSpace(reason)
				if trimmed == "" {
					return apperrors.Validation("rejection reason required")
				}
				actor := principal.EmployeeID
				lc.Status = model.StatusRejectedSecurity
				lc.SecurityEmployeeID = &actor
				lc.SecurityUpdatedAt = &now
				lc.RejectionReason = &trimmed
			}
			return nil
		})
}

func (s *approvalService) Complete(ctx context.Context, id int64, typeHint string, principal *model.Principal) (*TransitionResult, error) {
	if principal == nil || principal.Role != model.RoleCardPrinting {
		return nil, apperrors.Forbidden("forbidden")
	}

	return s.transition(ctx, id, typeHint, principal, model.ActionCompleted, nil,
		func(txCtx context.Context, req model.Request) error {
			if err := checkNotTerminal(req); err != nil {
				return err
			}
			lc := req.Lifecycle()
			if lc.Status != model.StatusInProcess {
				return apperrors.InvalidState("invalid status")
			}
			actor := principal.EmployeeID
			now := s.now()
			lc.Status = model.StatusCompleted
			lc.PrintingEmployeeID = &actor
			lc.PrintingUpdatedAt = &now
			return nil
		})
}

func (s *approvalService) Cancel(ctx context.Context, id int64, typeHint string, reason string, principal *model.Principal) (*TransitionResult, error) {
	if principal == nil || principal.Role != model.RoleAdmin {
		return nil, apperrors.Forbidden("forbidden")
	}

	metadata := map[string]interface{}{}
	trimmed := strings.TrimSpace(reason)
	if trimmed != "" {
		metadata["reason"] = trimmed
	}

	return s.transition(ctx, id, typeHint, principal, model.ActionCancelled, metadata,
		func(txCtx context.Context, req model.Request) error {
			if err := checkNotTerminal(req); err != nil {
				return err
			}
			lc := req.Lifecycle()
			lc.Status = model.StatusCancelled
			if trimmed != "" {
				lc.RejectionReason = &trimmed
			}
			return nil
		})
}
