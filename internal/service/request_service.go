package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"clearancehub/internal/model"
	"clearancehub/internal/repository"
	ws "clearancehub/internal/websocket"
	"clearancehub/pkg/apperrors"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateCardRequestDTO struct {
	EmployeeID    string  `json:"employee_id" binding:"required"`
	RequestType   string  `json:"request_type" binding:"required,oneof=NEW RENEW REPLACE_LOST"`
	RequestReason *string `json:"request_reason"`
	PhotoURL      *string `json:"photo_url"`
}

type CreatePermitRequestDTO struct {
	EmployeeID    string  `json:"employee_id" binding:"required"`
	AreaIDs       []int64 `json:"area_ids" binding:"required,min=1"`
	RequestReason *string `json:"request_reason"`
}

// RequestListFilter narrows the list operation; all fields optional.
type RequestListFilter struct {
	Type     string
	Status   string
	DateFrom *time.Time
	DateTo   *time.Time
}

// RequestListItem is one row of the unified card/permit listing with a
// denormalized employee snapshot attached.
type RequestListItem struct {
	ID                    int64           `json:"id"`
	RequestType           string          `json:"request_type"`
	EmployeeID            string          `json:"employee_id"`
	SubmittedByEmployeeID *string         `json:"submitted_by_employee_id"`
	Status                string          `json:"status"`
	RequestDate           time.Time       `json:"request_date"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
	CardRequestType       *string         `json:"card_request_type"`
	Employee              *model.Employee `json:"employee,omitempty"`
}

// ApprovalTimelineItem is one reconstructed stage outcome, derived from the
// stamped stage fields rather than an append log, so only the current outcome
// of each stage is visible.
type ApprovalTimelineItem struct {
	Role       string    `json:"role"`
	EmployeeID string    `json:"employee_id"`
	Action     string    `json:"action"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// PermitRequestDetail is a permit request expanded with its area selection.
type PermitRequestDetail struct {
	*model.PermitRequest
	AreaIDs []int64      `json:"area_ids"`
	Areas   []model.Area `json:"areas"`
}

type RequestDetail struct {
	RequestType   string                 `json:"request_type"`
	Employee      *model.Employee        `json:"employee"`
	CardRequest   *model.CardRequest     `json:"card_request"`
	PermitRequest *PermitRequestDetail   `json:"permit_request"`
	Approvals     []ApprovalTimelineItem `json:"approvals"`
}

// --- Interface ---

type RequestService interface {
	CreateCardRequest(ctx context.Context, req CreateCardRequestDTO, principal *model.Principal) (*model.CardRequest, error)
	CreatePermitRequest(ctx context.Context, req CreatePermitRequestDTO, principal *model.Principal) (*model.PermitRequest, error)
	GetRequestDetail(ctx context.Context, id int64, typeHint string, principal *model.Principal) (*RequestDetail, error)
	ListRequests(ctx context.Context, filter RequestListFilter, principal *model.Principal) ([]RequestListItem, error)
}

type requestService struct {
	employees repository.EmployeeRepository
	areas     repository.AreaRepository
	cards     repository.CardRequestRepository
	permits   repository.PermitRequestRepository
	audit     repository.AuditRepository
	tx        repository.TransactionManager
	hub       *ws.Hub
	log       *zap.Logger
}

func NewRequestService(
	employees repository.EmployeeRepository,
	areas repository.AreaRepository,
	cards repository.CardRequestRepository,
	permits repository.PermitRequestRepository,
	audit repository.AuditRepository,
	tx repository.TransactionManager,
	hub *ws.Hub,
	log *zap.Logger,
) RequestService {
	return &requestService{
		employees: employees,
		areas:     areas,
		cards:     cards,
		permits:   permits,
		audit:     audit,
		tx:        tx,
		hub:       hub,
		log:       log,
	}
}

// --- Creation ---

// ensureCreateScope applies the create authorization rule: unauthenticated
// self-service and admins may create for anyone, managers only within their
// own department, every other role is rejected.
func (s *requestService) ensureCreateScope(ctx context.Context, principal *model.Principal, employeeID string) error {
	if principal == nil {
		return nil
	}
	switch principal.Role {
	case model.RoleManager:
		return ensureManagerScope(ctx, s.employees, principal, employeeID)
	case model.RoleAdmin:
		return nil
	}
	return apperrors.Forbidden("forbidden")
}

func submittedBy(principal *model.Principal) *string {
	if principal == nil {
		return nil
	}
	id := principal.EmployeeID
	return &id
}

func (s *requestService) CreateCardRequest(ctx context.Context, req CreateCardRequestDTO, principal *model.Principal) (*model.CardRequest, error) {
	switch req.RequestType {
	case model.CardTypeNew, model.CardTypeRenew, model.CardTypeReplaceLost:
	default:
		return nil, apperrors.Validation("invalid card request type")
	}

	card := &model.CardRequest{
		EmployeeID:            req.EmployeeID,
		SubmittedByEmployeeID: submittedBy(principal),
		RequestType:           req.RequestType,
		RequestReason:         req.RequestReason,
		PhotoURL:              req.PhotoURL,
		RequestLifecycle:      model.RequestLifecycle{Status: model.StatusPendingManager},
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := getActiveEmployee(txCtx, s.employees, req.EmployeeID); err != nil {
			return err
		}
		if err := s.ensureCreateScope(txCtx, principal, req.EmployeeID); err != nil {
			return err
		}
		if err := s.cards.Create(txCtx, card); err != nil {
			return fmt.Errorf("create card request: %w", err)
		}
		return writeAudit(txCtx, s.audit, model.EntityCardRequest, card.ID, model.ActionCreated, principal, map[string]interface{}{
			"request_type": model.RequestKindCard,
			"employee_id":  req.EmployeeID,
		})
	})
	if err != nil {
		return nil, err
	}

	s.publish(model.EntityCardRequest, card.ID, model.ActionCreated, card.Status)
	return card, nil
}

func (s *requestService) CreatePermitRequest(ctx context.Context, req CreatePermitRequestDTO, principal *model.Principal) (*model.PermitRequest, error) {
	areaIDs := dedupeIDs(req.AreaIDs)
	if len(areaIDs) == 0 {
		return nil, apperrors.Validation("area_ids required")
	}

	permit := &model.PermitRequest{
		EmployeeID:            req.EmployeeID,
		SubmittedByEmployeeID: submittedBy(principal),
		RequestReason:         req.RequestReason,
		RequestLifecycle:      model.RequestLifecycle{Status: model.StatusPendingManager},
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := getActiveEmployee(txCtx, s.employees, req.EmployeeID); err != nil {
			return err
		}
		if err := s.ensureCreateScope(txCtx, principal, req.EmployeeID); err != nil {
			return err
		}

		active, err := s.areas.GetActiveByIDs(txCtx, areaIDs)
		if err != nil {
			return fmt.Errorf("load areas: %w", err)
		}
		if len(active) != len(areaIDs) {
			return apperrors.Validation("invalid area ids")
		}

		if err := s.permits.Create(txCtx, permit); err != nil {
			return fmt.Errorf("create permit request: %w", err)
		}
		if err := s.permits.AddAreas(txCtx, permit.ID, areaIDs); err != nil {
			return fmt.Errorf("link permit areas: %w", err)
		}
		return writeAudit(txCtx, s.audit, model.EntityPermitRequest, permit.ID, model.ActionCreated, principal, map[string]interface{}{
			"request_type": model.RequestKindAccess,
			"employee_id":  req.EmployeeID,
			"area_ids":     areaIDs,
		})
	})
	if err != nil {
		return nil, err
	}

	s.publish(model.EntityPermitRequest, permit.ID, model.ActionCreated, permit.Status)
	return permit, nil
}

// dedupeIDs drops duplicate ids, preserving first-seen order.
func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// --- Lookup ---

// findRequestByID resolves an id to exactly one request. Ids are drawn from
// independent spaces per variant, so a hintless id matching both variants is
// an ambiguity error, never resolved by precedence.
func findRequestByID(ctx context.Context, cards repository.CardRequestRepository, permits repository.PermitRequestRepository, id int64, typeHint string) (model.Request, error) {
	kind, err := normalizeRequestType(typeHint)
	if err != nil {
		return nil, err
	}

	switch kind {
	case model.RequestKindCard:
		card, err := cards.FindByID(ctx, id)
		if err != nil {
			return nil, translateRequestErr(err)
		}
		return card, nil
	case model.RequestKindAccess:
		permit, err := permits.FindByID(ctx, id)
		if err != nil {
			return nil, translateRequestErr(err)
		}
		return permit, nil
	}

	card, cardErr := cards.FindByID(ctx, id)
	if cardErr != nil && !errors.Is(cardErr, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load card request: %w", cardErr)
	}
	permit, permitErr := permits.FindByID(ctx, id)
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

func translateRequestErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound("request not found")
	}
	return fmt.Errorf("load request: %w", err)
}

// --- Detail ---

func (s *requestService) GetRequestDetail(ctx context.Context, id int64, typeHint string, principal *model.Principal) (*RequestDetail, error) {
	if principal == nil || !model.IsStaffRole(principal.Role) {
		return nil, apperrors.Forbidden("forbidden")
	}

	req, err := findRequestByID(ctx, s.cards, s.permits, id, typeHint)
	if err != nil {
		return nil, err
	}

	if principal.Role == model.RoleManager {
		if err := ensureManagerScope(ctx, s.employees, principal, req.SubjectEmployeeID()); err != nil {
			return nil, err
		}
	}
	// Printing staff never learn that earlier-stage requests exist.
	if principal.Role == model.RoleCardPrinting && !model.IsPrintingVisible(req.Lifecycle().Status) {
		return nil, apperrors.NotFound("request not found")
	}

	// Suspended employees stay visible on existing requests.
	employee, err := getEmployee(ctx, s.employees, req.SubjectEmployeeID())
	if err != nil {
		return nil, err
	}

	detail := &RequestDetail{
		RequestType: req.RequestKind(),
		Employee:    employee,
		Approvals:   buildApprovalTimeline(req),
	}

	switch typed := req.(type) {
	case *model.CardRequest:
		detail.CardRequest = typed
	case *model.PermitRequest:
		links, err := s.permits.AreasForRequests(ctx, []int64{typed.ID})
		if err != nil {
			return nil, fmt.Errorf("load permit areas: %w", err)
		}
		areaIDs := make([]int64, 0, len(links))
		for _, link := range links {
			areaIDs = append(areaIDs, link.AreaID)
		}
		areas, err := s.areas.GetByIDs(ctx, areaIDs)
		if err != nil {
			return nil, fmt.Errorf("load areas: %w", err)
		}
		detail.PermitRequest = &PermitRequestDetail{PermitRequest: typed, AreaIDs: areaIDs, Areas: areas}
	}

	return detail, nil
}

// buildApprovalTimeline reconstructs the stage history from the stamped
// fields. A stage contributes an entry only when both actor and timestamp are
// set; the action reflects the request's current outcome for that stage.
func buildApprovalTimeline(req model.Request) []ApprovalTimelineItem {
	lc := req.Lifecycle()
	timeline := make([]ApprovalTimelineItem, 0, 3)

	if lc.ManagerEmployeeID != nil && lc.ManagerUpdatedAt != nil {
		action := model.ActionApproved
		if lc.Status == model.StatusRejectedManager {
			action = model.ActionRejected
		}
		timeline = append(timeline, ApprovalTimelineItem{
			Role:       model.RoleManager,
			EmployeeID: *lc.ManagerEmployeeID,
			Action:     action,
			UpdatedAt:  *lc.ManagerUpdatedAt,
		})
	}
	if lc.SecurityEmployeeID != nil && lc.SecurityUpdatedAt != nil {
		action := model.ActionApproved
		if lc.Status == model.StatusRejectedSecurity {
			action = model.ActionRejected
		}
		timeline = append(timeline, ApprovalTimelineItem{
			Role:       model.RoleSecurity,
			EmployeeID: *lc.SecurityEmployeeID,
			Action:     action,
			UpdatedAt:  *lc.SecurityUpdatedAt,
		})
	}
	if lc.PrintingEmployeeID != nil && lc.PrintingUpdatedAt != nil {
		timeline = append(timeline, ApprovalTimelineItem{
			Role:       model.RoleCardPrinting,
			EmployeeID: *lc.PrintingEmployeeID,
			Action:     model.ActionCompleted,
			UpdatedAt:  *lc.PrintingUpdatedAt,
		})
	}

	sort.SliceStable(timeline, func(i, j int) bool {
		return timeline[i].UpdatedAt.Before(timeline[j].UpdatedAt)
	})
	return timeline
}

// --- Listing ---

func (s *requestService) ListRequests(ctx context.Context, filter RequestListFilter, principal *model.Principal) ([]RequestListItem, error) {
	if principal == nil || !model.IsStaffRole(principal.Role) {
		return nil, apperrors.Forbidden("forbidden")
	}

	kind, err := normalizeRequestType(filter.Type)
	if err != nil {
		return nil, err
	}

	query := repository.RequestQuery{
		Status:   normalizeStatus(filter.Status),
		DateFrom: filter.DateFrom,
		DateTo:   filter.DateTo,
	}
	if principal.Role == model.RoleManager {
		manager, err := managerDepartment(ctx, s.employees, principal)
		if err != nil {
			return nil, err
		}
		deptID := manager.DepartmentID
		query.DepartmentID = &deptID
	}
	if principal.Role == model.RoleCardPrinting {
		query.Statuses = model.PrintingVisibleStatuses
	}

	var items []RequestListItem

	if kind == "" || kind == model.RequestKindCard {
		cards, err := s.cards.List(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("list card requests: %w", err)
		}
		for i := range cards {
			card := cards[i]
			cardType := card.RequestType
			items = append(items, RequestListItem{
				ID:                    card.ID,
				RequestType:           model.RequestKindCard,
				EmployeeID:            card.EmployeeID,
				SubmittedByEmployeeID: card.SubmittedByEmployeeID,
				Status:                card.Status,
				RequestDate:           card.RequestDate,
				CreatedAt:             card.CreatedAt,
				UpdatedAt:             card.UpdatedAt,
				CardRequestType:       &cardType,
			})
		}
	}

	if kind == "" || kind == model.RequestKindAccess {
		permits, err := s.permits.List(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("list permit requests: %w", err)
		}
		for i := range permits {
			permit := permits[i]
			items = append(items, RequestListItem{
				ID:                    permit.ID,
				RequestType:           model.RequestKindAccess,
				EmployeeID:            permit.EmployeeID,
				SubmittedByEmployeeID: permit.SubmittedByEmployeeID,
				Status:                permit.Status,
				RequestDate:           permit.RequestDate,
				CreatedAt:             permit.CreatedAt,
				UpdatedAt:             permit.UpdatedAt,
			})
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].RequestDate.After(items[j].RequestDate)
	})

	if err := s.attachEmployees(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

// attachEmployees batch-loads the employee snapshot per row to avoid per-row
// lookups at scale.
func (s *requestService) attachEmployees(ctx context.Context, items []RequestListItem) error {
	if len(items) == 0 {
		return nil
	}
	idSet := make(map[string]bool, len(items))
	ids := make([]string, 0, len(items))
	for _, item := range items {
		if !idSet[item.EmployeeID] {
			idSet[item.EmployeeID] = true
			ids = append(ids, item.EmployeeID)
		}
	}
	employees, err := s.employees.GetByEmployeeIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("load employees: %w", err)
	}
	byID := make(map[string]*model.Employee, len(employees))
	for i := range employees {
		byID[employees[i].EmployeeID] = &employees[i]
	}
	for i := range items {
		items[i].Employee = byID[items[i].EmployeeID]
	}
	return nil
}

// --- Shared side effects ---

// writeAudit appends one audit entry inside the caller's transaction so the
// entry commits or rolls back with the mutation it records.
func writeAudit(ctx context.Context, audit repository.AuditRepository, entityType string, entityID int64, action string, principal *model.Principal, metadata map[string]interface{}) error {
	entry := &model.AuditLog{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
	}
	if principal != nil {
		email := principal.Email
		entry.PerformedBy = &email
	}
	if metadata != nil {
		details, _ := json.Marshal(metadata)
		entry.Details = string(details)
	}
	if err := audit.Log(ctx, entry); err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

func (s *requestService) publish(entityType string, entityID int64, action, status string) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(ws.Event{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Status:     status,
	})
}
