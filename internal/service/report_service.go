package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"clearancehub/internal/model"
	"clearancehub/internal/repository"
)

// StatusCounts is one dashboard population bucketed by workflow outcome.
type StatusCounts struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}

// DashboardScope tells the caller whether the counts cover everything or a
// single department.
type DashboardScope struct {
	Type           string  `json:"type"`
	DepartmentID   *int    `json:"department_id,omitempty"`
	DepartmentName *string `json:"department_name,omitempty"`
}

const (
	ScopeAll        = "ALL"
	ScopeDepartment = "DEPARTMENT"
)

type DashboardSummary struct {
	All    StatusCounts   `json:"all"`
	Card   StatusCounts   `json:"card"`
	Access StatusCounts   `json:"access"`
	Scope  DashboardScope `json:"scope"`
}

// ExportRow flattens either request variant into one wide row. Fields of the
// inapplicable variant stay nil so both kinds share one column layout.
type ExportRow struct {
	ID                 int64
	RequestType        string
	EmployeeID         string
	EmployeeNameAR     string
	EmployeeNameEN     string
	JobTitle           string
	DepartmentID       *int
	DepartmentName     string
	Status             string
	RequestDate        time.Time
	CardRequestType    *string
	RequestReason      *string
	AreaIDs            *string
	AreaNames          *string
	SubmittedBy        *string
	ManagerEmployeeID  *string
	ManagerUpdatedAt   *time.Time
	SecurityEmployeeID *string
	SecurityUpdatedAt  *time.Time
	PrintingEmployeeID *string
	PrintingUpdatedAt  *time.Time
	RejectionReason    *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ExportHeaders is the column order shared by CSV and Excel exports.
var ExportHeaders = []string{
	"ID", "Request Type", "Employee ID", "Employee Name (AR)", "Employee Name (EN)",
	"Job Title", "Department ID", "Department Name", "Status", "Request Date",
	"Card Request Type", "Request Reason", "Area IDs", "Area Names", "Submitted By",
	"Manager", "Manager Updated At", "Security", "Security Updated At",
	"Printing", "Printing Updated At", "Rejection Reason", "Created At", "Updated At",
}

// Record renders the row as strings in ExportHeaders order.
func (r ExportRow) Record() []string {
	return []string{
		strconv.FormatInt(r.ID, 10),
		r.RequestType,
		r.EmployeeID,
		r.EmployeeNameAR,
		r.EmployeeNameEN,
		r.JobTitle,
		formatInt(r.DepartmentID),
		r.DepartmentName,
		r.Status,
		formatTime(&r.RequestDate),
		deref(r.CardRequestType),
		deref(r.RequestReason),
		deref(r.AreaIDs),
		deref(r.AreaNames),
		deref(r.SubmittedBy),
		deref(r.ManagerEmployeeID),
		formatTime(r.ManagerUpdatedAt),
		deref(r.SecurityEmployeeID),
		formatTime(r.SecurityUpdatedAt),
		deref(r.PrintingEmployeeID),
		formatTime(r.PrintingUpdatedAt),
		deref(r.RejectionReason),
		formatTime(&r.CreatedAt),
		formatTime(&r.UpdatedAt),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}

type ReportService interface {
	DashboardSummary(ctx context.Context, principal *model.Principal) (*DashboardSummary, error)
	ExportRows(ctx context.Context, filter RequestListFilter, principal *model.Principal) ([]ExportRow, error)
}

type reportService struct {
	requests  RequestService
	employees repository.EmployeeRepository
	cards     repository.CardRequestRepository
	permits   repository.PermitRequestRepository
}

func NewReportService(
	requests RequestService,
	employees repository.EmployeeRepository,
	cards repository.CardRequestRepository,
	permits repository.PermitRequestRepository,
) ReportService {
	return &reportService{requests: requests, employees: employees, cards: cards, permits: permits}
}

// DashboardSummary counts the caller's visible requests per population.
// Printing staff only ever see in-flight and done work, so their buckets
// collapse to pending=IN_PROCESS, approved=COMPLETED and no rejected bucket.
func (s *reportService) DashboardSummary(ctx context.Context, principal *model.Principal) (*DashboardSummary, error) {
	items, err := s.requests.ListRequests(ctx, RequestListFilter{}, principal)
	if err != nil {
		return nil, err
	}

	printing := principal != nil && principal.Role == model.RoleCardPrinting

	summary := &DashboardSummary{Scope: DashboardScope{Type: ScopeAll}}
	for _, item := range items {
		counts := &summary.All
		s.bucket(counts, item.Status, printing)
		if item.RequestType == model.RequestKindCard {
			s.bucket(&summary.Card, item.Status, printing)
		} else {
			s.bucket(&summary.Access, item.Status, printing)
		}
	}

	if principal != nil && principal.Role == model.RoleManager {
		manager, err := managerDepartment(ctx, s.employees, principal)
		if err != nil {
			return nil, err
		}
		deptID := manager.DepartmentID
		deptName := manager.DepartmentName
		summary.Scope = DashboardScope{Type: ScopeDepartment, DepartmentID: &deptID, DepartmentName: &deptName}
	}

	return summary, nil
}

func (s *reportService) bucket(counts *StatusCounts, status string, printing bool) {
	counts.Total++
	if printing {
		switch status {
		case model.StatusInProcess:
			counts.Pending++
		case model.StatusCompleted:
			counts.Approved++
		}
		return
	}
	switch {
	case model.PendingStatuses[status]:
		counts.Pending++
	case model.ApprovedStatuses[status]:
		counts.Approved++
	case model.RejectedStatuses[status]:
		counts.Rejected++
	}
}

// ExportRows projects the caller's visible requests into the wide export
// shape, ordered identically to the list operation.
func (s *reportService) ExportRows(ctx context.Context, filter RequestListFilter, principal *model.Principal) ([]ExportRow, error) {
	items, err := s.requests.ListRequests(ctx, filter, principal)
	if err != nil {
		return nil, err
	}

	var cardIDs, permitIDs []int64
	for _, item := range items {
		if item.RequestType == model.RequestKindCard {
			cardIDs = append(cardIDs, item.ID)
		} else {
			permitIDs = append(permitIDs, item.ID)
		}
	}

	cards, err := s.cards.FindByIDs(ctx, cardIDs)
	if err != nil {
		return nil, fmt.Errorf("load card requests: %w", err)
	}
	cardByID := make(map[int64]*model.CardRequest, len(cards))
	for i := range cards {
		cardByID[cards[i].ID] = &cards[i]
	}

	permits, err := s.permits.FindByIDs(ctx, permitIDs)
	if err != nil {
		return nil, fmt.Errorf("load permit requests: %w", err)
	}
	permitByID := make(map[int64]*model.PermitRequest, len(permits))
	for i := range permits {
		permitByID[permits[i].ID] = &permits[i]
	}

	areasByPermit := make(map[int64][]repository.PermitArea)
	if len(permitIDs) > 0 {
		links, err := s.permits.AreasForRequests(ctx, permitIDs)
		if err != nil {
			return nil, fmt.Errorf("load permit areas: %w", err)
		}
		for _, link := range links {
			areasByPermit[link.PermitRequestID] = append(areasByPermit[link.PermitRequestID], link)
		}
	}

	rows := make([]ExportRow, 0, len(items))
	for _, item := range items {
		row := ExportRow{
			ID:          item.ID,
			RequestType: item.RequestType,
			EmployeeID:  item.EmployeeID,
			Status:      item.Status,
			RequestDate: item.RequestDate,
			SubmittedBy: item.SubmittedByEmployeeID,
			CreatedAt:   item.CreatedAt,
			UpdatedAt:   item.UpdatedAt,
		}
		if emp := item.Employee; emp != nil {
			row.EmployeeNameAR = emp.NameAR
			row.EmployeeNameEN = emp.NameEN
			row.JobTitle = emp.JobTitle
			deptID := emp.DepartmentID
			row.DepartmentID = &deptID
			row.DepartmentName = emp.DepartmentName
		}

		switch item.RequestType {
		case model.RequestKindCard:
			card := cardByID[item.ID]
			if card == nil {
				continue
			}
			cardType := card.RequestType
			row.CardRequestType = &cardType
			row.RequestReason = card.RequestReason
			fillLifecycle(&row, &card.RequestLifecycle)
		default:
			permit := permitByID[item.ID]
			if permit == nil {
				continue
			}
			row.RequestReason = permit.RequestReason
			fillLifecycle(&row, &permit.RequestLifecycle)

			links := areasByPermit[item.ID]
			ids := make([]string, 0, len(links))
			names := make([]string, 0, len(links))
			for _, link := range links {
				ids = append(ids, strconv.FormatInt(link.AreaID, 10))
				names = append(names, link.AreaName)
			}
			joinedIDs := strings.Join(ids, ", ")
			joinedNames := strings.Join(names, ", ")
			row.AreaIDs = &joinedIDs
			row.AreaNames = &joinedNames
		}

		rows = append(rows, row)
	}
	return rows, nil
}

func fillLifecycle(row *ExportRow, lc *model.RequestLifecycle) {
	row.ManagerEmployeeID = lc.ManagerEmployeeID
	row.ManagerUpdatedAt = lc.ManagerUpdatedAt
	row.SecurityEmployeeID = lc.SecurityEmployeeID
	row.SecurityUpdatedAt = lc.SecurityUpdatedAt
	row.PrintingEmployeeID = lc.PrintingEmployeeID
	row.PrintingUpdatedAt = lc.PrintingUpdatedAt
	row.RejectionReason = lc.RejectionReason
}
