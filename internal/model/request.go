package model

import "time"

// Request kind tags — the two workflow variants share one lifecycle shape
// but draw ids from independent spaces, so callers must disambiguate by kind.
const (
	RequestKindCard   = "CARD"
	RequestKindAccess = "ACCESS"
)

// Card request sub-type enum constants
const (
	CardTypeNew         = "NEW"
	CardTypeRenew       = "RENEW"
	CardTypeReplaceLost = "REPLACE_LOST"
)

// Lifecycle status enum constants, identical for both variants.
const (
	StatusDraft            = "DRAFT"
	StatusPendingManager   = "PENDING_MANAGER_APPROVAL"
	StatusRejectedManager  = "REJECTED_BY_MANAGER"
	StatusPendingSecurity  = "PENDING_SECURITY_APPROVAL"
	StatusRejectedSecurity = "REJECTED_BY_SECURITY"
	StatusInProcess        = "IN_PROCESS"
	StatusCompleted        = "COMPLETED"
	StatusCancelled        = "CANCELLED"
)

// Status buckets used by visibility rules and dashboard aggregation.
var (
	TerminalStatuses        = map[string]bool{StatusCompleted: true, StatusCancelled: true}
	PendingStatuses         = map[string]bool{StatusPendingManager: true, StatusPendingSecurity: true}
	ApprovedStatuses        = map[string]bool{StatusInProcess: true, StatusCompleted: true}
	RejectedStatuses        = map[string]bool{StatusRejectedManager: true, StatusRejectedSecurity: true}
	PrintingVisibleStatuses = []string{StatusInProcess, StatusCompleted}
)

// IsTerminalStatus reports whether no further transition is ever valid.
func IsTerminalStatus(status string) bool {
	return TerminalStatuses[status]
}

// IsPrintingVisible reports whether printing staff may see the request at all.
func IsPrintingVisible(status string) bool {
	return status == StatusInProcess || status == StatusCompleted
}

// RequestLifecycle carries the state-machine fields shared by both request
// variants: current status, per-stage actor/timestamp stamps set exactly once
// when the stage is passed, and the rejection reason.
type RequestLifecycle struct {
	Status             string     `gorm:"type:varchar(40);not null;default:'PENDING_MANAGER_APPROVAL';index" json:"status"`
	ManagerEmployeeID  *string    `gorm:"type:varchar(50)" json:"manager_employee_id"`
	ManagerUpdatedAt   *time.Time `json:"manager_updated_at"`
	SecurityEmployeeID *string    `gorm:"type:varchar(50)" json:"security_employee_id"`
	SecurityUpdatedAt  *time.Time `json:"security_updated_at"`
	PrintingEmployeeID *string    `gorm:"type:varchar(50)" json:"printing_employee_id"`
	PrintingUpdatedAt  *time.Time `json:"printing_updated_at"`
	RejectionReason    *string    `gorm:"type:text" json:"rejection_reason"`
}

// Request is the polymorphic capability the lifecycle engine operates on.
// Variant-specific fields (card sub-type, permit areas) are touched only in
// creation and projection code paths.
type Request interface {
	RequestID() int64
	RequestKind() string
	SubjectEmployeeID() string
	Lifecycle() *RequestLifecycle
}

// CardRequest is a physical card issuance request.
type CardRequest struct {
	ID                    int64     `gorm:"primaryKey" json:"id"`
	EmployeeID            string    `gorm:"type:varchar(50);not null;index" json:"employee_id"`
	SubmittedByEmployeeID *string   `gorm:"type:varchar(50)" json:"submitted_by_employee_id"`
	RequestDate           time.Time `gorm:"not null;autoCreateTime;index" json:"request_date"`
	RequestType           string    `gorm:"type:varchar(20);not null" json:"request_type"`
	RequestReason         *string   `gorm:"type:text" json:"request_reason"`
	PhotoURL              *string   `gorm:"type:text" json:"photo_url"`
	RequestLifecycle
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *CardRequest) RequestID() int64             { return r.ID }
func (r *CardRequest) RequestKind() string          { return RequestKindCard }
func (r *CardRequest) SubjectEmployeeID() string    { return r.EmployeeID }
func (r *CardRequest) Lifecycle() *RequestLifecycle { return &r.RequestLifecycle }

// PermitRequest is a facility access permit request covering one or more areas.
type PermitRequest struct {
	ID                    int64     `gorm:"primaryKey" json:"id"`
	EmployeeID            string    `gorm:"type:varchar(50);not null;index" json:"employee_id"`
	SubmittedByEmployeeID *string   `gorm:"type:varchar(50)" json:"submitted_by_employee_id"`
	RequestDate           time.Time `gorm:"not null;autoCreateTime;index" json:"request_date"`
	RequestReason         *string   `gorm:"type:text" json:"request_reason"`
	RequestLifecycle
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *PermitRequest) RequestID() int64             { return r.ID }
func (r *PermitRequest) RequestKind() string          { return RequestKindAccess }
func (r *PermitRequest) SubjectEmployeeID() string    { return r.EmployeeID }
func (r *PermitRequest) Lifecycle() *RequestLifecycle { return &r.RequestLifecycle }

// PermitRequestArea joins a permit request to an area, unique per pair.
type PermitRequestArea struct {
	ID              int64     `gorm:"primaryKey" json:"id"`
	PermitRequestID int64     `gorm:"not null;uniqueIndex:uq_permit_area" json:"permit_request_id"`
	AreaID          int64     `gorm:"not null;uniqueIndex:uq_permit_area" json:"area_id"`
	CreatedAt       time.Time `json:"created_at"`
}
