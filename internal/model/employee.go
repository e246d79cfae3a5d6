package model

import (
	"time"
)

// Employee account status enum constants
const (
	EmployeeActive    = "ACTIVE"
	EmployeeSuspended = "SUSPENDED"
)

// Employee is the reference roster entity. It is replaced wholesale by the
// roster import and is read-only to the workflow engine. The business key is
// EmployeeID; MedID is the surrogate key carried over from the HR system.
type Employee struct {
	MedID          int64     `gorm:"column:med_id;primaryKey" json:"med_id"`
	EmployeeID     string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"employee_id"`
	NameAR         string    `gorm:"column:name_ar;type:varchar(150);not null" json:"name_ar"`
	NameEN         string    `gorm:"column:name_en;type:varchar(150);not null" json:"name_en"`
	JobTitle       string    `gorm:"type:varchar(120);not null" json:"job_title"`
	NationalityAR  string    `gorm:"column:nationality_ar;type:varchar(120);not null" json:"nationality_ar"`
	NationalityEN  string    `gorm:"column:nationality_en;type:varchar(120);not null" json:"nationality_en"`
	DepartmentID   int       `gorm:"not null;index" json:"department_id"`
	DepartmentName string    `gorm:"type:varchar(150);not null" json:"department_name"`
	AccountStatus  string    `gorm:"type:varchar(20);not null;default:'ACTIVE';index" json:"account_status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// IsActive reports whether the employee may be the subject of new requests.
func (e *Employee) IsActive() bool {
	return e.AccountStatus == EmployeeActive
}
