package model

import (
	"time"

	"github.com/google/uuid"
)

// Role codes — the fixed, closed staff role set. Anything else is rejected at
// login; unauthenticated callers exist only for the create operations.
const (
	RoleManager      = "MANAGER"
	RoleSecurity     = "SECURITY"
	RoleCardPrinting = "CARD_PRINTING"
	RoleAdmin        = "ADMIN"
)

// StaffRoles is the union of all named roles; only staff may list, view
// detail, or export requests.
var StaffRoles = []string{RoleManager, RoleSecurity, RoleCardPrinting, RoleAdmin}

// IsStaffRole reports whether the code belongs to the closed role set.
func IsStaffRole(role string) bool {
	switch role {
	case RoleManager, RoleSecurity, RoleCardPrinting, RoleAdmin:
		return true
	}
	return false
}

// Principal is the authenticated identity resolved from credentials. The
// workflow engine trusts it verbatim; a nil principal means public
// self-service and is accepted only by the create operations.
type Principal struct {
	Email      string `json:"email"`
	EmployeeID string `json:"employee_id"`
	Role       string `json:"role"`
}

// Role maps a role code to its display name.
type Role struct {
	ID       int    `gorm:"primaryKey" json:"id"`
	RoleCode string `gorm:"type:varchar(50);uniqueIndex;not null" json:"role_code"`
	RoleName string `gorm:"type:varchar(150);not null" json:"role_name"`
}

// EmployeePermission grants an employee a staff role, addressed by internal
// email at login time.
type EmployeePermission struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	EmployeeID    string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"employee_id"`
	InternalEmail string    `gorm:"type:varchar(150);uniqueIndex;not null" json:"internal_email"`
	RoleID        int       `gorm:"not null" json:"role_id"`
	Role          *Role     `gorm:"foreignKey:RoleID" json:"role,omitempty"`
	IsActive      bool      `gorm:"default:true" json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}

// UserOTP is a one-time login code pending verification.
type UserOTP struct {
	ID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InternalEmail string    `gorm:"type:varchar(150);not null;index" json:"internal_email"`
	OTPCode       string    `gorm:"type:varchar(10);not null" json:"-"`
	ExpiresAt     time.Time `gorm:"not null" json:"expires_at"`
	IsUsed        bool      `gorm:"default:false" json:"is_used"`
	CreatedAt     time.Time `json:"created_at"`
}

// AuthToken stores a SHA-256 digest of an issued refresh token.
type AuthToken struct {
	ID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InternalEmail string    `gorm:"type:varchar(150);not null;index" json:"internal_email"`
	TokenHash     string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"`
	ExpiresAt     time.Time `gorm:"not null" json:"expires_at"`
	Revoked       bool      `gorm:"default:false" json:"revoked"`
	CreatedAt     time.Time `json:"created_at"`
}
