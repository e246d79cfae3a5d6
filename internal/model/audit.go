package model

import (
	"time"

	"github.com/google/uuid"
)

// Audit entity types
const (
	EntityCardRequest   = "card_request"
	EntityPermitRequest = "permit_request"
)

// Audit actions recorded alongside lifecycle transitions
const (
	ActionCreated   = "CREATED"
	ActionApproved  = "APPROVED"
	ActionRejected  = "REJECTED"
	ActionCompleted = "COMPLETED"
	ActionCancelled = "CANCELLED"
)

// AuditLog is an append-only record of every creation and lifecycle
// transition, written in the same transaction as the mutation it describes.
// Rows are never updated or deleted.
type AuditLog struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	EntityType  string    `gorm:"type:varchar(50);not null;index" json:"entity_type"`
	EntityID    int64     `gorm:"not null;index" json:"entity_id"`
	Action      string    `gorm:"type:varchar(50);not null;index" json:"action"`
	PerformedBy *string   `gorm:"type:varchar(150)" json:"performed_by"` // principal email; nil for public self-service
	Details     string    `gorm:"type:jsonb" json:"details"`             // serialized JSON metadata
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}
