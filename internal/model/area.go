package model

import "time"

// Area status enum constants
const (
	AreaActive   = "ACTIVE"
	AreaInactive = "INACTIVE"
)

// Area is a facility zone selectable on permit requests while ACTIVE.
type Area struct {
	ID        int64     `gorm:"column:area_id;primaryKey" json:"area_id"`
	Name      string    `gorm:"column:area_name;type:varchar(150);not null" json:"area_name"`
	Status    string    `gorm:"type:varchar(20);not null;default:'ACTIVE';index" json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
