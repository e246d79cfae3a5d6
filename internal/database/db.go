package database

import (
	"clearancehub/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.Employee{},
		&model.Area{},
		&model.CardRequest{},
		&model.PermitRequest{},
		&model.PermitRequestArea{},
		&model.AuditLog{},
		&model.Role{},
		&model.EmployeePermission{},
		&model.UserOTP{},
		&model.AuthToken{},
	)
	if err != nil {
		return nil, err
	}

	return db, nil
}
