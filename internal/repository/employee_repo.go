package repository

import (
	"context"

	"clearancehub/internal/model"

	"gorm.io/gorm"
)

// EmployeeRepository reads the roster reference data. The workflow engine
// never mutates employees; ReplaceAll exists only for the roster import.
type EmployeeRepository interface {
	GetByEmployeeID(ctx context.Context, employeeID string) (*model.Employee, error)
	GetByEmployeeIDs(ctx context.Context, employeeIDs []string) ([]model.Employee, error)
	ReplaceAll(ctx context.Context, employees []model.Employee) error
}

type employeeRepository struct {
	db *gorm.DB
}

func NewEmployeeRepository(db *gorm.DB) EmployeeRepository {
	return &employeeRepository{db: db}
}

func (r *employeeRepository) GetByEmployeeID(ctx context.Context, employeeID string) (*model.Employee, error) {
	var employee model.Employee
	if err := GetDB(ctx, r.db).First(&employee, "employee_id = ?", employeeID).Error; err != nil {
		return nil, err
	}
	return &employee, nil
}

func (r *employeeRepository) GetByEmployeeIDs(ctx context.Context, employeeIDs []string) ([]model.Employee, error) {
	if len(employeeIDs) == 0 {
		return nil, nil
	}
	var employees []model.Employee
	if err := GetDB(ctx, r.db).Where("employee_id IN ?", employeeIDs).Find(&employees).Error; err != nil {
		return nil, err
	}
	return employees, nil
}

func (r *employeeRepository) ReplaceAll(ctx context.Context, employees []model.Employee) error {
	db := GetDB(ctx, r.db)
	if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.Employee{}).Error; err != nil {
		return err
	}
	if len(employees) == 0 {
		return nil
	}
	return db.CreateInBatches(employees, 500).Error
}
