package service

import (
	"context"
	"fmt"

	"clearancehub/internal/model"
	"clearancehub/internal/repository"
)

// LookupService serves the reference reads backing the request forms: the
// area catalogue and employee verification by business key.
type LookupService interface {
	ListAreas(ctx context.Context, status string) ([]model.Area, error)
	GetEmployee(ctx context.Context, employeeID string) (*model.Employee, error)
}

type lookupService struct {
	areas     repository.AreaRepository
	employees repository.EmployeeRepository
}

func NewLookupService(areas repository.AreaRepository, employees repository.EmployeeRepository) LookupService {
	return &lookupService{areas: areas, employees: employees}
}

func (s *lookupService) ListAreas(ctx context.Context, status string) ([]model.Area, error) {
	areas, err := s.areas.List(ctx, normalizeStatus(status))
	if err != nil {
		return nil, fmt.Errorf("list areas: %w", err)
	}
	return areas, nil
}

// GetEmployee backs the self-service form's identity check; suspended
// employees look exactly like missing ones.
func (s *lookupService) GetEmployee(ctx context.Context, employeeID string) (*model.Employee, error) {
	return getActiveEmployee(ctx, s.employees, employeeID)
}
