package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"clearancehub/internal/model"
	"clearancehub/internal/repository"
	"clearancehub/pkg/apperrors"

	"gorm.io/gorm"
)

// getActiveEmployee loads an employee by business key, treating missing and
// suspended records alike so callers cannot probe for suspended accounts.
func getActiveEmployee(ctx context.Context, employees repository.EmployeeRepository, employeeID string) (*model.Employee, error) {
	employee, err := getEmployee(ctx, employees, employeeID)
	if err != nil {
		return nil, err
	}
	if !employee.IsActive() {
		return nil, apperrors.NotFound("employee not found")
	}
	return employee, nil
}

func getEmployee(ctx context.Context, employees repository.EmployeeRepository, employeeID string) (*model.Employee, error) {
	employee, err := employees.GetByEmployeeID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("employee not found")
		}
		return nil, fmt.Errorf("load employee %s: %w", employeeID, err)
	}
	return employee, nil
}

// managerDepartment resolves the acting manager's own department fresh at
// action time, so a department reassignment changes scope immediately.
func managerDepartment(ctx context.Context, employees repository.EmployeeRepository, principal *model.Principal) (*model.Employee, error) {
	return getActiveEmployee(ctx, employees, principal.EmployeeID)
}

// ensureManagerScope verifies the manager and the subject employee share a
// department. Authorization failures are reported as Forbidden.
func ensureManagerScope(ctx context.Context, employees repository.EmployeeRepository, principal *model.Principal, subjectEmployeeID string) error {
	manager, err := managerDepartment(ctx, employees, principal)
	if err != nil {
		return err
	}
	subject, err := getActiveEmployee(ctx, employees, subjectEmployeeID)
	if err != nil {
		return err
	}
	if manager.DepartmentID != subject.DepartmentID {
		return apperrors.Forbidden("forbidden")
	}
	return nil
}

// normalizeRequestType maps wire values onto the two request kinds. PERMIT
// and ACCESS_REQUEST are accepted aliases for ACCESS; empty means both kinds.
func normalizeRequestType(requestType string) (string, error) {
	value := strings.ToUpper(strings.TrimSpace(requestType))
	switch value {
	case "":
		return "", nil
	case model.RequestKindCard, model.RequestKindAccess:
		return value, nil
	case "PERMIT", "ACCESS_REQUEST":
		return model.RequestKindAccess, nil
	}
	return "", apperrors.Validation("invalid request type")
}

func normalizeStatus(status string) string {
	return strings.ToUpper(strings.TrimSpace(status))
}
