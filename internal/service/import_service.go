package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"clearancehub/internal/model"
	"clearancehub/internal/repository"
	"clearancehub/pkg/apperrors"

	"go.uber.org/zap"
)

// rosterStatusActive is the upstream HR export's Arabic marker for an
// employee currently on the job.
const rosterStatusActive = "على رأس العمل"

var rosterRequiredHeaders = []string{
	"MedID", "EmpID", "EmpNameAR", "EmpNameEN",
	"CountryNameAR", "CountryNameEN",
	"DepID", "DepartmentName", "EmpStatusName", "JobTitleNameSum",
}

// ImportResult reports how many roster rows were loaded.
type ImportResult struct {
	Imported int `json:"imported"`
}

// ImportService performs the bulk roster replacement from the HR CSV export.
// The whole file is validated before any write; the replacement is atomic.
type ImportService interface {
	ImportRoster(ctx context.Context, r io.Reader) (*ImportResult, error)
}

type importService struct {
	employees repository.EmployeeRepository
	tx        repository.TransactionManager
	log       *zap.Logger
}

func NewImportService(employees repository.EmployeeRepository, tx repository.TransactionManager, log *zap.Logger) ImportService {
	return &importService{employees: employees, tx: tx, log: log}
}

func (s *importService) ImportRoster(ctx context.Context, r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, apperrors.Validation("empty or unreadable csv file")
	}
	col, err := resolveRosterColumns(header)
	if err != nil {
		return nil, err
	}

	var employees []model.Employee
	seenMedID := make(map[int64]int)
	seenEmpID := make(map[string]int)

	for rowNum := 2; ; rowNum++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.Validation(fmt.Sprintf("row %d: malformed csv record", rowNum))
		}

		employee, err := parseRosterRow(record, col, rowNum)
		if err != nil {
			return nil, err
		}

		if prev, ok := seenMedID[employee.MedID]; ok {
			return nil, apperrors.Validation(fmt.Sprintf("row %d: duplicate MedID %d (first seen at row %d)", rowNum, employee.MedID, prev))
		}
		if prev, ok := seenEmpID[employee.EmployeeID]; ok {
			return nil, apperrors.Validation(fmt.Sprintf("row %d: duplicate EmpID %s (first seen at row %d)", rowNum, employee.EmployeeID, prev))
		}
		seenMedID[employee.MedID] = rowNum
		seenEmpID[employee.EmployeeID] = rowNum

		employees = append(employees, *employee)
	}

	if len(employees) == 0 {
		return nil, apperrors.Validation("csv file contains no data rows")
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		return s.employees.ReplaceAll(txCtx, employees)
	})
	if err != nil {
		return nil, fmt.Errorf("replace roster: %w", err)
	}

	s.log.Info("roster imported", zap.Int("rows", len(employees)))
	return &ImportResult{Imported: len(employees)}, nil
}

// resolveRosterColumns maps required header names to column positions,
// tolerating a UTF-8 BOM on the leading header.
func resolveRosterColumns(header []string) (map[string]int, error) {
	col := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\uFEFF"))
		col[name] = i
	}
	var missing []string
	for _, name := range rosterRequiredHeaders {
		if _, ok := col[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.Validation("missing required columns: " + strings.Join(missing, ", "))
	}
	return col, nil
}

func parseRosterRow(record []string, col map[string]int, rowNum int) (*model.Employee, error) {
	field := func(name string) string {
		idx := col[name]
		if idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	medIDRaw := field("MedID")
	medID, err := strconv.ParseInt(medIDRaw, 10, 64)
	if err != nil {
		return nil, apperrors.Validation(fmt.Sprintf("row %d: invalid MedID %q", rowNum, medIDRaw))
	}

	empID := field("EmpID")
	if empID == "" {
		return nil, apperrors.Validation(fmt.Sprintf("row %d: EmpID is required", rowNum))
	}

	depIDRaw := field("DepID")
	depID, err := strconv.Atoi(depIDRaw)
	if err != nil {
		return nil, apperrors.Validation(fmt.Sprintf("row %d: invalid DepID %q", rowNum, depIDRaw))
	}

	status := model.EmployeeSuspended
	if field("EmpStatusName") == rosterStatusActive {
		status = model.EmployeeActive
	}

	return &model.Employee{
		MedID:          medID,
		EmployeeID:     empID,
		NameAR:         field("EmpNameAR"),
		NameEN:         field("EmpNameEN"),
		JobTitle:       field("JobTitleNameSum"),
		NationalityAR:  field("CountryNameAR"),
		NationalityEN:  field("CountryNameEN"),
		DepartmentID:   depID,
		DepartmentName: field("DepartmentName"),
		AccountStatus:  status,
	}, nil
}
