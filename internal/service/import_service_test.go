package service

import (
	"context"
	"strings"
	"testing"

	"clearancehub/internal/model"
	"clearancehub/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const rosterHeader = "MedID,EmpID,EmpNameAR,EmpNameEN,CountryNameAR,CountryNameEN,DepID,DepartmentName,EmpStatusName,JobTitleNameSum"

func newImportEnv() (*fakeEmployeeRepo, ImportService) {
	employees := newFakeEmployeeRepo()
	return employees, NewImportService(employees, fakeTxManager{}, zap.NewNop())
}

func TestImportRoster_ReplacesRoster(t *testing.T) {
	employees, svc := newImportEnv()
	employees.put(model.Employee{EmployeeID: "OLD", AccountStatus: model.EmployeeActive})

	csvData := rosterHeader + "\n" +
		"1,E100,أحمد,Ahmed,مصر,Egypt,10,Records,على رأس العمل,Clerk\n" +
		"2,E200,سارة,Sara,الأردن,Jordan,20,Security,منتهي الخدمة,Officer\n"

	result, err := svc.ImportRoster(context.Background(), strings.NewReader(csvData))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)

	_, ok := employees.byID["OLD"]
	assert.False(t, ok, "previous roster must be gone")

	e100 := employees.byID["E100"]
	assert.Equal(t, model.EmployeeActive, e100.AccountStatus)
	assert.Equal(t, "Ahmed", e100.NameEN)
	assert.Equal(t, 10, e100.DepartmentID)
	assert.Equal(t, "Clerk", e100.JobTitle)

	e200 := employees.byID["E200"]
	assert.Equal(t, model.EmployeeSuspended, e200.AccountStatus)
}

func TestImportRoster_BOMHeader(t *testing.T) {
	_, svc := newImportEnv()

	csvData := "\uFEFF" + rosterHeader + "\n" +
		"1,E100,أحمد,Ahmed,مصر,Egypt,10,Records,على رأس العمل,Clerk\n"

	result, err := svc.ImportRoster(context.Background(), strings.NewReader(csvData))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
}

func TestImportRoster_MissingColumns(t *testing.T) {
	employees, svc := newImportEnv()
	employees.put(model.Employee{EmployeeID: "OLD", AccountStatus: model.EmployeeActive})

	csvData := "MedID,EmpID\n1,E100\n"
	_, err := svc.ImportRoster(context.Background(), strings.NewReader(csvData))
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	assert.Contains(t, err.Error(), "DepID")

	_, ok := employees.byID["OLD"]
	assert.True(t, ok, "failed import must not touch the roster")
}

func TestImportRoster_RowErrorsNameTheRow(t *testing.T) {
	_, svc := newImportEnv()

	csvData := rosterHeader + "\n" +
		"1,E100,أحمد,Ahmed,مصر,Egypt,10,Records,على رأس العمل,Clerk\n" +
		"x,E200,سارة,Sara,الأردن,Jordan,20,Security,على رأس العمل,Officer\n"

	_, err := svc.ImportRoster(context.Background(), strings.NewReader(csvData))
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	assert.Contains(t, err.Error(), "row 3")
	assert.Contains(t, err.Error(), "MedID")
}

func TestImportRoster_DuplicateKeys(t *testing.T) {
	_, svc := newImportEnv()

	dupEmp := rosterHeader + "\n" +
		"1,E100,أ,A,م,E,10,D,على رأس العمل,J\n" +
		"2,E100,ب,B,م,E,10,D,على رأس العمل,J\n"
	_, err := svc.ImportRoster(context.Background(), strings.NewReader(dupEmp))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate EmpID")

	dupMed := rosterHeader + "\n" +
		"1,E100,أ,A,م,E,10,D,على رأس العمل,J\n" +
		"1,E200,ب,B,م,E,10,D,على رأس العمل,J\n"
	_, err = svc.ImportRoster(context.Background(), strings.NewReader(dupMed))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate MedID")
}

func TestImportRoster_EmptyFile(t *testing.T) {
	_, svc := newImportEnv()

	_, err := svc.ImportRoster(context.Background(), strings.NewReader(""))
	require.Error(t, err)

	_, err = svc.ImportRoster(context.Background(), strings.NewReader(rosterHeader+"\n"))
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}
