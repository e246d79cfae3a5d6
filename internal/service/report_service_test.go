package service

import (
	"context"
	"testing"

	"clearancehub/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedMixedRequests creates one request per lifecycle outcome: pending
// manager, pending security, in process, completed, rejected, plus a permit
// left pending.
func seedMixedRequests(t *testing.T, env *testEnv) {
	t.Helper()
	env.addEmployee("E100", 10, model.EmployeeActive)
	env.addEmployee("M1", 10, model.EmployeeActive)
	env.addArea(7, "Server Room", model.AreaActive)

	manager := staffPrincipal(model.RoleManager, "M1")
	security := staffPrincipal(model.RoleSecurity, "S1")
	printing := staffPrincipal(model.RoleCardPrinting, "P1")

	// pending manager
	newPendingCard(t, env, "E100")

	// pending security
	card := newPendingCard(t, env, "E100")
	_, err := env.approvals.Approve(context.Background(), card.ID, "CARD", manager)
	require.NoError(t, err)

	// in process
	card = newPendingCard(t, env, "E100")
	_, err = env.approvals.Approve(context.Background(), card.ID, "CARD", manager)
	require.NoError(t, err)
	_, err = env.approvals.Approve(context.Background(), card.ID, "CARD", security)
	require.NoError(t, err)

	// completed
	card = newPendingCard(t, env, "E100")
	_, err = env.approvals.Approve(context.Background(), card.ID, "CARD", manager)
	require.NoError(t, err)
	_, err = env.approvals.Approve(context.Background(), card.ID, "CARD", security)
	require.NoError(t, err)
	_, err = env.approvals.Complete(context.Background(), card.ID, "CARD", printing)
	require.NoError(t, err)

	// rejected by manager
	card = newPendingCard(t, env, "E100")
	_, err = env.approvals.Reject(context.Background(), card.ID, "CARD", "incomplete", manager)
	require.NoError(t, err)

	// pending permit
	_, err = env.requests.CreatePermitRequest(context.Background(), CreatePermitRequestDTO{
		EmployeeID: "E100",
		AreaIDs:    []int64{7},
	}, nil)
	require.NoError(t, err)
}

func TestDashboardSummary_DefaultBuckets(t *testing.T) {
	env := newTestEnv()
	seedMixedRequests(t, env)

	summary, err := env.reports.DashboardSummary(context.Background(), staffPrincipal(model.RoleAdmin, "A1"))
	require.NoError(t, err)

	assert.Equal(t, 6, summary.All.Total)
	assert.Equal(t, 3, summary.All.Pending)
	assert.Equal(t, 2, summary.All.Approved)
	assert.Equal(t, 1, summary.All.Rejected)
	assert.Equal(t, summary.All.Total, summary.All.Pending+summary.All.Approved+summary.All.Rejected)

	assert.Equal(t, 5, summary.Card.Total)
	assert.Equal(t, 1, summary.Access.Total)
	assert.Equal(t, 1, summary.Access.Pending)

	assert.Equal(t, ScopeAll, summary.Scope.Type)
	assert.Nil(t, summary.Scope.DepartmentID)
}

func TestDashboardSummary_PrintingOverride(t *testing.T) {
	env := newTestEnv()
	seedMixedRequests(t, env)

	summary, err := env.reports.DashboardSummary(context.Background(), staffPrincipal(model.RoleCardPrinting, "P1"))
	require.NoError(t, err)

	// Printing staff only see IN_PROCESS and COMPLETED at all.
	assert.Equal(t, 2, summary.All.Total)
	assert.Equal(t, 1, summary.All.Pending)
	assert.Equal(t, 1, summary.All.Approved)
	assert.Equal(t, 0, summary.All.Rejected)
	assert.GreaterOrEqual(t, summary.All.Total, summary.All.Pending+summary.All.Approved)
}

func TestDashboardSummary_ManagerScope(t *testing.T) {
	env := newTestEnv()
	seedMixedRequests(t, env)
	env.addEmployee("E200", 20, model.EmployeeActive)
	newPendingCard(t, env, "E200")

	summary, err := env.reports.DashboardSummary(context.Background(), staffPrincipal(model.RoleManager, "M1"))
	require.NoError(t, err)

	// The department 20 request is invisible to a department 10 manager.
	assert.Equal(t, 6, summary.All.Total)
	assert.Equal(t, ScopeDepartment, summary.Scope.Type)
	require.NotNil(t, summary.Scope.DepartmentID)
	assert.Equal(t, 10, *summary.Scope.DepartmentID)
	require.NotNil(t, summary.Scope.DepartmentName)
}

func TestExportRows_WideProjection(t *testing.T) {
	env := newTestEnv()
	env.addEmployee("E100", 10, model.EmployeeActive)
	env.addEmployee("M1", 10, model.EmployeeActive)
	env.addArea(7, "Server Room", model.AreaActive)
	env.addArea(8, "Loading Dock", model.AreaActive)

	card := newPendingCard(t, env, "E100")
	_, err := env.approvals.Approve(context.Background(), card.ID, "CARD", staffPrincipal(model.RoleManager, "M1"))
	require.NoError(t, err)

	_, err = env.requests.CreatePermitRequest(context.Background(), CreatePermitRequestDTO{
		EmployeeID: "E100",
		AreaIDs:    []int64{7, 8},
	}, nil)
	require.NoError(t, err)

	rows, err := env.reports.ExportRows(context.Background(), RequestListFilter{}, staffPrincipal(model.RoleAdmin, "A1"))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	var cardRow, permitRow *ExportRow
	for i := range rows {
		switch rows[i].RequestType {
		case model.RequestKindCard:
			cardRow = &rows[i]
		case model.RequestKindAccess:
			permitRow = &rows[i]
		}
	}
	require.NotNil(t, cardRow)
	require.NotNil(t, permitRow)

	require.NotNil(t, cardRow.CardRequestType)
	assert.Equal(t, model.CardTypeNew, *cardRow.CardRequestType)
	assert.Nil(t, cardRow.AreaIDs)
	require.NotNil(t, cardRow.ManagerEmployeeID)
	assert.Equal(t, "M1", *cardRow.ManagerEmployeeID)
	assert.Equal(t, "Employee E100", cardRow.EmployeeNameEN)

	assert.Nil(t, permitRow.CardRequestType)
	require.NotNil(t, permitRow.AreaIDs)
	require.NotNil(t, permitRow.AreaNames)
	// Ordered by area name within the request.
	assert.Equal(t, "8, 7", *permitRow.AreaIDs)
	assert.Equal(t, "Loading Dock, Server Room", *permitRow.AreaNames)

	record := cardRow.Record()
	assert.Len(t, record, len(ExportHeaders))
}

func TestExportRows_NonStaffForbidden(t *testing.T) {
	env := newTestEnv()

	_, err := env.reports.ExportRows(context.Background(), RequestListFilter{}, nil)
	require.Error(t, err)
}
