package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"clearancehub/internal/model"
	"clearancehub/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// In-memory repository fakes. They mirror the SQL repositories' observable
// behavior, including gorm.ErrRecordNotFound for misses and the
// department-join semantics of the list queries.

type fakeTxManager struct{}

func (fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

// --- employees ---

type fakeEmployeeRepo struct {
	byID     map[string]model.Employee
	replaced [][]model.Employee
}

func newFakeEmployeeRepo() *fakeEmployeeRepo {
	return &fakeEmployeeRepo{byID: make(map[string]model.Employee)}
}

func (r *fakeEmployeeRepo) put(e model.Employee) { r.byID[e.EmployeeID] = e }

func (r *fakeEmployeeRepo) GetByEmployeeID(_ context.Context, employeeID string) (*model.Employee, error) {
	e, ok := r.byID[employeeID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := e
	return &cp, nil
}

func (r *fakeEmployeeRepo) GetByEmployeeIDs(_ context.Context, employeeIDs []string) ([]model.Employee, error) {
	var out []model.Employee
	for _, id := range employeeIDs {
		if e, ok := r.byID[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeEmployeeRepo) ReplaceAll(_ context.Context, employees []model.Employee) error {
	r.byID = make(map[string]model.Employee, len(employees))
	for _, e := range employees {
		r.byID[e.EmployeeID] = e
	}
	r.replaced = append(r.replaced, employees)
	return nil
}

// --- areas ---

type fakeAreaRepo struct {
	byID map[int64]model.Area
}

func newFakeAreaRepo() *fakeAreaRepo {
	return &fakeAreaRepo{byID: make(map[int64]model.Area)}
}

func (r *fakeAreaRepo) put(a model.Area) { r.byID[a.ID] = a }

func (r *fakeAreaRepo) GetByIDs(_ context.Context, areaIDs []int64) ([]model.Area, error) {
	var out []model.Area
	for _, id := range areaIDs {
		if a, ok := r.byID[id]; ok {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeAreaRepo) GetActiveByIDs(_ context.Context, areaIDs []int64) ([]model.Area, error) {
	var out []model.Area
	for _, id := range areaIDs {
		if a, ok := r.byID[id]; ok && a.Status == model.AreaActive {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAreaRepo) List(_ context.Context, status string) ([]model.Area, error) {
	var out []model.Area
	for _, a := range r.byID {
		if status == "" || a.Status == status {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// --- shared query filter ---

func matchesQuery(lcStatus string, employeeID string, requestDate time.Time, q repository.RequestQuery, employees *fakeEmployeeRepo) bool {
	if q.Status != "" && lcStatus != q.Status {
		return false
	}
	if len(q.Statuses) > 0 {
		found := false
		for _, s := range q.Statuses {
			if lcStatus == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if q.DateFrom != nil && requestDate.Before(*q.DateFrom) {
		return false
	}
	if q.DateTo != nil && requestDate.After(*q.DateTo) {
		return false
	}
	if q.DepartmentID != nil {
		e, ok := employees.byID[employeeID]
		if !ok || e.DepartmentID != *q.DepartmentID {
			return false
		}
	}
	return true
}

// --- card requests ---

type fakeCardRepo struct {
	byID      map[int64]model.CardRequest
	nextID    int64
	employees *fakeEmployeeRepo
}

func newFakeCardRepo(employees *fakeEmployeeRepo) *fakeCardRepo {
	return &fakeCardRepo{byID: make(map[int64]model.CardRequest), nextID: 1, employees: employees}
}

func (r *fakeCardRepo) Create(_ context.Context, req *model.CardRequest) error {
	req.ID = r.nextID
	r.nextID++
	now := time.Now()
	if req.RequestDate.IsZero() {
		req.RequestDate = now
	}
	req.CreatedAt = now
	req.UpdatedAt = now
	r.byID[req.ID] = *req
	return nil
}

func (r *fakeCardRepo) FindByID(_ context.Context, id int64) (*model.CardRequest, error) {
	req, ok := r.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := req
	return &cp, nil
}

func (r *fakeCardRepo) FindByIDForUpdate(ctx context.Context, id int64) (*model.CardRequest, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeCardRepo) FindByIDs(_ context.Context, ids []int64) ([]model.CardRequest, error) {
	var out []model.CardRequest
	for _, id := range ids {
		if req, ok := r.byID[id]; ok {
			out = append(out, req)
		}
	}
	return out, nil
}

func (r *fakeCardRepo) List(_ context.Context, q repository.RequestQuery) ([]model.CardRequest, error) {
	var out []model.CardRequest
	for _, req := range r.byID {
		if matchesQuery(req.Status, req.EmployeeID, req.RequestDate, q, r.employees) {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeCardRepo) Update(_ context.Context, req *model.CardRequest) error {
	req.UpdatedAt = time.Now()
	r.byID[req.ID] = *req
	return nil
}

// --- permit requests ---

type fakePermitRepo struct {
	byID      map[int64]model.PermitRequest
	links     map[int64][]int64
	nextID    int64
	employees *fakeEmployeeRepo
	areas     *fakeAreaRepo
}

func newFakePermitRepo(employees *fakeEmployeeRepo, areas *fakeAreaRepo) *fakePermitRepo {
	return &fakePermitRepo{
		byID:      make(map[int64]model.PermitRequest),
		links:     make(map[int64][]int64),
		nextID:    1,
		employees: employees,
		areas:     areas,
	}
}

func (r *fakePermitRepo) Create(_ context.Context, req *model.PermitRequest) error {
	req.ID = r.nextID
	r.nextID++
	now := time.Now()
	if req.RequestDate.IsZero() {
		req.RequestDate = now
	}
	req.CreatedAt = now
	req.UpdatedAt = now
	r.byID[req.ID] = *req
	return nil
}

func (r *fakePermitRepo) FindByID(_ context.Context, id int64) (*model.PermitRequest, error) {
	req, ok := r.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := req
	return &cp, nil
}

func (r *fakePermitRepo) FindByIDForUpdate(ctx context.Context, id int64) (*model.PermitRequest, error) {
	return r.FindByID(ctx, id)
}

func (r *fakePermitRepo) FindByIDs(_ context.Context, ids []int64) ([]model.PermitRequest, error) {
	var out []model.PermitRequest
	for _, id := range ids {
		if req, ok := r.byID[id]; ok {
			out = append(out, req)
		}
	}
	return out, nil
}

func (r *fakePermitRepo) List(_ context.Context, q repository.RequestQuery) ([]model.PermitRequest, error) {
	var out []model.PermitRequest
	for _, req := range r.byID {
		if matchesQuery(req.Status, req.EmployeeID, req.RequestDate, q, r.employees) {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakePermitRepo) Update(_ context.Context, req *model.PermitRequest) error {
	req.UpdatedAt = time.Now()
	r.byID[req.ID] = *req
	return nil
}

func (r *fakePermitRepo) AddAreas(_ context.Context, permitRequestID int64, areaIDs []int64) error {
	r.links[permitRequestID] = append(r.links[permitRequestID], areaIDs...)
	return nil
}

func (r *fakePermitRepo) AreasForRequests(_ context.Context, permitRequestIDs []int64) ([]repository.PermitArea, error) {
	var out []repository.PermitArea
	for _, reqID := range permitRequestIDs {
		var rows []repository.PermitArea
		for _, areaID := range r.links[reqID] {
			area, ok := r.areas.byID[areaID]
			if !ok {
				continue
			}
			rows = append(rows, repository.PermitArea{PermitRequestID: reqID, AreaID: areaID, AreaName: area.Name})
		}
		sort.Slice(rows, func(i, j int) bool { return rows[i].AreaName < rows[j].AreaName })
		out = append(out, rows...)
	}
	return out, nil
}

// --- audit ---

type fakeAuditRepo struct {
	entries []model.AuditLog
}

func (r *fakeAuditRepo) Log(_ context.Context, entry *model.AuditLog) error {
	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeAuditRepo) List(_ context.Context, page, limit int) ([]model.AuditLog, int64, error) {
	total := int64(len(r.entries))
	reversed := make([]model.AuditLog, len(r.entries))
	for i, e := range r.entries {
		reversed[len(r.entries)-1-i] = e
	}
	start := (page - 1) * limit
	if start >= len(reversed) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(reversed) {
		end = len(reversed)
	}
	return reversed[start:end], total, nil
}

// --- auth ---

type fakeAuthRepo struct {
	permsByEmail map[string]model.EmployeePermission
	otps         []model.UserOTP
	tokens       []model.AuthToken
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{permsByEmail: make(map[string]model.EmployeePermission)}
}

func (r *fakeAuthRepo) put(p model.EmployeePermission) { r.permsByEmail[p.InternalEmail] = p }

func (r *fakeAuthRepo) PermissionByEmail(_ context.Context, email string) (*model.EmployeePermission, error) {
	p, ok := r.permsByEmail[email]
	if !ok || !p.IsActive {
		return nil, gorm.ErrRecordNotFound
	}
	cp := p
	return &cp, nil
}

func (r *fakeAuthRepo) PermissionByEmployeeID(_ context.Context, employeeID string) (*model.EmployeePermission, error) {
	for _, p := range r.permsByEmail {
		if p.EmployeeID == employeeID && p.IsActive {
			cp := p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeAuthRepo) CreateOTP(_ context.Context, otp *model.UserOTP) error {
	otp.CreatedAt = time.Now()
	r.otps = append(r.otps, *otp)
	return nil
}

func (r *fakeAuthRepo) LatestUnusedOTP(_ context.Context, email string) (*model.UserOTP, error) {
	for i := len(r.otps) - 1; i >= 0; i-- {
		if r.otps[i].InternalEmail == email && !r.otps[i].IsUsed {
			cp := r.otps[i]
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeAuthRepo) MarkOTPUsed(_ context.Context, otp *model.UserOTP) error {
	for i := range r.otps {
		if r.otps[i].InternalEmail == otp.InternalEmail && r.otps[i].OTPCode == otp.OTPCode {
			r.otps[i].IsUsed = true
		}
	}
	return nil
}

func (r *fakeAuthRepo) StoreAuthToken(_ context.Context, token *model.AuthToken) error {
	r.tokens = append(r.tokens, *token)
	return nil
}

// --- mailer ---

type fakeMailer struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (m *fakeMailer) SendOTP(toEmail, code string) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, toEmail+":"+code)
	return nil
}

// --- fixtures ---

type testEnv struct {
	employees *fakeEmployeeRepo
	areas     *fakeAreaRepo
	cards     *fakeCardRepo
	permits   *fakePermitRepo
	audit     *fakeAuditRepo

	requests  RequestService
	approvals ApprovalService
	reports   ReportService
}

func newTestEnv() *testEnv {
	employees := newFakeEmployeeRepo()
	areas := newFakeAreaRepo()
	cards := newFakeCardRepo(employees)
	permits := newFakePermitRepo(employees, areas)
	audit := &fakeAuditRepo{}
	tx := fakeTxManager{}
	logger := zap.NewNop()

	requests := NewRequestService(employees, areas, cards, permits, audit, tx, nil, logger)
	approvals := NewApprovalService(employees, cards, permits, audit, tx, nil, logger)
	reports := NewReportService(requests, employees, cards, permits)

	return &testEnv{
		employees: employees,
		areas:     areas,
		cards:     cards,
		permits:   permits,
		audit:     audit,
		requests:  requests,
		approvals: approvals,
		reports:   reports,
	}
}

func (e *testEnv) addEmployee(employeeID string, deptID int, status string) {
	e.employees.put(model.Employee{
		MedID:          int64(len(e.employees.byID) + 1),
		EmployeeID:     employeeID,
		NameAR:         "موظف " + employeeID,
		NameEN:         "Employee " + employeeID,
		JobTitle:       "Specialist",
		DepartmentID:   deptID,
		DepartmentName: "Department",
		AccountStatus:  status,
	})
}

func (e *testEnv) addArea(id int64, name, status string) {
	e.areas.put(model.Area{ID: id, Name: name, Status: status})
}

func staffPrincipal(role, employeeID string) *model.Principal {
	return &model.Principal{Email: employeeID + "@clearancehub.local", EmployeeID: employeeID, Role: role}
}
