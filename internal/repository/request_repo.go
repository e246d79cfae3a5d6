package repository

import (
	"context"
	"time"

	"clearancehub/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RequestQuery narrows a request listing. Statuses restricts visibility (used
// for the printing role); DepartmentID scopes manager listings by joining the
// subject employee's department at query time, not from a stored field.
type RequestQuery struct {
	Status       string
	Statuses     []string
	DateFrom     *time.Time
	DateTo       *time.Time
	DepartmentID *int
}

// CardRequestRepository is the entity store for card issuance requests.
type CardRequestRepository interface {
	Create(ctx context.Context, req *model.CardRequest) error
	FindByID(ctx context.Context, id int64) (*model.CardRequest, error)
	FindByIDForUpdate(ctx context.Context, id int64) (*model.CardRequest, error)
	FindByIDs(ctx context.Context, ids []int64) ([]model.CardRequest, error)
	List(ctx context.Context, q RequestQuery) ([]model.CardRequest, error)
	Update(ctx context.Context, req *model.CardRequest) error
}

type cardRequestRepository struct {
	db *gorm.DB
}

func NewCardRequestRepository(db *gorm.DB) CardRequestRepository {
	return &cardRequestRepository{db: db}
}

func (r *cardRequestRepository) Create(ctx context.Context, req *model.CardRequest) error {
	return GetDB(ctx, r.db).Create(req).Error
}

func (r *cardRequestRepository) FindByID(ctx context.Context, id int64) (*model.CardRequest, error) {
	var req model.CardRequest
	if err := GetDB(ctx, r.db).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *cardRequestRepository) FindByIDForUpdate(ctx context.Context, id int64) (*model.CardRequest, error) {
	var req model.CardRequest
	if err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *cardRequestRepository) FindByIDs(ctx context.Context, ids []int64) ([]model.CardRequest, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var reqs []model.CardRequest
	if err := GetDB(ctx, r.db).Where("id IN ?", ids).Find(&reqs).Error; err != nil {
		return nil, err
	}
	return reqs, nil
}

func (r *cardRequestRepository) List(ctx context.Context, q RequestQuery) ([]model.CardRequest, error) {
	var reqs []model.CardRequest
	query := applyRequestQuery(GetDB(ctx, r.db).Model(&model.CardRequest{}), "card_requests", q)
	if err := query.Find(&reqs).Error; err != nil {
		return nil, err
	}
	return reqs, nil
}

func (r *cardRequestRepository) Update(ctx context.Context, req *model.CardRequest) error {
	return GetDB(ctx, r.db).Save(req).Error
}

// PermitArea is a joined projection of a permit request's area links, ordered
// by area name within each request.
type PermitArea struct {
	PermitRequestID int64
	AreaID          int64
	AreaName        string
}

// PermitRequestRepository is the entity store for access permit requests and
// their area associations.
type PermitRequestRepository interface {
	Create(ctx context.Context, req *model.PermitRequest) error
	FindByID(ctx context.Context, id int64) (*model.PermitRequest, error)
	FindByIDForUpdate(ctx context.Context, id int64) (*model.PermitRequest, error)
	FindByIDs(ctx context.Context, ids []int64) ([]model.PermitRequest, error)
	List(ctx context.Context, q RequestQuery) ([]model.PermitRequest, error)
	Update(ctx context.Context, req *model.PermitRequest) error
	AddAreas(ctx context.Context, permitRequestID int64, areaIDs []int64) error
	AreasForRequests(ctx context.Context, permitRequestIDs []int64) ([]PermitArea, error)
}

type permitRequestRepository struct {
	db *gorm.DB
}

func NewPermitRequestRepository(db *gorm.DB) PermitRequestRepository {
	return &permitRequestRepository{db: db}
}

func (r *permitRequestRepository) Create(ctx context.Context, req *model.PermitRequest) error {
	return GetDB(ctx, r.db).Create(req).Error
}

func (r *permitRequestRepository) FindByID(ctx context.Context, id int64) (*model.PermitRequest, error) {
	var req model.PermitRequest
	if err := GetDB(ctx, r.db).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *permitRequestRepository) FindByIDForUpdate(ctx context.Context, id int64) (*model.PermitRequest, error) {
	var req model.PermitRequest
	if err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *permitRequestRepository) FindByIDs(ctx context.Context, ids []int64) ([]model.PermitRequest, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var reqs []model.PermitRequest
	if err := GetDB(ctx, r.db).Where("id IN ?", ids).Find(&reqs).Error; err != nil {
		return nil, err
	}
	return reqs, nil
}

func (r *permitRequestRepository) List(ctx context.Context, q RequestQuery) ([]model.PermitRequest, error) {
	var reqs []model.PermitRequest
	query := applyRequestQuery(GetDB(ctx, r.db).Model(&model.PermitRequest{}), "permit_requests", q)
	if err := query.Find(&reqs).Error; err != nil {
		return nil, err
	}
	return reqs, nil
}

func (r *permitRequestRepository) Update(ctx context.Context, req *model.PermitRequest) error {
	return GetDB(ctx, r.db).Save(req).Error
}

func (r *permitRequestRepository) AddAreas(ctx context.Context, permitRequestID int64, areaIDs []int64) error {
	links := make([]model.PermitRequestArea, 0, len(areaIDs))
	for _, areaID := range areaIDs {
		links = append(links, model.PermitRequestArea{PermitRequestID: permitRequestID, AreaID: areaID})
	}
	return GetDB(ctx, r.db).Create(&links).Error
}

func (r *permitRequestRepository) AreasForRequests(ctx context.Context, permitRequestIDs []int64) ([]PermitArea, error) {
	if len(permitRequestIDs) == 0 {
		return nil, nil
	}
	var rows []PermitArea
	err := GetDB(ctx, r.db).
		Table("permit_request_areas").
		Select("permit_request_areas.permit_request_id, areas.area_id, areas.area_name").
		Joins("JOIN areas ON areas.area_id = permit_request_areas.area_id").
		Where("permit_request_areas.permit_request_id IN ?", permitRequestIDs).
		Order("permit_request_areas.permit_request_id, areas.area_name").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// applyRequestQuery applies the shared listing filters. The department join
// recomputes manager scope from the subject employee's current department.
func applyRequestQuery(query *gorm.DB, table string, q RequestQuery) *gorm.DB {
	if q.Status != "" {
		query = query.Where(table+".status = ?", q.Status)
	}
	if len(q.Statuses) > 0 {
		query = query.Where(table+".status IN ?", q.Statuses)
	}
	if q.DateFrom != nil {
		query = query.Where(table+".request_date >= ?", *q.DateFrom)
	}
	if q.DateTo != nil {
		query = query.Where(table+".request_date <= ?", *q.DateTo)
	}
	if q.DepartmentID != nil {
		query = query.
			Joins("JOIN employees ON employees.employee_id = "+table+".employee_id").
			Where("employees.department_id = ?", *q.DepartmentID)
	}
	return query
}
