package repository

import (
	"context"

	"clearancehub/internal/model"

	"gorm.io/gorm"
)

// AreaRepository reads the facility zone reference data.
type AreaRepository interface {
	GetByIDs(ctx context.Context, areaIDs []int64) ([]model.Area, error)
	GetActiveByIDs(ctx context.Context, areaIDs []int64) ([]model.Area, error)
	List(ctx context.Context, status string) ([]model.Area, error)
}

type areaRepository struct {
	db *gorm.DB
}

func NewAreaRepository(db *gorm.DB) AreaRepository {
	return &areaRepository{db: db}
}

func (r *areaRepository) GetByIDs(ctx context.Context, areaIDs []int64) ([]model.Area, error) {
	if len(areaIDs) == 0 {
		return nil, nil
	}
	var areas []model.Area
	if err := GetDB(ctx, r.db).Where("area_id IN ?", areaIDs).Order("area_name").Find(&areas).Error; err != nil {
		return nil, err
	}
	return areas, nil
}

func (r *areaRepository) GetActiveByIDs(ctx context.Context, areaIDs []int64) ([]model.Area, error) {
	if len(areaIDs) == 0 {
		return nil, nil
	}
	var areas []model.Area
	if err := GetDB(ctx, r.db).
		Where("area_id IN ? AND status = ?", areaIDs, model.AreaActive).
		Find(&areas).Error; err != nil {
		return nil, err
	}
	return areas, nil
}

func (r *areaRepository) List(ctx context.Context, status string) ([]model.Area, error) {
	var areas []model.Area
	query := GetDB(ctx, r.db).Order("area_name")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Find(&areas).Error; err != nil {
		return nil, err
	}
	return areas, nil
}
