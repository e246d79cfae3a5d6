package repository

import (
	"context"

	"clearancehub/internal/model"

	"gorm.io/gorm"
)

// AuthRepository resolves staff identities and stores OTP / refresh token
// records for the login flow.
type AuthRepository interface {
	PermissionByEmail(ctx context.Context, email string) (*model.EmployeePermission, error)
	PermissionByEmployeeID(ctx context.Context, employeeID string) (*model.EmployeePermission, error)
	CreateOTP(ctx context.Context, otp *model.UserOTP) error
	LatestUnusedOTP(ctx context.Context, email string) (*model.UserOTP, error)
	MarkOTPUsed(ctx context.Context, otp *model.UserOTP) error
	StoreAuthToken(ctx context.Context, token *model.AuthToken) error
}

type authRepository struct {
	db *gorm.DB
}

func NewAuthRepository(db *gorm.DB) AuthRepository {
	return &authRepository{db: db}
}

func (r *authRepository) PermissionByEmail(ctx context.Context, email string) (*model.EmployeePermission, error) {
	var perm model.EmployeePermission
	err := GetDB(ctx, r.db).
		Preload("Role").
		First(&perm, "internal_email = ? AND is_active = ?", email, true).Error
	if err != nil {
		return nil, err
	}
	return &perm, nil
}

func (r *authRepository) PermissionByEmployeeID(ctx context.Context, employeeID string) (*model.EmployeePermission, error) {
	var perm model.EmployeePermission
	err := GetDB(ctx, r.db).
		Preload("Role").
		First(&perm, "employee_id = ? AND is_active = ?", employeeID, true).Error
	if err != nil {
		return nil, err
	}
	return &perm, nil
}

func (r *authRepository) CreateOTP(ctx context.Context, otp *model.UserOTP) error {
	return GetDB(ctx, r.db).Create(otp).Error
}

func (r *authRepository) LatestUnusedOTP(ctx context.Context, email string) (*model.UserOTP, error) {
	var otp model.UserOTP
	err := GetDB(ctx, r.db).
		Where("internal_email = ? AND is_used = ?", email, false).
		Order("created_at desc").
		First(&otp).Error
	if err != nil {
		return nil, err
	}
	return &otp, nil
}

func (r *authRepository) MarkOTPUsed(ctx context.Context, otp *model.UserOTP) error {
	otp.IsUsed = true
	return GetDB(ctx, r.db).Save(otp).Error
}

func (r *authRepository) StoreAuthToken(ctx context.Context, token *model.AuthToken) error {
	return GetDB(ctx, r.db).Create(token).Error
}
