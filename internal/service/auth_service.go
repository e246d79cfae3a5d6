package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"clearancehub/internal/config"
	"clearancehub/internal/mailer"
	"clearancehub/internal/model"
	"clearancehub/internal/repository"
	"clearancehub/pkg/apperrors"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TokenPair is the result of a successful OTP verification.
type TokenPair struct {
	AccessToken  string           `json:"access_token"`
	RefreshToken string           `json:"refresh_token"`
	TokenType    string           `json:"token_type"`
	ExpiresIn    int64            `json:"expires_in"`
	Principal    *model.Principal `json:"principal"`
}

// AuthService implements the two-step OTP login: request a code addressed by
// email or employee id, then exchange it for a JWT pair.
type AuthService interface {
	RequestOTP(ctx context.Context, identifier string) error
	VerifyOTP(ctx context.Context, identifier, code string) (*TokenPair, error)
}

type authService struct {
	auth      repository.AuthRepository
	employees repository.EmployeeRepository
	mail      mailer.Mailer
	jwtCfg    config.JWTConfig
	otpCfg    config.OTPConfig
	log       *zap.Logger
	now       func() time.Time
}

func NewAuthService(
	auth repository.AuthRepository,
	employees repository.EmployeeRepository,
	mail mailer.Mailer,
	jwtCfg config.JWTConfig,
	otpCfg config.OTPConfig,
	log *zap.Logger,
) AuthService {
	return &authService{
		auth:      auth,
		employees: employees,
		mail:      mail,
		jwtCfg:    jwtCfg,
		otpCfg:    otpCfg,
		log:       log,
		now:       time.Now,
	}
}

// resolvePermission accepts either an internal email or an employee id;
// anything containing "@" is treated as an email. Missing or inactive grants
// are indistinguishable from never-existed.
func (s *authService) resolvePermission(ctx context.Context, identifier string) (*model.EmployeePermission, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, apperrors.Validation("identifier required")
	}

	var perm *model.EmployeePermission
	var err error
	if strings.Contains(identifier, "@") {
		perm, err = s.auth.PermissionByEmail(ctx, strings.ToLower(identifier))
	} else {
		perm, err = s.auth.PermissionByEmployeeID(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("account not found")
		}
		return nil, fmt.Errorf("resolve permission: %w", err)
	}

	if _, err := getActiveEmployee(ctx, s.employees, perm.EmployeeID); err != nil {
		return nil, err
	}
	return perm, nil
}

func (s *authService) RequestOTP(ctx context.Context, identifier string) error {
	perm, err := s.resolvePermission(ctx, identifier)
	if err != nil {
		return err
	}

	code := s.otpCfg.FixedCode
	if !s.otpCfg.FixedEnabled {
		code, err = generateOTPCode()
		if err != nil {
			return fmt.Errorf("generate otp: %w", err)
		}
	}

	otp := &model.UserOTP{
		InternalEmail: perm.InternalEmail,
		OTPCode:       code,
		ExpiresAt:     s.now().Add(s.otpCfg.TTL),
	}
	if err := s.auth.CreateOTP(ctx, otp); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}

	// Fire and forget: mail failure never fails the login flow.
	go func(email, code string) {
		if err := s.mail.SendOTP(email, code); err != nil {
			s.log.Warn("otp mail delivery failed", zap.String("email", email), zap.Error(err))
		}
	}(perm.InternalEmail, code)

	return nil
}

func (s *authService) VerifyOTP(ctx context.Context, identifier, code string) (*TokenPair, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperrors.Validation("otp code required")
	}

	perm, err := s.resolvePermission(ctx, identifier)
	if err != nil {
		return nil, err
	}

	if !(s.otpCfg.FixedEnabled && code == s.otpCfg.FixedCode) {
		otp, err := s.auth.LatestUnusedOTP(ctx, perm.InternalEmail)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.Validation("invalid otp code")
			}
			return nil, fmt.Errorf("load otp: %w", err)
		}
		if otp.OTPCode != code || s.now().After(otp.ExpiresAt) {
			return nil, apperrors.Validation("invalid otp code")
		}
		if err := s.auth.MarkOTPUsed(ctx, otp); err != nil {
			return nil, fmt.Errorf("mark otp used: %w", err)
		}
	}

	if perm.Role == nil || !model.IsStaffRole(perm.Role.RoleCode) {
		return nil, apperrors.Forbidden("forbidden")
	}

	principal := &model.Principal{
		Email:      perm.InternalEmail,
		EmployeeID: perm.EmployeeID,
		Role:       perm.Role.RoleCode,
	}

	access, err := s.mintToken(principal, "access", s.jwtCfg.AccessTokenTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.mintToken(principal, "refresh", s.jwtCfg.RefreshTokenTTL)
	if err != nil {
		return nil, err
	}

	digest := sha256.Sum256([]byte(refresh))
	token := &model.AuthToken{
		InternalEmail: principal.Email,
		TokenHash:     hex.EncodeToString(digest[:]),
		ExpiresAt:     s.now().Add(s.jwtCfg.RefreshTokenTTL),
	}
	if err := s.auth.StoreAuthToken(ctx, token); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int64(s.jwtCfg.AccessTokenTTL.Seconds()),
		Principal:    principal,
	}, nil
}

func (s *authService) mintToken(principal *model.Principal, tokenType string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":         principal.Email,
		"employee_id": principal.EmployeeID,
		"role":        principal.Role,
		"type":        tokenType,
		"iat":         now.Unix(),
		"exp":         now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtCfg.Secret))
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

// generateOTPCode draws six decimal digits from crypto/rand.
func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
