package service

import (
	"context"
	"testing"
	"time"

	"clearancehub/internal/config"
	"clearancehub/internal/model"
	"clearancehub/pkg/apperrors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type authEnv struct {
	auth      *fakeAuthRepo
	employees *fakeEmployeeRepo
	mail      *fakeMailer
	service   AuthService
}

func newAuthEnv(t *testing.T, otpCfg config.OTPConfig) *authEnv {
	t.Helper()
	auth := newFakeAuthRepo()
	employees := newFakeEmployeeRepo()
	mail := &fakeMailer{}
	jwtCfg := config.JWTConfig{
		Secret:          "test-secret",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
	}
	svc := NewAuthService(auth, employees, mail, jwtCfg, otpCfg, zap.NewNop())
	return &authEnv{auth: auth, employees: employees, mail: mail, service: svc}
}

func (e *authEnv) addStaff(employeeID, email, role string, active bool) {
	e.employees.put(model.Employee{
		EmployeeID:    employeeID,
		NameEN:        "Employee " + employeeID,
		DepartmentID:  10,
		AccountStatus: model.EmployeeActive,
	})
	e.auth.put(model.EmployeePermission{
		EmployeeID:    employeeID,
		InternalEmail: email,
		Role:          &model.Role{RoleCode: role, RoleName: role},
		IsActive:      active,
	})
}

func fixedOTP() config.OTPConfig {
	return config.OTPConfig{FixedEnabled: true, FixedCode: "123456", TTL: 10 * time.Minute}
}

func randomOTP() config.OTPConfig {
	return config.OTPConfig{FixedEnabled: false, TTL: 10 * time.Minute}
}

func TestRequestOTP_ByEmailAndEmployeeID(t *testing.T) {
	env := newAuthEnv(t, randomOTP())
	env.addStaff("M1", "m1@clearancehub.local", model.RoleManager, true)

	require.NoError(t, env.service.RequestOTP(context.Background(), "m1@clearancehub.local"))
	require.NoError(t, env.service.RequestOTP(context.Background(), "M1"))

	require.Len(t, env.auth.otps, 2)
	for _, otp := range env.auth.otps {
		assert.Equal(t, "m1@clearancehub.local", otp.InternalEmail)
		assert.Len(t, otp.OTPCode, 6)
		assert.False(t, otp.IsUsed)
	}
}

func TestRequestOTP_UnknownIdentifier(t *testing.T) {
	env := newAuthEnv(t, fixedOTP())

	err := env.service.RequestOTP(context.Background(), "nobody@clearancehub.local")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestRequestOTP_SuspendedEmployee(t *testing.T) {
	env := newAuthEnv(t, fixedOTP())
	env.addStaff("M1", "m1@clearancehub.local", model.RoleManager, true)
	env.employees.put(model.Employee{EmployeeID: "M1", AccountStatus: model.EmployeeSuspended})

	err := env.service.RequestOTP(context.Background(), "m1@clearancehub.local")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	assert.Empty(t, env.auth.otps)
}

func TestVerifyOTP_FixedCode(t *testing.T) {
	env := newAuthEnv(t, fixedOTP())
	env.addStaff("M1", "m1@clearancehub.local", model.RoleManager, true)

	pair, err := env.service.VerifyOTP(context.Background(), "m1@clearancehub.local", "123456")
	require.NoError(t, err)

	assert.Equal(t, "bearer", pair.TokenType)
	assert.Equal(t, int64(3600), pair.ExpiresIn)
	require.NotNil(t, pair.Principal)
	assert.Equal(t, model.RoleManager, pair.Principal.Role)
	assert.Equal(t, "M1", pair.Principal.EmployeeID)
	require.Len(t, env.auth.tokens, 1)
	assert.Len(t, env.auth.tokens[0].TokenHash, 64)

	claims := parseTestClaims(t, pair.AccessToken, "test-secret")
	assert.Equal(t, "m1@clearancehub.local", claims["sub"])
	assert.Equal(t, model.RoleManager, claims["role"])
	assert.Equal(t, "access", claims["type"])

	claims = parseTestClaims(t, pair.RefreshToken, "test-secret")
	assert.Equal(t, "refresh", claims["type"])
}

func TestVerifyOTP_StoredCodeFlow(t *testing.T) {
	env := newAuthEnv(t, randomOTP())
	env.addStaff("S1", "s1@clearancehub.local", model.RoleSecurity, true)

	require.NoError(t, env.service.RequestOTP(context.Background(), "S1"))
	code := env.auth.otps[0].OTPCode

	_, err := env.service.VerifyOTP(context.Background(), "S1", "000000")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	pair, err := env.service.VerifyOTP(context.Background(), "S1", code)
	require.NoError(t, err)
	assert.Equal(t, model.RoleSecurity, pair.Principal.Role)

	// The code is single-use.
	_, err = env.service.VerifyOTP(context.Background(), "S1", code)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestVerifyOTP_ExpiredCode(t *testing.T) {
	env := newAuthEnv(t, randomOTP())
	env.addStaff("S1", "s1@clearancehub.local", model.RoleSecurity, true)

	require.NoError(t, env.service.RequestOTP(context.Background(), "S1"))
	env.auth.otps[0].ExpiresAt = time.Now().Add(-time.Minute)

	_, err := env.service.VerifyOTP(context.Background(), "S1", env.auth.otps[0].OTPCode)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestVerifyOTP_InactivePermission(t *testing.T) {
	env := newAuthEnv(t, fixedOTP())
	env.addStaff("M1", "m1@clearancehub.local", model.RoleManager, false)

	_, err := env.service.VerifyOTP(context.Background(), "m1@clearancehub.local", "123456")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func parseTestClaims(t *testing.T, tokenString, secret string) jwt.MapClaims {
	t.Helper()
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	require.NoError(t, err)
	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok)
	return claims
}
