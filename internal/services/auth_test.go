package services

import (
	"context"
	"testing"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"connect-system/internal/dto"
	"connect-system/internal/entities"
	"connect-system/pkg/constants"
	apperrors "connect-system/pkg/errors"
	"connect-system/pkg/service"
	"connect-system/pkg/utils"
)

func newAuthFixture(t *testing.T, users ...entities.User) AuthServiceInterface {
	t.Helper()
	jwtSvc := service.NewJWTService("test-secret", time.Hour, time.Hour*24, zap.NewNop())
	return NewAuthService(newFakeUserRepo(users...), jwtSvc, zap.NewNop())
}

func seedAuthUser(t *testing.T, password string, blocked bool) entities.User {
	t.Helper()
	hash, err := utils.HashPassword(password)
	require.NoError(t, err)
	return entities.User{
		ID:           1,
		FIO:          "Тестовый Контролер",
		Phone:        null.StringFrom("+998901112233"),
		Role:         constants.RoleController,
		Language:     "ru",
		PasswordHash: null.StringFrom(hash),
		IsBlocked:    blocked,
	}
}

func TestAuthService_LoginSuccess(t *testing.T) {
	ctx := context.Background()
	auth := newAuthFixture(t, seedAuthUser(t, "secret123", false))

	resp, err := auth.Login(ctx, dto.LoginDTO{Login: "+998901112233", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, constants.RoleController, resp.User.Role)
}

func TestAuthService_LoginFailuresAreIndistinguishable(t *testing.T) {
	ctx := context.Background()
	auth := newAuthFixture(t, seedAuthUser(t, "secret123", false))

	// Неизвестный телефон и неверный пароль дают одну и ту же ошибку.
	_, err := auth.Login(ctx, dto.LoginDTO{Login: "+998000000000", Password: "secret123"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = auth.Login(ctx, dto.LoginDTO{Login: "+998901112233", Password: "wrong"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestAuthService_BlockedUserCannotLogin(t *testing.T) {
	ctx := context.Background()
	auth := newAuthFixture(t, seedAuthUser(t, "secret123", true))

	_, err := auth.Login(ctx, dto.LoginDTO{Login: "+998901112233", Password: "secret123"})
	assert.ErrorIs(t, err, apperrors.ErrUserBlocked)
}

func TestAuthService_RefreshRejectsAccessToken(t *testing.T) {
	ctx := context.Background()
	auth := newAuthFixture(t, seedAuthUser(t, "secret123", false))

	resp, err := auth.Login(ctx, dto.LoginDTO{Login: "+998901112233", Password: "secret123"})
	require.NoError(t, err)

	// Access-токеном сессию не продлить.
	_, err = auth.Refresh(ctx, resp.AccessToken)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)

	refreshed, err := auth.Refresh(ctx, resp.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
}
