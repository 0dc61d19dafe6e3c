package services

import (
	"context"

	"go.uber.org/zap"

	"connect-system/internal/dto"
	"connect-system/internal/entities"
	"connect-system/internal/repositories"
	apperrors "connect-system/pkg/errors"
	"connect-system/pkg/service"
	"connect-system/pkg/utils"
)

type AuthServiceInterface interface {
	Login(ctx context.Context, d dto.LoginDTO) (*dto.AuthResponseDTO, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.AuthResponseDTO, error)
}

type AuthService struct {
	userRepo   repositories.UserRepositoryInterface
	jwtService service.JWTService
	logger     *zap.Logger
}

func NewAuthService(
	userRepo repositories.UserRepositoryInterface,
	jwtService service.JWTService,
	logger *zap.Logger,
) AuthServiceInterface {
	return &AuthService{userRepo: userRepo, jwtService: jwtService, logger: logger}
}

func toUserPublicDTO(u *entities.User) dto.UserPublicDTO {
	return dto.UserPublicDTO{
		ID:       u.ID,
		FIO:      u.FIO,
		Phone:    u.Phone.Ptr(),
		Role:     u.Role,
		Language: u.Language,
	}
}

// Login - вход по телефону и паролю. Неверный логин и неверный пароль
// неразличимы для вызывающего.
func (s *AuthService) Login(ctx context.Context, d dto.LoginDTO) (*dto.AuthResponseDTO, error) {
	user, err := s.userRepo.FindUserByPhone(ctx, d.Login)
	if err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}
	if user.IsBlocked {
		return nil, apperrors.ErrUserBlocked
	}
	if !user.PasswordHash.Valid {
		return nil, apperrors.ErrInvalidCredentials
	}
	if err := utils.ComparePasswords(user.PasswordHash.String, d.Password); err != nil {
		s.logger.Debug("неудачная попытка входа", zap.Uint64("user_id", user.ID))
		return nil, apperrors.ErrInvalidCredentials
	}

	accessToken, refreshToken, err := s.jwtService.GenerateTokens(user.ID, user.Role)
	if err != nil {
		s.logger.Error("ошибка генерации токенов", zap.Uint64("user_id", user.ID), zap.Error(err))
		return nil, err
	}

	return &dto.AuthResponseDTO{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         toUserPublicDTO(user),
	}, nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*dto.AuthResponseDTO, error) {
	claims, err := s.jwtService.ValidateToken(refreshToken)
	if err != nil {
		return nil, err
	}
	if !claims.IsRefreshToken {
		return nil, apperrors.ErrInvalidToken
	}

	user, err := s.userRepo.FindUser(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user.IsBlocked {
		return nil, apperrors.ErrUserBlocked
	}

	access, refresh, err := s.jwtService.GenerateTokens(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponseDTO{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         toUserPublicDTO(user),
	}, nil
}
