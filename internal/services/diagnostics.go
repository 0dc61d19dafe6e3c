package services

import (
	"context"

	"go.uber.org/zap"

	"connect-system/internal/dto"
	"connect-system/internal/entities"
	"connect-system/internal/repositories"
	"connect-system/internal/session"
	"connect-system/pkg/constants"
	apperrors "connect-system/pkg/errors"
)

// DiagnosticsService ведёт двухфазный ввод диагноза: черновик живёт в
// сессии техника и попадает в заявку только после подтверждения.
type DiagnosticsServiceInterface interface {
	BeginDraft(ctx context.Context, actorID uint64, ref entities.OrderRef, text string) (*dto.DiagnosticsDraftResponseDTO, error)
	UpdateDraft(ctx context.Context, actorID uint64, text string) (*dto.DiagnosticsDraftResponseDTO, error)
	GetDraft(ctx context.Context, actorID uint64) (*dto.DiagnosticsDraftResponseDTO, error)
	ConfirmDraft(ctx context.Context, actorID uint64) (*dto.OrderResponseDTO, error)
	DiscardDraft(ctx context.Context, actorID uint64) error
}

type DiagnosticsService struct {
	orderRepo repositories.OrderRepositoryInterface
	userRepo  repositories.UserRepositoryInterface
	store     session.StoreInterface
	logger    *zap.Logger
}

func NewDiagnosticsService(
	orderRepo repositories.OrderRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	store session.StoreInterface,
	logger *zap.Logger,
) DiagnosticsServiceInterface {
	return &DiagnosticsService{orderRepo: orderRepo, userRepo: userRepo, store: store, logger: logger}
}

func draftResponse(draft *session.DiagnosticsDraft) *dto.DiagnosticsDraftResponseDTO {
	return &dto.DiagnosticsDraftResponseDTO{
		OrderKind: string(draft.OrderRef.Kind),
		OrderID:   draft.OrderRef.ID,
		Text:      draft.Text,
	}
}

func (s *DiagnosticsService) BeginDraft(ctx context.Context, actorID uint64, ref entities.OrderRef, text string) (*dto.DiagnosticsDraftResponseDTO, error) {
	actor, err := s.userRepo.FindUser(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role != constants.RoleTechnician {
		return nil, apperrors.ErrRoleNotAuthorized
	}

	order, err := s.orderRepo.FindOrder(ctx, ref)
	if err != nil {
		return nil, err
	}
	// Диагноз есть только у техобслуживания и заявок сотрудников.
	if !order.SupportsDiagnostics() {
		return nil, apperrors.NewInvalidInputError("для заявок на подключение диагностика не ведётся")
	}
	if order.Status != constants.StatusInTechnicianWork {
		return nil, apperrors.ErrStatusMismatch
	}
	if order.AssigneeID.Valid && order.AssigneeID.Uint64 != actorID {
		return nil, apperrors.ErrRoleNotAuthorized
	}

	draft := session.DiagnosticsDraft{OrderRef: ref, Text: text}
	if err := s.store.SaveDraft(ctx, actorID, draft); err != nil {
		return nil, err
	}
	return draftResponse(&draft), nil
}

func (s *DiagnosticsService) UpdateDraft(ctx context.Context, actorID uint64, text string) (*dto.DiagnosticsDraftResponseDTO, error) {
	draft, err := s.store.LoadDraft(ctx, actorID)
	if err != nil {
		return nil, err
	}
	draft.Text = text
	if err := s.store.SaveDraft(ctx, actorID, *draft); err != nil {
		return nil, err
	}
	return draftResponse(draft), nil
}

func (s *DiagnosticsService) GetDraft(ctx context.Context, actorID uint64) (*dto.DiagnosticsDraftResponseDTO, error) {
	draft, err := s.store.LoadDraft(ctx, actorID)
	if err != nil {
		return nil, err
	}
	return draftResponse(draft), nil
}

func (s *DiagnosticsService) ConfirmDraft(ctx context.Context, actorID uint64) (*dto.OrderResponseDTO, error) {
	draft, err := s.store.LoadDraft(ctx, actorID)
	if err != nil {
		return nil, err
	}

	if err := s.orderRepo.SetDiagnostics(ctx, draft.OrderRef, draft.Text); err != nil {
		return nil, err
	}
	if err := s.store.DeleteDraft(ctx, actorID); err != nil {
		s.logger.Warn("не удалось удалить подтверждённый черновик диагноза",
			zap.Uint64("user_id", actorID), zap.Error(err))
	}

	order, err := s.orderRepo.FindOrder(ctx, draft.OrderRef)
	if err != nil {
		return nil, err
	}
	resp := toOrderResponseDTO(order)
	return &resp, nil
}

func (s *DiagnosticsService) DiscardDraft(ctx context.Context, actorID uint64) error {
	return s.store.DeleteDraft(ctx, actorID)
}
