package services

import (
	"context"

	"go.uber.org/zap"

	"connect-system/internal/dto"
	"connect-system/internal/entities"
	"connect-system/internal/repositories"
	"connect-system/pkg/constants"
	apperrors "connect-system/pkg/errors"
)

var allStatuses = []string{
	constants.StatusNew,
	constants.StatusInManager,
	constants.StatusInJuniorManager,
	constants.StatusInController,
	constants.StatusBetweenControllerTechnician,
	constants.StatusInTechnician,
	constants.StatusInTechnicianWork,
	constants.StatusInWarehouse,
	constants.StatusCompleted,
	constants.StatusCancelled,
}

type ReportServiceInterface interface {
	// GetOrdersReport выгружает заявки всех видов для отчёта.
	// Доступно менеджеру и администратору.
	GetOrdersReport(ctx context.Context, actorID uint64) (map[string][]dto.OrderResponseDTO, error)
}

type ReportService struct {
	orderRepo repositories.OrderRepositoryInterface
	userRepo  repositories.UserRepositoryInterface
	logger    *zap.Logger
}

func NewReportService(
	orderRepo repositories.OrderRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	logger *zap.Logger,
) ReportServiceInterface {
	return &ReportService{orderRepo: orderRepo, userRepo: userRepo, logger: logger}
}

func (s *ReportService) GetOrdersReport(ctx context.Context, actorID uint64) (map[string][]dto.OrderResponseDTO, error) {
	actor, err := s.userRepo.FindUser(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role != constants.RoleManager && actor.Role != constants.RoleAdmin {
		return nil, apperrors.ErrForbidden
	}

	report := make(map[string][]dto.OrderResponseDTO, len(entities.AllKinds))
	for _, kind := range entities.AllKinds {
		orders, _, err := s.orderRepo.ListOrders(ctx, kind, allStatuses, nil, 0, 0)
		if err != nil {
			s.logger.Error("ошибка выгрузки заявок для отчёта",
				zap.String("kind", string(kind)), zap.Error(err))
			return nil, err
		}
		list := make([]dto.OrderResponseDTO, 0, len(orders))
		for i := range orders {
			list = append(list, toOrderResponseDTO(&orders[i]))
		}
		report[string(kind)] = list
	}
	return report, nil
}
