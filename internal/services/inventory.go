package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"connect-system/internal/dto"
	"connect-system/internal/entities"
	"connect-system/internal/events"
	"connect-system/internal/repositories"
	"connect-system/pkg/constants"
	apperrors "connect-system/pkg/errors"
	"connect-system/pkg/eventbus"
)

type InventoryServiceInterface interface {
	// RequestFromWarehouse резервирует материал под заявку. Первый резерв
	// атомарно переводит заявку in_technician_work -> in_warehouse; пока
	// заявка уже на складе, дальнейшие позиции добавляются без перехода.
	RequestFromWarehouse(ctx context.Context, ref entities.OrderRef, actorID uint64, d dto.ReserveMaterialDTO) (*dto.MaterialRequestResponseDTO, error)
	GetMaterials(ctx context.Context, limit, offset uint64) (*dto.MaterialListResponseDTO, error)
	RemainingAllotments(ctx context.Context, technicianID uint64) ([]dto.AllotmentResponseDTO, error)
	ListRequests(ctx context.Context, kind entities.OrderKind, limit, offset uint64) (*dto.MaterialRequestListResponseDTO, error)
	CountRequestsByKind(ctx context.Context) (map[string]uint64, error)
	ConsumedMaterials(ctx context.Context, ref entities.OrderRef) ([]dto.ConsumedLineDTO, error)
	SetAllotment(ctx context.Context, actorID, technicianID, materialID uint64, quantity int64) error
}

type InventoryService struct {
	materialRepo repositories.MaterialRepositoryInterface
	orderRepo    repositories.OrderRepositoryInterface
	userRepo     repositories.UserRepositoryInterface
	routing      RoutingServiceInterface
	bus          *eventbus.Bus
	logger       *zap.Logger
}

func NewInventoryService(
	materialRepo repositories.MaterialRepositoryInterface,
	orderRepo repositories.OrderRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	routing RoutingServiceInterface,
	bus *eventbus.Bus,
	logger *zap.Logger,
) InventoryServiceInterface {
	return &InventoryService{
		materialRepo: materialRepo,
		orderRepo:    orderRepo,
		userRepo:     userRepo,
		routing:      routing,
		bus:          bus,
		logger:       logger,
	}
}

func (s *InventoryService) RequestFromWarehouse(ctx context.Context, ref entities.OrderRef, actorID uint64, d dto.ReserveMaterialDTO) (*dto.MaterialRequestResponseDTO, error) {
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
	if order.AssigneeID.Valid && order.AssigneeID.Uint64 != actorID {
		return nil, apperrors.ErrRoleNotAuthorized
	}

	// Смена статуса и списание остатков идут одной транзакцией: либо
	// заявка ушла на склад вместе с резервом, либо не изменилось ничего.
	var guard *repositories.StatusTransition
	switch order.Status {
	case constants.StatusInWarehouse:
		guard = nil
	default:
		rule, ok := s.routing.Rule(ref.Kind, order.Status, ActionRequestFromWarehouse)
		if !ok {
			return nil, apperrors.ErrStatusMismatch
		}
		guard = &repositories.StatusTransition{Expected: order.Status, To: rule.To}
	}

	request, err := s.materialRepo.Reserve(ctx, ref, actorID, d.MaterialID, d.Quantity, guard)
	if err != nil {
		return nil, err
	}

	material, err := s.materialRepo.FindMaterial(ctx, d.MaterialID)
	if err != nil {
		return nil, err
	}

	if guard != nil {
		order.Status = guard.To
		s.bus.Publish(ctx, events.OrderStatusChangedEvent{
			TxID:       uuid.NewString(),
			Order:      *order,
			FromStatus: guard.Expected,
			ToStatus:   guard.To,
			Action:     string(ActionRequestFromWarehouse),
			ActorID:    actorID,
			ActorRole:  actor.Role,
		})
	}

	s.logger.Info("материал зарезервирован под заявку",
		zap.String("application_number", order.ApplicationNumber),
		zap.Uint64("material_id", d.MaterialID),
		zap.Int64("quantity", d.Quantity),
		zap.Uint64("technician_id", actorID),
	)

	return &dto.MaterialRequestResponseDTO{
		ID:                request.ID,
		OrderKind:         string(request.OrderKind),
		OrderID:           request.OrderID,
		ApplicationNumber: order.ApplicationNumber,
		MaterialID:        request.MaterialID,
		MaterialName:      material.Name,
		TechnicianID:      request.TechnicianID,
		Quantity:          request.Quantity,
		CreatedAt:         request.CreatedAt.Local().Format(timeLayout),
	}, nil
}

func (s *InventoryService) GetMaterials(ctx context.Context, limit, offset uint64) (*dto.MaterialListResponseDTO, error) {
	materials, total, err := s.materialRepo.GetMaterials(ctx, limit, offset)
	if err != nil {
		s.logger.Error("ошибка получения каталога материалов", zap.Error(err))
		return nil, err
	}
	list := make([]dto.MaterialResponseDTO, 0, len(materials))
	for _, m := range materials {
		list = append(list, dto.MaterialResponseDTO{
			ID:            m.ID,
			Name:          m.Name,
			Price:         m.Price.Ptr(),
			Description:   m.Description.Ptr(),
			StockQuantity: m.StockQuantity,
		})
	}
	return &dto.MaterialListResponseDTO{List: list, TotalCount: total}, nil
}

func (s *InventoryService) RemainingAllotments(ctx context.Context, technicianID uint64) ([]dto.AllotmentResponseDTO, error) {
	views, err := s.materialRepo.RemainingAllotments(ctx, technicianID)
	if err != nil {
		return nil, err
	}
	result := make([]dto.AllotmentResponseDTO, 0, len(views))
	for _, v := range views {
		result = append(result, dto.AllotmentResponseDTO{
			MaterialID:   v.MaterialID,
			MaterialName: v.MaterialName,
			Remaining:    v.Remaining,
		})
	}
	return result, nil
}

func (s *InventoryService) ListRequests(ctx context.Context, kind entities.OrderKind, limit, offset uint64) (*dto.MaterialRequestListResponseDTO, error) {
	views, total, err := s.materialRepo.ListRequests(ctx, kind, limit, offset)
	if err != nil {
		return nil, err
	}
	list := make([]dto.MaterialRequestResponseDTO, 0, len(views))
	for _, v := range views {
		list = append(list, dto.MaterialRequestResponseDTO{
			ID:                v.Request.ID,
			OrderKind:         string(v.Request.OrderKind),
			OrderID:           v.Request.OrderID,
			ApplicationNumber: v.ApplicationNumber,
			MaterialID:        v.Request.MaterialID,
			MaterialName:      v.MaterialName,
			TechnicianID:      v.Request.TechnicianID,
			TechnicianFIO:     v.TechnicianFIO,
			Quantity:          v.Request.Quantity,
			CreatedAt:         v.Request.CreatedAt.Local().Format(timeLayout),
		})
	}
	return &dto.MaterialRequestListResponseDTO{List: list, TotalCount: total}, nil
}

func (s *InventoryService) CountRequestsByKind(ctx context.Context) (map[string]uint64, error) {
	counts, err := s.materialRepo.CountRequestsByKind(ctx)
	if err != nil {
		return nil, err
	}
	result := make(map[string]uint64, len(counts))
	for kind, count := range counts {
		result[string(kind)] = count
	}
	return result, nil
}

func (s *InventoryService) ConsumedMaterials(ctx context.Context, ref entities.OrderRef) ([]dto.ConsumedLineDTO, error) {
	lines, err := s.materialRepo.ConsumedMaterials(ctx, ref)
	if err != nil {
		return nil, err
	}
	result := make([]dto.ConsumedLineDTO, 0, len(lines))
	for _, l := range lines {
		result = append(result, dto.ConsumedLineDTO{
			MaterialName: l.MaterialName,
			Quantity:     l.Quantity,
			Price:        l.Price.Ptr(),
		})
	}
	return result, nil
}

func (s *InventoryService) SetAllotment(ctx context.Context, actorID, technicianID, materialID uint64, quantity int64) error {
	actor, err := s.userRepo.FindUser(ctx, actorID)
	if err != nil {
		return err
	}
	if actor.Role != constants.RoleWarehouse && actor.Role != constants.RoleAdmin {
		return apperrors.ErrRoleNotAuthorized
	}
	return s.materialRepo.SetAllotment(ctx, technicianID, materialID, quantity)
}
