package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/aarondl/null/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"connect-system/internal/dto"
	"connect-system/internal/entities"
	"connect-system/internal/repositories"
	"connect-system/internal/session"
	"connect-system/pkg/constants"
	apperrors "connect-system/pkg/errors"
)

type OrderServiceInterface interface {
	CreateConnectionOrder(ctx context.Context, actorID uint64, d dto.CreateConnectionOrderDTO) (*dto.OrderResponseDTO, error)
	CreateTechnicianOrder(ctx context.Context, actorID uint64, d dto.CreateTechnicianOrderDTO) (*dto.OrderResponseDTO, error)
	CreateStaffOrder(ctx context.Context, actorID uint64, d dto.CreateStaffOrderDTO) (*dto.OrderResponseDTO, error)
	FindOrder(ctx context.Context, ref entities.OrderRef) (*dto.OrderResponseDTO, error)
	ListMyOrders(ctx context.Context, clientID uint64) ([]dto.OrderResponseDTO, error)
	// Двухфазные заметки младшего менеджера: черновик в сессии до подтверждения.
	BeginJMNote(ctx context.Context, actorID uint64, ref entities.OrderRef, text string) error
	UpdateJMNote(ctx context.Context, actorID uint64, text string) error
	ConfirmJMNote(ctx context.Context, actorID uint64) (*dto.OrderResponseDTO, error)
	SetControllerNotes(ctx context.Context, actorID uint64, ref entities.OrderRef, text string) (*dto.OrderResponseDTO, error)
	RateOrder(ctx context.Context, actorID uint64, ref entities.OrderRef, rating int) error
}

type OrderService struct {
	orderRepo repositories.OrderRepositoryInterface
	userRepo  repositories.UserRepositoryInterface
	store     session.StoreInterface
	logger    *zap.Logger
}

func NewOrderService(
	orderRepo repositories.OrderRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	store session.StoreInterface,
	logger *zap.Logger,
) OrderServiceInterface {
	return &OrderService{orderRepo: orderRepo, userRepo: userRepo, store: store, logger: logger}
}

// newApplicationNumber - человекочитаемый номер заявки с префиксом вида.
func newApplicationNumber(kind entities.OrderKind) string {
	prefix := map[entities.OrderKind]string{
		entities.KindConnection: "CO",
		entities.KindTechnician: "TO",
		entities.KindStaff:      "SO",
	}[kind]
	fragment := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("%s-%s", prefix, fragment)
}

func (s *OrderService) create(ctx context.Context, order entities.Order) (*dto.OrderResponseDTO, error) {
	created, err := s.orderRepo.CreateOrder(ctx, order)
	if err != nil {
		s.logger.Error("ошибка создания заявки", zap.String("kind", string(order.Kind)), zap.Error(err))
		return nil, err
	}
	s.logger.Info("заявка создана",
		zap.String("kind", string(created.Kind)),
		zap.String("application_number", created.ApplicationNumber),
		zap.Uint64("client_id", created.ClientID),
	)
	resp := toOrderResponseDTO(created)
	return &resp, nil
}

func (s *OrderService) CreateConnectionOrder(ctx context.Context, actorID uint64, d dto.CreateConnectionOrderDTO) (*dto.OrderResponseDTO, error) {
	return s.create(ctx, entities.Order{
		OrderCore: entities.OrderCore{
			ApplicationNumber: newApplicationNumber(entities.KindConnection),
			Kind:              entities.KindConnection,
			Status:            constants.StatusInJuniorManager,
			AssigneeRole:      null.StringFrom(constants.RoleJuniorManager),
			ClientID:          d.ClientID,
		},
		Connection: &entities.ConnectionDetails{
			Region:  null.StringFrom(d.Region),
			Address: null.StringFrom(d.Address),
			Tariff:  null.StringFrom(d.Tariff),
		},
	})
}

func (s *OrderService) CreateTechnicianOrder(ctx context.Context, actorID uint64, d dto.CreateTechnicianOrderDTO) (*dto.OrderResponseDTO, error) {
	return s.create(ctx, entities.Order{
		OrderCore: entities.OrderCore{
			ApplicationNumber: newApplicationNumber(entities.KindTechnician),
			Kind:              entities.KindTechnician,
			Status:            constants.StatusInJuniorManager,
			AssigneeRole:      null.StringFrom(constants.RoleJuniorManager),
			ClientID:          d.ClientID,
		},
		Technician: &entities.TechnicianDetails{
			AbonentID:   null.StringFrom(d.AbonentID),
			Region:      null.StringFrom(d.Region),
			Address:     null.StringFrom(d.Address),
			Description: null.StringFrom(d.Description),
		},
	})
}

func (s *OrderService) CreateStaffOrder(ctx context.Context, actorID uint64, d dto.CreateStaffOrderDTO) (*dto.OrderResponseDTO, error) {
	actor, err := s.userRepo.FindUser(ctx, actorID)
	if err != nil {
		return nil, err
	}
	// Заявку от имени клиента создаёт сотрудник; клиент определяется
	// по телефону, при отсутствии заводится новый профиль.
	client, err := s.userRepo.FindUserByPhone(ctx, d.Phone)
	if err != nil {
		client, err = s.userRepo.CreateUser(ctx, entities.User{
			FIO:      fmt.Sprintf("Клиент %s", d.Phone),
			Phone:    null.StringFrom(d.Phone),
			Role:     constants.RoleClient,
			Language: "ru",
		})
		if err != nil {
			return nil, fmt.Errorf("не удалось завести профиль клиента: %w", err)
		}
	}

	order := entities.Order{
		OrderCore: entities.OrderCore{
			ApplicationNumber: newApplicationNumber(entities.KindStaff),
			Kind:              entities.KindStaff,
			Status:            constants.StatusInJuniorManager,
			AssigneeRole:      null.StringFrom(constants.RoleJuniorManager),
			ClientID:          client.ID,
		},
		Staff: &entities.StaffDetails{
			Phone:       null.StringFrom(d.Phone),
			AbonentID:   null.NewString(d.AbonentID, d.AbonentID != ""),
			Region:      null.StringFrom(d.Region),
			Address:     null.StringFrom(d.Address),
			Description: null.StringFrom(d.Description),
		},
	}
	resp, err := s.create(ctx, order)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("заявка оформлена сотрудником",
		zap.Uint64("staff_id", actor.ID), zap.Uint64("client_id", client.ID))
	return resp, nil
}

func (s *OrderService) FindOrder(ctx context.Context, ref entities.OrderRef) (*dto.OrderResponseDTO, error) {
	order, err := s.orderRepo.FindOrder(ctx, ref)
	if err != nil {
		return nil, err
	}
	resp := toOrderResponseDTO(order)
	return &resp, nil
}

func (s *OrderService) ListMyOrders(ctx context.Context, clientID uint64) ([]dto.OrderResponseDTO, error) {
	result := make([]dto.OrderResponseDTO, 0)
	for _, kind := range entities.AllKinds {
		orders, err := s.orderRepo.ListOrdersByClient(ctx, kind, clientID)
		if err != nil {
			return nil, err
		}
		for i := range orders {
			result = append(result, toOrderResponseDTO(&orders[i]))
		}
	}
	return result, nil
}

func (s *OrderService) requireRole(ctx context.Context, actorID uint64, role string) (*entities.User, error) {
	actor, err := s.userRepo.FindUser(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role != role {
		return nil, apperrors.ErrRoleNotAuthorized
	}
	return actor, nil
}

func (s *OrderService) BeginJMNote(ctx context.Context, actorID uint64, ref entities.OrderRef, text string) error {
	if _, err := s.requireRole(ctx, actorID, constants.RoleJuniorManager); err != nil {
		return err
	}
	order, err := s.orderRepo.FindOrder(ctx, ref)
	if err != nil {
		return err
	}
	// Заметка осмысленна, пока заявка ещё в руках младшего менеджера.
	if order.Status != constants.StatusInJuniorManager {
		return apperrors.ErrStatusMismatch
	}
	return s.store.SaveNoteDraft(ctx, actorID, session.NoteDraft{OrderRef: ref, Text: text})
}

func (s *OrderService) UpdateJMNote(ctx context.Context, actorID uint64, text string) error {
	draft, err := s.store.LoadNoteDraft(ctx, actorID)
	if err != nil {
		return err
	}
	draft.Text = text
	return s.store.SaveNoteDraft(ctx, actorID, *draft)
}

func (s *OrderService) ConfirmJMNote(ctx context.Context, actorID uint64) (*dto.OrderResponseDTO, error) {
	draft, err := s.store.LoadNoteDraft(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := s.orderRepo.SetJMNotes(ctx, draft.OrderRef, draft.Text); err != nil {
		return nil, err
	}
	if err := s.store.DeleteNoteDraft(ctx, actorID); err != nil {
		s.logger.Warn("не удалось удалить черновик заметки", zap.Uint64("user_id", actorID), zap.Error(err))
	}
	return s.FindOrder(ctx, draft.OrderRef)
}

func (s *OrderService) SetControllerNotes(ctx context.Context, actorID uint64, ref entities.OrderRef, text string) (*dto.OrderResponseDTO, error) {
	if _, err := s.requireRole(ctx, actorID, constants.RoleController); err != nil {
		return nil, err
	}
	if err := s.orderRepo.SetNotes(ctx, ref, text); err != nil {
		return nil, err
	}
	return s.FindOrder(ctx, ref)
}

func (s *OrderService) RateOrder(ctx context.Context, actorID uint64, ref entities.OrderRef, rating int) error {
	if rating < 1 || rating > 5 {
		return apperrors.NewInvalidInputError("оценка должна быть от 1 до 5")
	}
	order, err := s.orderRepo.FindOrder(ctx, ref)
	if err != nil {
		return err
	}
	if order.ClientID != actorID {
		return apperrors.ErrRoleNotAuthorized
	}
	return s.orderRepo.SetRating(ctx, ref, rating)
}
