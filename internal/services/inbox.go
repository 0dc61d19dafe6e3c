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

const (
	CategoryQueue     = "queue"
	CategoryInbox     = "inbox"
	CategoryWarehouse = "warehouse"
)

// inboxScope - какие заявки и с какой политикой курсора видит роль
// в данной категории списка.
type inboxScope struct {
	statuses      []string
	policy        session.NavPolicy
	assigneeBound bool
}

// scopeFor определяет область списка. Очередь младшего менеджера листается
// по кругу, остальные списки упираются в края.
func scopeFor(role, category string) (inboxScope, error) {
	switch {
	case role == constants.RoleJuniorManager && category == CategoryQueue:
		return inboxScope{
			statuses: []string{constants.StatusInJuniorManager},
			policy:   session.NavWrap,
		}, nil
	case role == constants.RoleController && category == CategoryInbox:
		return inboxScope{
			statuses: []string{constants.StatusInController},
			policy:   session.NavClamp,
		}, nil
	case role == constants.RoleTechnician && category == CategoryInbox:
		return inboxScope{
			statuses: []string{
				constants.StatusBetweenControllerTechnician,
				constants.StatusInTechnician,
				constants.StatusInTechnicianWork,
			},
			policy:        session.NavClamp,
			assigneeBound: true,
		}, nil
	case role == constants.RoleWarehouse && category == CategoryWarehouse:
		return inboxScope{
			statuses: []string{constants.StatusInWarehouse},
			policy:   session.NavClamp,
		}, nil
	}
	return inboxScope{}, apperrors.ErrRoleNotAuthorized
}

type InboxServiceInterface interface {
	Open(ctx context.Context, actorID uint64, d dto.OpenInboxDTO) (*dto.InboxCardDTO, error)
	Current(ctx context.Context, actorID uint64, category string) (*dto.InboxCardDTO, error)
	Next(ctx context.Context, actorID uint64, category string) (*dto.InboxCardDTO, error)
	Prev(ctx context.Context, actorID uint64, category string) (*dto.InboxCardDTO, error)
	// ApplyTransition согласует открытый список с выполненным переходом:
	// заявка либо получает новый статус в снимке, либо покидает список.
	ApplyTransition(ctx context.Context, actorID uint64, category string, ref entities.OrderRef, toStatus string) (*dto.InboxCardDTO, error)
	Close(ctx context.Context, actorID uint64, category string) error
}

type InboxService struct {
	orderRepo repositories.OrderRepositoryInterface
	userRepo  repositories.UserRepositoryInterface
	store     session.StoreInterface
	logger    *zap.Logger
}

func NewInboxService(
	orderRepo repositories.OrderRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	store session.StoreInterface,
	logger *zap.Logger,
) InboxServiceInterface {
	return &InboxService{orderRepo: orderRepo, userRepo: userRepo, store: store, logger: logger}
}

func (s *InboxService) snapshot(ctx context.Context, actorID uint64, scope inboxScope, kindFilter string) ([]entities.Order, error) {
	kinds := entities.AllKinds
	if kindFilter != "" {
		kinds = []entities.OrderKind{entities.OrderKind(kindFilter)}
	}

	var assigneeID *uint64
	if scope.assigneeBound {
		assigneeID = &actorID
	}

	orders := make([]entities.Order, 0)
	for _, kind := range kinds {
		part, _, err := s.orderRepo.ListOrders(ctx, kind, scope.statuses, assigneeID, 0, 0)
		if err != nil {
			return nil, err
		}
		orders = append(orders, part...)
	}
	return orders, nil
}

func (s *InboxService) card(view *session.InboxView) *dto.InboxCardDTO {
	order, ok := view.Current()
	if !ok {
		return nil
	}
	card := &dto.InboxCardDTO{
		Order:    toOrderResponseDTO(order),
		Index:    view.Idx,
		Total:    view.Len(),
		Category: view.Category,
	}
	if view.Policy == session.NavClamp {
		card.AtStart = view.Idx == 0
		card.AtEnd = view.Idx == view.Len()-1
	}
	return card
}

func (s *InboxService) Open(ctx context.Context, actorID uint64, d dto.OpenInboxDTO) (*dto.InboxCardDTO, error) {
	actor, err := s.userRepo.FindUser(ctx, actorID)
	if err != nil {
		return nil, err
	}
	scope, err := scopeFor(actor.Role, d.Category)
	if err != nil {
		return nil, err
	}

	orders, err := s.snapshot(ctx, actorID, scope, d.Kind)
	if err != nil {
		return nil, err
	}

	view := session.NewInboxView(d.Category, scope.policy, orders)
	if view.Empty() {
		// Пустой список не сохраняем: нечего листать.
		_ = s.store.DeleteView(ctx, actorID, d.Category)
		return nil, nil
	}
	if err := s.store.SaveView(ctx, actorID, view); err != nil {
		return nil, err
	}
	return s.card(view), nil
}

func (s *InboxService) Current(ctx context.Context, actorID uint64, category string) (*dto.InboxCardDTO, error) {
	view, err := s.store.LoadView(ctx, actorID, category)
	if err != nil {
		return nil, err
	}
	return s.card(view), nil
}

func (s *InboxService) move(ctx context.Context, actorID uint64, category string, forward bool) (*dto.InboxCardDTO, error) {
	view, err := s.store.LoadView(ctx, actorID, category)
	if err != nil {
		return nil, err
	}

	moved := false
	if forward {
		moved = view.Next()
	} else {
		moved = view.Prev()
	}
	if moved {
		if err := s.store.SaveView(ctx, actorID, view); err != nil {
			return nil, err
		}
	}
	// На краю clamp-списка отдаём ту же карточку: "достигнут конец" виден
	// по флагам AtStart/AtEnd.
	return s.card(view), nil
}

func (s *InboxService) Next(ctx context.Context, actorID uint64, category string) (*dto.InboxCardDTO, error) {
	return s.move(ctx, actorID, category, true)
}

func (s *InboxService) Prev(ctx context.Context, actorID uint64, category string) (*dto.InboxCardDTO, error) {
	return s.move(ctx, actorID, category, false)
}

func (s *InboxService) ApplyTransition(ctx context.Context, actorID uint64, category string, ref entities.OrderRef, toStatus string) (*dto.InboxCardDTO, error) {
	actor, err := s.userRepo.FindUser(ctx, actorID)
	if err != nil {
		return nil, err
	}
	scope, err := scopeFor(actor.Role, category)
	if err != nil {
		return nil, err
	}

	view, err := s.store.LoadView(ctx, actorID, category)
	if err != nil {
		return nil, err
	}

	stays := false
	for _, status := range scope.statuses {
		if status == toStatus {
			stays = true
			break
		}
	}
	if stays {
		view.UpdateStatus(ref, toStatus)
	} else {
		view.Remove(ref)
	}

	if view.Empty() {
		if err := s.store.DeleteView(ctx, actorID, category); err != nil {
			return nil, err
		}
		return nil, nil
	}
	if err := s.store.SaveView(ctx, actorID, view); err != nil {
		return nil, err
	}
	return s.card(view), nil
}

func (s *InboxService) Close(ctx context.Context, actorID uint64, category string) error {
	return s.store.DeleteView(ctx, actorID, category)
}
