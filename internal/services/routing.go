package services

import (
	"context"
	"fmt"

	"github.com/aarondl/null/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"connect-system/internal/entities"
	"connect-system/internal/events"
	"connect-system/internal/repositories"
	"connect-system/pkg/constants"
	apperrors "connect-system/pkg/errors"
	"connect-system/pkg/eventbus"
)

// Action - действие над заявкой, разрешённое таблицей переходов.
type Action string

const (
	ActionRouteToController    Action = "route_to_controller"
	ActionAssignTechnician     Action = "assign_technician"
	ActionAccept               Action = "accept"
	ActionStartWork            Action = "start_work"
	ActionRequestFromWarehouse Action = "request_from_warehouse"
	ActionConfirmFulfillment   Action = "confirm_fulfillment"
	ActionFinish               Action = "finish"
	ActionCancel               Action = "cancel"
)

// Rule - правило перехода: кто, куда и что при этом происходит с назначением.
type Rule struct {
	Role string
	To   string
	// AssignCaller назначает исполнителем вызывающего.
	AssignCaller bool
	// AssignTarget назначает исполнителем переданного пользователя.
	AssignTarget bool
	// AssignController передаёт заявку наименее загруженному контролеру.
	AssignController bool
	// RequireOwner допускает действие только для текущего исполнителя.
	RequireOwner bool
	// ReleaseMaterials возвращает резервы заявки на склад.
	ReleaseMaterials bool
}

type transitionKey struct {
	Kind   entities.OrderKind
	From   string
	Action Action
}

// cancelOwners - владелец каждого статуса до начала работ: только он
// вправе отменить заявку из этого статуса.
var cancelOwners = map[string]string{
	constants.StatusNew:                          constants.RoleClient,
	constants.StatusInManager:                    constants.RoleManager,
	constants.StatusInJuniorManager:              constants.RoleJuniorManager,
	constants.StatusInController:                 constants.RoleController,
	constants.StatusBetweenControllerTechnician:  constants.RoleController,
	constants.StatusInTechnician:                 constants.RoleTechnician,
}

// buildTransitionTable собирает таблицу переходов. Поток одинаков для всех
// трёх видов заявок; различия видов живут в полях, а не в маршруте.
func buildTransitionTable() map[transitionKey]Rule {
	table := make(map[transitionKey]Rule)
	for _, kind := range entities.AllKinds {
		add := func(from string, action Action, rule Rule) {
			table[transitionKey{Kind: kind, From: from, Action: action}] = rule
		}

		add(constants.StatusInJuniorManager, ActionRouteToController,
			Rule{Role: constants.RoleJuniorManager, To: constants.StatusInController, AssignController: true})
		add(constants.StatusInController, ActionAssignTechnician,
			Rule{Role: constants.RoleController, To: constants.StatusBetweenControllerTechnician, AssignTarget: true})
		add(constants.StatusInController, ActionAccept,
			Rule{Role: constants.RoleTechnician, To: constants.StatusInTechnician, AssignCaller: true})
		add(constants.StatusBetweenControllerTechnician, ActionAccept,
			Rule{Role: constants.RoleTechnician, To: constants.StatusInTechnician, AssignCaller: true})
		add(constants.StatusInTechnician, ActionStartWork,
			Rule{Role: constants.RoleTechnician, To: constants.StatusInTechnicianWork, RequireOwner: true})
		add(constants.StatusInTechnicianWork, ActionRequestFromWarehouse,
			Rule{Role: constants.RoleTechnician, To: constants.StatusInWarehouse, RequireOwner: true})
		add(constants.StatusInWarehouse, ActionConfirmFulfillment,
			Rule{Role: constants.RoleWarehouse, To: constants.StatusInTechnicianWork})
		add(constants.StatusInTechnicianWork, ActionFinish,
			Rule{Role: constants.RoleTechnician, To: constants.StatusCompleted, RequireOwner: true})

		for from, owner := range cancelOwners {
			rule := Rule{Role: owner, To: constants.StatusCancelled, ReleaseMaterials: true}
			// Принятая заявка уже закреплена за конкретным техником:
			// отменить её может только он, а не любой коллега по роли.
			if from == constants.StatusInTechnician {
				rule.RequireOwner = true
			}
			add(from, ActionCancel, rule)
		}
	}
	return table
}

// ValidateTable проверяет согласованность таблицы переходов. Вызывается
// при старте приложения: дыра в таблице должна падать сразу, а не на
// живом пользователе.
func ValidateTable(table map[transitionKey]Rule) error {
	knownStatuses := map[string]struct{}{
		constants.StatusNew: {}, constants.StatusInManager: {},
		constants.StatusInJuniorManager: {}, constants.StatusInController: {},
		constants.StatusBetweenControllerTechnician: {}, constants.StatusInTechnician: {},
		constants.StatusInTechnicianWork: {}, constants.StatusInWarehouse: {},
		constants.StatusCompleted: {}, constants.StatusCancelled: {},
	}

	for key, rule := range table {
		if !key.Kind.Valid() {
			return fmt.Errorf("переход %v: неизвестный вид заявки", key)
		}
		if _, ok := knownStatuses[key.From]; !ok {
			return fmt.Errorf("переход %v: неизвестный исходный статус %q", key, key.From)
		}
		if _, ok := knownStatuses[rule.To]; !ok {
			return fmt.Errorf("переход %v: неизвестный целевой статус %q", key, rule.To)
		}
		if !constants.IsKnownRole(rule.Role) {
			return fmt.Errorf("переход %v: неизвестная роль %q", key, rule.Role)
		}
		if constants.IsFinalStatus(key.From) {
			return fmt.Errorf("переход %v: исходный статус финальный", key)
		}
	}

	// Из каждого статуса до начала работ должна существовать отмена.
	for _, kind := range entities.AllKinds {
		for _, status := range constants.PreWorkStatuses {
			if _, ok := table[transitionKey{Kind: kind, From: status, Action: ActionCancel}]; !ok {
				return fmt.Errorf("нет отмены для вида %s из статуса %s", kind, status)
			}
		}
	}
	return nil
}

// RoutingResult - итог успешного перехода.
type RoutingResult struct {
	Order       entities.Order
	FromStatus  string
	ToStatus    string
	CurrentLoad uint64
}

type RoutingServiceInterface interface {
	// Execute выполняет действие от имени актора: проверка роли,
	// охраняемая запись статуса, side-effect'ы после фиксации.
	Execute(ctx context.Context, ref entities.OrderRef, action Action, actorID uint64, targetID *uint64) (*RoutingResult, error)
	RouteToController(ctx context.Context, ref entities.OrderRef, actorID uint64) (*RoutingResult, error)
	AssignTechnician(ctx context.Context, ref entities.OrderRef, actorID, technicianID uint64) (*RoutingResult, error)
	Accept(ctx context.Context, ref entities.OrderRef, actorID uint64) (*RoutingResult, error)
	StartWork(ctx context.Context, ref entities.OrderRef, actorID uint64) (*RoutingResult, error)
	ConfirmFulfillment(ctx context.Context, ref entities.OrderRef, actorID uint64) (*RoutingResult, error)
	Cancel(ctx context.Context, ref entities.OrderRef, actorID uint64) (*RoutingResult, error)
	// Rule отдаёт правило перехода: через него смежные сервисы (склад,
	// завершение) узнают ожидаемый и целевой статусы своих действий.
	Rule(kind entities.OrderKind, from string, action Action) (Rule, bool)
}

type RoutingService struct {
	orderRepo    repositories.OrderRepositoryInterface
	userRepo     repositories.UserRepositoryInterface
	materialRepo repositories.MaterialRepositoryInterface
	bus          *eventbus.Bus
	table        map[transitionKey]Rule
	logger       *zap.Logger
}

func NewRoutingService(
	orderRepo repositories.OrderRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	materialRepo repositories.MaterialRepositoryInterface,
	bus *eventbus.Bus,
	logger *zap.Logger,
) (RoutingServiceInterface, error) {
	table := buildTransitionTable()
	if err := ValidateTable(table); err != nil {
		return nil, fmt.Errorf("таблица переходов не прошла проверку: %w", err)
	}
	return &RoutingService{
		orderRepo:    orderRepo,
		userRepo:     userRepo,
		materialRepo: materialRepo,
		bus:          bus,
		table:        table,
		logger:       logger,
	}, nil
}

func (s *RoutingService) Rule(kind entities.OrderKind, from string, action Action) (Rule, bool) {
	rule, ok := s.table[transitionKey{Kind: kind, From: from, Action: action}]
	return rule, ok
}

func (s *RoutingService) Execute(ctx context.Context, ref entities.OrderRef, action Action, actorID uint64, targetID *uint64) (*RoutingResult, error) {
	actor, err := s.userRepo.FindUser(ctx, actorID)
	if err != nil {
		return nil, err
	}

	order, err := s.orderRepo.FindOrder(ctx, ref)
	if err != nil {
		return nil, err
	}

	rule, ok := s.table[transitionKey{Kind: ref.Kind, From: order.Status, Action: action}]
	if !ok {
		// Действие неприменимо к текущему статусу: с точки зрения актора
		// заявка уже ушла дальше (или ещё не дошла).
		return nil, apperrors.ErrStatusMismatch
	}
	if actor.Role != rule.Role {
		return nil, apperrors.ErrRoleNotAuthorized
	}
	if rule.RequireOwner && order.AssigneeID.Valid && order.AssigneeID.Uint64 != actorID {
		return nil, apperrors.ErrRoleNotAuthorized
	}

	if rule.AssignTarget && targetID == nil {
		return nil, apperrors.NewInvalidInputError("не указан исполнитель для назначения")
	}
	assignment := s.buildAssignment(rule, actorID, targetID)
	if rule.AssignController {
		controllerID, err := s.pickLeastLoaded(ctx, constants.RoleController)
		if err != nil {
			return nil, err
		}
		assignment = &repositories.Assignment{
			Role:   null.StringFrom(constants.RoleController),
			UserID: null.Uint64From(controllerID),
		}
	}

	expected := order.Status
	if err := s.orderRepo.UpdateStatusGuarded(ctx, nil, ref, expected, rule.To, assignment); err != nil {
		return nil, err
	}

	if rule.ReleaseMaterials {
		// Возврат резервов при отмене. Статус уже зафиксирован; сбой здесь
		// это инцидент целостности, а не повод откатывать отмену.
		if err := s.materialRepo.ReleaseForOrder(ctx, ref); err != nil {
			s.logger.Error("не удалось вернуть резервы отменённой заявки",
				zap.String("kind", string(ref.Kind)), zap.Uint64("order_id", ref.ID), zap.Error(err))
		}
	}

	updated, err := s.orderRepo.FindOrder(ctx, ref)
	if err != nil {
		// Переход зафиксирован, перечитывание упало. Отдаём снимок с
		// применёнными изменениями.
		order.Status = rule.To
		updated = order
	}

	result := &RoutingResult{Order: *updated, FromStatus: expected, ToStatus: rule.To}
	s.publishSideEffects(ctx, result, rule, action, actor, assignment)
	return result, nil
}

// pickLeastLoaded выбирает сотрудника роли с наименьшим числом активных
// заявок. Заявка из очереди младшего менеджера уходит не в общий пул, а
// конкретному контролеру.
func (s *RoutingService) pickLeastLoaded(ctx context.Context, role string) (uint64, error) {
	users, err := s.userRepo.GetUsersByRole(ctx, role)
	if err != nil {
		return 0, err
	}
	if len(users) == 0 {
		return 0, apperrors.NewInvalidInputError("нет ни одного сотрудника с ролью %s", role)
	}

	var bestID, bestLoad uint64
	for i, user := range users {
		load, err := s.orderRepo.CountActiveByAssignee(ctx, role, user.ID)
		if err != nil {
			return 0, err
		}
		if i == 0 || load < bestLoad {
			bestID, bestLoad = user.ID, load
		}
	}
	return bestID, nil
}

func (s *RoutingService) buildAssignment(rule Rule, actorID uint64, targetID *uint64) *repositories.Assignment {
	switch {
	case rule.AssignCaller:
		return &repositories.Assignment{
			Role:   null.StringFrom(rule.Role),
			UserID: null.Uint64From(actorID),
		}
	case rule.AssignTarget && targetID != nil:
		return &repositories.Assignment{
			Role:   null.StringFrom(constants.RoleTechnician),
			UserID: null.Uint64From(*targetID),
		}
	default:
		return nil
	}
}

func (s *RoutingService) publishSideEffects(ctx context.Context, result *RoutingResult, rule Rule, action Action, actor *entities.User, assignment *repositories.Assignment) {
	txID := uuid.NewString()

	s.bus.Publish(ctx, events.OrderStatusChangedEvent{
		TxID:       txID,
		Order:      result.Order,
		FromStatus: result.FromStatus,
		ToStatus:   result.ToStatus,
		Action:     string(action),
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
	})

	// Уведомление получает исполнитель, которому заявку передали со
	// стороны: контролер из очереди младшего менеджера либо техник,
	// назначенный контролером. Забравший заявку сам себя не уведомляет.
	if (rule.AssignTarget || rule.AssignController) && assignment != nil {
		assigneeID := assignment.UserID.Uint64
		load, err := s.orderRepo.CountActiveByAssignee(ctx, assignment.Role.String, assigneeID)
		if err != nil {
			s.logger.Warn("не удалось посчитать нагрузку исполнителя",
				zap.Uint64("assignee_id", assigneeID), zap.Error(err))
		}
		result.CurrentLoad = load
		s.bus.Publish(ctx, events.OrderAssignedEvent{
			TxID:        txID,
			Order:       result.Order,
			AssigneeID:  assigneeID,
			CurrentLoad: load,
		})
	}

	s.logger.Info("переход заявки выполнен",
		zap.String("tx_id", txID),
		zap.String("kind", string(result.Order.Kind)),
		zap.String("application_number", result.Order.ApplicationNumber),
		zap.String("action", string(action)),
		zap.String("from", result.FromStatus),
		zap.String("to", result.ToStatus),
		zap.Uint64("actor_id", actor.ID),
	)
}

func (s *RoutingService) RouteToController(ctx context.Context, ref entities.OrderRef, actorID uint64) (*RoutingResult, error) {
	return s.Execute(ctx, ref, ActionRouteToController, actorID, nil)
}

func (s *RoutingService) AssignTechnician(ctx context.Context, ref entities.OrderRef, actorID, technicianID uint64) (*RoutingResult, error) {
	technician, err := s.userRepo.FindUser(ctx, technicianID)
	if err != nil {
		return nil, err
	}
	if technician.Role != constants.RoleTechnician {
		return nil, apperrors.NewInvalidInputError("пользователь %d не является техником", technicianID)
	}
	return s.Execute(ctx, ref, ActionAssignTechnician, actorID, &technicianID)
}

func (s *RoutingService) Accept(ctx context.Context, ref entities.OrderRef, actorID uint64) (*RoutingResult, error) {
	return s.Execute(ctx, ref, ActionAccept, actorID, nil)
}

func (s *RoutingService) StartWork(ctx context.Context, ref entities.OrderRef, actorID uint64) (*RoutingResult, error) {
	return s.Execute(ctx, ref, ActionStartWork, actorID, nil)
}

func (s *RoutingService) ConfirmFulfillment(ctx context.Context, ref entities.OrderRef, actorID uint64) (*RoutingResult, error) {
	return s.Execute(ctx, ref, ActionConfirmFulfillment, actorID, nil)
}

func (s *RoutingService) Cancel(ctx context.Context, ref entities.OrderRef, actorID uint64) (*RoutingResult, error) {
	return s.Execute(ctx, ref, ActionCancel, actorID, nil)
}
