package listeners

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"connect-system/internal/events"
	"connect-system/internal/repositories"
	"connect-system/pkg/eventbus"
	"connect-system/pkg/telegram"
)

// NotificationListener доставляет уведомления участникам процесса.
// Все обработчики работают по принципу "отправить и забыть": сбой
// доставки логируется и не влияет на уже зафиксированный переход.
type NotificationListener struct {
	telegramService telegram.ServiceInterface
	userRepo        repositories.UserRepositoryInterface
	logger          *zap.Logger
}

func NewNotificationListener(
	telegramService telegram.ServiceInterface,
	userRepo repositories.UserRepositoryInterface,
	logger *zap.Logger,
) *NotificationListener {
	return &NotificationListener{
		telegramService: telegramService,
		userRepo:        userRepo,
		logger:          logger,
	}
}

func (l *NotificationListener) Register(bus *eventbus.Bus) {
	bus.Subscribe("order.status.changed", l.handleStatusChanged)
	bus.Subscribe("order.assigned", l.handleAssigned)
	bus.Subscribe("order.completed", l.handleCompleted)
	l.logger.Info("NotificationListener подписан на события заявок")
}

func (l *NotificationListener) handleStatusChanged(ctx context.Context, event eventbus.Event) error {
	e, ok := event.(events.OrderStatusChangedEvent)
	if !ok {
		return fmt.Errorf("неожиданный тип события: %T", event)
	}

	// Клиенту сообщаем только о значимых для него вехах.
	var text string
	switch e.ToStatus {
	case "in_technician_work":
		text = fmt.Sprintf("По вашей заявке №%s начаты работы.", e.Order.ApplicationNumber)
	case "cancelled":
		text = fmt.Sprintf("Ваша заявка №%s отменена.", e.Order.ApplicationNumber)
	default:
		return nil
	}

	client, err := l.userRepo.FindUser(ctx, e.Order.ClientID)
	if err != nil {
		return fmt.Errorf("не удалось найти клиента заявки %s: %w", e.Order.ApplicationNumber, err)
	}
	if !client.TelegramID.Valid {
		l.logger.Debug("у клиента нет telegram_id, уведомление пропущено",
			zap.String("tx_id", e.TxID), zap.Uint64("client_id", client.ID))
		return nil
	}
	return l.telegramService.SendMessage(ctx, client.TelegramID.Int64, text)
}

func (l *NotificationListener) handleAssigned(ctx context.Context, event eventbus.Event) error {
	e, ok := event.(events.OrderAssignedEvent)
	if !ok {
		return fmt.Errorf("неожиданный тип события: %T", event)
	}

	technician, err := l.userRepo.FindUser(ctx, e.AssigneeID)
	if err != nil {
		return fmt.Errorf("не удалось найти исполнителя заявки %s: %w", e.Order.ApplicationNumber, err)
	}
	if !technician.TelegramID.Valid {
		return nil
	}

	text := fmt.Sprintf("Вам назначена заявка №%s.\nТекущая нагрузка: %d", e.Order.ApplicationNumber, e.CurrentLoad)
	return l.telegramService.SendMessage(ctx, technician.TelegramID.Int64, text)
}

func (l *NotificationListener) handleCompleted(ctx context.Context, event eventbus.Event) error {
	e, ok := event.(events.OrderCompletedEvent)
	if !ok {
		return fmt.Errorf("неожиданный тип события: %T", event)
	}

	client, err := l.userRepo.FindUser(ctx, e.Order.ClientID)
	if err != nil {
		return fmt.Errorf("не удалось найти клиента заявки %s: %w", e.Order.ApplicationNumber, err)
	}
	if !client.TelegramID.Valid {
		return nil
	}

	text := fmt.Sprintf("Работы по заявке №%s завершены.\n\n%s\n\nПожалуйста, оцените качество работ.",
		e.Order.ApplicationNumber, e.ConsumedSummary)

	buttons := make([]telegram.InlineKeyboardButton, 0, 5)
	for rating := 1; rating <= 5; rating++ {
		buttons = append(buttons, telegram.InlineKeyboardButton{
			Text:         fmt.Sprintf("%d", rating),
			CallbackData: fmt.Sprintf("rate:%s:%d:%d", e.Order.Kind, e.Order.ID, rating),
		})
	}
	return l.telegramService.SendMessageEx(ctx, client.TelegramID.Int64, text,
		telegram.WithHTML(),
		telegram.WithKeyboard([][]telegram.InlineKeyboardButton{buttons}),
	)
}
