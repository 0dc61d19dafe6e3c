package events

import (
	"connect-system/internal/entities"
)

// OrderStatusChangedEvent - событие успешного перехода заявки между
// статусами. TxID связывает уведомления одного перехода между собой.
type OrderStatusChangedEvent struct {
	TxID       string
	Order      entities.Order
	FromStatus string
	ToStatus   string
	Action     string
	ActorID    uint64
	ActorRole  string
}

func (e OrderStatusChangedEvent) Name() string {
	return "order.status.changed"
}

// OrderCompletedEvent возникает при завершении работ по заявке.
// Слушатели уведомляют клиента и запрашивают оценку.
type OrderCompletedEvent struct {
	TxID            string
	Order           entities.Order
	ConsumedSummary string
	ActorID         uint64
}

func (e OrderCompletedEvent) Name() string {
	return "order.completed"
}

// OrderAssignedEvent возникает при назначении конкретного исполнителя.
type OrderAssignedEvent struct {
	TxID        string
	Order       entities.Order
	AssigneeID  uint64
	CurrentLoad uint64
}

func (e OrderAssignedEvent) Name() string {
	return "order.assigned"
}
