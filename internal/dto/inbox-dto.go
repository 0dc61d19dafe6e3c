package dto

// OpenInboxDTO - параметры открытия списка; фильтр по виду заявок опционален.
type OpenInboxDTO struct {
	Category string `json:"category" validate:"required,oneof=inbox queue warehouse"`
	Kind     string `json:"kind" validate:"omitempty,order_kind"`
}

// InboxCardDTO - карточка текущей позиции списка.
type InboxCardDTO struct {
	Order    OrderResponseDTO `json:"order"`
	Index    int              `json:"index"`
	Total    int              `json:"total"`
	AtStart  bool             `json:"at_start"`
	AtEnd    bool             `json:"at_end"`
	Category string           `json:"category"`
}

// DiagnosticsDraftDTO - текст черновика диагноза.
type DiagnosticsDraftDTO struct {
	Text string `json:"text" validate:"required,min=3"`
}

type DiagnosticsDraftResponseDTO struct {
	OrderKind string `json:"order_kind"`
	OrderID   uint64 `json:"order_id"`
	Text      string `json:"text"`
}
