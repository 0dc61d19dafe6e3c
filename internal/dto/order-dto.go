package dto

// CreateConnectionOrderDTO - заявка на подключение от клиента или сотрудника.
type CreateConnectionOrderDTO struct {
	ClientID uint64 `json:"client_id" validate:"required,gt=0"`
	Region   string `json:"region" validate:"required,min=2,max=100"`
	Address  string `json:"address" validate:"required,min=5"`
	Tariff   string `json:"tariff" validate:"required,min=2,max=100"`
}

type CreateTechnicianOrderDTO struct {
	ClientID    uint64 `json:"client_id" validate:"required,gt=0"`
	AbonentID   string `json:"abonent_id" validate:"required,min=1,max=50"`
	Region      string `json:"region" validate:"required,min=2,max=100"`
	Address     string `json:"address" validate:"required,min=5"`
	Description string `json:"description" validate:"required,min=5"`
}

type CreateStaffOrderDTO struct {
	Phone       string `json:"phone" validate:"required,uz_phone"`
	AbonentID   string `json:"abonent_id" validate:"omitempty,max=50"`
	Region      string `json:"region" validate:"required,min=2,max=100"`
	Address     string `json:"address" validate:"required,min=5"`
	Description string `json:"description" validate:"required,min=5"`
}

// AssignTechnicianDTO - назначение исполнителя контролёром.
type AssignTechnicianDTO struct {
	TechnicianID uint64 `json:"technician_id" validate:"required,gt=0"`
}

// SetNotesDTO - текст заметок (комментарий младшего менеджера или контролёра).
type SetNotesDTO struct {
	Text string `json:"text" validate:"required,min=3"`
}

type SetRatingDTO struct {
	Rating int `json:"rating" validate:"required,min=1,max=5"`
}

type OrderResponseDTO struct {
	ID                uint64  `json:"id"`
	ApplicationNumber string  `json:"application_number"`
	Kind              string  `json:"kind"`
	Status            string  `json:"status"`
	ClientID          uint64  `json:"client_id"`
	ClientFIO         string  `json:"client_fio,omitempty"`
	AssigneeID        *uint64 `json:"assignee_id,omitempty"`
	AssigneeRole      *string `json:"assignee_role,omitempty"`
	Region            *string `json:"region,omitempty"`
	Address           *string `json:"address,omitempty"`
	Tariff            *string `json:"tariff,omitempty"`
	AbonentID         *string `json:"abonent_id,omitempty"`
	Phone             *string `json:"phone,omitempty"`
	Description       *string `json:"description,omitempty"`
	Diagnostics       *string `json:"diagnostics,omitempty"`
	Notes             *string `json:"notes,omitempty"`
	JMNotes           *string `json:"jm_notes,omitempty"`
	ConsumedSummary   *string `json:"consumed_summary,omitempty"`
	Rating            *int    `json:"rating,omitempty"`
	CreatedAt         string  `json:"created_at"`
	UpdatedAt         string  `json:"updated_at"`
}

type OrderListResponseDTO struct {
	List       []OrderResponseDTO `json:"list"`
	TotalCount uint64             `json:"total_count"`
}

// RoutingResultDTO - итог перехода по машине состояний.
type RoutingResultDTO struct {
	Order       OrderResponseDTO `json:"order"`
	FromStatus  string           `json:"from_status"`
	ToStatus    string           `json:"to_status"`
	CurrentLoad uint64           `json:"current_load,omitempty"`
}
