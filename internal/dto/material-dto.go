package dto

// ReserveMaterialDTO - резерв материала техником под заявку.
type ReserveMaterialDTO struct {
	MaterialID uint64 `json:"material_id" validate:"required,gt=0"`
	Quantity   int64  `json:"quantity" validate:"required,gt=0"`
}

type MaterialResponseDTO struct {
	ID            uint64  `json:"id"`
	Name          string  `json:"name"`
	Price         *int64  `json:"price,omitempty"`
	Description   *string `json:"description,omitempty"`
	StockQuantity int64   `json:"stock_quantity"`
}

type MaterialListResponseDTO struct {
	List       []MaterialResponseDTO `json:"list"`
	TotalCount uint64                `json:"total_count"`
}

// AllotmentResponseDTO - остаток персонального лимита техника.
type AllotmentResponseDTO struct {
	MaterialID   uint64 `json:"material_id"`
	MaterialName string `json:"material_name"`
	Remaining    int64  `json:"remaining"`
}

type MaterialRequestResponseDTO struct {
	ID                uint64 `json:"id"`
	OrderKind         string `json:"order_kind"`
	OrderID           uint64 `json:"order_id"`
	ApplicationNumber string `json:"application_number,omitempty"`
	MaterialID        uint64 `json:"material_id"`
	MaterialName      string `json:"material_name"`
	TechnicianID      uint64 `json:"technician_id"`
	TechnicianFIO     string `json:"technician_fio,omitempty"`
	Quantity          int64  `json:"quantity"`
	CreatedAt         string `json:"created_at"`
}

type MaterialRequestListResponseDTO struct {
	List       []MaterialRequestResponseDTO `json:"list"`
	TotalCount uint64                       `json:"total_count"`
}

type ConsumedLineDTO struct {
	MaterialName string `json:"material_name"`
	Quantity     int64  `json:"quantity"`
	Price        *int64 `json:"price,omitempty"`
}
