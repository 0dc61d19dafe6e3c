package entities

import (
	"time"

	"github.com/aarondl/null/v8"
)

// Material - позиция каталога материалов со складским остатком.
type Material struct {
	ID            uint64      `json:"id"`
	Name          string      `json:"name"`
	Price         null.Int64  `json:"price"`
	Description   null.String `json:"description"`
	StockQuantity int64       `json:"stock_quantity"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// Allotment - персональный лимит техника по материалу. Сколько единиц
// техник ещё вправе зарезервировать сверх уже израсходованного.
type Allotment struct {
	TechnicianID uint64 `json:"technician_id"`
	MaterialID   uint64 `json:"material_id"`
	Quantity     int64  `json:"quantity"`
}

// MaterialRequest - зарезервированные под заявку материалы. Повторный
// резерв той же позиции той же заявкой накапливает количество.
type MaterialRequest struct {
	ID           uint64    `json:"id"`
	OrderKind    OrderKind `json:"order_kind"`
	OrderID      uint64    `json:"order_id"`
	MaterialID   uint64    `json:"material_id"`
	TechnicianID uint64    `json:"technician_id"`
	Quantity     int64     `json:"quantity"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ConsumedLine - строка сводки израсходованных материалов при завершении.
type ConsumedLine struct {
	MaterialName string     `json:"material_name"`
	Quantity     int64      `json:"quantity"`
	Price        null.Int64 `json:"price"`
}
