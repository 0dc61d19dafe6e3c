package entities

import (
	"time"

	"github.com/aarondl/null/v8"
)

// OrderKind - вид заявки. Определяет словарь статусов, таблицу переходов
// и набор полей, допустимых для заявки.
type OrderKind string

const (
	KindConnection OrderKind = "connection"
	KindTechnician OrderKind = "technician"
	KindStaff      OrderKind = "staff"
)

var AllKinds = []OrderKind{KindConnection, KindTechnician, KindStaff}

func (k OrderKind) Valid() bool {
	switch k {
	case KindConnection, KindTechnician, KindStaff:
		return true
	}
	return false
}

// Table возвращает имя таблицы, в которой живут заявки данного вида.
func (k OrderKind) Table() string {
	switch k {
	case KindTechnician:
		return "technician_orders"
	case KindStaff:
		return "staff_orders"
	default:
		return "connection_orders"
	}
}

// OrderRef - полный идентификатор заявки: ID уникален только внутри вида.
type OrderRef struct {
	Kind OrderKind `json:"kind"`
	ID   uint64    `json:"id"`
}

// OrderCore - общая "шапка" всех трёх видов заявок.
type OrderCore struct {
	ID                uint64      `json:"id"`
	ApplicationNumber string      `json:"application_number"`
	Kind              OrderKind   `json:"kind"`
	Status            string      `json:"status"`
	AssigneeRole      null.String `json:"assignee_role"`
	AssigneeID        null.Uint64 `json:"assignee_id"`
	ClientID          uint64      `json:"client_id"`
	Notes             null.String `json:"notes"`
	JMNotes           null.String `json:"jm_notes"`
	ConsumedSummary   null.String `json:"consumed_summary"`
	Rating            null.Int    `json:"rating"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// ConnectionDetails - поля заявки на подключение.
type ConnectionDetails struct {
	Region  null.String `json:"region"`
	Address null.String `json:"address"`
	Tariff  null.String `json:"tariff"`
}

// TechnicianDetails - поля заявки на техобслуживание.
type TechnicianDetails struct {
	AbonentID   null.String `json:"abonent_id"`
	Region      null.String `json:"region"`
	Address     null.String `json:"address"`
	Description null.String `json:"description"`
	Diagnostics null.String `json:"diagnostics"`
}

// StaffDetails - поля заявки, созданной сотрудником от имени клиента.
type StaffDetails struct {
	Phone       null.String `json:"phone"`
	AbonentID   null.String `json:"abonent_id"`
	Region      null.String `json:"region"`
	Address     null.String `json:"address"`
	Description null.String `json:"description"`
	Diagnostics null.String `json:"diagnostics"`
}

// Order - размеченное объединение: шапка плюс ровно один из вариантов,
// соответствующий Kind. Поля чужого вида у заявки не существуют.
type Order struct {
	OrderCore
	Connection *ConnectionDetails `json:"connection,omitempty"`
	Technician *TechnicianDetails `json:"technician,omitempty"`
	Staff      *StaffDetails      `json:"staff,omitempty"`
}

func (o *Order) Ref() OrderRef {
	return OrderRef{Kind: o.Kind, ID: o.ID}
}

// SupportsDiagnostics: диагностика есть только у техобслуживания и заявок
// сотрудников; подключение её не предусматривает.
func (o *Order) SupportsDiagnostics() bool {
	return o.Kind == KindTechnician || o.Kind == KindStaff
}

func (o *Order) Diagnostics() null.String {
	switch o.Kind {
	case KindTechnician:
		if o.Technician != nil {
			return o.Technician.Diagnostics
		}
	case KindStaff:
		if o.Staff != nil {
			return o.Staff.Diagnostics
		}
	}
	return null.String{}
}

// Region/Address/Description - kind-независимые аксессоры для карточек inbox.
func (o *Order) Region() null.String {
	switch {
	case o.Connection != nil:
		return o.Connection.Region
	case o.Technician != nil:
		return o.Technician.Region
	case o.Staff != nil:
		return o.Staff.Region
	}
	return null.String{}
}

func (o *Order) Address() null.String {
	switch {
	case o.Connection != nil:
		return o.Connection.Address
	case o.Technician != nil:
		return o.Technician.Address
	case o.Staff != nil:
		return o.Staff.Address
	}
	return null.String{}
}

func (o *Order) Description() null.String {
	switch {
	case o.Technician != nil:
		return o.Technician.Description
	case o.Staff != nil:
		return o.Staff.Description
	}
	return null.String{}
}
