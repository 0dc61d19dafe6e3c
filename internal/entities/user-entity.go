package entities

import (
	"time"

	"github.com/aarondl/null/v8"
)

// User - участник процесса: клиент или сотрудник с одной из служебных ролей.
type User struct {
	ID           uint64      `json:"id"`
	TelegramID   null.Int64  `json:"telegram_id"`
	FIO          string      `json:"fio"`
	Phone        null.String `json:"phone"`
	Role         string      `json:"role"`
	Language     string      `json:"language"`
	PasswordHash null.String `json:"-"`
	IsBlocked    bool        `json:"is_blocked"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}
