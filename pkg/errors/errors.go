package errors

import "fmt"

// --- Ожидаемые отказы workflow ---
//
// Это НЕ ошибки в смысле потока управления: вызывающая сторона обязана
// показать пользователю нормальное сообщение ("кто-то уже взял заявку",
// "не хватает остатка") и продолжить работу. В лог как ошибки не пишутся.
var (
	ErrStatusMismatch    = fmt.Errorf("статус заявки уже изменился, действие не применено")
	ErrRoleNotAuthorized = fmt.Errorf("роль не имеет права на это действие")
	ErrInsufficientStock = fmt.Errorf("недостаточно материала на складе")
	ErrAllotmentExceeded = fmt.Errorf("превышен закреплённый за техником остаток")
)

// --- Нарушения целостности данных ---
var (
	ErrOrderNotFound    = fmt.Errorf("заявка не найдена")
	ErrMaterialNotFound = fmt.Errorf("материал не найден")
	ErrUserNotFound     = fmt.Errorf("пользователь не найден")
	ErrInvalidQuantity  = fmt.Errorf("количество должно быть целым числом больше нуля")
	ErrSessionNotFound  = fmt.Errorf("сессия не найдена или истекла")
	ErrDraftNotFound    = fmt.Errorf("черновик диагностики не найден")
	ErrOrderNotComplete = fmt.Errorf("заявка ещё не завершена")
)

// --- JWT и токены ---
var (
	ErrInvalidSigningMethod = fmt.Errorf("неверный метод подписи токена")
	ErrInvalidToken         = fmt.Errorf("недопустимый токен")
	ErrTokenExpired         = fmt.Errorf("срок действия токена истёк")
	ErrTokenNotYetValid     = fmt.Errorf("токен ещё не активен")
	ErrTokenIsNotAccess     = fmt.Errorf("ожидался access-токен")
)

// --- Авторизация ---
var (
	ErrEmptyAuthHeader    = fmt.Errorf("заголовок авторизации отсутствует")
	ErrInvalidAuthHeader  = fmt.Errorf("неверный формат заголовка авторизации")
	ErrInvalidCredentials = fmt.Errorf("неверные учётные данные")
	ErrUserBlocked        = fmt.Errorf("профиль заблокирован")
	ErrForbidden          = fmt.Errorf("доступ запрещён")
)

// Кастомные типы ошибок

type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string { return e.Message }

func NewInvalidInputError(format string, args ...interface{}) error {
	return &InvalidInputError{Message: fmt.Sprintf(format, args...)}
}
