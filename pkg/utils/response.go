package utils

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "connect-system/pkg/errors"
)

type HttpResponse struct {
	Status  bool        `json:"status"`
	Body    interface{} `json:"body,omitempty"`
	Message string      `json:"message"`
}

// errorStatusList - соответствие ошибок домена HTTP-кодам.
// Ожидаемые отказы workflow получают свои коды, чтобы презентационный слой
// мог различить "кто-то уже действовал" / "нет права" / "не хватает остатка".
var errorStatusList = map[error]int{
	apperrors.ErrStatusMismatch:    http.StatusConflict,
	apperrors.ErrRoleNotAuthorized: http.StatusForbidden,
	apperrors.ErrInsufficientStock: http.StatusUnprocessableEntity,
	apperrors.ErrAllotmentExceeded: http.StatusUnprocessableEntity,

	apperrors.ErrOrderNotFound:    http.StatusNotFound,
	apperrors.ErrMaterialNotFound: http.StatusNotFound,
	apperrors.ErrUserNotFound:     http.StatusNotFound,
	apperrors.ErrSessionNotFound:  http.StatusNotFound,
	apperrors.ErrDraftNotFound:    http.StatusNotFound,
	apperrors.ErrInvalidQuantity:  http.StatusBadRequest,
	apperrors.ErrOrderNotComplete: http.StatusBadRequest,

	apperrors.ErrEmptyAuthHeader:    http.StatusUnauthorized,
	apperrors.ErrInvalidAuthHeader:  http.StatusUnauthorized,
	apperrors.ErrInvalidToken:       http.StatusUnauthorized,
	apperrors.ErrTokenExpired:       http.StatusUnauthorized,
	apperrors.ErrTokenIsNotAccess:   http.StatusUnauthorized,
	apperrors.ErrInvalidCredentials: http.StatusUnauthorized,
	apperrors.ErrUserBlocked:        http.StatusForbidden,
	apperrors.ErrForbidden:          http.StatusForbidden,
}

func SuccessResponse(ctx echo.Context, body interface{}, message string, code int) error {
	return ctx.JSON(code, &HttpResponse{
		Status:  true,
		Body:    body,
		Message: message,
	})
}

func ErrorResponse(ctx echo.Context, err error, logger *zap.Logger) error {
	message := err.Error()
	code := http.StatusInternalServerError

	for known, statusCode := range errorStatusList {
		if errors.Is(err, known) {
			message = known.Error()
			code = statusCode
			break
		}
	}

	var invalidInput *apperrors.InvalidInputError
	if errors.As(err, &invalidInput) {
		message = invalidInput.Message
		code = http.StatusBadRequest
	}

	// Неожиданные ошибки пишем в лог; ожидаемые отказы workflow - нет.
	if code == http.StatusInternalServerError && logger != nil {
		logger.Error("внутренняя ошибка при обработке запроса",
			zap.String("uri", ctx.Request().RequestURI),
			zap.Error(err),
		)
		message = "Внутренняя ошибка сервера"
	}

	return ctx.JSON(code, &HttpResponse{
		Status:  false,
		Body:    struct{}{},
		Message: message,
	})
}
