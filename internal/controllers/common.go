package controllers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"connect-system/internal/entities"
)

// parseOrderRef извлекает вид и ID заявки из параметров пути.
func parseOrderRef(ctx echo.Context) (entities.OrderRef, error) {
	kind := entities.OrderKind(ctx.Param("kind"))
	if !kind.Valid() {
		return entities.OrderRef{}, echo.NewHTTPError(http.StatusBadRequest, "Неверный вид заявки")
	}
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return entities.OrderRef{}, echo.NewHTTPError(http.StatusBadRequest, "Неверный формат ID заявки")
	}
	return entities.OrderRef{Kind: kind, ID: id}, nil
}
