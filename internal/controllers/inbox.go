package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"connect-system/internal/dto"
	"connect-system/internal/services"
	"connect-system/pkg/utils"
)

type InboxController struct {
	inboxService services.InboxServiceInterface
	logger       *zap.Logger
}

func NewInboxController(inboxService services.InboxServiceInterface, logger *zap.Logger) *InboxController {
	return &InboxController{inboxService: inboxService, logger: logger}
}

// respondCard - общий ответ навигации: nil-карточка означает пустой список.
func (c *InboxController) respondCard(ctx echo.Context, card *dto.InboxCardDTO, message string) error {
	if card == nil {
		return utils.SuccessResponse(ctx, nil, "Список пуст", http.StatusOK)
	}
	return utils.SuccessResponse(ctx, card, message, http.StatusOK)
}

func (c *InboxController) Open(ctx echo.Context) error {
	actorID, err := utils.GetUserIDFromCtx(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var d dto.OpenInboxDTO
	if err := ctx.Bind(&d); err != nil {
		return utils.ErrorResponse(ctx, echo.NewHTTPError(http.StatusBadRequest, "Неверное тело запроса"), c.logger)
	}
	if err := ctx.Validate(&d); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	card, err := c.inboxService.Open(ctx.Request().Context(), actorID, d)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return c.respondCard(ctx, card, "Список открыт")
}

func (c *InboxController) Current(ctx echo.Context) error {
	actorID, err := utils.GetUserIDFromCtx(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	card, err := c.inboxService.Current(ctx.Request().Context(), actorID, ctx.Param("category"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return c.respondCard(ctx, card, "Текущая заявка")
}

func (c *InboxController) Next(ctx echo.Context) error {
	actorID, err := utils.GetUserIDFromCtx(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	card, err := c.inboxService.Next(ctx.Request().Context(), actorID, ctx.Param("category"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return c.respondCard(ctx, card, "Следующая заявка")
}

func (c *InboxController) Prev(ctx echo.Context) error {
	actorID, err := utils.GetUserIDFromCtx(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	card, err := c.inboxService.Prev(ctx.Request().Context(), actorID, ctx.Param("category"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return c.respondCard(ctx, card, "Предыдущая заявка")
}

// ApplyTransition согласует открытый список с только что выполненным
// переходом заявки (вызывается презентационным слоем после действия).
func (c *InboxController) ApplyTransition(ctx echo.Context) error {
	actorID, err := utils.GetUserIDFromCtx(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	ref, err := parseOrderRef(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var d struct {
		ToStatus string `json:"to_status" validate:"required"`
	}
	if err := ctx.Bind(&d); err != nil {
		return utils.ErrorResponse(ctx, echo.NewHTTPError(http.StatusBadRequest, "Неверное тело запроса"), c.logger)
	}
	if err := ctx.Validate(&d); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	card, err := c.inboxService.ApplyTransition(ctx.Request().Context(), actorID, ctx.Param("category"), ref, d.ToStatus)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return c.respondCard(ctx, card, "Список обновлён")
}

func (c *InboxController) Close(ctx echo.Context) error {
	actorID, err := utils.GetUserIDFromCtx(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := c.inboxService.Close(ctx.Request().Context(), actorID, ctx.Param("category")); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Список закрыт", http.StatusOK)
}
