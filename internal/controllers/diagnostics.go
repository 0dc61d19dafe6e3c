package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"connect-system/internal/dto"
	"connect-system/internal/services"
	"connect-system/pkg/utils"
)

type DiagnosticsController struct {
	diagnosticsService services.DiagnosticsServiceInterface
	logger             *zap.Logger
}

func NewDiagnosticsController(diagnosticsService services.DiagnosticsServiceInterface, logger *zap.Logger) *DiagnosticsController {
	return &DiagnosticsController{diagnosticsService: diagnosticsService, logger: logger}
}

func (c *DiagnosticsController) BeginDraft(ctx echo.Context) error {
	actorID, err := utils.GetUserIDFromCtx(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	ref, err := parseOrderRef(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var d dto.DiagnosticsDraftDTO
	if err := ctx.Bind(&d); err != nil {
		return utils.ErrorResponse(ctx, echo.NewHTTPError(http.StatusBadRequest, "Неверное тело запроса"), c.logger)
	}
	if err := ctx.Validate(&d); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.diagnosticsService.BeginDraft(ctx.Request().Context(), actorID, ref, d.Text)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Черновик диагноза начат", http.StatusCreated)
}

func (c *DiagnosticsController) UpdateDraft(ctx echo.Context) error {
	actorID, err := utils.GetUserIDFromCtx(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var d dto.DiagnosticsDraftDTO
	if err := ctx.Bind(&d); err != nil {
		return utils.ErrorResponse(ctx, echo.NewHTTPError(http.StatusBadRequest, "Неверное тело запроса"), c.logger)
	}
	if err := ctx.Validate(&d); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.diagnosticsService.UpdateDraft(ctx.Request().Context(), actorID, d.Text)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Черновик диагноза обновлён", http.StatusOK)
}

func (c *DiagnosticsController) GetDraft(ctx echo.Context) error {
	actorID, err := utils.GetUserIDFromCtx(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.diagnosticsService.GetDraft(ctx.Request().Context(), actorID)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Черновик диагноза получен", http.StatusOK)
}

func (c *DiagnosticsController) ConfirmDraft(ctx echo.Context) error {
	actorID, err := utils.GetUserIDFromCtx(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.diagnosticsService.ConfirmDraft(ctx.Request().Context(), actorID)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Диагноз сохранён в заявке", http.StatusOK)
}

func (c *DiagnosticsController) DiscardDraft(ctx echo.Context) error {
	actorID, err := utils.GetUserIDFromCtx(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := c.diagnosticsService.DiscardDraft(ctx.Request().Context(), actorID); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Черновик диагноза удалён", http.StatusOK)
}
