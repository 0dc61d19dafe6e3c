package controllers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"connect-system/internal/dto"
	"connect-system/internal/entities"
	"connect-system/internal/services"
	"connect-system/pkg/utils"
)

type MaterialController struct {
	inventoryService services.InventoryServiceInterface
	logger           *zap.Logger
}

func NewMaterialController(inventoryService services.InventoryServiceInterface, logger *zap.Logger) *MaterialController {
	return &MaterialController{inventoryService: inventoryService, logger: logger}
}

func (c *MaterialController) GetMaterials(ctx echo.Context) error {
	limit, offset, _ := utils.ParsePaginationParams(ctx.Request().URL.Query())
	res, err := c.inventoryService.GetMaterials(ctx.Request().Context(), limit, offset)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Каталог материалов получен", http.StatusOK)
}

// GetMyAllotments - остатки лимитов текущего техника.
func (c *MaterialController) GetMyAllotments(ctx echo.Context) error {
	actorID, err := utils.GetUserIDFromCtx(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.inventoryService.RemainingAllotments(ctx.Request().Context(), actorID)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Лимиты получены", http.StatusOK)
}

// RequestFromWarehouse - резерв материала техником под заявку.
func (c *MaterialController) RequestFromWarehouse(ctx echo.Context) error {
	actorID, err := utils.GetUserIDFromCtx(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	ref, err := parseOrderRef(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var d dto.ReserveMaterialDTO
	if err := ctx.Bind(&d); err != nil {
		return utils.ErrorResponse(ctx, echo.NewHTTPError(http.StatusBadRequest, "Неверное тело запроса"), c.logger)
	}
	if err := ctx.Validate(&d); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.inventoryService.RequestFromWarehouse(ctx.Request().Context(), ref, actorID, d)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Материал зарезервирован", http.StatusCreated)
}

// ListRequests - просмотр резервов складом, по видам заявок.
func (c *MaterialController) ListRequests(ctx echo.Context) error {
	kind := entities.OrderKind(ctx.QueryParam("kind"))
	if !kind.Valid() {
		return utils.ErrorResponse(ctx, echo.NewHTTPError(http.StatusBadRequest, "Неверный вид заявки"), c.logger)
	}
	limit, offset, _ := utils.ParsePaginationParams(ctx.Request().URL.Query())
	res, err := c.inventoryService.ListRequests(ctx.Request().Context(), kind, limit, offset)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Резервы получены", http.StatusOK)
}

func (c *MaterialController) CountRequests(ctx echo.Context) error {
	res, err := c.inventoryService.CountRequestsByKind(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Счётчики резервов получены", http.StatusOK)
}

func (c *MaterialController) ConsumedMaterials(ctx echo.Context) error {
	ref, err := parseOrderRef(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.inventoryService.ConsumedMaterials(ctx.Request().Context(), ref)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Расход материалов получен", http.StatusOK)
}

type setAllotmentDTO struct {
	TechnicianID uint64 `json:"technician_id" validate:"required,gt=0"`
	MaterialID   uint64 `json:"material_id" validate:"required,gt=0"`
	Quantity     int64  `json:"quantity" validate:"gte=0"`
}

func (c *MaterialController) SetAllotment(ctx echo.Context) error {
	actorID, err := utils.GetUserIDFromCtx(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var d setAllotmentDTO
	if err := ctx.Bind(&d); err != nil {
		return utils.ErrorResponse(ctx, echo.NewHTTPError(http.StatusBadRequest, "Неверное тело запроса"), c.logger)
	}
	if err := ctx.Validate(&d); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := c.inventoryService.SetAllotment(ctx.Request().Context(), actorID, d.TechnicianID, d.MaterialID, d.Quantity); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Лимит техника установлен", http.StatusOK)
}

// GetTechnicianAllotments - остатки лимитов произвольного техника (для склада).
func (c *MaterialController) GetTechnicianAllotments(ctx echo.Context) error {
	technicianID, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil || technicianID == 0 {
		return utils.ErrorResponse(ctx, echo.NewHTTPError(http.StatusBadRequest, "Неверный формат ID техника"), c.logger)
	}
	res, err := c.inventoryService.RemainingAllotments(ctx.Request().Context(), technicianID)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Лимиты техника получены", http.StatusOK)
}
