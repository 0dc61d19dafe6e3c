package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"connect-system/internal/dto"
	"connect-system/internal/services"
	"connect-system/pkg/utils"
)

var reportHeaders = []interface{}{
	"ID", "Номер заявки", "Статус", "Клиент", "Роль исполнителя", "Исполнитель",
	"Регион", "Адрес", "Тариф", "Абонент", "Телефон", "Описание", "Диагноз",
	"Материалы", "Оценка", "Создана", "Обновлена",
}

// sheetNames - человекочитаемые названия листов по видам заявок.
var sheetNames = map[string]string{
	"connection": "Подключение",
	"technician": "Техобслуживание",
	"staff":      "От сотрудников",
}

type ReportController struct {
	reportService services.ReportServiceInterface
	logger        *zap.Logger
}

func NewReportController(reportService services.ReportServiceInterface, logger *zap.Logger) *ReportController {
	return &ReportController{reportService: reportService, logger: logger}
}

func (c *ReportController) GetOrdersReport(ctx echo.Context) error {
	actorID, err := utils.GetUserIDFromCtx(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	report, err := c.reportService.GetOrdersReport(ctx.Request().Context(), actorID)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if ctx.QueryParam("format") == "xlsx" {
		return c.respondWithXLSX(ctx, report)
	}
	return utils.SuccessResponse(ctx, report, "Отчёт по заявкам получен", http.StatusOK)
}

func rowToSlice(item dto.OrderResponseDTO) []interface{} {
	assignee := ""
	if item.AssigneeID != nil {
		assignee = fmt.Sprintf("%d", *item.AssigneeID)
	}
	rating := ""
	if item.Rating != nil {
		rating = fmt.Sprintf("%d", *item.Rating)
	}
	return []interface{}{
		item.ID, item.ApplicationNumber, item.Status, item.ClientID,
		utils.SafeDeref(item.AssigneeRole), assignee,
		utils.SafeDeref(item.Region), utils.SafeDeref(item.Address), utils.SafeDeref(item.Tariff),
		utils.SafeDeref(item.AbonentID), utils.SafeDeref(item.Phone), utils.SafeDeref(item.Description),
		utils.SafeDeref(item.Diagnostics), utils.SafeDeref(item.ConsumedSummary), rating,
		item.CreatedAt, item.UpdatedAt,
	}
}

func (c *ReportController) respondWithXLSX(ctx echo.Context, report map[string][]dto.OrderResponseDTO) error {
	f := excelize.NewFile()
	style, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})

	first := true
	for kind, orders := range report {
		sheet, ok := sheetNames[kind]
		if !ok {
			sheet = kind
		}
		if first {
			f.SetSheetName("Sheet1", sheet)
			first = false
		} else {
			f.NewSheet(sheet)
		}

		f.SetSheetRow(sheet, "A1", &reportHeaders)
		f.SetCellStyle(sheet, "A1", "Q1", style)

		for i, item := range orders {
			cell, _ := excelize.CoordinatesToCellName(1, i+2)
			row := rowToSlice(item)
			f.SetSheetRow(sheet, cell, &row)
		}
		f.SetColWidth(sheet, "B", "B", 18)
		f.SetColWidth(sheet, "G", "H", 25)
		f.SetColWidth(sheet, "L", "N", 40)
	}

	fileName := fmt.Sprintf("orders_report_%s.xlsx", time.Now().Format("2006-01-02"))
	ctx.Response().Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Response().Header().Set("Content-Disposition", "attachment; filename="+fileName)
	ctx.Response().WriteHeader(http.StatusOK)
	return f.Write(ctx.Response().Writer)
}
