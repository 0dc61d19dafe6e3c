package routes

import (
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"connect-system/internal/controllers"
	"connect-system/internal/listeners"
	"connect-system/internal/repositories"
	"connect-system/internal/services"
	"connect-system/internal/session"
	"connect-system/pkg/config"
	"connect-system/pkg/eventbus"
	"connect-system/pkg/middleware"
	"connect-system/pkg/service"
	"connect-system/pkg/telegram"
)

// InitRouter собирает весь граф зависимостей и навешивает маршруты.
func InitRouter(
	e *echo.Echo,
	dbConn *pgxpool.Pool,
	redisClient *redis.Client,
	jwtSvc service.JWTService,
	logger *zap.Logger,
	cfg *config.Config,
) error {
	api := e.Group("/api")
	authMW := middleware.NewAuthMiddleware(jwtSvc, logger)

	// --- ИНФРАСТРУКТУРА ---
	bus := eventbus.New(logger)
	cacheRepo := repositories.NewRedisCacheRepository(redisClient)
	sessionStore := session.NewStore(cacheRepo, logger, cfg.Session.InboxTTL, cfg.Session.DraftTTL)
	telegramService := telegram.NewService(cfg.Telegram.BotToken)

	// --- РЕПОЗИТОРИИ ---
	userRepo := repositories.NewUserRepository(dbConn, logger)
	orderRepo := repositories.NewOrderRepository(dbConn, logger)
	materialRepo := repositories.NewMaterialRepository(dbConn, logger)

	// --- СЕРВИСЫ ---
	routingService, err := services.NewRoutingService(orderRepo, userRepo, materialRepo, bus, logger)
	if err != nil {
		return err
	}
	orderService := services.NewOrderService(orderRepo, userRepo, sessionStore, logger)
	inventoryService := services.NewInventoryService(materialRepo, orderRepo, userRepo, routingService, bus, logger)
	inboxService := services.NewInboxService(orderRepo, userRepo, sessionStore, logger)
	diagnosticsService := services.NewDiagnosticsService(orderRepo, userRepo, sessionStore, logger)
	docGenerator := services.NewFileDocumentGenerator(cfg.Documents.Dir, logger)
	completionService := services.NewCompletionService(routingService, orderRepo, materialRepo, docGenerator, bus, logger)
	reportService := services.NewReportService(orderRepo, userRepo, logger)
	authService := services.NewAuthService(userRepo, jwtSvc, logger)

	// --- СЛУШАТЕЛИ ---
	notificationListener := listeners.NewNotificationListener(telegramService, userRepo, logger)
	notificationListener.Register(bus)

	// --- КОНТРОЛЛЕРЫ ---
	authCtrl := controllers.NewAuthController(authService, logger)
	orderCtrl := controllers.NewOrderController(orderService, routingService, completionService, logger)
	inboxCtrl := controllers.NewInboxController(inboxService, logger)
	materialCtrl := controllers.NewMaterialController(inventoryService, logger)
	diagnosticsCtrl := controllers.NewDiagnosticsController(diagnosticsService, logger)
	reportCtrl := controllers.NewReportController(reportService, logger)

	// --- МАРШРУТЫ ---
	api.POST("/auth/login", authCtrl.Login)
	api.POST("/auth/refresh", authCtrl.Refresh)

	orders := api.Group("/orders", authMW.Auth)
	orders.POST("/connection", orderCtrl.CreateConnectionOrder)
	orders.POST("/technician", orderCtrl.CreateTechnicianOrder)
	orders.POST("/staff", orderCtrl.CreateStaffOrder)
	orders.GET("/my", orderCtrl.ListMyOrders)
	orders.GET("/:kind/:id", orderCtrl.FindOrder)

	orders.POST("/:kind/:id/route", orderCtrl.RouteToController)
	orders.POST("/:kind/:id/assign", orderCtrl.AssignTechnician)
	orders.POST("/:kind/:id/accept", orderCtrl.Accept)
	orders.POST("/:kind/:id/start", orderCtrl.StartWork)
	orders.POST("/:kind/:id/fulfill", orderCtrl.ConfirmFulfillment)
	orders.POST("/:kind/:id/finish", orderCtrl.Finish)
	orders.POST("/:kind/:id/cancel", orderCtrl.Cancel)
	orders.POST("/:kind/:id/rate", orderCtrl.RateOrder)
	orders.PUT("/:kind/:id/notes", orderCtrl.SetControllerNotes)
	orders.POST("/:kind/:id/jm-note", orderCtrl.BeginJMNote)
	orders.PUT("/jm-note", orderCtrl.UpdateJMNote)
	orders.POST("/jm-note/confirm", orderCtrl.ConfirmJMNote)

	orders.POST("/:kind/:id/materials", materialCtrl.RequestFromWarehouse)
	orders.GET("/:kind/:id/materials", materialCtrl.ConsumedMaterials)

	orders.POST("/:kind/:id/diagnostics", diagnosticsCtrl.BeginDraft)

	inbox := api.Group("/inbox", authMW.Auth)
	inbox.POST("/open", inboxCtrl.Open)
	inbox.GET("/:category", inboxCtrl.Current)
	inbox.POST("/:category/next", inboxCtrl.Next)
	inbox.POST("/:category/prev", inboxCtrl.Prev)
	inbox.POST("/:category/orders/:kind/:id/applied", inboxCtrl.ApplyTransition)
	inbox.DELETE("/:category", inboxCtrl.Close)

	diagnostics := api.Group("/diagnostics", authMW.Auth)
	diagnostics.GET("/draft", diagnosticsCtrl.GetDraft)
	diagnostics.PUT("/draft", diagnosticsCtrl.UpdateDraft)
	diagnostics.POST("/draft/confirm", diagnosticsCtrl.ConfirmDraft)
	diagnostics.DELETE("/draft", diagnosticsCtrl.DiscardDraft)

	materials := api.Group("/materials", authMW.Auth)
	materials.GET("", materialCtrl.GetMaterials)
	materials.GET("/allotments", materialCtrl.GetMyAllotments)
	materials.PUT("/allotments", materialCtrl.SetAllotment)
	materials.GET("/allotments/:id", materialCtrl.GetTechnicianAllotments)

	warehouse := api.Group("/warehouse", authMW.Auth)
	warehouse.GET("/requests", materialCtrl.ListRequests)
	warehouse.GET("/requests/counts", materialCtrl.CountRequests)

	api.GET("/reports/orders", reportCtrl.GetOrdersReport, authMW.Auth)

	logger.Info("маршруты собраны")
	return nil
}
