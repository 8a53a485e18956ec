package router

import (
	"database/sql"

	"barpos_backend/internal/handlers"
	"barpos_backend/internal/middleware"
	"barpos_backend/internal/repositories"
	"barpos_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, db *sql.DB) {
	// Initialize Repositories
	authRepo := repositories.NewAuthRepository(db)
	eventRepo := repositories.NewEventRepository(db)
	beverageRepo := repositories.NewBeverageRepository(db)
	tableRepo := repositories.NewTableRepository(db)
	orderRepo := repositories.NewOrderRepository(db)

	// Initialize Services
	authService := services.NewAuthService(authRepo, db)
	eventService := services.NewEventService(eventRepo, db)
	beverageService := services.NewBeverageService(beverageRepo, eventRepo, db)
	orderService := services.NewOrderService(orderRepo, eventRepo, beverageRepo, tableRepo, db)
	tableService := services.NewTableService(tableRepo, beverageRepo, eventRepo, orderService, db)
	reportService := services.NewReportService(beverageRepo, eventRepo, orderRepo, db)

	// Initialize Handlers
	authHandler := handlers.NewAuthHandler(authService)
	eventHandler := handlers.NewEventHandler(eventService)
	beverageHandler := handlers.NewBeverageHandler(beverageService)
	orderHandler := handlers.NewOrderHandler(orderService)
	tableHandler := handlers.NewTableHandler(tableService)
	reportHandler := handlers.NewReportHandler(reportService)

	apiV1 := engine.Group("/api/v1")

	// Public authentication routes
	SetupPublicAuthRoutes(apiV1.Group("/auth"), authHandler)

	// Authenticated routes
	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware())
	{
		SetupAuthenticatedAuthRoutes(authenticated.Group("/auth"), authHandler)

		SetupEventRoutes(authenticated, eventHandler)
		SetupBeverageRoutes(authenticated, beverageHandler)
		SetupOrderRoutes(authenticated, orderHandler)
		SetupTableRoutes(authenticated, tableHandler)
		SetupReportRoutes(authenticated, reportHandler)
	}
}

// SetupPublicAuthRoutes registers the unauthenticated auth endpoints.
func SetupPublicAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.POST("/register", authHandler.RegisterUser)
	group.POST("/login", authHandler.LoginUser)
	group.POST("/refresh-token", authHandler.RefreshToken)
}

// SetupAuthenticatedAuthRoutes registers the auth endpoints that require a token.
func SetupAuthenticatedAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.POST("/logout", authHandler.LogoutUser)
	group.GET("/me", authHandler.GetCurrentUser)
}
