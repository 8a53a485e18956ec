package router

import (
	"barpos_backend/internal/handlers"
	"barpos_backend/internal/middleware"
	"barpos_backend/internal/models"

	"github.com/gin-gonic/gin"
)

// SetupEventRoutes sets up the event routes.
func SetupEventRoutes(authenticatedGroup *gin.RouterGroup, eventHandler *handlers.EventHandler) {
	eventRoutes := authenticatedGroup.Group("/events")
	{
		eventRoutes.POST("", eventHandler.CreateEvent)
		eventRoutes.GET("", eventHandler.GetEvents)
		eventRoutes.GET("/:id", eventHandler.GetEventByID)
		eventRoutes.PUT("/:id", eventHandler.UpdateEvent)
		eventRoutes.PATCH("/:id/active", eventHandler.SetEventActive)
		eventRoutes.PATCH("/:id/budget", eventHandler.UpdateBudget)
		eventRoutes.GET("/:id/budget", eventHandler.GetBudgetStatus)
	}
}

// SetupBeverageRoutes sets up the beverage inventory routes. Restocking is
// limited to the Admin role.
func SetupBeverageRoutes(authenticatedGroup *gin.RouterGroup, beverageHandler *handlers.BeverageHandler) {
	beverageRoutes := authenticatedGroup.Group("/beverages")
	{
		beverageRoutes.POST("", beverageHandler.CreateBeverage)
		beverageRoutes.POST("/batch", beverageHandler.CreateBeveragesBatch)
		beverageRoutes.GET("", beverageHandler.GetBeveragesByEvent)
		beverageRoutes.GET("/:id", beverageHandler.GetBeverageByID)
		beverageRoutes.DELETE("/:id", beverageHandler.DeleteBeverage)

		beverageRoutes.POST("/:id/restock",
			middleware.RoleAuthMiddleware(models.RoleAdmin),
			beverageHandler.RestockBeverage)
	}
}

// SetupOrderRoutes sets up the order routes.
func SetupOrderRoutes(authenticatedGroup *gin.RouterGroup, orderHandler *handlers.OrderHandler) {
	orderRoutes := authenticatedGroup.Group("/orders")
	{
		orderRoutes.POST("", orderHandler.ChargeOrder)
		orderRoutes.GET("", orderHandler.GetOrders)
		orderRoutes.GET("/:id", orderHandler.GetOrderByID)
	}
}

// SetupTableRoutes sets up the table (tab) routes.
func SetupTableRoutes(authenticatedGroup *gin.RouterGroup, tableHandler *handlers.TableHandler) {
	tableRoutes := authenticatedGroup.Group("/tables")
	{
		tableRoutes.POST("", tableHandler.CreateTable)
		tableRoutes.GET("", tableHandler.GetTables)
		tableRoutes.GET("/:id", tableHandler.GetTableByID)
		tableRoutes.PUT("/:id/items", tableHandler.SaveDraft)
		tableRoutes.POST("/:id/charge", tableHandler.ChargeTable)
		tableRoutes.DELETE("/:id", tableHandler.DeleteTable)
	}
}

// SetupReportRoutes sets up the audit and report routes.
func SetupReportRoutes(authenticatedGroup *gin.RouterGroup, reportHandler *handlers.ReportHandler) {
	auditRoutes := authenticatedGroup.Group("/audits")
	{
		auditRoutes.POST("", reportHandler.RecordAudit)
		auditRoutes.POST("/batch", reportHandler.RecordAuditBatch)
	}

	reportRoutes := authenticatedGroup.Group("/reports")
	{
		reportRoutes.GET("/sales/:event_id", reportHandler.GetEventSalesReport)
	}
}
