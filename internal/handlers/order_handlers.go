package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"barpos_backend/internal/models"
	"barpos_backend/internal/services"
	"barpos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// OrderHandler holds the order service.
type OrderHandler struct {
	orderService services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(os services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: os}
}

// ChargeOrder handles charging a cart: stock decrement, spend accumulation and
// the immutable order record happen in one transaction. A replayed idempotency
// key responds 200 with the original order; a fresh charge responds 201.
func (h *OrderHandler) ChargeOrder(c *gin.Context) {
	managerID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req services.ChargeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "ChargeOrder: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	result, err := h.orderService.ChargeOrder(managerID, req)
	if err != nil {
		respondChargeError(c, err, "ChargeOrder")
		return
	}
	if result.Replayed {
		c.JSON(http.StatusOK, result)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// GetOrders handles fetching the order history with filters.
func (h *OrderHandler) GetOrders(c *gin.Context) {
	managerID, ok := currentUserID(c)
	if !ok {
		return
	}

	var filters models.OrderFilters
	if eventIDStr := c.Query("event_id"); eventIDStr != "" {
		eventID, err := strconv.ParseInt(eventIDStr, 10, 64)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid event_id format.", err.Error()))
			return
		}
		filters.EventID = &eventID
	}
	if tableIDStr := c.Query("table_id"); tableIDStr != "" {
		tableID, err := strconv.ParseInt(tableIDStr, 10, 64)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid table_id format.", err.Error()))
			return
		}
		filters.TableID = &tableID
	}
	if date := c.Query("date"); date != "" {
		filters.Date = &date
	}
	if pageStr := c.Query("page"); pageStr != "" {
		page, err := strconv.Atoi(pageStr)
		if err != nil || page <= 0 {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid page format.", "page must be a positive integer"))
			return
		}
		filters.Page = page
	} else {
		filters.Page = 1
	}
	if pageSizeStr := c.Query("page_size"); pageSizeStr != "" {
		pageSize, err := strconv.Atoi(pageSizeStr)
		if err != nil || pageSize <= 0 {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid page_size format.", "page_size must be a positive integer"))
			return
		}
		filters.PageSize = pageSize
	} else {
		filters.PageSize = 10
	}

	orders, totalCount, err := h.orderService.GetOrders(managerID, filters)
	if err != nil {
		utils.LogError(err, "GetOrders: Error from orderService.GetOrders")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch orders.", "Internal error"))
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      orders,
		"total":     totalCount,
		"page":      filters.Page,
		"page_size": filters.PageSize,
	})
}

// GetOrderByID handles fetching one order with its items.
func (h *OrderHandler) GetOrderByID(c *gin.Context) {
	managerID, ok := currentUserID(c)
	if !ok {
		return
	}
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	order, err := h.orderService.GetOrderByID(managerID, orderID)
	if err != nil {
		utils.LogError(err, "GetOrderByID: Error from orderService.GetOrderByID")
		if errors.Is(err, services.ErrOrderNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Order not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch order.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, order)
}

// respondChargeError maps charge failures onto the API error taxonomy. Shared
// with the table charge endpoint.
func respondChargeError(c *gin.Context, err error, op string) {
	utils.LogError(err, op+": Error from orderService.ChargeOrder")
	switch {
	case errors.Is(err, services.ErrEventNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Event not found.", err.Error()))
	case errors.Is(err, services.ErrBeverageNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "One or more beverages not found.", err.Error()))
	case errors.Is(err, services.ErrTableNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Table not found.", err.Error()))
	case errors.Is(err, services.ErrInsufficientStock):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Insufficient stock for one or more items.", err.Error()))
	case errors.Is(err, services.ErrTableClosed):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Table is already closed.", err.Error()))
	case errors.Is(err, services.ErrEmptyCart):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Cart is empty.", err.Error()))
	case errors.Is(err, services.ErrValidation):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid charge request.", err.Error()))
	case errors.Is(err, services.ErrChargeContention):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Charge conflicted with concurrent requests, please retry.", err.Error()))
	default:
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to charge order.", "Internal error"))
	}
}
