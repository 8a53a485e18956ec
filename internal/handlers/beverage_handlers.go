package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"barpos_backend/internal/services"
	"barpos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// BeverageHandler holds the beverage service.
type BeverageHandler struct {
	beverageService services.BeverageService
}

// NewBeverageHandler creates a new BeverageHandler.
func NewBeverageHandler(bs services.BeverageService) *BeverageHandler {
	return &BeverageHandler{beverageService: bs}
}

// CreateBeverage handles adding one beverage to an event's inventory.
func (h *BeverageHandler) CreateBeverage(c *gin.Context) {
	managerID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req services.CreateBeverageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "CreateBeverage: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	beverage, err := h.beverageService.CreateBeverage(managerID, req)
	if err != nil {
		h.respondBeverageError(c, err, "CreateBeverage")
		return
	}
	c.JSON(http.StatusCreated, beverage)
}

// CreateBeveragesBatch handles adding several beverages at once. Invalid lines
// are reported per index; valid lines are still created.
func (h *BeverageHandler) CreateBeveragesBatch(c *gin.Context) {
	managerID, ok := currentUserID(c)
	if !ok {
		return
	}
	var reqs []services.CreateBeverageRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		utils.LogError(err, "CreateBeveragesBatch: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	result, err := h.beverageService.CreateBeveragesBatch(managerID, reqs)
	if err != nil {
		h.respondBeverageError(c, err, "CreateBeveragesBatch")
		return
	}
	c.JSON(http.StatusCreated, result)
}

// GetBeveragesByEvent handles listing an event's inventory.
func (h *BeverageHandler) GetBeveragesByEvent(c *gin.Context) {
	managerID, ok := currentUserID(c)
	if !ok {
		return
	}
	eventID, err := strconv.ParseInt(c.Query("event_id"), 10, 64)
	if err != nil || eventID <= 0 {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid event_id format.", "event_id must be a positive integer"))
		return
	}

	beverages, svcErr := h.beverageService.GetBeveragesByEvent(managerID, eventID)
	if svcErr != nil {
		h.respondBeverageError(c, svcErr, "GetBeveragesByEvent")
		return
	}
	c.JSON(http.StatusOK, beverages)
}

// GetBeverageByID handles fetching one beverage.
func (h *BeverageHandler) GetBeverageByID(c *gin.Context) {
	managerID, ok := currentUserID(c)
	if !ok {
		return
	}
	beverageID, ok := pathID(c, "id")
	if !ok {
		return
	}

	beverage, err := h.beverageService.GetBeverageByID(managerID, beverageID)
	if err != nil {
		h.respondBeverageError(c, err, "GetBeverageByID")
		return
	}
	c.JSON(http.StatusOK, beverage)
}

// RestockBeverage handles adding stock to an existing beverage. The route is
// restricted to the Admin role by middleware.
func (h *BeverageHandler) RestockBeverage(c *gin.Context) {
	managerID, ok := currentUserID(c)
	if !ok {
		return
	}
	beverageID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Quantity int `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "RestockBeverage: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	beverage, err := h.beverageService.RestockBeverage(managerID, beverageID, req.Quantity)
	if err != nil {
		utils.LogError(err, "RestockBeverage: Error from beverageService.RestockBeverage")
		if errors.Is(err, services.ErrBeverageNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Beverage not found.", err.Error()))
		} else if errors.Is(err, services.ErrInvalidQuantity) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Restock quantity must be greater than zero.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to restock beverage.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, beverage)
}

// DeleteBeverage handles removing a beverage from an event's inventory.
func (h *BeverageHandler) DeleteBeverage(c *gin.Context) {
	managerID, ok := currentUserID(c)
	if !ok {
		return
	}
	beverageID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.beverageService.DeleteBeverage(managerID, beverageID); err != nil {
		h.respondBeverageError(c, err, "DeleteBeverage")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *BeverageHandler) respondBeverageError(c *gin.Context, err error, op string) {
	utils.LogError(err, op+": Error from beverageService")
	if errors.Is(err, services.ErrBeverageNotFound) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Beverage not found.", err.Error()))
	} else if errors.Is(err, services.ErrEventNotFound) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Event not found.", err.Error()))
	} else if errors.Is(err, services.ErrValidation) || errors.Is(err, services.ErrInvalidCategory) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid beverage data.", err.Error()))
	} else {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to process beverage request.", "Internal error"))
	}
}
