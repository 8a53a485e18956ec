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

// EventHandler holds the event service.
type EventHandler struct {
	eventService services.EventService
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(es services.EventService) *EventHandler {
	return &EventHandler{eventService: es}
}

// CreateEvent handles creation of a new event.
func (h *EventHandler) CreateEvent(c *gin.Context) {
	managerID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req services.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "CreateEvent: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	event, err := h.eventService.CreateEvent(managerID, req)
	if err != nil {
		utils.LogError(err, "CreateEvent: Error from eventService.CreateEvent")
		if errors.Is(err, services.ErrValidation) || errors.Is(err, services.ErrInvalidBudget) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid event data.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to create event.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, event)
}

// GetEvents handles fetching the caller's events with optional filters.
func (h *EventHandler) GetEvents(c *gin.Context) {
	managerID, ok := currentUserID(c)
	if !ok {
		return
	}

	var filters models.EventFilters
	if isActiveStr := c.Query("is_active"); isActiveStr != "" {
		isActive, err := strconv.ParseBool(isActiveStr)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid is_active format.", "is_active must be true or false"))
			return
		}
		filters.IsActive = &isActive
	}
	if pageStr := c.Query("page"); pageStr != "" {
		page, err := strconv.Atoi(pageStr)
		if err != nil || page <= 0 {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid page format.", "page must be a positive integer"))
			return
		}
		filters.Page = page
	}
	if pageSizeStr := c.Query("page_size"); pageSizeStr != "" {
		pageSize, err := strconv.Atoi(pageSizeStr)
		if err != nil || pageSize <= 0 {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid page_size format.", "page_size must be a positive integer"))
			return
		}
		filters.PageSize = pageSize
	}

	events, totalCount, err := h.eventService.GetEvents(managerID, filters)
	if err != nil {
		utils.LogError(err, "GetEvents: Error from eventService.GetEvents")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch events.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":  events,
		"total": totalCount,
	})
}

// GetEventByID handles fetching one event.
func (h *EventHandler) GetEventByID(c *gin.Context) {
	managerID, ok := currentUserID(c)
	if !ok {
		return
	}
	eventID, ok := pathID(c, "id")
	if !ok {
		return
	}

	event, err := h.eventService.GetEventByID(managerID, eventID)
	if err != nil {
		h.respondEventError(c, err, "GetEventByID")
		return
	}
	c.JSON(http.StatusOK, event)
}

// UpdateEvent handles partial updates of an event's descriptive fields.
func (h *EventHandler) UpdateEvent(c *gin.Context) {
	managerID, ok := currentUserID(c)
	if !ok {
		return
	}
	eventID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "UpdateEvent: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	event, err := h.eventService.UpdateEvent(managerID, eventID, req)
	if err != nil {
		h.respondEventError(c, err, "UpdateEvent")
		return
	}
	c.JSON(http.StatusOK, event)
}

// SetEventActive handles activating or deactivating an event.
func (h *EventHandler) SetEventActive(c *gin.Context) {
	managerID, ok := currentUserID(c)
	if !ok {
		return
	}
	eventID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		IsActive *bool `json:"is_active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "SetEventActive: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	event, err := h.eventService.SetEventActive(managerID, eventID, *req.IsActive)
	if err != nil {
		h.respondEventError(c, err, "SetEventActive")
		return
	}
	c.JSON(http.StatusOK, event)
}

// UpdateBudget handles replacing an event's budget.
func (h *EventHandler) UpdateBudget(c *gin.Context) {
	managerID, ok := currentUserID(c)
	if !ok {
		return
	}
	eventID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.UpdateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "UpdateBudget: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	event, err := h.eventService.UpdateBudget(managerID, eventID, req.Budget)
	if err != nil {
		utils.LogError(err, "UpdateBudget: Error from eventService.UpdateBudget")
		if errors.Is(err, services.ErrEventNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Event not found.", err.Error()))
		} else if errors.Is(err, services.ErrInvalidBudget) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Budget must be greater than zero.", err.Error()))
		} else if errors.Is(err, services.ErrBudgetBelowSpend) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Budget cannot be less than current spend.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to update budget.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, event)
}

// GetBudgetStatus handles fetching the budget position of one event.
func (h *EventHandler) GetBudgetStatus(c *gin.Context) {
	managerID, ok := currentUserID(c)
	if !ok {
		return
	}
	eventID, ok := pathID(c, "id")
	if !ok {
		return
	}

	status, err := h.eventService.GetBudgetStatus(managerID, eventID)
	if err != nil {
		h.respondEventError(c, err, "GetBudgetStatus")
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *EventHandler) respondEventError(c *gin.Context, err error, op string) {
	utils.LogError(err, op+": Error from eventService")
	if errors.Is(err, services.ErrEventNotFound) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Event not found.", err.Error()))
	} else if errors.Is(err, services.ErrValidation) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid event data.", err.Error()))
	} else {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to process event request.", "Internal error"))
	}
}
