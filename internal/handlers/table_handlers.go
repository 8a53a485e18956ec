package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"barpos_backend/internal/services"
	"barpos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// TableHandler holds the table service.
type TableHandler struct {
	tableService services.TableService
}

// NewTableHandler creates a new TableHandler.
func NewTableHandler(ts services.TableService) *TableHandler {
	return &TableHandler{tableService: ts}
}

// CreateTable handles opening a new tab on an event.
func (h *TableHandler) CreateTable(c *gin.Context) {
	managerID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req services.CreateTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "CreateTable: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	table, err := h.tableService.CreateTable(managerID, req)
	if err != nil {
		utils.LogError(err, "CreateTable: Error from tableService.CreateTable")
		if errors.Is(err, services.ErrDuplicateTable) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Table number already exists for this event.", err.Error()))
		} else if errors.Is(err, services.ErrEventNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Event not found.", err.Error()))
		} else if errors.Is(err, services.ErrValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid table data.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to create table.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, table)
}

// GetTables handles listing the tabs of one event.
func (h *TableHandler) GetTables(c *gin.Context) {
	managerID, ok := currentUserID(c)
	if !ok {
		return
	}
	eventID, err := strconv.ParseInt(c.Query("event_id"), 10, 64)
	if err != nil || eventID <= 0 {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid event_id format.", "event_id must be a positive integer"))
		return
	}

	tables, svcErr := h.tableService.GetTablesByEvent(managerID, eventID)
	if svcErr != nil {
		utils.LogError(svcErr, "GetTables: Error from tableService.GetTablesByEvent")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch tables.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, tables)
}

// GetTableByID handles fetching one tab with its draft items.
func (h *TableHandler) GetTableByID(c *gin.Context) {
	managerID, ok := currentUserID(c)
	if !ok {
		return
	}
	tableID, ok := pathID(c, "id")
	if !ok {
		return
	}

	table, err := h.tableService.GetTableByID(managerID, tableID)
	if err != nil {
		h.respondTableError(c, err, "GetTableByID")
		return
	}
	c.JSON(http.StatusOK, table)
}

// SaveDraft handles replacing a tab's draft cart. No stock or spend changes
// occur until the tab is charged.
func (h *TableHandler) SaveDraft(c *gin.Context) {
	managerID, ok := currentUserID(c)
	if !ok {
		return
	}
	tableID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.SaveDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "SaveDraft: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	table, err := h.tableService.SaveDraft(managerID, tableID, req)
	if err != nil {
		utils.LogError(err, "SaveDraft: Error from tableService.SaveDraft")
		if errors.Is(err, services.ErrTableNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Table not found.", err.Error()))
		} else if errors.Is(err, services.ErrBeverageNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "One or more beverages not found.", err.Error()))
		} else if errors.Is(err, services.ErrTableClosed) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Table is already closed.", err.Error()))
		} else if errors.Is(err, services.ErrValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid draft data.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to save draft.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, table)
}

// ChargeTable handles charging a tab's draft and closing it atomically.
func (h *TableHandler) ChargeTable(c *gin.Context) {
	managerID, ok := currentUserID(c)
	if !ok {
		return
	}
	tableID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		ClientRequestID *string `json:"client_request_id"`
	}
	// Body is optional; an empty body charges without an idempotency key.
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.LogError(err, "ChargeTable: Failed to bind JSON")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
			return
		}
	}

	result, err := h.tableService.ChargeAndClose(managerID, tableID, req.ClientRequestID)
	if err != nil {
		respondChargeError(c, err, "ChargeTable")
		return
	}
	if result.Replayed {
		c.JSON(http.StatusOK, result)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// DeleteTable handles removing an empty tab.
func (h *TableHandler) DeleteTable(c *gin.Context) {
	managerID, ok := currentUserID(c)
	if !ok {
		return
	}
	tableID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.tableService.DeleteTable(managerID, tableID); err != nil {
		utils.LogError(err, "DeleteTable: Error from tableService.DeleteTable")
		if errors.Is(err, services.ErrTableNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Table not found.", err.Error()))
		} else if errors.Is(err, services.ErrTableHasHistory) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Table has recorded activity and cannot be deleted.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to delete table.", "Internal error"))
		}
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TableHandler) respondTableError(c *gin.Context, err error, op string) {
	utils.LogError(err, op+": Error from tableService")
	if errors.Is(err, services.ErrTableNotFound) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Table not found.", err.Error()))
	} else {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to process table request.", "Internal error"))
	}
}
