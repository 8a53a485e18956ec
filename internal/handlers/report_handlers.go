package handlers

import (
	"errors"
	"net/http"

	"barpos_backend/internal/services"
	"barpos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ReportHandler holds the report service.
type ReportHandler struct {
	reportService services.ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(rs services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: rs}
}

// RecordAudit handles recording one manually counted stock figure.
func (h *ReportHandler) RecordAudit(c *gin.Context) {
	managerID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req services.AuditEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "RecordAudit: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	beverage, err := h.reportService.RecordAudit(managerID, req.BeverageID, req.CountedStock)
	if err != nil {
		utils.LogError(err, "RecordAudit: Error from reportService.RecordAudit")
		if errors.Is(err, services.ErrBeverageNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Beverage not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to record audit.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, beverage)
}

// RecordAuditBatch handles recording several counted figures at once. Entries
// that cannot be applied are skipped and reported, never failing the batch.
func (h *ReportHandler) RecordAuditBatch(c *gin.Context) {
	managerID, ok := currentUserID(c)
	if !ok {
		return
	}
	var entries []services.AuditEntryRequest
	if err := c.ShouldBindJSON(&entries); err != nil {
		utils.LogError(err, "RecordAuditBatch: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	result, err := h.reportService.RecordAuditBatch(managerID, entries)
	if err != nil {
		utils.LogError(err, "RecordAuditBatch: Error from reportService.RecordAuditBatch")
		if errors.Is(err, services.ErrValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid audit batch.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to record audit batch.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetEventSalesReport handles building the derived sales report for one event.
func (h *ReportHandler) GetEventSalesReport(c *gin.Context) {
	managerID, ok := currentUserID(c)
	if !ok {
		return
	}
	eventID, ok := pathID(c, "event_id")
	if !ok {
		return
	}

	report, err := h.reportService.GetEventSalesReport(managerID, eventID)
	if err != nil {
		utils.LogError(err, "GetEventSalesReport: Error from reportService.GetEventSalesReport")
		if errors.Is(err, services.ErrEventNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Event not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to build sales report.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, report)
}
