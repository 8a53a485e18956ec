package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"barpos_backend/internal/models"
	"barpos_backend/internal/repositories"
)

// --- Data Transfer Objects (DTOs) ---

// AuditEntryRequest records one manually counted stock figure.
type AuditEntryRequest struct {
	BeverageID   int64 `json:"beverage_id" binding:"required"`
	CountedStock int   `json:"counted_stock"`
}

// SkippedAudit reports one batch entry that could not be applied.
type SkippedAudit struct {
	BeverageID int64  `json:"beverage_id"`
	Reason     string `json:"reason"`
}

// AuditBatchResult is the outcome of a batch audit: applied count plus the
// skipped entries. A bad entry never fails the batch.
type AuditBatchResult struct {
	Updated int            `json:"updated"`
	Skipped []SkippedAudit `json:"skipped"`
}

// BeverageReportLine is one row of the post-event sales report. Sold quantity
// and revenue are recomputed from orders and beverages, never stored.
type BeverageReportLine struct {
	BeverageID    int64      `json:"beverage_id"`
	Name          string     `json:"name"`
	Category      string     `json:"category"`
	InitialStock  int        `json:"initial_stock"`
	CurrentStock  int        `json:"current_stock"`
	SoldQuantity  int        `json:"sold_quantity"`
	Revenue       float64    `json:"revenue"`
	AuditedStock  *int       `json:"audited_stock,omitempty"`
	Variance      *int       `json:"variance,omitempty"` // auditedStock - currentStock
	LastAuditedAt *time.Time `json:"last_audited_at,omitempty"`
}

// EventSalesReport is the derived read model for one event.
type EventSalesReport struct {
	EventID      int64                `json:"event_id"`
	EventName    string               `json:"event_name"`
	Budget       float64              `json:"budget"`
	CurrentSpend float64              `json:"current_spend"`
	TotalSold    int                  `json:"total_sold"`
	TotalRevenue float64              `json:"total_revenue"`
	Beverages    []BeverageReportLine `json:"beverages"`
}

// --- ReportService Interface ---

type ReportService interface {
	// RecordAudit persists a manually counted stock beside the system stock.
	// Negative counts clamp to zero; currentStock is never touched.
	RecordAudit(managerID, beverageID int64, countedStock int) (*models.Beverage, error)
	RecordAuditBatch(managerID int64, entries []AuditEntryRequest) (*AuditBatchResult, error)
	GetEventSalesReport(managerID, eventID int64) (*EventSalesReport, error)
}

// --- reportService Implementation ---

type reportService struct {
	beverageRepo repositories.BeverageRepository
	eventRepo    repositories.EventRepository
	orderRepo    repositories.OrderRepository
	db           *sql.DB
}

// NewReportService creates a new instance of ReportService.
func NewReportService(
	br repositories.BeverageRepository,
	er repositories.EventRepository,
	or repositories.OrderRepository,
	db *sql.DB,
) ReportService {
	return &reportService{beverageRepo: br, eventRepo: er, orderRepo: or, db: db}
}

// clampCount coerces a manual count to a non-negative integer. A negative
// count is stored as zero rather than rejected.
func clampCount(counted int) int {
	if counted < 0 {
		return 0
	}
	return counted
}

func (s *reportService) RecordAudit(managerID, beverageID int64, countedStock int) (*models.Beverage, error) {
	counted := clampCount(countedStock)
	if err := s.beverageRepo.UpdateAudit(s.db, beverageID, managerID, counted, time.Now()); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: beverage ID %d", ErrBeverageNotFound, beverageID)
		}
		return nil, fmt.Errorf("failed to record audit for beverage %d: %w", beverageID, err)
	}
	beverage, err := s.beverageRepo.GetBeverageByID(beverageID, managerID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload beverage %d after audit: %w", beverageID, err)
	}
	return beverage, nil
}

func (s *reportService) RecordAuditBatch(managerID int64, entries []AuditEntryRequest) (*AuditBatchResult, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: audit batch cannot be empty", ErrValidation)
	}
	result := &AuditBatchResult{Skipped: []SkippedAudit{}}
	auditedAt := time.Now()
	for _, entry := range entries {
		if entry.BeverageID <= 0 {
			result.Skipped = append(result.Skipped, SkippedAudit{BeverageID: entry.BeverageID, Reason: "invalid beverage id"})
			continue
		}
		err := s.beverageRepo.UpdateAudit(s.db, entry.BeverageID, managerID, clampCount(entry.CountedStock), auditedAt)
		if err != nil {
			reason := "database error"
			if errors.Is(err, repositories.ErrNotFound) {
				reason = "beverage not found"
			}
			result.Skipped = append(result.Skipped, SkippedAudit{BeverageID: entry.BeverageID, Reason: reason})
			continue
		}
		result.Updated++
	}
	return result, nil
}

func (s *reportService) GetEventSalesReport(managerID, eventID int64) (*EventSalesReport, error) {
	event, err := s.eventRepo.GetEventByID(eventID, managerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to read event %d: %w", eventID, err)
	}
	beverages, err := s.beverageRepo.GetBeveragesByEvent(eventID, managerID)
	if err != nil {
		return nil, fmt.Errorf("failed to read beverages for event %d: %w", eventID, err)
	}
	sales, err := s.orderRepo.GetBeverageSales(eventID, managerID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate sales for event %d: %w", eventID, err)
	}
	salesByBeverage := make(map[int64]models.BeverageSales, len(sales))
	for _, s := range sales {
		salesByBeverage[s.BeverageID] = s
	}

	report := &EventSalesReport{
		EventID:      event.ID,
		EventName:    event.Name,
		Budget:       event.Budget,
		CurrentSpend: event.CurrentSpend,
		Beverages:    make([]BeverageReportLine, 0, len(beverages)),
	}
	for _, b := range beverages {
		line := BeverageReportLine{
			BeverageID:    b.ID,
			Name:          b.Name,
			Category:      b.Category,
			InitialStock:  b.InitialStock,
			CurrentStock:  b.CurrentStock,
			SoldQuantity:  b.InitialStock - b.CurrentStock,
			AuditedStock:  b.AuditedStock,
			LastAuditedAt: b.LastAuditedAt,
		}
		if s, ok := salesByBeverage[b.ID]; ok {
			line.Revenue = s.Revenue
		}
		if b.AuditedStock != nil {
			variance := *b.AuditedStock - b.CurrentStock
			line.Variance = &variance
		}
		report.TotalSold += line.SoldQuantity
		report.TotalRevenue += line.Revenue
		report.Beverages = append(report.Beverages, line)
	}
	return report, nil
}
