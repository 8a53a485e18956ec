package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"barpos_backend/internal/models"
	"barpos_backend/internal/repositories"
)

// Custom Errors
var (
	ErrTableNotFound   = errors.New("table not found")
	ErrDuplicateTable  = errors.New("table number already exists for this event")
	ErrTableClosed     = errors.New("table is closed")
	ErrTableHasHistory = errors.New("table has recorded items or a non-zero total and cannot be deleted")
)

// --- Data Transfer Objects (DTOs) ---

// CreateTableRequest is used for opening a new tab.
type CreateTableRequest struct {
	EventID     int64  `json:"event_id" binding:"required"`
	TableNumber string `json:"table_number" binding:"required"`
}

// DraftItemRequest is one draft cart line being saved on an open table.
type DraftItemRequest struct {
	BeverageID int64 `json:"beverage_id" binding:"required"`
	Quantity   int   `json:"quantity" binding:"required,gt=0"`
}

// SaveDraftRequest replaces a table's draft cart. Saving has no stock or
// spend effect.
type SaveDraftRequest struct {
	Items []DraftItemRequest `json:"items" binding:"dive"`
}

// --- TableService Interface ---

type TableService interface {
	CreateTable(managerID int64, req CreateTableRequest) (*models.BarTable, error)
	GetTablesByEvent(managerID, eventID int64) ([]models.BarTable, error)
	GetTableByID(managerID, tableID int64) (*models.BarTable, error)
	SaveDraft(managerID, tableID int64, req SaveDraftRequest) (*models.BarTable, error)

	// ChargeAndClose charges the table's current draft through the order
	// processor and closes the tab in the same transaction. On failure the
	// table stays open with its draft unchanged.
	ChargeAndClose(managerID, tableID int64, clientRequestID *string) (*ChargeResult, error)
	DeleteTable(managerID, tableID int64) error
}

// --- tableService Implementation ---

type tableService struct {
	tableRepo    repositories.TableRepository
	beverageRepo repositories.BeverageRepository
	eventRepo    repositories.EventRepository
	orderService OrderService
	db           *sql.DB
}

// NewTableService creates a new instance of TableService.
func NewTableService(
	tr repositories.TableRepository,
	br repositories.BeverageRepository,
	er repositories.EventRepository,
	os OrderService,
	db *sql.DB,
) TableService {
	return &tableService{
		tableRepo:    tr,
		beverageRepo: br,
		eventRepo:    er,
		orderService: os,
		db:           db,
	}
}

func (s *tableService) CreateTable(managerID int64, req CreateTableRequest) (*models.BarTable, error) {
	tableNumber := strings.TrimSpace(req.TableNumber)
	if tableNumber == "" {
		return nil, fmt.Errorf("%w: table number cannot be empty", ErrValidation)
	}
	if _, err := s.eventRepo.GetEventByID(req.EventID, managerID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: event ID %d", ErrEventNotFound, req.EventID)
		}
		return nil, fmt.Errorf("failed to verify event %d: %w", req.EventID, err)
	}

	table := models.BarTable{
		EventID:        req.EventID,
		EventManagerID: managerID,
		TableNumber:    tableNumber,
		IsOpen:         true,
		TotalAmount:    0,
		Items:          []models.TableItem{},
	}
	if _, err := s.tableRepo.CreateTable(s.db, &table); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: table %s on event %d", ErrDuplicateTable, tableNumber, req.EventID)
		}
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	return &table, nil
}

func (s *tableService) GetTablesByEvent(managerID, eventID int64) ([]models.BarTable, error) {
	tables, err := s.tableRepo.GetTablesByEvent(eventID, managerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tables for event %d: %w", eventID, err)
	}
	return tables, nil
}

func (s *tableService) GetTableByID(managerID, tableID int64) (*models.BarTable, error) {
	table, err := s.tableRepo.GetTableByID(tableID, managerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: table ID %d", ErrTableNotFound, tableID)
		}
		return nil, fmt.Errorf("failed to get table by ID: %w", err)
	}
	return table, nil
}

func (s *tableService) SaveDraft(managerID, tableID int64, req SaveDraftRequest) (*models.BarTable, error) {
	table, err := s.GetTableByID(managerID, tableID)
	if err != nil {
		return nil, err
	}
	if !table.IsOpen {
		return nil, fmt.Errorf("%w: table %s cannot accept draft edits", ErrTableClosed, table.TableNumber)
	}

	// Snapshot name and price for display; the charge re-reads both inside
	// its own transaction.
	var total float64
	items := make([]models.TableItem, 0, len(req.Items))
	for _, line := range req.Items {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity for beverage ID %d must be positive", ErrValidation, line.BeverageID)
		}
		beverage, err := s.beverageRepo.GetBeverageByID(line.BeverageID, managerID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, fmt.Errorf("%w: beverage ID %d", ErrBeverageNotFound, line.BeverageID)
			}
			return nil, fmt.Errorf("failed to read beverage %d: %w", line.BeverageID, err)
		}
		if beverage.EventID != table.EventID {
			return nil, fmt.Errorf("%w: beverage %q (ID: %d) belongs to a different event",
				ErrValidation, beverage.Name, beverage.ID)
		}
		items = append(items, models.TableItem{
			TableID:      tableID,
			BeverageID:   beverage.ID,
			Name:         beverage.Name,
			Quantity:     line.Quantity,
			PricePerUnit: beverage.Price,
		})
		total += beverage.Price * float64(line.Quantity)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.tableRepo.ReplaceDraftItems(tx, tableID, items); err != nil {
		return nil, fmt.Errorf("failed to save draft: %w", err)
	}
	if err := s.tableRepo.UpdateTableTotal(tx, tableID, total); err != nil {
		return nil, fmt.Errorf("failed to update table total: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit draft save: %w", err)
	}

	return s.GetTableByID(managerID, tableID)
}

func (s *tableService) ChargeAndClose(managerID, tableID int64, clientRequestID *string) (*ChargeResult, error) {
	table, err := s.GetTableByID(managerID, tableID)
	if err != nil {
		return nil, err
	}
	if !table.IsOpen {
		return nil, fmt.Errorf("%w: table %s has already been charged", ErrTableClosed, table.TableNumber)
	}
	if len(table.Items) == 0 {
		return nil, fmt.Errorf("%w: table %s has no draft items to charge", ErrEmptyCart, table.TableNumber)
	}

	chargeItems := make([]ChargeItemRequest, 0, len(table.Items))
	for _, item := range table.Items {
		chargeItems = append(chargeItems, ChargeItemRequest{BeverageID: item.BeverageID, Quantity: item.Quantity})
	}
	return s.orderService.ChargeOrder(managerID, ChargeOrderRequest{
		EventID:         table.EventID,
		TableID:         &table.ID,
		ClientRequestID: clientRequestID,
		Items:           chargeItems,
	})
}

func (s *tableService) DeleteTable(managerID, tableID int64) error {
	table, err := s.GetTableByID(managerID, tableID)
	if err != nil {
		return err
	}
	// Conservative audit-trail guard: a table that ever recorded items or a
	// total keeps its row.
	if len(table.Items) > 0 || table.TotalAmount != 0 {
		return fmt.Errorf("%w: table %s", ErrTableHasHistory, table.TableNumber)
	}
	if err := s.tableRepo.DeleteTable(s.db, tableID, managerID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: table ID %d", ErrTableNotFound, tableID)
		}
		return fmt.Errorf("failed to delete table %d: %w", tableID, err)
	}
	return nil
}
