package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"barpos_backend/internal/models"
	"barpos_backend/internal/repositories"
	"barpos_backend/pkg/utils"

	"github.com/lib/pq"
)

// Custom Errors
var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrBeverageNotFound  = errors.New("beverage not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrChargeContention  = errors.New("charge aborted after repeated transaction conflicts, retry the request")
)

// maxChargeAttempts bounds retries of a charge transaction rejected purely due
// to a concurrent conflicting write (serialization failure / deadlock). A
// business-rule failure is never retried.
const maxChargeAttempts = 3

// --- Data Transfer Objects (DTOs) ---

// ChargeItemRequest is one cart line. Unit price and name are snapshotted from
// the beverage inside the charge transaction, never trusted from the client.
type ChargeItemRequest struct {
	BeverageID int64 `json:"beverage_id" binding:"required"`
	Quantity   int   `json:"quantity" binding:"required,gt=0"`
}

// ChargeOrderRequest is used for charging a cart against one event.
type ChargeOrderRequest struct {
	EventID         int64               `json:"event_id" binding:"required"`
	TableID         *int64              `json:"table_id"`
	ClientRequestID *string             `json:"client_request_id"`
	Items           []ChargeItemRequest `json:"items" binding:"required,dive"`
}

// ChargeResult is the outcome of a successful (or replayed) charge.
type ChargeResult struct {
	Order          *models.Order `json:"order"`
	BudgetExceeded bool          `json:"budget_exceeded"`
	Replayed       bool          `json:"replayed"`
}

// --- OrderService Interface ---

type OrderService interface {
	// ChargeOrder atomically validates stock across the whole cart, decrements
	// it, accumulates event spend and persists one immutable order record.
	// When TableID is set, the table is closed in the same transaction.
	ChargeOrder(managerID int64, req ChargeOrderRequest) (*ChargeResult, error)
	GetOrders(managerID int64, filters models.OrderFilters) ([]models.Order, int, error)
	GetOrderByID(managerID, orderID int64) (*models.Order, error)
}

// --- orderService Implementation ---

type orderService struct {
	orderRepo    repositories.OrderRepository
	eventRepo    repositories.EventRepository
	beverageRepo repositories.BeverageRepository
	tableRepo    repositories.TableRepository
	db           *sql.DB // For managing transactions
}

// NewOrderService creates a new instance of OrderService.
func NewOrderService(
	or repositories.OrderRepository,
	er repositories.EventRepository,
	br repositories.BeverageRepository,
	tr repositories.TableRepository,
	db *sql.DB,
) OrderService {
	return &orderService{
		orderRepo:    or,
		eventRepo:    er,
		beverageRepo: br,
		tableRepo:    tr,
		db:           db,
	}
}

func (s *orderService) ChargeOrder(managerID int64, req ChargeOrderRequest) (*ChargeResult, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyCart
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity for beverage ID %d must be positive", ErrValidation, item.BeverageID)
		}
	}

	var lastErr error
	for attempt := 1; attempt <= maxChargeAttempts; attempt++ {
		result, err := s.chargeOnce(managerID, req)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, repositories.ErrDuplicateKey) && req.ClientRequestID != nil {
			// A concurrent request with the same idempotency key won the race;
			// surface its order instead of failing.
			return s.replayCharge(managerID, *req.ClientRequestID)
		}
		if !isRetryableTxError(err) {
			return nil, err
		}
		lastErr = err
		utils.LogWarn("Charge transaction conflicted, retrying", map[string]interface{}{
			"event_id": req.EventID,
			"attempt":  attempt,
		})
	}
	return nil, fmt.Errorf("%w: %v", ErrChargeContention, lastErr)
}

// chargeOnce runs one attempt of the two-phase charge: read-and-validate, then
// write, all inside a single serializable transaction.
func (s *orderService) chargeOnce(managerID int64, req ChargeOrderRequest) (*ChargeResult, error) {
	tx, err := s.db.BeginTx(context.Background(), &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	// Replayed idempotency key: return the committed order, write nothing.
	if req.ClientRequestID != nil && *req.ClientRequestID != "" {
		existing, repoErr := s.orderRepo.GetOrderByClientRequestID(tx, managerID, *req.ClientRequestID)
		if repoErr == nil {
			return &ChargeResult{Order: existing, Replayed: true}, nil
		}
		if !errors.Is(repoErr, repositories.ErrNotFound) {
			return nil, fmt.Errorf("failed to check idempotency key: %w", repoErr)
		}
	}

	// Read phase. Lock order: event, then table, then beverages in ascending
	// ID order, so concurrent charges acquire row locks deterministically.
	event, repoErr := s.eventRepo.GetEventForUpdate(tx, req.EventID, managerID)
	if repoErr != nil {
		if errors.Is(repoErr, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: event ID %d", ErrEventNotFound, req.EventID)
		}
		return nil, fmt.Errorf("failed to read event %d: %w", req.EventID, repoErr)
	}

	var table *models.BarTable
	if req.TableID != nil {
		table, repoErr = s.tableRepo.GetTableForUpdate(tx, *req.TableID, managerID)
		if repoErr != nil {
			if errors.Is(repoErr, repositories.ErrNotFound) {
				return nil, fmt.Errorf("%w: table ID %d", ErrTableNotFound, *req.TableID)
			}
			return nil, fmt.Errorf("failed to read table %d: %w", *req.TableID, repoErr)
		}
		if !table.IsOpen {
			return nil, fmt.Errorf("%w: table %s", ErrTableClosed, table.TableNumber)
		}
		if table.EventID != req.EventID {
			return nil, fmt.Errorf("%w: table %s belongs to a different event", ErrValidation, table.TableNumber)
		}
	}

	requested := make(map[int64]int)
	for _, item := range req.Items {
		requested[item.BeverageID] += item.Quantity
	}
	beverageIDs := make([]int64, 0, len(requested))
	for id := range requested {
		beverageIDs = append(beverageIDs, id)
	}
	sort.Slice(beverageIDs, func(i, j int) bool { return beverageIDs[i] < beverageIDs[j] })

	snapshots := make(map[int64]*models.Beverage, len(beverageIDs))
	for _, id := range beverageIDs {
		beverage, repoErr := s.beverageRepo.GetBeverageForUpdate(tx, id, managerID)
		if repoErr != nil {
			if errors.Is(repoErr, repositories.ErrNotFound) {
				return nil, fmt.Errorf("%w: beverage ID %d", ErrBeverageNotFound, id)
			}
			return nil, fmt.Errorf("failed to read beverage %d: %w", id, repoErr)
		}
		if beverage.EventID != req.EventID {
			return nil, fmt.Errorf("%w: beverage %q (ID: %d) belongs to a different event", ErrValidation, beverage.Name, id)
		}
		snapshots[id] = beverage
	}

	// Validate phase. The first violation aborts the whole cart.
	for _, id := range beverageIDs {
		beverage := snapshots[id]
		if beverage.CurrentStock < requested[id] {
			return nil, fmt.Errorf("%w for %q (ID: %d): available %d, requested %d",
				ErrInsufficientStock, beverage.Name, id, beverage.CurrentStock, requested[id])
		}
	}

	var orderTotal float64
	orderItems := make([]models.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		beverage := snapshots[item.BeverageID]
		lineTotal := beverage.Price * float64(item.Quantity)
		orderTotal += lineTotal
		orderItems = append(orderItems, models.OrderItem{
			BeverageID:   beverage.ID,
			Name:         beverage.Name,
			Quantity:     item.Quantity,
			PricePerUnit: beverage.Price,
			TotalPrice:   lineTotal,
		})
	}

	newSpend := event.CurrentSpend + orderTotal
	budgetExceeded := newSpend > event.Budget
	if budgetExceeded {
		// Budget is advisory, not a spending cap: warn, never block.
		utils.LogWarn("Charge exceeds event budget", map[string]interface{}{
			"event_id":  event.ID,
			"budget":    event.Budget,
			"new_spend": newSpend,
		})
	}

	// Write phase.
	for _, id := range beverageIDs {
		if repoErr := s.beverageRepo.DecrementStock(tx, id, requested[id]); repoErr != nil {
			if errors.Is(repoErr, repositories.ErrStockConflict) {
				beverage := snapshots[id]
				return nil, fmt.Errorf("%w for %q (ID: %d): available %d, requested %d",
					ErrInsufficientStock, beverage.Name, id, beverage.CurrentStock, requested[id])
			}
			return nil, fmt.Errorf("failed to decrement stock for beverage %d: %w", id, repoErr)
		}
	}

	if repoErr := s.eventRepo.UpdateSpend(tx, event.ID, newSpend); repoErr != nil {
		return nil, fmt.Errorf("failed to update spend for event %d: %w", event.ID, repoErr)
	}

	order := models.Order{
		EventID:         req.EventID,
		TableID:         req.TableID,
		EventManagerID:  managerID,
		ClientRequestID: req.ClientRequestID,
		OrderTime:       time.Now(),
		TotalAmount:     orderTotal,
	}
	orderID, repoErr := s.orderRepo.CreateOrder(tx, &order)
	if repoErr != nil {
		return nil, repoErr
	}
	for i := range orderItems {
		orderItems[i].OrderID = orderID
		if _, repoErr := s.orderRepo.CreateOrderItem(tx, &orderItems[i]); repoErr != nil {
			return nil, fmt.Errorf("failed to create order item (beverage ID %d): %w", orderItems[i].BeverageID, repoErr)
		}
	}
	order.Items = orderItems

	if table != nil {
		if repoErr := s.tableRepo.CloseTable(tx, table.ID, orderTotal); repoErr != nil {
			return nil, fmt.Errorf("failed to close table %d: %w", table.ID, repoErr)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit charge transaction: %w", err)
	}

	return &ChargeResult{Order: &order, BudgetExceeded: budgetExceeded}, nil
}

// replayCharge resolves an idempotency-key collision by returning the order
// the winning request committed.
func (s *orderService) replayCharge(managerID int64, clientRequestID string) (*ChargeResult, error) {
	existing, err := s.orderRepo.GetOrderByClientRequestID(s.db, managerID, clientRequestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load replayed order: %w", err)
	}
	return &ChargeResult{Order: existing, Replayed: true}, nil
}

func (s *orderService) GetOrders(managerID int64, filters models.OrderFilters) ([]models.Order, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 {
		filters.PageSize = 20
	}
	orders, totalCount, err := s.orderRepo.GetOrders(managerID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get orders: %w", err)
	}
	return orders, totalCount, nil
}

func (s *orderService) GetOrderByID(managerID, orderID int64) (*models.Order, error) {
	order, err := s.orderRepo.GetOrderByID(orderID, managerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order by ID: %w", err)
	}
	return order, nil
}

// isRetryableTxError reports whether the error is a storage-level contention
// signal (serialization failure or deadlock) rather than a business failure.
func isRetryableTxError(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "40001" || pqErr.Code == "40P01"
	}
	return false
}
