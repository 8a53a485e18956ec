package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"barpos_backend/internal/models"

	"github.com/lib/pq"
)

// OrderRepository defines the interface for order-related database operations.
// Orders are immutable receipts: there are create and read methods only.
type OrderRepository interface {
	CreateOrder(executor SQLExecutor, order *models.Order) (int64, error)
	CreateOrderItem(executor SQLExecutor, item *models.OrderItem) (int64, error)
	GetOrderByID(orderID, managerID int64) (*models.Order, error)
	GetOrders(managerID int64, filters models.OrderFilters) ([]models.Order, int, error)
	GetOrderItemsByOrderID(orderID int64) ([]models.OrderItem, error)

	// GetOrderByClientRequestID looks up a previously committed charge by its
	// idempotency key. Returns ErrNotFound when no such charge exists.
	GetOrderByClientRequestID(executor SQLExecutor, managerID int64, clientRequestID string) (*models.Order, error)

	// GetBeverageSales aggregates sold quantity and revenue per beverage over
	// all order items of one event.
	GetBeverageSales(eventID, managerID int64) ([]models.BeverageSales, error)
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository.
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `id, event_id, table_id, event_manager_id, client_request_id, order_time, total_amount, created_at`

func (r *orderRepository) CreateOrder(executor SQLExecutor, order *models.Order) (int64, error) {
	query := `INSERT INTO orders
	            (event_id, table_id, event_manager_id, client_request_id, order_time, total_amount, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`
	if order.OrderTime.IsZero() {
		order.OrderTime = time.Now()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}

	err := executor.QueryRow(query,
		order.EventID, order.TableID, order.EventManagerID, order.ClientRequestID,
		order.OrderTime, order.TotalAmount, order.CreatedAt,
	).Scan(&order.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, fmt.Errorf("%w: order with this client request id already exists (constraint: %s)",
				ErrDuplicateKey, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating order: %w", ErrDatabaseError, err)
	}
	return order.ID, nil
}

func (r *orderRepository) CreateOrderItem(executor SQLExecutor, item *models.OrderItem) (int64, error) {
	query := `INSERT INTO order_items (order_id, beverage_id, name, quantity, price_per_unit, total_price)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`
	err := executor.QueryRow(query,
		item.OrderID, item.BeverageID, item.Name, item.Quantity, item.PricePerUnit, item.TotalPrice,
	).Scan(&item.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating order item (beverage ID %d): %w", ErrDatabaseError, item.BeverageID, err)
	}
	return item.ID, nil
}

func scanOrder(s interface{ Scan(...interface{}) error }, order *models.Order, extra ...interface{}) error {
	var tableID sql.NullInt64
	var clientRequestID sql.NullString

	dest := []interface{}{
		&order.ID, &order.EventID, &tableID, &order.EventManagerID, &clientRequestID,
		&order.OrderTime, &order.TotalAmount, &order.CreatedAt,
	}
	dest = append(dest, extra...)
	if err := s.Scan(dest...); err != nil {
		return err
	}
	if tableID.Valid {
		id := tableID.Int64
		order.TableID = &id
	}
	if clientRequestID.Valid {
		key := clientRequestID.String
		order.ClientRequestID = &key
	}
	return nil
}

func (r *orderRepository) GetOrderByID(orderID, managerID int64) (*models.Order, error) {
	order := &models.Order{}
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND event_manager_id = $2`
	err := scanOrder(r.db.QueryRow(query, orderID, managerID), order)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting order by ID %d: %w", ErrDatabaseError, orderID, err)
	}
	items, err := r.GetOrderItemsByOrderID(orderID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

func (r *orderRepository) GetOrders(managerID int64, filters models.OrderFilters) ([]models.Order, int, error) {
	orders := []models.Order{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + orderColumns + `, COUNT(*) OVER() AS total_count
	  FROM orders WHERE event_manager_id = $1`)

	args := []interface{}{managerID}
	argCount := 2

	if filters.EventID != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND event_id = $%d", argCount))
		args = append(args, *filters.EventID)
		argCount++
	}
	if filters.TableID != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND table_id = $%d", argCount))
		args = append(args, *filters.TableID)
		argCount++
	}
	if filters.Date != nil && *filters.Date != "" {
		parsedDate, err := time.Parse("2006-01-02", *filters.Date)
		if err == nil {
			startOfDay := time.Date(parsedDate.Year(), parsedDate.Month(), parsedDate.Day(), 0, 0, 0, 0, parsedDate.Location())
			endOfDay := startOfDay.AddDate(0, 0, 1).Add(-time.Nanosecond)
			queryBuilder.WriteString(fmt.Sprintf(" AND order_time BETWEEN $%d AND $%d", argCount, argCount+1))
			args = append(args, startOfDay, endOfDay)
			argCount += 2
		}
	}

	queryBuilder.WriteString(" ORDER BY order_time DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying orders: %w", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var order models.Order
		if err := scanOrder(rows, &order, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning order: %w", ErrDatabaseError, err)
		}
		orders = append(orders, order)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating order rows: %w", ErrDatabaseError, err)
	}
	return orders, totalCount, nil
}

func (r *orderRepository) GetOrderItemsByOrderID(orderID int64) ([]models.OrderItem, error) {
	items := []models.OrderItem{}
	query := `SELECT id, order_id, beverage_id, name, quantity, price_per_unit, total_price
	          FROM order_items WHERE order_id = $1 ORDER BY id`
	rows, err := r.db.Query(query, orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying order items for order ID %d: %w", ErrDatabaseError, orderID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.BeverageID, &item.Name, &item.Quantity, &item.PricePerUnit, &item.TotalPrice); err != nil {
			return nil, fmt.Errorf("%w: scanning order item for order ID %d: %w", ErrDatabaseError, orderID, err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating order item rows for order ID %d: %w", ErrDatabaseError, orderID, err)
	}
	return items, nil
}

func (r *orderRepository) GetOrderByClientRequestID(executor SQLExecutor, managerID int64, clientRequestID string) (*models.Order, error) {
	order := &models.Order{}
	query := `SELECT ` + orderColumns + ` FROM orders WHERE event_manager_id = $1 AND client_request_id = $2`
	err := scanOrder(executor.QueryRow(query, managerID, clientRequestID), order)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting order by client request id: %w", ErrDatabaseError, err)
	}
	items, err := r.GetOrderItemsByOrderID(order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

func (r *orderRepository) GetBeverageSales(eventID, managerID int64) ([]models.BeverageSales, error) {
	sales := []models.BeverageSales{}
	query := `SELECT oi.beverage_id, COALESCE(SUM(oi.quantity), 0), COALESCE(SUM(oi.total_price), 0)
	          FROM order_items oi
	          JOIN orders o ON oi.order_id = o.id
	          WHERE o.event_id = $1 AND o.event_manager_id = $2
	          GROUP BY oi.beverage_id`
	rows, err := r.db.Query(query, eventID, managerID)
	if err != nil {
		return nil, fmt.Errorf("%w: aggregating sales for event ID %d: %w", ErrDatabaseError, eventID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var s models.BeverageSales
		if err := rows.Scan(&s.BeverageID, &s.QuantitySold, &s.Revenue); err != nil {
			return nil, fmt.Errorf("%w: scanning sales row for event ID %d: %w", ErrDatabaseError, eventID, err)
		}
		sales = append(sales, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating sales rows for event ID %d: %w", ErrDatabaseError, eventID, err)
	}
	return sales, nil
}
