package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"barpos_backend/internal/models"

	"github.com/lib/pq"
)

// TableRepository defines the interface for bar table (tab) database operations.
type TableRepository interface {
	CreateTable(executor SQLExecutor, table *models.BarTable) (int64, error)
	GetTableByID(tableID, managerID int64) (*models.BarTable, error)
	GetTablesByEvent(eventID, managerID int64) ([]models.BarTable, error)
	DeleteTable(executor SQLExecutor, tableID, managerID int64) error

	// GetTableForUpdate locks the table row inside a transaction, guarding the
	// open/closed state during a charge.
	GetTableForUpdate(executor SQLExecutor, tableID, managerID int64) (*models.BarTable, error)
	GetTableItems(executor SQLExecutor, tableID int64) ([]models.TableItem, error)

	// ReplaceDraftItems swaps the draft cart for the given set of lines.
	ReplaceDraftItems(executor SQLExecutor, tableID int64, items []models.TableItem) error
	UpdateTableTotal(executor SQLExecutor, tableID int64, totalAmount float64) error

	// CloseTable flips the table to its terminal closed state with the final total.
	CloseTable(executor SQLExecutor, tableID int64, totalAmount float64) error
}

type tableRepository struct {
	db *sql.DB
}

// NewTableRepository creates a new instance of TableRepository.
func NewTableRepository(db *sql.DB) TableRepository {
	return &tableRepository{db: db}
}

const tableColumns = `id, event_id, event_manager_id, table_number, is_open, total_amount, created_at, updated_at`

func (r *tableRepository) CreateTable(executor SQLExecutor, table *models.BarTable) (int64, error) {
	query := `INSERT INTO bar_tables
	            (event_id, event_manager_id, table_number, is_open, total_amount, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`
	currentTime := time.Now()
	err := executor.QueryRow(query,
		table.EventID, table.EventManagerID, table.TableNumber, table.IsOpen, table.TotalAmount,
		currentTime, currentTime,
	).Scan(&table.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, fmt.Errorf("%w: table number '%s' already exists for event %d (constraint: %s)",
				ErrDuplicateKey, table.TableNumber, table.EventID, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating bar table: %w", ErrDatabaseError, err)
	}
	table.CreatedAt = currentTime
	table.UpdatedAt = currentTime
	return table.ID, nil
}

func (r *tableRepository) GetTableByID(tableID, managerID int64) (*models.BarTable, error) {
	table := &models.BarTable{}
	query := `SELECT ` + tableColumns + ` FROM bar_tables WHERE id = $1 AND event_manager_id = $2`
	err := r.db.QueryRow(query, tableID, managerID).Scan(
		&table.ID, &table.EventID, &table.EventManagerID, &table.TableNumber,
		&table.IsOpen, &table.TotalAmount, &table.CreatedAt, &table.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting bar table by ID %d: %w", ErrDatabaseError, tableID, err)
	}
	items, err := r.GetTableItems(r.db, tableID)
	if err != nil {
		return nil, err
	}
	table.Items = items
	return table, nil
}

func (r *tableRepository) GetTablesByEvent(eventID, managerID int64) ([]models.BarTable, error) {
	tables := []models.BarTable{}
	query := `SELECT ` + tableColumns + ` FROM bar_tables
	          WHERE event_id = $1 AND event_manager_id = $2
	          ORDER BY table_number`
	rows, err := r.db.Query(query, eventID, managerID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying bar tables for event ID %d: %w", ErrDatabaseError, eventID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var table models.BarTable
		if err := rows.Scan(
			&table.ID, &table.EventID, &table.EventManagerID, &table.TableNumber,
			&table.IsOpen, &table.TotalAmount, &table.CreatedAt, &table.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning bar table: %w", ErrDatabaseError, err)
		}
		tables = append(tables, table)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating bar table rows: %w", ErrDatabaseError, err)
	}

	for i := range tables {
		items, err := r.GetTableItems(r.db, tables[i].ID)
		if err != nil {
			return nil, err
		}
		tables[i].Items = items
	}
	return tables, nil
}

func (r *tableRepository) DeleteTable(executor SQLExecutor, tableID, managerID int64) error {
	query := `DELETE FROM bar_tables WHERE id = $1 AND event_manager_id = $2`
	result, err := executor.Exec(query, tableID, managerID)
	if err != nil {
		return fmt.Errorf("%w: deleting bar table ID %d: %w", ErrDatabaseError, tableID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *tableRepository) GetTableForUpdate(executor SQLExecutor, tableID, managerID int64) (*models.BarTable, error) {
	table := &models.BarTable{}
	query := `SELECT ` + tableColumns + ` FROM bar_tables WHERE id = $1 AND event_manager_id = $2 FOR UPDATE`
	err := executor.QueryRow(query, tableID, managerID).Scan(
		&table.ID, &table.EventID, &table.EventManagerID, &table.TableNumber,
		&table.IsOpen, &table.TotalAmount, &table.CreatedAt, &table.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: locking bar table ID %d: %w", ErrDatabaseError, tableID, err)
	}
	items, err := r.GetTableItems(executor, tableID)
	if err != nil {
		return nil, err
	}
	table.Items = items
	return table, nil
}

func (r *tableRepository) GetTableItems(executor SQLExecutor, tableID int64) ([]models.TableItem, error) {
	items := []models.TableItem{}
	query := `SELECT id, table_id, beverage_id, name, quantity, price_per_unit
	          FROM bar_table_items WHERE table_id = $1 ORDER BY id`
	rows, err := executor.Query(query, tableID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying items for bar table ID %d: %w", ErrDatabaseError, tableID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.TableItem
		if err := rows.Scan(&item.ID, &item.TableID, &item.BeverageID, &item.Name, &item.Quantity, &item.PricePerUnit); err != nil {
			return nil, fmt.Errorf("%w: scanning item for bar table ID %d: %w", ErrDatabaseError, tableID, err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating items for bar table ID %d: %w", ErrDatabaseError, tableID, err)
	}
	return items, nil
}

func (r *tableRepository) ReplaceDraftItems(executor SQLExecutor, tableID int64, items []models.TableItem) error {
	if _, err := executor.Exec(`DELETE FROM bar_table_items WHERE table_id = $1`, tableID); err != nil {
		return fmt.Errorf("%w: clearing draft for bar table ID %d: %w", ErrDatabaseError, tableID, err)
	}
	insert := `INSERT INTO bar_table_items (table_id, beverage_id, name, quantity, price_per_unit)
	           VALUES ($1, $2, $3, $4, $5)`
	for _, item := range items {
		if _, err := executor.Exec(insert, tableID, item.BeverageID, item.Name, item.Quantity, item.PricePerUnit); err != nil {
			return fmt.Errorf("%w: saving draft line for bar table ID %d (beverage %d): %w",
				ErrDatabaseError, tableID, item.BeverageID, err)
		}
	}
	return nil
}

func (r *tableRepository) UpdateTableTotal(executor SQLExecutor, tableID int64, totalAmount float64) error {
	query := `UPDATE bar_tables SET total_amount = $1, updated_at = $2 WHERE id = $3`
	result, err := executor.Exec(query, totalAmount, time.Now(), tableID)
	if err != nil {
		return fmt.Errorf("%w: updating total for bar table ID %d: %w", ErrDatabaseError, tableID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *tableRepository) CloseTable(executor SQLExecutor, tableID int64, totalAmount float64) error {
	query := `UPDATE bar_tables SET is_open = FALSE, total_amount = $1, updated_at = $2 WHERE id = $3 AND is_open = TRUE`
	result, err := executor.Exec(query, totalAmount, time.Now(), tableID)
	if err != nil {
		return fmt.Errorf("%w: closing bar table ID %d: %w", ErrDatabaseError, tableID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
