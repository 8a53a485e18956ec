package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"barpos_backend/internal/models"
)

// BeverageRepository defines the interface for beverage-related database operations.
type BeverageRepository interface {
	CreateBeverage(executor SQLExecutor, beverage *models.Beverage) (int64, error)
	GetBeverageByID(beverageID, managerID int64) (*models.Beverage, error)
	GetBeveragesByEvent(eventID, managerID int64) ([]models.Beverage, error)
	DeleteBeverage(executor SQLExecutor, beverageID, managerID int64) error

	// GetBeverageForUpdate reads the beverage inside a transaction with a row
	// lock so the stock snapshot used for validation cannot move underneath
	// the write phase.
	GetBeverageForUpdate(executor SQLExecutor, beverageID, managerID int64) (*models.Beverage, error)

	// DecrementStock applies a guarded decrement: the UPDATE only matches when
	// current_stock still covers the quantity. A miss returns ErrStockConflict.
	DecrementStock(executor SQLExecutor, beverageID int64, quantity int) error

	// Restock adds quantity to both initial_stock and current_stock.
	Restock(executor SQLExecutor, beverageID, managerID int64, quantity int) (*models.Beverage, error)

	UpdateAudit(executor SQLExecutor, beverageID, managerID int64, countedStock int, auditedAt time.Time) error
}

type beverageRepository struct {
	db *sql.DB
}

// NewBeverageRepository creates a new instance of BeverageRepository.
func NewBeverageRepository(db *sql.DB) BeverageRepository {
	return &beverageRepository{db: db}
}

const beverageColumns = `id, event_id, event_manager_id, name, category, beverage_type, image_url,
	          initial_stock, current_stock, price, audited_stock, last_audited_at, created_at, updated_at`

type beverageScanner interface {
	Scan(dest ...interface{}) error
}

func scanBeverage(row beverageScanner, b *models.Beverage, extra ...interface{}) error {
	var imageURL sql.NullString
	var auditedStock sql.NullInt64
	var lastAuditedAt sql.NullTime

	dest := []interface{}{
		&b.ID, &b.EventID, &b.EventManagerID, &b.Name, &b.Category, &b.Type, &imageURL,
		&b.InitialStock, &b.CurrentStock, &b.Price, &auditedStock, &lastAuditedAt,
		&b.CreatedAt, &b.UpdatedAt,
	}
	dest = append(dest, extra...)
	if err := row.Scan(dest...); err != nil {
		return err
	}
	if imageURL.Valid {
		url := imageURL.String
		b.ImageURL = &url
	}
	if auditedStock.Valid {
		counted := int(auditedStock.Int64)
		b.AuditedStock = &counted
	}
	if lastAuditedAt.Valid {
		at := lastAuditedAt.Time
		b.LastAuditedAt = &at
	}
	return nil
}

func (r *beverageRepository) CreateBeverage(executor SQLExecutor, beverage *models.Beverage) (int64, error) {
	query := `INSERT INTO beverages
	            (event_id, event_manager_id, name, category, beverage_type, image_url,
	             initial_stock, current_stock, price, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	          RETURNING id`
	currentTime := time.Now()
	err := executor.QueryRow(query,
		beverage.EventID, beverage.EventManagerID, beverage.Name, beverage.Category, beverage.Type,
		beverage.ImageURL, beverage.InitialStock, beverage.CurrentStock, beverage.Price,
		currentTime, currentTime,
	).Scan(&beverage.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating beverage: %w", ErrDatabaseError, err)
	}
	beverage.CreatedAt = currentTime
	beverage.UpdatedAt = currentTime
	return beverage.ID, nil
}

func (r *beverageRepository) GetBeverageByID(beverageID, managerID int64) (*models.Beverage, error) {
	beverage := &models.Beverage{}
	query := `SELECT ` + beverageColumns + ` FROM beverages WHERE id = $1 AND event_manager_id = $2`
	err := scanBeverage(r.db.QueryRow(query, beverageID, managerID), beverage)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting beverage by ID %d: %w", ErrDatabaseError, beverageID, err)
	}
	return beverage, nil
}

func (r *beverageRepository) GetBeveragesByEvent(eventID, managerID int64) ([]models.Beverage, error) {
	beverages := []models.Beverage{}
	query := `SELECT ` + beverageColumns + ` FROM beverages
	          WHERE event_id = $1 AND event_manager_id = $2
	          ORDER BY name`
	rows, err := r.db.Query(query, eventID, managerID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying beverages for event ID %d: %w", ErrDatabaseError, eventID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var beverage models.Beverage
		if err := scanBeverage(rows, &beverage); err != nil {
			return nil, fmt.Errorf("%w: scanning beverage: %w", ErrDatabaseError, err)
		}
		beverages = append(beverages, beverage)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating beverage rows: %w", ErrDatabaseError, err)
	}
	return beverages, nil
}

func (r *beverageRepository) DeleteBeverage(executor SQLExecutor, beverageID, managerID int64) error {
	query := `DELETE FROM beverages WHERE id = $1 AND event_manager_id = $2`
	result, err := executor.Exec(query, beverageID, managerID)
	if err != nil {
		return fmt.Errorf("%w: deleting beverage ID %d: %w", ErrDatabaseError, beverageID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *beverageRepository) GetBeverageForUpdate(executor SQLExecutor, beverageID, managerID int64) (*models.Beverage, error) {
	beverage := &models.Beverage{}
	query := `SELECT ` + beverageColumns + ` FROM beverages WHERE id = $1 AND event_manager_id = $2 FOR UPDATE`
	err := scanBeverage(executor.QueryRow(query, beverageID, managerID), beverage)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: locking beverage ID %d: %w", ErrDatabaseError, beverageID, err)
	}
	return beverage, nil
}

func (r *beverageRepository) DecrementStock(executor SQLExecutor, beverageID int64, quantity int) error {
	query := `UPDATE beverages
	          SET current_stock = current_stock - $1, updated_at = $2
	          WHERE id = $3 AND current_stock >= $1`
	result, err := executor.Exec(query, quantity, time.Now(), beverageID)
	if err != nil {
		return fmt.Errorf("%w: decrementing stock for beverage ID %d: %w", ErrDatabaseError, beverageID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrStockConflict
	}
	return nil
}

func (r *beverageRepository) Restock(executor SQLExecutor, beverageID, managerID int64, quantity int) (*models.Beverage, error) {
	beverage := &models.Beverage{}
	query := `UPDATE beverages
	          SET initial_stock = initial_stock + $1, current_stock = current_stock + $1, updated_at = $2
	          WHERE id = $3 AND event_manager_id = $4
	          RETURNING ` + beverageColumns
	err := scanBeverage(executor.QueryRow(query, quantity, time.Now(), beverageID, managerID), beverage)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: restocking beverage ID %d: %w", ErrDatabaseError, beverageID, err)
	}
	return beverage, nil
}

func (r *beverageRepository) UpdateAudit(executor SQLExecutor, beverageID, managerID int64, countedStock int, auditedAt time.Time) error {
	query := `UPDATE beverages SET audited_stock = $1, last_audited_at = $2, updated_at = $2
	          WHERE id = $3 AND event_manager_id = $4`
	result, err := executor.Exec(query, countedStock, auditedAt, beverageID, managerID)
	if err != nil {
		return fmt.Errorf("%w: recording audit for beverage ID %d: %w", ErrDatabaseError, beverageID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
