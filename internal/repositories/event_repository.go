package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"barpos_backend/internal/models"
)

// EventRepository defines the interface for event-related database operations.
type EventRepository interface {
	CreateEvent(executor SQLExecutor, event *models.Event) (int64, error)
	GetEventByID(eventID, managerID int64) (*models.Event, error)
	GetEvents(managerID int64, filters models.EventFilters) ([]models.Event, int, error)
	UpdateEvent(executor SQLExecutor, event *models.Event) error
	SetEventActive(executor SQLExecutor, eventID, managerID int64, isActive bool) error

	// GetEventForUpdate reads the event inside a transaction with a row lock,
	// pinning the budget/spend snapshot for the duration of the transaction.
	GetEventForUpdate(executor SQLExecutor, eventID, managerID int64) (*models.Event, error)
	UpdateBudget(executor SQLExecutor, eventID, managerID int64, newBudget float64) error
	UpdateSpend(executor SQLExecutor, eventID int64, newSpend float64) error
}

type eventRepository struct {
	db *sql.DB
}

// NewEventRepository creates a new instance of EventRepository.
func NewEventRepository(db *sql.DB) EventRepository {
	return &eventRepository{db: db}
}

const eventColumns = `id, event_manager_id, name, to_char(event_date, 'YYYY-MM-DD'), location,
	          budget, current_spend, is_active, created_at, updated_at`

func scanEvent(row *sql.Row, event *models.Event) error {
	return row.Scan(
		&event.ID, &event.EventManagerID, &event.Name, &event.Date, &event.Location,
		&event.Budget, &event.CurrentSpend, &event.IsActive, &event.CreatedAt, &event.UpdatedAt,
	)
}

func (r *eventRepository) CreateEvent(executor SQLExecutor, event *models.Event) (int64, error) {
	query := `INSERT INTO events
	            (event_manager_id, name, event_date, location, budget, current_spend, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id`
	currentTime := time.Now()
	err := executor.QueryRow(query,
		event.EventManagerID, event.Name, event.Date, event.Location,
		event.Budget, event.CurrentSpend, event.IsActive, currentTime, currentTime,
	).Scan(&event.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating event: %w", ErrDatabaseError, err)
	}
	event.CreatedAt = currentTime
	event.UpdatedAt = currentTime
	return event.ID, nil
}

func (r *eventRepository) GetEventByID(eventID, managerID int64) (*models.Event, error) {
	event := &models.Event{}
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1 AND event_manager_id = $2`
	err := scanEvent(r.db.QueryRow(query, eventID, managerID), event)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting event by ID %d: %w", ErrDatabaseError, eventID, err)
	}
	return event, nil
}

func (r *eventRepository) GetEvents(managerID int64, filters models.EventFilters) ([]models.Event, int, error) {
	events := []models.Event{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + eventColumns + `, COUNT(*) OVER() AS total_count
	  FROM events WHERE event_manager_id = $1`)

	args := []interface{}{managerID}
	argCount := 2

	if filters.IsActive != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND is_active = $%d", argCount))
		args = append(args, *filters.IsActive)
		argCount++
	}

	queryBuilder.WriteString(" ORDER BY event_date DESC, id DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying events: %w", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var event models.Event
		if err := rows.Scan(
			&event.ID, &event.EventManagerID, &event.Name, &event.Date, &event.Location,
			&event.Budget, &event.CurrentSpend, &event.IsActive, &event.CreatedAt, &event.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning event: %w", ErrDatabaseError, err)
		}
		events = append(events, event)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating event rows: %w", ErrDatabaseError, err)
	}
	return events, totalCount, nil
}

func (r *eventRepository) UpdateEvent(executor SQLExecutor, event *models.Event) error {
	query := `UPDATE events SET name = $1, event_date = $2, location = $3, updated_at = $4
	          WHERE id = $5 AND event_manager_id = $6`
	result, err := executor.Exec(query, event.Name, event.Date, event.Location, time.Now(), event.ID, event.EventManagerID)
	if err != nil {
		return fmt.Errorf("%w: updating event ID %d: %w", ErrDatabaseError, event.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *eventRepository) SetEventActive(executor SQLExecutor, eventID, managerID int64, isActive bool) error {
	query := `UPDATE events SET is_active = $1, updated_at = $2 WHERE id = $3 AND event_manager_id = $4`
	result, err := executor.Exec(query, isActive, time.Now(), eventID, managerID)
	if err != nil {
		return fmt.Errorf("%w: setting active flag for event ID %d: %w", ErrDatabaseError, eventID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *eventRepository) GetEventForUpdate(executor SQLExecutor, eventID, managerID int64) (*models.Event, error) {
	event := &models.Event{}
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1 AND event_manager_id = $2 FOR UPDATE`
	err := scanEvent(executor.QueryRow(query, eventID, managerID), event)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: locking event ID %d: %w", ErrDatabaseError, eventID, err)
	}
	return event, nil
}

func (r *eventRepository) UpdateBudget(executor SQLExecutor, eventID, managerID int64, newBudget float64) error {
	query := `UPDATE events SET budget = $1, updated_at = $2 WHERE id = $3 AND event_manager_id = $4`
	result, err := executor.Exec(query, newBudget, time.Now(), eventID, managerID)
	if err != nil {
		return fmt.Errorf("%w: updating budget for event ID %d: %w", ErrDatabaseError, eventID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *eventRepository) UpdateSpend(executor SQLExecutor, eventID int64, newSpend float64) error {
	query := `UPDATE events SET current_spend = $1, updated_at = $2 WHERE id = $3`
	result, err := executor.Exec(query, newSpend, time.Now(), eventID)
	if err != nil {
		return fmt.Errorf("%w: updating spend for event ID %d: %w", ErrDatabaseError, eventID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
