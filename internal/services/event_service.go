package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"barpos_backend/internal/models"
	"barpos_backend/internal/repositories"
)

// Custom Errors
var (
	ErrValidation       = errors.New("validation error") // Generic validation error
	ErrEventNotFound    = errors.New("event not found")
	ErrInvalidBudget    = errors.New("budget must be greater than zero")
	ErrBudgetBelowSpend = errors.New("budget cannot be less than current spend")
)

// --- Data Transfer Objects (DTOs) ---

// CreateEventRequest is used for creating a new event.
type CreateEventRequest struct {
	Name     string  `json:"name" binding:"required"`
	Date     string  `json:"date" binding:"required"` // YYYY-MM-DD
	Location string  `json:"location" binding:"required"`
	Budget   float64 `json:"budget" binding:"required"`
}

// UpdateEventRequest is used for updating an event's descriptive fields.
type UpdateEventRequest struct {
	Name     *string `json:"name"`
	Date     *string `json:"date"`
	Location *string `json:"location"`
}

// UpdateBudgetRequest is used for replacing an event's budget.
type UpdateBudgetRequest struct {
	Budget float64 `json:"budget" binding:"required"`
}

// --- EventService Interface ---

type EventService interface {
	CreateEvent(managerID int64, req CreateEventRequest) (*models.Event, error)
	GetEvents(managerID int64, filters models.EventFilters) ([]models.Event, int, error)
	GetEventByID(managerID, eventID int64) (*models.Event, error)
	UpdateEvent(managerID, eventID int64, req UpdateEventRequest) (*models.Event, error)
	SetEventActive(managerID, eventID int64, isActive bool) (*models.Event, error)

	// UpdateBudget replaces the budget; the new value must be positive and at
	// least the accumulated spend.
	UpdateBudget(managerID, eventID int64, newBudget float64) (*models.Event, error)
	GetBudgetStatus(managerID, eventID int64) (*models.BudgetStatus, error)
}

// --- eventService Implementation ---

type eventService struct {
	eventRepo repositories.EventRepository
	db        *sql.DB
}

// NewEventService creates a new instance of EventService.
func NewEventService(er repositories.EventRepository, db *sql.DB) EventService {
	return &eventService{eventRepo: er, db: db}
}

func validateEventDate(date string) error {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("%w: date must be in YYYY-MM-DD format", ErrValidation)
	}
	return nil
}

func (s *eventService) CreateEvent(managerID int64, req CreateEventRequest) (*models.Event, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: event name cannot be empty", ErrValidation)
	}
	if strings.TrimSpace(req.Location) == "" {
		return nil, fmt.Errorf("%w: event location cannot be empty", ErrValidation)
	}
	if err := validateEventDate(req.Date); err != nil {
		return nil, err
	}
	if req.Budget <= 0 {
		return nil, fmt.Errorf("%w: got %.2f", ErrInvalidBudget, req.Budget)
	}

	event := models.Event{
		EventManagerID: managerID,
		Name:           req.Name,
		Date:           req.Date,
		Location:       req.Location,
		Budget:         req.Budget,
		CurrentSpend:   0,
		IsActive:       true,
	}
	if _, err := s.eventRepo.CreateEvent(s.db, &event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	return &event, nil
}

func (s *eventService) GetEvents(managerID int64, filters models.EventFilters) ([]models.Event, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 {
		filters.PageSize = 20
	}
	events, totalCount, err := s.eventRepo.GetEvents(managerID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get events: %w", err)
	}
	return events, totalCount, nil
}

func (s *eventService) GetEventByID(managerID, eventID int64) (*models.Event, error) {
	event, err := s.eventRepo.GetEventByID(eventID, managerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event by ID: %w", err)
	}
	return event, nil
}

func (s *eventService) UpdateEvent(managerID, eventID int64, req UpdateEventRequest) (*models.Event, error) {
	event, err := s.GetEventByID(managerID, eventID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, fmt.Errorf("%w: event name cannot be empty if provided", ErrValidation)
		}
		event.Name = *req.Name
	}
	if req.Date != nil {
		if err := validateEventDate(*req.Date); err != nil {
			return nil, err
		}
		event.Date = *req.Date
	}
	if req.Location != nil {
		if strings.TrimSpace(*req.Location) == "" {
			return nil, fmt.Errorf("%w: event location cannot be empty if provided", ErrValidation)
		}
		event.Location = *req.Location
	}

	if err := s.eventRepo.UpdateEvent(s.db, event); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	return s.GetEventByID(managerID, eventID)
}

func (s *eventService) SetEventActive(managerID, eventID int64, isActive bool) (*models.Event, error) {
	if err := s.eventRepo.SetEventActive(s.db, eventID, managerID, isActive); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to set event active flag: %w", err)
	}
	return s.GetEventByID(managerID, eventID)
}

func (s *eventService) UpdateBudget(managerID, eventID int64, newBudget float64) (*models.Event, error) {
	if newBudget <= 0 {
		return nil, fmt.Errorf("%w: got %.2f", ErrInvalidBudget, newBudget)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	// Lock the row so the spend comparison holds through the write.
	event, err := s.eventRepo.GetEventForUpdate(tx, eventID, managerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to read event for budget update: %w", err)
	}
	if newBudget < event.CurrentSpend {
		return nil, fmt.Errorf("%w: current spend is %.2f, requested budget %.2f",
			ErrBudgetBelowSpend, event.CurrentSpend, newBudget)
	}
	if err := s.eventRepo.UpdateBudget(tx, eventID, managerID, newBudget); err != nil {
		return nil, fmt.Errorf("failed to update budget: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit budget update: %w", err)
	}

	event.Budget = newBudget
	return event, nil
}

func (s *eventService) GetBudgetStatus(managerID, eventID int64) (*models.BudgetStatus, error) {
	event, err := s.GetEventByID(managerID, eventID)
	if err != nil {
		return nil, err
	}
	return &models.BudgetStatus{
		EventID:      event.ID,
		Budget:       event.Budget,
		CurrentSpend: event.CurrentSpend,
	}, nil
}
