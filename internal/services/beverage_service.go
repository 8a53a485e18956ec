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
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
	ErrInvalidCategory = errors.New("invalid beverage category for the given type")
)

// --- Data Transfer Objects (DTOs) ---

// CreateBeverageRequest is used for adding a single beverage to an event.
type CreateBeverageRequest struct {
	EventID      int64   `json:"event_id" binding:"required"`
	Name         string  `json:"name" binding:"required"`
	Category     string  `json:"category" binding:"required"`
	Type         string  `json:"type" binding:"required"`
	ImageURL     *string `json:"image_url"`
	InitialStock int     `json:"initial_stock"`
	Price        float64 `json:"price" binding:"required"`
}

// BatchItemError reports one rejected line of a batch add.
type BatchItemError struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// BatchCreateResult is the outcome of a batch add: created beverages plus the
// rejected lines. A bad line never fails the whole batch.
type BatchCreateResult struct {
	Created []models.Beverage `json:"created"`
	Errors  []BatchItemError  `json:"errors"`
}

// --- BeverageService Interface ---

type BeverageService interface {
	CreateBeverage(managerID int64, req CreateBeverageRequest) (*models.Beverage, error)
	CreateBeveragesBatch(managerID int64, reqs []CreateBeverageRequest) (*BatchCreateResult, error)
	GetBeveragesByEvent(managerID, eventID int64) ([]models.Beverage, error)
	GetBeverageByID(managerID, beverageID int64) (*models.Beverage, error)

	// RestockBeverage adds quantity to both initial and current stock.
	RestockBeverage(managerID, beverageID int64, quantity int) (*models.Beverage, error)
	DeleteBeverage(managerID, beverageID int64) error
}

// --- beverageService Implementation ---

type beverageService struct {
	beverageRepo repositories.BeverageRepository
	eventRepo    repositories.EventRepository
	db           *sql.DB
}

// NewBeverageService creates a new instance of BeverageService.
func NewBeverageService(br repositories.BeverageRepository, er repositories.EventRepository, db *sql.DB) BeverageService {
	return &beverageService{beverageRepo: br, eventRepo: er, db: db}
}

func validateBeverageRequest(req CreateBeverageRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("%w: beverage name cannot be empty", ErrValidation)
	}
	if !models.IsValidBeverageType(req.Type) {
		return fmt.Errorf("%w: unknown beverage type %q", ErrValidation, req.Type)
	}
	if !models.IsValidBeverageCategory(req.Type, req.Category) {
		return fmt.Errorf("%w: %q is not a %s category", ErrInvalidCategory, req.Category, req.Type)
	}
	if req.Price <= 0 {
		return fmt.Errorf("%w: price must be greater than zero", ErrValidation)
	}
	if req.InitialStock < 0 {
		return fmt.Errorf("%w: initial stock cannot be negative", ErrValidation)
	}
	return nil
}

func (s *beverageService) CreateBeverage(managerID int64, req CreateBeverageRequest) (*models.Beverage, error) {
	if err := validateBeverageRequest(req); err != nil {
		return nil, err
	}
	// The owning event must exist and belong to the caller.
	if _, err := s.eventRepo.GetEventByID(req.EventID, managerID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: event ID %d", ErrEventNotFound, req.EventID)
		}
		return nil, fmt.Errorf("failed to verify event %d: %w", req.EventID, err)
	}

	beverage := models.Beverage{
		EventID:        req.EventID,
		EventManagerID: managerID,
		Name:           req.Name,
		Category:       req.Category,
		Type:           req.Type,
		ImageURL:       req.ImageURL,
		InitialStock:   req.InitialStock,
		CurrentStock:   req.InitialStock,
		Price:          req.Price,
	}
	if _, err := s.beverageRepo.CreateBeverage(s.db, &beverage); err != nil {
		return nil, fmt.Errorf("failed to create beverage: %w", err)
	}
	return &beverage, nil
}

func (s *beverageService) CreateBeveragesBatch(managerID int64, reqs []CreateBeverageRequest) (*BatchCreateResult, error) {
	if len(reqs) == 0 {
		return nil, fmt.Errorf("%w: batch cannot be empty", ErrValidation)
	}
	result := &BatchCreateResult{Created: []models.Beverage{}, Errors: []BatchItemError{}}
	for i, req := range reqs {
		beverage, err := s.CreateBeverage(managerID, req)
		if err != nil {
			result.Errors = append(result.Errors, BatchItemError{Index: i, Reason: err.Error()})
			continue
		}
		result.Created = append(result.Created, *beverage)
	}
	return result, nil
}

func (s *beverageService) GetBeveragesByEvent(managerID, eventID int64) ([]models.Beverage, error) {
	beverages, err := s.beverageRepo.GetBeveragesByEvent(eventID, managerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get beverages for event %d: %w", eventID, err)
	}
	return beverages, nil
}

func (s *beverageService) GetBeverageByID(managerID, beverageID int64) (*models.Beverage, error) {
	beverage, err := s.beverageRepo.GetBeverageByID(beverageID, managerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: beverage ID %d", ErrBeverageNotFound, beverageID)
		}
		return nil, fmt.Errorf("failed to get beverage by ID: %w", err)
	}
	return beverage, nil
}

func (s *beverageService) RestockBeverage(managerID, beverageID int64, quantity int) (*models.Beverage, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidQuantity, quantity)
	}
	beverage, err := s.beverageRepo.Restock(s.db, beverageID, managerID, quantity)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: beverage ID %d", ErrBeverageNotFound, beverageID)
		}
		return nil, fmt.Errorf("failed to restock beverage %d: %w", beverageID, err)
	}
	return beverage, nil
}

func (s *beverageService) DeleteBeverage(managerID, beverageID int64) error {
	// Any stored image reference belongs to the external file storage
	// collaborator; dropping the row clears the reference.
	if err := s.beverageRepo.DeleteBeverage(s.db, beverageID, managerID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: beverage ID %d", ErrBeverageNotFound, beverageID)
		}
		return fmt.Errorf("failed to delete beverage %d: %w", beverageID, err)
	}
	return nil
}
