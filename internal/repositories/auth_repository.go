package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"barpos_backend/internal/models"

	"github.com/lib/pq"
)

// AuthRepository defines the interface for user account database operations.
type AuthRepository interface {
	CreateUser(executor SQLExecutor, user *models.User) (int64, error)
	GetUserByUsername(username string) (*models.User, error)
	GetUserByID(userID int64) (*models.User, error)
}

type authRepository struct {
	db *sql.DB
}

// NewAuthRepository creates a new instance of AuthRepository.
func NewAuthRepository(db *sql.DB) AuthRepository {
	return &authRepository{db: db}
}

const userColumns = `id, username, email, password_hash, full_name, role, created_at, updated_at`

func (r *authRepository) CreateUser(executor SQLExecutor, user *models.User) (int64, error) {
	query := `INSERT INTO users (username, email, password_hash, full_name, role, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`
	currentTime := time.Now()
	err := executor.QueryRow(query,
		user.Username, user.Email, user.PasswordHash, user.FullName, user.Role, currentTime, currentTime,
	).Scan(&user.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, fmt.Errorf("%w: username or email already taken (constraint: %s)", ErrDuplicateKey, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating user: %w", ErrDatabaseError, err)
	}
	return user.ID, nil
}

func (r *authRepository) GetUserByUsername(username string) (*models.User, error) {
	user := &models.User{}
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	err := r.db.QueryRow(query, username).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.FullName, &user.Role,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting user by username: %w", ErrDatabaseError, err)
	}
	return user, nil
}

func (r *authRepository) GetUserByID(userID int64) (*models.User, error) {
	user := &models.User{}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	err := r.db.QueryRow(query, userID).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.FullName, &user.Role,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting user by ID %d: %w", ErrDatabaseError, userID, err)
	}
	return user, nil
}
