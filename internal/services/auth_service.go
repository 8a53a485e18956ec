package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"barpos_backend/internal/models"
	"barpos_backend/internal/repositories"
	"barpos_backend/pkg/utils"

	"golang.org/x/crypto/bcrypt"
)

// --- Custom Service Errors ---
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameExists     = errors.New("username already exists")
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidRole        = errors.New("specified role not found")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// --- Data Transfer Objects (DTOs) ---

// LoginRequest DTO
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterUserRequest DTO
type RegisterUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name" binding:"required"`
	Role     string `json:"role"` // "Admin" or "Manager"; defaults to Manager.
}

// RefreshTokenRequest DTO
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// AuthResponse DTO
type AuthResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token,omitempty"`
}

// --- AuthService Interface ---
type AuthService interface {
	RegisterUser(req RegisterUserRequest) (*models.User, error)
	LoginUser(req LoginRequest) (*AuthResponse, error)
	RefreshToken(req RefreshTokenRequest) (*AuthResponse, error)
	GetUserProfile(userID int64) (*models.User, error)
}

// --- authService Implementation ---
type authService struct {
	authRepo repositories.AuthRepository
	db       *sql.DB
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(authRepo repositories.AuthRepository, db *sql.DB) AuthService {
	return &authService{authRepo: authRepo, db: db}
}

// RegisterUser handles the business logic for user registration.
func (s *authService) RegisterUser(req RegisterUserRequest) (*models.User, error) {
	role := req.Role
	if role == "" {
		role = models.RoleManager
	}
	if !models.IsValidRole(role) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, req.Role)
	}

	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hashedPasswordBytes),
		FullName:     req.FullName,
		Role:         role,
	}
	if _, err := s.authRepo.CreateUser(s.db, &user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			// The repository error carries the violated constraint name.
			if strings.Contains(err.Error(), "users_email_key") {
				return nil, ErrEmailExists
			}
			return nil, ErrUsernameExists
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	registered, err := s.authRepo.GetUserByID(user.ID)
	if err != nil {
		// User row exists; return what we have rather than failing the signup.
		return &user, nil
	}
	return registered, nil
}

// LoginUser handles user login and token generation.
func (s *authService) LoginUser(req LoginRequest) (*AuthResponse, error) {
	user, err := s.authRepo.GetUserByUsername(req.Username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login attempt failed: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issueTokens(user)
}

// RefreshToken exchanges a valid refresh token for a fresh token pair.
func (s *authService) RefreshToken(req RefreshTokenRequest) (*AuthResponse, error) {
	claims, err := utils.ValidateToken(req.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	user, err := s.authRepo.GetUserByID(claims.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user for token refresh: %w", err)
	}
	return s.issueTokens(user)
}

// GetUserProfile retrieves a user's profile by their ID.
func (s *authService) GetUserProfile(userID int64) (*models.User, error) {
	user, err := s.authRepo.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to retrieve user profile: %w", err)
	}
	return user, nil
}

func (s *authService) issueTokens(user *models.User) (*AuthResponse, error) {
	accessToken, err := utils.GenerateAccessToken(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refreshToken, err := utils.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return &AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
