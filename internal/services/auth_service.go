// internal/services/auth_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/marketplace-backend/internal/config"
	"github.com/javajoker/marketplace-backend/internal/i18n"
	"github.com/javajoker/marketplace-backend/internal/models"
	"github.com/javajoker/marketplace-backend/internal/utils"
)

type AuthService struct {
	db  *gorm.DB
	cfg *config.Config
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,username"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	FullName string `json:"full_name" validate:"max=255"`
	Phone    string `json:"phone" validate:"max=20"`
	IsSeller bool   `json:"is_seller"`
}

type AuthResponse struct {
	User        *models.User `json:"user"`
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int          `json:"expires_in"` // in seconds
}

func NewAuthService(db *gorm.DB, cfg *config.Config) *AuthService {
	return &AuthService{
		db:  db,
		cfg: cfg,
	}
}

func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, newValidationError(err)
	}
	if s.cfg.Auth.RequireStrongPassword {
		if err := utils.ValidateVar(req.Password, "strong_password"); err != nil {
			return nil, newValidationError(err)
		}
	}

	db := s.db.WithContext(ctx)

	// Check if user already exists
	var existingUser models.User
	err := db.Where("email = ? OR username = ?", req.Email, req.Username).First(&existingUser).Error
	if err == nil {
		if existingUser.Email == req.Email {
			return nil, newInvalidInput(i18n.KeyAuthEmailTaken)
		}
		return nil, newInvalidInput(i18n.KeyAuthUsernameTaken)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	// Create new user
	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		Phone:    req.Phone,
		IsSeller: req.IsSeller,
		IsActive: true,
	}

	// Set password
	if err := user.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// Save user
	if err := db.Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, newInvalidInput(i18n.KeyAuthUsernameTaken)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"user_id":   user.ID,
		"username":  user.Username,
		"is_seller": user.IsSeller,
	}).Info("User registered")

	return s.issueToken(user)
}

func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, newValidationError(err)
	}

	db := s.db.WithContext(ctx)

	// Find user by username
	var user models.User
	if err := db.Where("username = ?", strings.TrimSpace(req.Username)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newUnauthenticated(i18n.KeyAuthInvalidCredentials)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	// Verify password
	if err := user.CheckPassword(req.Password); err != nil {
		return nil, newUnauthenticated(i18n.KeyAuthInvalidCredentials)
	}

	if !user.IsActive {
		return nil, newForbidden(i18n.KeyAuthUserInactive)
	}

	// Update last login time
	now := time.Now()
	user.LastLoginAt = &now
	if err := db.Model(&user).UpdateColumn("last_login_at", now).Error; err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Warn("Failed to record last login")
	}

	return s.issueToken(&user)
}

// Authenticate resolves a bearer token to the caller's identity. The user is
// reloaded on every call so deactivation takes effect immediately.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.Identity, error) {
	claims, err := utils.ValidateJWT(token)
	if err != nil {
		return nil, newUnauthenticated(i18n.KeyAuthInvalidToken)
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, newUnauthenticated(i18n.KeyAuthInvalidToken)
	}

	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, newUnauthenticated(i18n.KeyAuthInvalidToken)
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, newForbidden(i18n.KeyAuthUserInactive)
	}

	return user.Identity(), nil
}

func (s *AuthService) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newNotFound(i18n.KeyUserNotFound, userID)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &user, nil
}

// Deactivate marks the account inactive; existing tokens stop working.
func (s *AuthService) Deactivate(ctx context.Context, userID uuid.UUID) error {
	result := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("is_active", false)
	if result.Error != nil {
		return fmt.Errorf("failed to deactivate user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return newNotFound(i18n.KeyUserNotFound, userID)
	}

	logrus.WithField("user_id", userID).Info("User deactivated")
	return nil
}

func (s *AuthService) issueToken(user *models.User) (*AuthResponse, error) {
	accessToken, err := utils.GenerateJWT(user.ID, user.Username, user.IsSeller, s.cfg.JWT.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &AuthResponse{
		User:        user,
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   s.cfg.JWT.AccessTokenTTL * 3600, // Convert hours to seconds
	}, nil
}

// isUniqueViolation covers gorm's translated error (pgx, sqlite) and lib/pq.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
