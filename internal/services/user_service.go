package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Wata22109/secure-auth/internal/models"
	"github.com/Wata22109/secure-auth/pkg/crypto"
	apperrors "github.com/Wata22109/secure-auth/pkg/errors"
	"github.com/Wata22109/secure-auth/pkg/logger"
)

// DefaultLoginHistoryLimit caps the history listing returned to clients.
const DefaultLoginHistoryLimit = 5

// UserService serves account-scoped operations for authenticated users.
type UserService struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewUserService constructs a UserService using the provided database handle.
func NewUserService(db *gorm.DB) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	return &UserService{db: db, log: logger.WithModule("user")}, nil
}

// Get loads a user by id.
func (s *UserService) Get(ctx context.Context, userID string) (*models.User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperrors.ErrBadRequest
	}

	var user models.User
	err := s.db.WithContext(ctx).Take(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user service: load user: %w", err)
	}

	return &user, nil
}

// EmailAvailable reports whether no account exists for the given address.
// Matching is a case-sensitive exact comparison.
func (s *UserService) EmailAvailable(ctx context.Context, email string) (bool, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return false, apperrors.ErrBadRequest
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", email).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("user service: count email: %w", err)
	}

	return count == 0, nil
}

// ChangePassword updates the stored hash after verifying the current
// credential.
func (s *UserService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if newPassword == "" {
		return apperrors.ErrBadRequest
	}

	user, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}

	if !crypto.VerifyPassword(user.Password, currentPassword) {
		return apperrors.NewBadRequest("Current password is incorrect")
	}

	hashed, err := crypto.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("user service: hash password: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(user).Update("password", hashed).Error; err != nil {
		return fmt.Errorf("user service: update password: %w", err)
	}

	s.log.Info("password changed", zap.String("user_id", user.ID))
	return nil
}

// LoginHistory returns the newest entries for the user, newest first.
func (s *UserService) LoginHistory(ctx context.Context, userID string, limit int) ([]models.LoginHistory, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperrors.ErrBadRequest
	}
	if limit <= 0 {
		limit = DefaultLoginHistoryLimit
	}

	var entries []models.LoginHistory
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("user service: list login history: %w", err)
	}

	return entries, nil
}
