package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Wata22109/secure-auth/internal/auth/mfa"
	"github.com/Wata22109/secure-auth/internal/models"
	apperrors "github.com/Wata22109/secure-auth/pkg/errors"
	"github.com/Wata22109/secure-auth/pkg/logger"
)

// MFAService manages the MFA lifecycle for an authenticated account: staged
// setup, explicit enablement, disablement, and backup-code regeneration.
type MFAService struct {
	db     *gorm.DB
	engine *mfa.Engine
	log    *zap.Logger
}

// NewMFAService constructs an MFAService backed by the provided database.
func NewMFAService(db *gorm.DB, engine *mfa.Engine) (*MFAService, error) {
	if db == nil {
		return nil, errors.New("mfa service: db is required")
	}
	if engine == nil {
		return nil, errors.New("mfa service: engine is required")
	}
	return &MFAService{db: db, engine: engine, log: logger.WithModule("mfa")}, nil
}

// Setup stages a new secret and backup-code pool on the user record. The
// account is not MFA-enabled until Enable succeeds with a code derived from
// the staged secret.
func (s *MFAService) Setup(ctx context.Context, userID string) (*mfa.Enrollment, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user.MFAEnabled {
		return nil, apperrors.ErrMFAAlreadyEnabled
	}

	enrollment, err := s.engine.Setup(user.Email)
	if err != nil {
		return nil, fmt.Errorf("mfa service: %w", err)
	}

	encoded, err := mfa.EncodePool(enrollment.BackupCodes)
	if err != nil {
		return nil, fmt.Errorf("mfa service: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(map[string]any{
		"mfa_secret":   enrollment.Secret,
		"backup_codes": encoded,
	}).Error; err != nil {
		return nil, fmt.Errorf("mfa service: stage secret: %w", err)
	}

	s.log.Info("mfa setup staged", zap.String("user_id", user.ID))
	return enrollment, nil
}

// Enable confirms possession of the staged secret and flips the MFA flag.
func (s *MFAService) Enable(ctx context.Context, userID, code string) error {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}

	if user.MFAEnabled {
		return apperrors.ErrMFAAlreadyEnabled
	}
	if user.MFASecret == nil || *user.MFASecret == "" {
		return apperrors.ErrMFANotConfigured
	}

	if !s.engine.VerifyCode(code, *user.MFASecret) {
		return apperrors.ErrMFAInvalid
	}

	if err := s.db.WithContext(ctx).Model(user).Update("mfa_enabled", true).Error; err != nil {
		return fmt.Errorf("mfa service: enable: %w", err)
	}

	s.log.Info("mfa enabled", zap.String("user_id", user.ID))
	return nil
}

// Disable turns MFA off after a successful TOTP check and clears the secret
// and backup-code pool.
func (s *MFAService) Disable(ctx context.Context, userID, code string) error {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}

	if !user.MFAEnabled {
		return apperrors.ErrMFANotEnabled
	}
	if user.MFASecret == nil || *user.MFASecret == "" {
		return apperrors.ErrMFANotConfigured
	}

	if !s.engine.VerifyCode(code, *user.MFASecret) {
		return apperrors.ErrMFAInvalid
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(map[string]any{
		"mfa_enabled":  false,
		"mfa_secret":   nil,
		"backup_codes": nil,
	}).Error; err != nil {
		return fmt.Errorf("mfa service: disable: %w", err)
	}

	s.log.Info("mfa disabled", zap.String("user_id", user.ID))
	return nil
}

// RegenerateBackupCodes replaces the pool after a successful TOTP check and
// returns the fresh plaintext codes exactly once.
func (s *MFAService) RegenerateBackupCodes(ctx context.Context, userID, code string) ([]string, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !user.MFAEnabled {
		return nil, apperrors.ErrMFANotEnabled
	}
	if user.MFASecret == nil || *user.MFASecret == "" {
		return nil, apperrors.ErrMFANotConfigured
	}

	if !s.engine.VerifyCode(code, *user.MFASecret) {
		return nil, apperrors.ErrMFAInvalid
	}

	codes, err := s.engine.GenerateBackupCodes()
	if err != nil {
		return nil, fmt.Errorf("mfa service: %w", err)
	}

	encoded, err := mfa.EncodePool(codes)
	if err != nil {
		return nil, fmt.Errorf("mfa service: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(user).Update("backup_codes", encoded).Error; err != nil {
		return nil, fmt.Errorf("mfa service: store backup codes: %w", err)
	}

	s.log.Info("backup codes regenerated", zap.String("user_id", user.ID))
	return codes, nil
}

// Status reports whether MFA is enabled and how many backup codes remain.
func (s *MFAService) Status(ctx context.Context, userID string) (bool, int, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return false, 0, err
	}

	pool, err := mfa.DecodePool(user.BackupCodes)
	if err != nil {
		// A corrupt pool reads as empty rather than failing the status call.
		return user.MFAEnabled, 0, nil
	}

	return user.MFAEnabled, len(pool), nil
}

func (s *MFAService) loadUser(ctx context.Context, userID string) (*models.User, error) {
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
		return nil, fmt.Errorf("mfa service: load user: %w", err)
	}

	return &user, nil
}
