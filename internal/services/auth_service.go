package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Wata22109/secure-auth/internal/auth"
	"github.com/Wata22109/secure-auth/internal/auth/mfa"
	"github.com/Wata22109/secure-auth/internal/models"
	"github.com/Wata22109/secure-auth/pkg/crypto"
	apperrors "github.com/Wata22109/secure-auth/pkg/errors"
	"github.com/Wata22109/secure-auth/pkg/logger"
)

// AuthConfig defines tunable behaviour for the authentication flows.
type AuthConfig struct {
	LockoutThreshold int
	LockoutDuration  time.Duration
	Clock            func() time.Time
}

// AuthService orchestrates the signup, login, and MFA verification flows.
// It is the only component with nontrivial control flow: the lockout policy
// gates the password check, and an enabled second factor suspends session
// issuance until the second leg completes.
type AuthService struct {
	db     *gorm.DB
	jwt    *auth.JWTService
	engine *mfa.Engine
	policy auth.LockoutPolicy
	clock  func() time.Time
	log    *zap.Logger
}

// NewAuthService constructs the orchestrator with defaults applied.
func NewAuthService(db *gorm.DB, jwt *auth.JWTService, engine *mfa.Engine, cfg AuthConfig) (*AuthService, error) {
	if db == nil {
		return nil, errors.New("auth service: db is required")
	}
	if jwt == nil {
		return nil, errors.New("auth service: jwt service is required")
	}
	if engine == nil {
		return nil, errors.New("auth service: mfa engine is required")
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	return &AuthService{
		db:     db,
		jwt:    jwt,
		engine: engine,
		policy: auth.NewLockoutPolicy(cfg.LockoutThreshold, cfg.LockoutDuration),
		clock:  clock,
		log:    logger.WithModule("auth"),
	}, nil
}

// SignupInput captures the details required to register a new account.
type SignupInput struct {
	Name     string
	Email    string
	Password string
}

// Signup registers a new account and issues a session immediately. No login
// history entry is recorded for signup.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*models.User, string, error) {
	email := strings.TrimSpace(input.Email)
	name := strings.TrimSpace(input.Name)
	if email == "" || name == "" || input.Password == "" {
		return nil, "", apperrors.ErrBadRequest
	}

	var existing models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).Take(&existing).Error
	switch {
	case err == nil:
		return nil, "", apperrors.ErrEmailTaken
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, "", fmt.Errorf("auth service: query email: %w", err)
	}

	hashed, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, "", fmt.Errorf("auth service: hash password: %w", err)
	}

	user := models.User{
		Name:     name,
		Email:    email,
		Password: hashed,
		Role:     models.RoleUser,
	}

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, "", fmt.Errorf("auth service: create user: %w", err)
	}

	token, err := s.jwt.IssueSession(user.ID, user.Role)
	if err != nil {
		return nil, "", fmt.Errorf("auth service: issue session: %w", err)
	}

	s.log.Info("account created", zap.String("user_id", user.ID))
	return &user, token, nil
}

// LoginInput contains the credentials and client metadata for a login attempt.
type LoginInput struct {
	Email     string
	Password  string
	IPAddress string
	UserAgent string
}

// LoginResult is the outcome of the first authentication leg. When
// MFARequired is set, Token is empty and the caller must complete the second
// leg via VerifyMFA before a session exists.
type LoginResult struct {
	User        *models.User
	Token       string
	MFARequired bool
}

// Login runs the first-factor state machine: lockout gate, password check,
// then either session issuance or a transitional MFA-required signal.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	email := strings.TrimSpace(input.Email)
	if email == "" || input.Password == "" {
		return nil, apperrors.ErrInvalidCredentials
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Indistinguishable from a wrong password.
		return nil, apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("auth service: query user: %w", err)
	}

	now := s.clock()

	switch s.policy.Evaluate(user.FailedLoginAttempts, user.LockoutUntil, now) {
	case auth.LockoutLocked:
		// The password is never checked across an active lock.
		s.log.Info("login rejected: account locked", zap.String("user_id", user.ID))
		return nil, apperrors.ErrAccountLocked
	case auth.LockoutAllowAndReset:
		user.FailedLoginAttempts = 0
		user.LockoutUntil = nil
		if err := s.db.WithContext(ctx).Model(&user).Updates(map[string]any{
			"failed_login_attempts": 0,
			"lockout_until":         nil,
		}).Error; err != nil {
			return nil, fmt.Errorf("auth service: clear lock state: %w", err)
		}
	}

	if !crypto.VerifyPassword(user.Password, input.Password) {
		return nil, s.handleFailedAttempt(ctx, &user, now)
	}

	if err := s.db.WithContext(ctx).Model(&user).Updates(map[string]any{
		"failed_login_attempts": 0,
		"lockout_until":         nil,
	}).Error; err != nil {
		return nil, fmt.Errorf("auth service: reset counters: %w", err)
	}
	user.FailedLoginAttempts = 0
	user.LockoutUntil = nil

	if user.MFAEnabled {
		// Password accepted; session withheld until the second leg.
		s.log.Info("login pending second factor", zap.String("user_id", user.ID))
		return &LoginResult{User: &user, MFARequired: true}, nil
	}

	token, err := s.jwt.IssueSession(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("auth service: issue session: %w", err)
	}

	if err := s.recordLogin(ctx, user.ID, input.IPAddress, input.UserAgent); err != nil {
		return nil, err
	}

	s.log.Info("login succeeded", zap.String("user_id", user.ID))
	return &LoginResult{User: &user, Token: token}, nil
}

func (s *AuthService) handleFailedAttempt(ctx context.Context, user *models.User, now time.Time) error {
	attempts, lockUntil := s.policy.NextFailure(user.FailedLoginAttempts, now)

	updates := map[string]any{"failed_login_attempts": attempts}
	if lockUntil != nil {
		updates["lockout_until"] = *lockUntil
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return fmt.Errorf("auth service: record failed attempt: %w", err)
	}

	user.FailedLoginAttempts = attempts
	user.LockoutUntil = lockUntil

	if lockUntil != nil {
		s.log.Info("account locked after repeated failures",
			zap.String("user_id", user.ID),
			zap.Int("failed_attempts", attempts),
		)
		return apperrors.ErrAccountLocked
	}

	return apperrors.ErrInvalidCredentials
}

// MFAVerifyInput is the second authentication leg submission.
type MFAVerifyInput struct {
	UserID       string
	Code         string
	IsBackupCode bool
	IPAddress    string
	UserAgent    string
}

// MFAVerifyResult carries the completed session and the size of the
// remaining backup-code pool.
type MFAVerifyResult struct {
	User                 *models.User
	Token                string
	RemainingBackupCodes int
}

// VerifyMFA completes a login for which the first leg signalled MFARequired.
// Failures here never feed the password lockout counter.
func (s *AuthService) VerifyMFA(ctx context.Context, input MFAVerifyInput) (*MFAVerifyResult, error) {
	userID := strings.TrimSpace(input.UserID)
	code := strings.TrimSpace(input.Code)
	if userID == "" || code == "" {
		return nil, apperrors.ErrBadRequest
	}

	var user models.User
	err := s.db.WithContext(ctx).Take(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("auth service: query user: %w", err)
	}

	if !user.MFAEnabled {
		return nil, apperrors.ErrMFANotEnabled
	}
	if user.MFASecret == nil || *user.MFASecret == "" {
		return nil, apperrors.ErrMFANotConfigured
	}

	pool, err := mfa.DecodePool(user.BackupCodes)
	if err != nil {
		return nil, fmt.Errorf("auth service: %w", err)
	}

	if input.IsBackupCode {
		ok, remaining := mfa.ConsumeBackupCode(code, pool)
		if !ok {
			return nil, apperrors.ErrMFAInvalid
		}

		encoded, err := mfa.EncodePool(remaining)
		if err != nil {
			return nil, fmt.Errorf("auth service: %w", err)
		}
		if err := s.db.WithContext(ctx).Model(&user).Update("backup_codes", encoded).Error; err != nil {
			return nil, fmt.Errorf("auth service: consume backup code: %w", err)
		}
		pool = remaining
	} else if !s.engine.VerifyCode(code, *user.MFASecret) {
		return nil, apperrors.ErrMFAInvalid
	}

	// Defensive reset: the password leg already cleared these, but the
	// second leg may land after another failed first leg elsewhere.
	if err := s.db.WithContext(ctx).Model(&user).Updates(map[string]any{
		"failed_login_attempts": 0,
		"lockout_until":         nil,
	}).Error; err != nil {
		return nil, fmt.Errorf("auth service: reset counters: %w", err)
	}

	token, err := s.jwt.IssueSession(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("auth service: issue session: %w", err)
	}

	if err := s.recordLogin(ctx, user.ID, input.IPAddress, input.UserAgent); err != nil {
		return nil, err
	}

	s.log.Info("mfa verification succeeded", zap.String("user_id", user.ID))
	return &MFAVerifyResult{
		User:                 &user,
		Token:                token,
		RemainingBackupCodes: len(pool),
	}, nil
}

// recordLogin appends the single LoginHistory entry for a completed
// authentication, whether it took one leg or two.
func (s *AuthService) recordLogin(ctx context.Context, userID, ip, userAgent string) error {
	entry := models.LoginHistory{
		UserID:    userID,
		IPAddress: strings.TrimSpace(ip),
		UserAgent: strings.TrimSpace(userAgent),
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("auth service: record login history: %w", err)
	}
	return nil
}
