package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Wata22109/secure-auth/internal/auth"
	"github.com/Wata22109/secure-auth/internal/models"
	apperrors "github.com/Wata22109/secure-auth/pkg/errors"
)

func TestSignupIssuesSessionWithoutHistory(t *testing.T) {
	db := setupDB(t)
	current := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
	svc, _ := newAuthService(t, db, func() time.Time { return current })

	user, token, err := svc.Signup(context.Background(), SignupInput{
		Name:     "Alice",
		Email:    "signup-alice@example.com",
		Password: "Abc12345!",
	})
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.Equal(t, models.RoleUser, user.Role)
	require.NotEqual(t, "Abc12345!", user.Password)

	require.EqualValues(t, 0, countHistory(t, db, user.ID))
}

func TestSignupDuplicateEmailConflict(t *testing.T) {
	db := setupDB(t)
	svc, _ := newAuthService(t, db, time.Now)

	first, _, err := svc.Signup(context.Background(), SignupInput{
		Name: "A", Email: "dup@example.com", Password: "Abc12345!",
	})
	require.NoError(t, err)

	_, _, err = svc.Signup(context.Background(), SignupInput{
		Name: "B", Email: "dup@example.com", Password: "Xyz98765!",
	})
	require.ErrorIs(t, err, apperrors.ErrEmailTaken)

	// First record is unaltered.
	stored := reloadUser(t, db, first.ID)
	require.Equal(t, "A", stored.Name)
	require.Equal(t, first.Password, stored.Password)
}

func TestLoginUnknownEmailIsGenericFailure(t *testing.T) {
	db := setupDB(t)
	svc, _ := newAuthService(t, db, time.Now)

	_, err := svc.Login(context.Background(), LoginInput{
		Email: "missing@example.com", Password: "whatever",
	})
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestLoginWrongPasswordIncrementsCounter(t *testing.T) {
	db := setupDB(t)
	current := time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)
	svc, _ := newAuthService(t, db, func() time.Time { return current })

	user := createUser(t, db, "counter@example.com", "Abc12345!")

	for i := 1; i <= 4; i++ {
		_, err := svc.Login(context.Background(), LoginInput{
			Email: user.Email, Password: "wrong",
		})
		require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

		stored := reloadUser(t, db, user.ID)
		require.Equal(t, i, stored.FailedLoginAttempts)
		require.Nil(t, stored.LockoutUntil)
	}
}

func TestFifthFailureLocksAccount(t *testing.T) {
	db := setupDB(t)
	current := time.Date(2024, 7, 1, 11, 0, 0, 0, time.UTC)
	svc, _ := newAuthService(t, db, func() time.Time { return current })

	user := createUser(t, db, "locks@example.com", "Abc12345!")
	require.NoError(t, db.Model(user).Update("failed_login_attempts", 4).Error)

	_, err := svc.Login(context.Background(), LoginInput{Email: user.Email, Password: "wrong"})
	require.ErrorIs(t, err, apperrors.ErrAccountLocked)

	stored := reloadUser(t, db, user.ID)
	require.Equal(t, 5, stored.FailedLoginAttempts)
	require.NotNil(t, stored.LockoutUntil)
	require.WithinDuration(t, current.Add(auth.DefaultLockoutDuration), *stored.LockoutUntil, time.Second)
}

func TestCorrectPasswordRejectedWhileLocked(t *testing.T) {
	db := setupDB(t)
	current := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	svc, _ := newAuthService(t, db, func() time.Time { return current })

	user := createUser(t, db, "locked@example.com", "Abc12345!")
	until := current.Add(10 * time.Minute)
	require.NoError(t, db.Model(user).Updates(map[string]any{
		"failed_login_attempts": 5,
		"lockout_until":         until,
	}).Error)

	_, err := svc.Login(context.Background(), LoginInput{Email: user.Email, Password: "Abc12345!"})
	require.ErrorIs(t, err, apperrors.ErrAccountLocked)

	// The attempt counter is untouched across the lock.
	stored := reloadUser(t, db, user.ID)
	require.Equal(t, 5, stored.FailedLoginAttempts)
}

func TestElapsedLockoutClearsBeforePasswordCheck(t *testing.T) {
	db := setupDB(t)
	current := time.Date(2024, 7, 1, 13, 0, 0, 0, time.UTC)
	svc, _ := newAuthService(t, db, func() time.Time { return current })

	user := createUser(t, db, "elapsed@example.com", "Abc12345!")
	expired := current.Add(-time.Second)
	require.NoError(t, db.Model(user).Updates(map[string]any{
		"failed_login_attempts": 5,
		"lockout_until":         expired,
	}).Error)

	// Wrong password after expiry behaves as a fresh account: counter restarts at 1.
	_, err := svc.Login(context.Background(), LoginInput{Email: user.Email, Password: "wrong"})
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	stored := reloadUser(t, db, user.ID)
	require.Equal(t, 1, stored.FailedLoginAttempts)
	require.Nil(t, stored.LockoutUntil)
}

func TestSuccessfulLoginResetsCountersAndRecordsHistory(t *testing.T) {
	db := setupDB(t)
	current := time.Date(2024, 7, 1, 14, 0, 0, 0, time.UTC)
	svc, _ := newAuthService(t, db, func() time.Time { return current })

	user := createUser(t, db, "success@example.com", "Abc12345!")
	require.NoError(t, db.Model(user).Update("failed_login_attempts", 3).Error)

	result, err := svc.Login(context.Background(), LoginInput{
		Email:     user.Email,
		Password:  "Abc12345!",
		IPAddress: "192.0.2.10",
		UserAgent: "go-test",
	})
	require.NoError(t, err)
	require.False(t, result.MFARequired)
	require.NotEmpty(t, result.Token)

	stored := reloadUser(t, db, user.ID)
	require.Equal(t, 0, stored.FailedLoginAttempts)
	require.Nil(t, stored.LockoutUntil)

	require.EqualValues(t, 1, countHistory(t, db, user.ID))
}

func TestLoginWithMFARequiresSecondLeg(t *testing.T) {
	db := setupDB(t)
	current := time.Date(2024, 7, 1, 15, 0, 0, 0, time.UTC)
	svc, engine := newAuthService(t, db, func() time.Time { return current })

	user := createUser(t, db, "mfa-login@example.com", "Abc12345!")
	secret := enableMFA(t, db, engine, user)

	result, err := svc.Login(context.Background(), LoginInput{
		Email: user.Email, Password: "Abc12345!",
	})
	require.NoError(t, err)
	require.True(t, result.MFARequired)
	require.Empty(t, result.Token)

	// No history until the second leg completes.
	require.EqualValues(t, 0, countHistory(t, db, user.ID))

	code, err := engine.CurrentCode(secret)
	require.NoError(t, err)

	verified, err := svc.VerifyMFA(context.Background(), MFAVerifyInput{
		UserID:    user.ID,
		Code:      code,
		IPAddress: "192.0.2.20",
		UserAgent: "go-test",
	})
	require.NoError(t, err)
	require.NotEmpty(t, verified.Token)

	// Exactly one entry for the whole two-step flow.
	require.EqualValues(t, 1, countHistory(t, db, user.ID))
}

func TestVerifyMFARejectsInvalidCode(t *testing.T) {
	db := setupDB(t)
	current := time.Date(2024, 7, 1, 16, 0, 0, 0, time.UTC)
	svc, engine := newAuthService(t, db, func() time.Time { return current })

	user := createUser(t, db, "mfa-bad@example.com", "Abc12345!")
	enableMFA(t, db, engine, user)

	_, err := svc.VerifyMFA(context.Background(), MFAVerifyInput{
		UserID: user.ID,
		Code:   "000000",
	})
	require.ErrorIs(t, err, apperrors.ErrMFAInvalid)

	// MFA failures do not feed the password lockout counter.
	stored := reloadUser(t, db, user.ID)
	require.Equal(t, 0, stored.FailedLoginAttempts)
	require.EqualValues(t, 0, countHistory(t, db, user.ID))
}

func TestVerifyMFAConsumesBackupCodeOnce(t *testing.T) {
	db := setupDB(t)
	current := time.Date(2024, 7, 1, 17, 0, 0, 0, time.UTC)
	svc, engine := newAuthService(t, db, func() time.Time { return current })

	user := createUser(t, db, "mfa-backup@example.com", "Abc12345!")
	enableMFA(t, db, engine, user)

	pool := backupPool(t, db, user.ID)
	used := pool[0]

	result, err := svc.VerifyMFA(context.Background(), MFAVerifyInput{
		UserID:       user.ID,
		Code:         used,
		IsBackupCode: true,
	})
	require.NoError(t, err)
	require.Equal(t, len(pool)-1, result.RemainingBackupCodes)

	require.NotContains(t, backupPool(t, db, user.ID), used)

	// A consumed code cannot be replayed.
	_, err = svc.VerifyMFA(context.Background(), MFAVerifyInput{
		UserID:       user.ID,
		Code:         used,
		IsBackupCode: true,
	})
	require.ErrorIs(t, err, apperrors.ErrMFAInvalid)
}

func TestVerifyMFAErrorsForUnknownOrPlainAccounts(t *testing.T) {
	db := setupDB(t)
	svc, _ := newAuthService(t, db, time.Now)

	_, err := svc.VerifyMFA(context.Background(), MFAVerifyInput{
		UserID: "00000000-0000-0000-0000-000000000000",
		Code:   "123456",
	})
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	plain := createUser(t, db, "plain@example.com", "Abc12345!")
	_, err = svc.VerifyMFA(context.Background(), MFAVerifyInput{
		UserID: plain.ID,
		Code:   "123456",
	})
	require.ErrorIs(t, err, apperrors.ErrMFANotEnabled)
}
