package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Wata22109/secure-auth/internal/auth"
	"github.com/Wata22109/secure-auth/internal/auth/mfa"
	"github.com/Wata22109/secure-auth/internal/database"
	"github.com/Wata22109/secure-auth/internal/models"
	"github.com/Wata22109/secure-auth/pkg/crypto"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open(database.Config{Driver: "sqlite"})
	require.NoError(t, err)

	require.NoError(t, database.AutoMigrateAndSeed(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}

func newAuthService(t *testing.T, db *gorm.DB, clock func() time.Time) (*AuthService, *mfa.Engine) {
	t.Helper()

	engine := mfa.NewEngine(mfa.WithClock(clock))
	svc, err := NewAuthService(db, newJWT(t, clock), engine, AuthConfig{Clock: clock})
	require.NoError(t, err)
	return svc, engine
}

func newJWT(t *testing.T, clock func() time.Time) *auth.JWTService {
	t.Helper()

	jwt, err := auth.NewJWTService(auth.JWTConfig{Secret: "test-secret", Clock: clock})
	require.NoError(t, err)
	return jwt
}

func createUser(t *testing.T, db *gorm.DB, email, password string) *models.User {
	t.Helper()

	hashed, err := crypto.HashPassword(password)
	require.NoError(t, err)

	user := &models.User{
		Name:     "Test User",
		Email:    email,
		Password: hashed,
		Role:     models.RoleUser,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func enableMFA(t *testing.T, db *gorm.DB, engine *mfa.Engine, user *models.User) string {
	t.Helper()

	enrollment, err := engine.Setup(user.Email)
	require.NoError(t, err)

	encoded, err := mfa.EncodePool(enrollment.BackupCodes)
	require.NoError(t, err)

	require.NoError(t, db.Model(user).Updates(map[string]any{
		"mfa_enabled":  true,
		"mfa_secret":   enrollment.Secret,
		"backup_codes": encoded,
	}).Error)

	return enrollment.Secret
}

func reloadUser(t *testing.T, db *gorm.DB, id string) models.User {
	t.Helper()

	var user models.User
	require.NoError(t, db.Take(&user, "id = ?", id).Error)
	return user
}

func backupPool(t *testing.T, db *gorm.DB, userID string) []string {
	t.Helper()

	user := reloadUser(t, db, userID)
	pool, err := mfa.DecodePool(user.BackupCodes)
	require.NoError(t, err)
	return pool
}

func countHistory(t *testing.T, db *gorm.DB, userID string) int64 {
	t.Helper()

	var count int64
	require.NoError(t, db.Model(&models.LoginHistory{}).Where("user_id = ?", userID).Count(&count).Error)
	return count
}
