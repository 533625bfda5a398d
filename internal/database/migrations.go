package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/Wata22109/secure-auth/internal/models"
	"github.com/Wata22109/secure-auth/pkg/crypto"
)

// Default credentials for the bootstrap administrator account. The password
// matches the documented seed and must be rotated after first login.
const (
	seedAdminEmail    = "admin@example.com"
	seedAdminName     = "Administrator"
	seedAdminPassword = "Admin123!@#"
)

// AutoMigrate creates or updates the schema for all persistent models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.LoginHistory{},
	)
}

// SeedData provisions the initial administrator when the user table is empty.
func SeedData(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	hashed, err := crypto.HashPassword(seedAdminPassword)
	if err != nil {
		return fmt.Errorf("hash seed password: %w", err)
	}

	admin := models.User{
		Name:     seedAdminName,
		Email:    seedAdminEmail,
		Password: hashed,
		Role:     models.RoleAdmin,
	}

	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("create seed admin: %w", err)
	}

	return nil
}
