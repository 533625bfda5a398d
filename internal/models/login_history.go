package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LoginHistory is an append-only record created once per successful
// authentication. UserID is a reference, not ownership: rows outlive the
// account and are never mutated by the auth flows.
type LoginHistory struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;index" json:"-"`
	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (h *LoginHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	return nil
}
