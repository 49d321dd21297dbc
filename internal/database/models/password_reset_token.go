package models

import (
	"time"

	"github.com/google/uuid"
)

// PasswordResetToken is a single-use, time-boxed recovery credential.
// The row is deleted on successful use, which is what enforces single use.
type PasswordResetToken struct {
	Base
	Token     string    `gorm:"uniqueIndex;not null" json:"-"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (PasswordResetToken) TableName() string {
	return "password_reset_tokens"
}

func (t *PasswordResetToken) Expired(now time.Time) bool {
	return t.ExpiresAt.Before(now)
}
