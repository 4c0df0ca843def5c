package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Contact struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID    snowflake.ID `gorm:"not null;index" json:"user_id"`
	FirstName string       `gorm:"not null" json:"first_name"`
	LastName  string       `gorm:"not null" json:"last_name"`
	Email     string       `gorm:"not null;uniqueIndex" json:"email"`
	Phone     string       `json:"phone,omitempty"`
	Birthday  time.Time    `gorm:"type:date" json:"birthday"`
	Notes     string       `json:"notes,omitempty"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}
