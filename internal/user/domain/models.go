package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Role is the closed set of account roles.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type User struct {
	ID           snowflake.ID      `gorm:"primaryKey" json:"id"`
	Email        string            `gorm:"not null;uniqueIndex" json:"email"`
	PasswordHash string            `gorm:"not null" json:"-"`
	FullName     string            `json:"full_name,omitempty"`
	AvatarURL    string            `json:"avatar_url,omitempty"`
	IsActive     bool              `gorm:"not null;default:true" json:"is_active"`
	IsVerified   bool              `gorm:"not null;default:false" json:"is_verified"`
	Role         Role              `gorm:"not null;default:user" json:"role"`
	Metadata     datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// Snapshot is the cached projection of a user. It carries the fields the
// session resolver needs to gate a request and never the password hash.
type Snapshot struct {
	ID         snowflake.ID `json:"id"`
	Email      string       `json:"email"`
	FullName   string       `json:"full_name,omitempty"`
	AvatarURL  string       `json:"avatar_url,omitempty"`
	IsActive   bool         `json:"is_active"`
	IsVerified bool         `json:"is_verified"`
	Role       Role         `json:"role"`
}

// SnapshotOf projects a user into its cacheable form.
func SnapshotOf(u *User) Snapshot {
	return Snapshot{
		ID:         u.ID,
		Email:      u.Email,
		FullName:   u.FullName,
		AvatarURL:  u.AvatarURL,
		IsActive:   u.IsActive,
		IsVerified: u.IsVerified,
		Role:       u.Role,
	}
}

// AsUser rebuilds a principal from a snapshot. The password hash is absent.
func (s Snapshot) AsUser() *User {
	return &User{
		ID:         s.ID,
		Email:      s.Email,
		FullName:   s.FullName,
		AvatarURL:  s.AvatarURL,
		IsActive:   s.IsActive,
		IsVerified: s.IsVerified,
		Role:       s.Role,
	}
}
