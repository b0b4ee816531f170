package models

import "time"

type User struct {
	Username       string    `gorm:"primaryKey;size:100" json:"username"`
	Email          string    `gorm:"size:150;not null" json:"email"`
	HashedPassword string    `gorm:"type:text;not null" json:"-"`
	IsAdmin        bool      `gorm:"not null;default:false" json:"is_admin"`
	IsActive       bool      `gorm:"not null" json:"is_active"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// UserFlags are the account flags an administrator may toggle.
type UserFlags struct {
	IsAdmin  *bool `json:"is_admin"`
	IsActive *bool `json:"is_active"`
}
