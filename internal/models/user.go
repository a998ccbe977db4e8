package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents an administrative account that can log in to manage
// meetings, participants and settings.
type User struct {
	ID         uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	Username   string         `gorm:"uniqueIndex;size:30;not null" json:"username"`
	Name       string         `gorm:"size:255;not null" json:"name"`
	Email      string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	HashedPass string         `gorm:"size:255;not null" json:"-"`
	IsAdmin    bool           `gorm:"not null;default:false" json:"is_admin"`
	LastLogin  *time.Time     `json:"last_login"`
	CreatedAt  time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "app_user"
}

// LoginRequest represents the data needed for login
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ChangePasswordRequest represents a password change for the
// authenticated user
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

// ResetPasswordRequest triggers a password-reset email
type ResetPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// UpdateProfileRequest represents profile fields the user may change
type UpdateProfileRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email" binding:"omitempty,email"`
}
