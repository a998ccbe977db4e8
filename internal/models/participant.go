package models

import (
	"time"

	"gorm.io/gorm"
)

// Participant represents a person who can be designated as the
// individual-reminder recipient of a meeting. Participants are shared
// references and are never owned by a meeting.
type Participant struct {
	ID          uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string         `gorm:"size:255;not null" json:"name" binding:"required"`
	PhoneNumber string         `gorm:"size:30;not null;index" json:"phone_number" binding:"required"`
	Division    string         `gorm:"size:100;index" json:"division"`
	Active      bool           `gorm:"not null;default:true" json:"active"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Participant model
func (Participant) TableName() string {
	return "participant"
}

// CreateParticipantRequest represents the data needed to create a participant
type CreateParticipantRequest struct {
	Name        string `json:"name" binding:"required"`
	PhoneNumber string `json:"phone_number" binding:"required"`
	Division    string `json:"division"`
	Active      *bool  `json:"active"`
}

// UpdateParticipantRequest represents the data allowed on participant update
type UpdateParticipantRequest struct {
	Name        *string `json:"name"`
	PhoneNumber *string `json:"phone_number"`
	Division    *string `json:"division"`
	Active      *bool   `json:"active"`
}
