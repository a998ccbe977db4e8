package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Settings is the single process-wide configuration row for the
// notification engine. It is lazily created with defaults on first
// access and updated in place, never deleted.
type Settings struct {
	ID                        uint      `gorm:"primaryKey" json:"id"`
	IndividualReminderEnabled bool      `gorm:"not null;default:true" json:"individual_reminder_enabled"`
	IndividualReminderMinutes int       `gorm:"not null;default:30" json:"individual_reminder_minutes"`
	GroupNotificationEnabled  bool      `gorm:"not null;default:true" json:"group_notification_enabled"`
	GroupNotificationTime     TimeOfDay `gorm:"not null" json:"group_notification_time"`
	WhatsappConnected         bool      `gorm:"not null;default:false" json:"whatsapp_connected"`
	CreatedAt                 time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt                 time.Time `gorm:"not null" json:"updated_at"`
}

// TableName specifies the table name for the Settings model
func (Settings) TableName() string {
	return "settings"
}

// DefaultSettings returns the documented defaults used when the
// settings row is first materialized.
func DefaultSettings() Settings {
	return Settings{
		ID:                        1,
		IndividualReminderEnabled: true,
		IndividualReminderMinutes: 30,
		GroupNotificationEnabled:  true,
		GroupNotificationTime:     TimeOfDay{Hour: 7},
		WhatsappConnected:         false,
	}
}

// GetSettings returns the singleton settings row, creating it with
// defaults if it does not exist yet. All settings reads in the engine
// go through this accessor.
func GetSettings(db *gorm.DB) (Settings, error) {
	var settings Settings
	err := db.Where("id = ?", 1).First(&settings).Error
	if err == nil {
		return settings, nil
	}
	if err != gorm.ErrRecordNotFound {
		return Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}

	settings = DefaultSettings()
	// DoNothing keeps a concurrent first access from failing on the
	// primary key; re-read below returns whichever row won.
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&settings).Error; err != nil {
		return Settings{}, fmt.Errorf("failed to create default settings: %w", err)
	}
	if err := db.Where("id = ?", 1).First(&settings).Error; err != nil {
		return Settings{}, fmt.Errorf("failed to reload settings: %w", err)
	}
	return settings, nil
}

// UpdateSettingsRequest represents an administrative settings update
type UpdateSettingsRequest struct {
	IndividualReminderEnabled *bool      `json:"individual_reminder_enabled"`
	IndividualReminderMinutes *int       `json:"individual_reminder_minutes" binding:"omitempty,min=0"`
	GroupNotificationEnabled  *bool      `json:"group_notification_enabled"`
	GroupNotificationTime     *TimeOfDay `json:"group_notification_time"`
}
