package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Meeting represents a scheduled meeting in the system
type Meeting struct {
	ID                 uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	Title              string         `gorm:"size:255;not null" json:"title"`
	Date               datatypes.Date `gorm:"not null;index" json:"date"`
	StartTime          TimeOfDay      `gorm:"not null" json:"start_time"`
	EndTime            TimeOfDay      `gorm:"not null" json:"end_time"`
	Location           string         `gorm:"size:255;not null" json:"location"`
	Description        string         `gorm:"type:text" json:"description"`
	DesignatedAttendee string         `gorm:"size:255" json:"designated_attendee"`
	ParticipantID      *uint          `gorm:"index" json:"participant_id"`
	Participant        *Participant   `gorm:"foreignKey:ParticipantID" json:"participant,omitempty"`

	// Notification flags and idempotency markers. A non-null marker
	// means the notification has been sent and must not be re-sent
	// unless a forced resend is requested.
	IndividualReminderEnabled bool       `gorm:"not null;default:true" json:"individual_reminder_enabled"`
	GroupNotificationEnabled  bool       `gorm:"not null;default:true" json:"group_notification_enabled"`
	ReminderSentAt            *time.Time `json:"reminder_sent_at"`
	GroupNotificationSentAt   *time.Time `json:"group_notification_sent_at"`

	Attachments []MeetingAttachment `gorm:"foreignKey:MeetingID" json:"attachments,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Meeting model
func (Meeting) TableName() string {
	return "meeting"
}

// StartsAt combines the meeting's date and start time into an instant
// in the given location.
func (m *Meeting) StartsAt(loc *time.Location) time.Time {
	return m.StartTime.On(time.Time(m.Date), loc)
}

// EndsAt combines the meeting's date and end time into an instant
// in the given location.
func (m *Meeting) EndsAt(loc *time.Location) time.Time {
	return m.EndTime.On(time.Time(m.Date), loc)
}

// CreateMeetingRequest represents the data needed to create a new meeting
type CreateMeetingRequest struct {
	Title                     string    `json:"title" binding:"required"`
	Date                      string    `json:"date" binding:"required,datetime=2006-01-02"`
	StartTime                 TimeOfDay `json:"start_time" binding:"required"`
	EndTime                   TimeOfDay `json:"end_time" binding:"required"`
	Location                  string    `json:"location" binding:"required"`
	Description               string    `json:"description"`
	DesignatedAttendee        string    `json:"designated_attendee"`
	ParticipantID             *uint     `json:"participant_id"`
	IndividualReminderEnabled *bool     `json:"individual_reminder_enabled"`
	GroupNotificationEnabled  *bool     `json:"group_notification_enabled"`
}

// UpdateMeetingRequest represents the data allowed on meeting update.
// Pointer fields distinguish "absent" from zero values.
type UpdateMeetingRequest struct {
	Title                     *string    `json:"title"`
	Date                      *string    `json:"date" binding:"omitempty,datetime=2006-01-02"`
	StartTime                 *TimeOfDay `json:"start_time"`
	EndTime                   *TimeOfDay `json:"end_time"`
	Location                  *string    `json:"location"`
	Description               *string    `json:"description"`
	DesignatedAttendee        *string    `json:"designated_attendee"`
	ParticipantID             *uint      `json:"participant_id"`
	IndividualReminderEnabled *bool      `json:"individual_reminder_enabled"`
	GroupNotificationEnabled  *bool      `json:"group_notification_enabled"`
}
