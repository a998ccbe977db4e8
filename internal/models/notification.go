package models

import (
	"time"
)

// Recipient kinds recorded on ledger entries.
const (
	RecipientIndividual = "individual"
	RecipientGroup      = "group"
)

// Notification statuses. An entry is created once per send attempt and
// moves to exactly one terminal status; it is never mutated afterwards.
const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

// WhatsappNotification is the ledger of every send attempt, used for
// auditing and retention pruning. Entries older than the retention
// horizon are purged by the weekly cleanup sweep.
type WhatsappNotification struct {
	ID                uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	MeetingID         *uint      `gorm:"index" json:"meeting_id"`
	RecipientType     string     `gorm:"size:20;not null;index" json:"recipient_type"`
	RecipientNumber   string     `gorm:"size:30;not null" json:"recipient_number"`
	MessageContent    string     `gorm:"type:text;not null" json:"message_content"`
	Status            string     `gorm:"size:20;not null;index" json:"status"`
	SentAt            *time.Time `json:"sent_at"`
	ErrorMessage      *string    `gorm:"type:text" json:"error_message"`
	WhatsappMessageID *string    `gorm:"size:100" json:"whatsapp_message_id"`
	CreatedAt         time.Time  `gorm:"not null;index" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"not null" json:"updated_at"`
}

// TableName specifies the table name for the WhatsappNotification model
func (WhatsappNotification) TableName() string {
	return "whatsapp_notification"
}
