package models

import "time"

// MeetingAttachment represents a file uploaded for a meeting (agenda
// documents, minutes, photos). The binary lives in Cloudinary; only
// metadata is stored here.
type MeetingAttachment struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	MeetingID      uint      `gorm:"not null;index" json:"meeting_id"`
	FileName       string    `gorm:"size:255;not null" json:"file_name"`
	PublicID       string    `gorm:"size:255;not null" json:"public_id"`
	URL            string    `gorm:"size:512;not null" json:"url"`
	FileSize       int64     `gorm:"not null" json:"file_size"`
	MimeType       string    `gorm:"size:100" json:"mime_type"`
	AttachmentType string    `gorm:"size:20;not null;default:document" json:"attachment_type"` // document or photo
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null" json:"updated_at"`
}

// TableName specifies the table name for the MeetingAttachment model
func (MeetingAttachment) TableName() string {
	return "meeting_attachment"
}
