package models

import "time"

// JobLock is a lease row used for mutual exclusion across concurrent
// invocations of the same scheduled job. A lock is held until released
// or until the lease expires, so a hung run cannot block the job
// forever.
type JobLock struct {
	JobName     string    `gorm:"primaryKey;size:50" json:"job_name"`
	LockedUntil time.Time `gorm:"not null" json:"locked_until"`
	Holder      string    `gorm:"size:100;not null" json:"holder"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

// TableName specifies the table name for the JobLock model
func (JobLock) TableName() string {
	return "job_lock"
}
