package models

import (
	"time"

	"gatehouse/internal/uuid"

	"gorm.io/gorm"
)

// AccessStatus is the outcome recorded on an access log entry.
type AccessStatus string

const (
	AccessStatusSuccess AccessStatus = "success"
	AccessStatusDenied  AccessStatus = "denied"
	AccessStatusWarning AccessStatus = "warning"
)

// Valid reports whether s is a known access status.
func (s AccessStatus) Valid() bool {
	switch s {
	case AccessStatusSuccess, AccessStatusDenied, AccessStatusWarning:
		return true
	}
	return false
}

// AccessLog is an append-only audit record. It has no UpdatedAt or DeletedAt
// column because entries are never modified after insertion.
type AccessLog struct {
	ID         string       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     string       `gorm:"not null;index" json:"user_id"`
	UserName   string       `json:"user_name"`
	Action     string       `gorm:"not null" json:"action"`
	ResourceID *string      `gorm:"index" json:"resource_id"`
	Location   string       `json:"location"`
	Status     AccessStatus `gorm:"not null" json:"status"`
	Timestamp  time.Time    `gorm:"not null;index" json:"timestamp"`
}

// BeforeCreate assigns the identifier and timestamp when the caller left them empty.
func (l *AccessLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.New()
	}
	if l.Timestamp.IsZero() {
		l.Timestamp = time.Now().UTC()
	}
	return nil
}
