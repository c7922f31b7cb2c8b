package models

import (
	"time"

	"gorm.io/datatypes"
)

// SMTPSettings is the single row of outgoing mail configuration, editable
// from the admin pages.
type SMTPSettings struct {
	ID        uint   `gorm:"primaryKey"`
	Host      string `gorm:"size:255;not null"`
	Port      int    `gorm:"not null;default:587"`
	Username  string `gorm:"size:255"`
	Password  string `gorm:"size:255"`
	UseTLS    bool   `gorm:"not null;default:true"`
	FromEmail string `gorm:"size:255;not null"`
	FromName  string `gorm:"size:255;not null"`
	UpdatedAt time.Time
}

// DispatchRun records the outcome of one bulk invitation or reminder send.
type DispatchRun struct {
	ID          uint   `gorm:"primaryKey"`
	Kind        string `gorm:"size:16;not null;index"`
	Recipients  int
	Sent        int
	Failed      int
	Assignments int
	Failures    datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	CreatedAt   time.Time
}
