package models

import "time"

// Employee is a person who is evaluated through one or more surveys.
type Employee struct {
	ID          uint               `gorm:"primaryKey"`
	Name        string             `gorm:"size:255;not null"`
	Email       string             `gorm:"size:255;uniqueIndex;not null"`
	Department  string             `gorm:"size:255"`
	Position    string             `gorm:"size:255"`
	Assignments []SurveyAssignment `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
