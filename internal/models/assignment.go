package models

import "time"

// AssignmentState is the position of an assignment in its lifecycle.
// Transitions are Created -> Invited -> Submitted and never reverse.
type AssignmentState string

const (
	StateCreated   AssignmentState = "created"
	StateInvited   AssignmentState = "invited"
	StateSubmitted AssignmentState = "submitted"
)

// SurveyAssignment asks one rater to evaluate one employee on one survey.
// The (employee, rater, survey) triple is unique.
type SurveyAssignment struct {
	ID              uint     `gorm:"primaryKey"`
	EmployeeID      uint     `gorm:"not null;uniqueIndex:uq_assignment,priority:1"`
	Employee        Employee `gorm:"foreignKey:EmployeeID"`
	RaterEmail      string   `gorm:"size:255;not null;uniqueIndex:uq_assignment,priority:2"`
	RaterName       string   `gorm:"size:255"`
	SurveyCode      string   `gorm:"size:16;not null;uniqueIndex:uq_assignment,priority:3;index"`
	InviteTokenHash *string  `gorm:"size:64;uniqueIndex"`
	InvitedAt       *time.Time
	IsSubmitted     bool `gorm:"not null;default:false;index"`
	SubmittedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// State derives the lifecycle state from the stored flags.
func (a *SurveyAssignment) State() AssignmentState {
	switch {
	case a.IsSubmitted:
		return StateSubmitted
	case a.InviteTokenHash != nil:
		return StateInvited
	default:
		return StateCreated
	}
}
