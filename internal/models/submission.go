package models

import "time"

// Submission is the immutable record of one completed assignment. Its ID is
// an opaque random identifier that says nothing about the content.
type Submission struct {
	ID           string   `gorm:"primaryKey;size:36"`
	AssignmentID uint     `gorm:"not null;uniqueIndex"`
	EmployeeID   uint     `gorm:"not null;index"`
	Employee     Employee `gorm:"foreignKey:EmployeeID;constraint:OnDelete:CASCADE"`
	RaterEmail   string   `gorm:"size:255;not null"`
	SurveyCode   string   `gorm:"size:16;not null;index"`
	// Department and Position are captured at submission time.
	Department  string `gorm:"size:255"`
	Position    string `gorm:"size:255"`
	SubmittedAt time.Time
	Responses   []Response `gorm:"foreignKey:SubmissionID;constraint:OnDelete:CASCADE"`
}

// Response is the stored score of one question within a submission.
type Response struct {
	ID           uint   `gorm:"primaryKey"`
	SubmissionID string `gorm:"size:36;not null;uniqueIndex:uq_response_question,priority:1"`
	SurveyCode   string `gorm:"size:16;not null;index"`
	QuestionNo   int    `gorm:"not null;uniqueIndex:uq_response_question,priority:2;check:chk_responses_question_no,question_no > 0"`
	Score        int    `gorm:"not null;check:chk_responses_score,score > 0"`
	Department   string `gorm:"size:255"`
	CreatedAt    time.Time
}

// Comment is optional free text left with a submission.
type Comment struct {
	ID           uint   `gorm:"primaryKey"`
	SubmissionID string `gorm:"size:36;not null;uniqueIndex"`
	Body         string `gorm:"type:text"`
	CreatedAt    time.Time
}
