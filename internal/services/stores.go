package services

import (
	"context"
	"time"

	"survey-go/internal/metrics"
	"survey-go/internal/models"
	"survey-go/internal/repository"
)

// The interfaces below are the slices of *repository.Store each service
// depends on.

type SubmissionStore interface {
	GetAssignmentByTokenHash(ctx context.Context, hash string) (*models.SurveyAssignment, error)
	CreateSubmission(ctx context.Context, sub *models.Submission, comment string) error
}

type EmployeeStore interface {
	UpsertEmployee(ctx context.Context, e *models.Employee) (bool, error)
	EnsureAssignment(ctx context.Context, a *models.SurveyAssignment) (bool, error)
}

type DispatchStore interface {
	ListAssignments(ctx context.Context, f repository.AssignmentFilter) ([]models.SurveyAssignment, error)
	MarkInvited(ctx context.Context, assignmentID uint, prevHash *string, tokenHash string, at time.Time) error
	SaveDispatchRun(ctx context.Context, run *models.DispatchRun) error
}

type SettingsStore interface {
	GetSMTPSettings(ctx context.Context) (*models.SMTPSettings, error)
}

type DashboardStore interface {
	LoadDataset(ctx context.Context, codes []string) (metrics.Dataset, error)
	ListEmployees(ctx context.Context) ([]models.Employee, error)
	ListComments(ctx context.Context, submissionIDs []string) (map[string]string, error)
	LatestDispatchRun(ctx context.Context) (*models.DispatchRun, error)
}

var (
	_ SubmissionStore = (*repository.Store)(nil)
	_ EmployeeStore   = (*repository.Store)(nil)
	_ DispatchStore   = (*repository.Store)(nil)
	_ SettingsStore   = (*repository.Store)(nil)
	_ DashboardStore  = (*repository.Store)(nil)
)
