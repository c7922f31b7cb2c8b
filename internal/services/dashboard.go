package services

import (
	"context"
	"errors"
	"fmt"

	"survey-go/internal/metrics"
	"survey-go/internal/models"
	"survey-go/internal/repository"
	"survey-go/internal/survey"

	"github.com/samber/lo"
)

// Dashboard is the admin overview.
type Dashboard struct {
	Surveys   []metrics.SurveyStats
	Assigned  int
	Submitted int
	Pending   int
	// LastRun is nil until the first dispatch.
	LastRun *models.DispatchRun
}

// DashboardService assembles the admin pages from stored data.
type DashboardService struct {
	store      DashboardStore
	catalog    *survey.Catalog
	calculator *metrics.Calculator
}

func NewDashboardService(store DashboardStore, catalog *survey.Catalog, calculator *metrics.Calculator) *DashboardService {
	return &DashboardService{store: store, catalog: catalog, calculator: calculator}
}

func (s *DashboardService) Stats(ctx context.Context) (*Dashboard, error) {
	data, err := s.store.LoadDataset(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("loading dataset: %w", err)
	}

	d := &Dashboard{Surveys: s.calculator.CalculateAll(data)}
	for _, st := range d.Surveys {
		d.Assigned += st.Assigned
		d.Submitted += st.Submitted
		d.Pending += st.Pending
	}

	run, err := s.store.LatestDispatchRun(ctx)
	switch {
	case err == nil:
		d.LastRun = run
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("loading last dispatch: %w", err)
	}
	return d, nil
}

// Directory lists every employee with per-rater, per-survey results.
func (s *DashboardService) Directory(ctx context.Context) ([]metrics.DirectoryEntry, error) {
	employees, err := s.store.ListEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading employees: %w", err)
	}
	data, err := s.store.LoadDataset(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("loading dataset: %w", err)
	}

	byAssignment := lo.SliceToMap(data.Submissions, func(sub models.Submission) (uint, models.Submission) {
		return sub.AssignmentID, sub
	})
	responses := lo.GroupBy(data.Responses, func(r models.Response) string { return r.SubmissionID })
	comments, err := s.store.ListComments(ctx, lo.Map(data.Submissions, func(sub models.Submission, _ int) string { return sub.ID }))
	if err != nil {
		return nil, fmt.Errorf("loading comments: %w", err)
	}

	entries := make([]metrics.DirectoryEntry, 0, len(employees))
	for _, e := range employees {
		entry := metrics.DirectoryEntry{Employee: e}
		for _, a := range e.Assignments {
			view := metrics.AssignmentResult{Assignment: a, State: a.State()}
			if sub, ok := byAssignment[a.ID]; ok {
				detail := s.calculator.Detail(s.catalog.Normalize(sub.SurveyCode), responses[sub.ID])
				view.Detail = &detail
				view.Comment = comments[sub.ID]
			}
			entry.Assignments = append(entry.Assignments, view)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
