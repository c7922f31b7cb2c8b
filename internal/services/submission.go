package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"survey-go/internal/models"
	"survey-go/internal/repository"
	"survey-go/internal/scoring"
	"survey-go/internal/survey"
	"survey-go/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Invitation is what a rater sees when opening a survey link.
type Invitation struct {
	Assignment *models.SurveyAssignment
	Definition *survey.Definition
}

// SubmissionService turns a presented token and a set of answers into a
// stored submission.
type SubmissionService struct {
	store   SubmissionStore
	catalog *survey.Catalog
	engine  *scoring.Engine
	log     *zap.Logger

	now   func() time.Time
	newID func() string
}

func NewSubmissionService(store SubmissionStore, catalog *survey.Catalog, engine *scoring.Engine, log *zap.Logger) *SubmissionService {
	return &SubmissionService{
		store:   store,
		catalog: catalog,
		engine:  engine,
		log:     log,
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
}

// Open resolves a token. A submitted assignment is still returned together
// with ErrAlreadySubmitted so callers can show a friendly page.
func (s *SubmissionService) Open(ctx context.Context, token string) (*Invitation, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidInvitation
	}

	a, err := s.store.GetAssignmentByTokenHash(ctx, utils.HashToken(token))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidInvitation
	}
	if err != nil {
		return nil, fmt.Errorf("looking up invitation: %w", err)
	}

	def, err := s.catalog.Resolve(a.SurveyCode)
	if err != nil {
		s.log.Warn("Assignment references unknown survey",
			zap.Uint("assignmentID", a.ID), zap.String("survey", a.SurveyCode))
		return nil, ErrInvalidInvitation
	}

	inv := &Invitation{Assignment: a, Definition: def}
	if a.IsSubmitted {
		return inv, ErrAlreadySubmitted
	}
	return inv, nil
}

// Submit scores the answers and stores them. A *scoring.ValidationError
// means nothing was written.
func (s *SubmissionService) Submit(ctx context.Context, token string, answers scoring.Answers, comment string) (*scoring.Result, error) {
	inv, err := s.Open(ctx, token)
	if err != nil {
		return nil, err
	}
	a := inv.Assignment

	result, err := s.engine.Score(inv.Definition.Code, answers)
	if err != nil {
		return nil, err
	}

	sub := &models.Submission{
		ID:           s.newID(),
		AssignmentID: a.ID,
		EmployeeID:   a.EmployeeID,
		RaterEmail:   a.RaterEmail,
		SurveyCode:   string(result.Code),
		Department:   a.Employee.Department,
		Position:     a.Employee.Position,
		SubmittedAt:  s.now().UTC(),
	}
	for i, score := range result.Scores {
		sub.Responses = append(sub.Responses, models.Response{
			SubmissionID: sub.ID,
			SurveyCode:   sub.SurveyCode,
			QuestionNo:   i + 1,
			Score:        score,
			Department:   sub.Department,
		})
	}

	err = s.store.CreateSubmission(ctx, sub, comment)
	if errors.Is(err, repository.ErrAlreadySubmitted) {
		s.log.Info("Rejected duplicate submission", zap.Uint("assignmentID", a.ID))
		return nil, ErrAlreadySubmitted
	}
	if err != nil {
		return nil, fmt.Errorf("saving submission: %w", err)
	}

	s.log.Info("Survey submitted",
		zap.Uint("assignmentID", a.ID),
		zap.String("survey", sub.SurveyCode),
		zap.String("submissionID", sub.ID),
		zap.String("category", result.Classification.Category),
	)
	return result, nil
}
