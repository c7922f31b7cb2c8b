package repository

import (
	"context"
	"errors"
	"strings"

	"survey-go/internal/models"

	"gorm.io/gorm"
)

// CreateSubmission stores a submission with its responses and optional
// comment, and flips its assignment to submitted, all in one transaction.
// The assignment update is conditional on is_submitted being false, so of
// two concurrent writers only one commits; the other gets ErrAlreadySubmitted.
func (s *Store) CreateSubmission(ctx context.Context, sub *models.Submission, comment string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.SurveyAssignment{}).
			Where("id = ? AND is_submitted = ?", sub.AssignmentID, false).
			Updates(map[string]interface{}{
				"is_submitted": true,
				"submitted_at": sub.SubmittedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadySubmitted
		}

		if err := tx.Omit("Employee").Create(sub).Error; err != nil {
			return err
		}

		if body := strings.TrimSpace(comment); body != "" {
			c := &models.Comment{SubmissionID: sub.ID, Body: body}
			if err := tx.Create(c).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrAlreadySubmitted
	}
	return err
}

// ListComments returns the comments of the given submissions keyed by
// submission id.
func (s *Store) ListComments(ctx context.Context, submissionIDs []string) (map[string]string, error) {
	out := make(map[string]string, len(submissionIDs))
	if len(submissionIDs) == 0 {
		return out, nil
	}
	var comments []models.Comment
	if err := s.db.WithContext(ctx).Where("submission_id IN ?", submissionIDs).Find(&comments).Error; err != nil {
		return nil, err
	}
	for _, c := range comments {
		out[c.SubmissionID] = c.Body
	}
	return out, nil
}
