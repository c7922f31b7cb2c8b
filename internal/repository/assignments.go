package repository

import (
	"context"
	"time"

	"survey-go/internal/models"

	"gorm.io/gorm/clause"
)

// AssignmentFilter narrows ListAssignments. Zero values match everything.
type AssignmentFilter struct {
	EmployeeID uint
	// Unsubmitted restricts the result to assignments still waiting for an answer.
	Unsubmitted bool
	// Invited selects only assignments that already have a token (true) or
	// only those that never had one (false). Nil matches both.
	Invited *bool
}

// EnsureAssignment inserts the (employee, rater, survey) assignment unless it
// already exists. It reports whether a row was created.
func (s *Store) EnsureAssignment(ctx context.Context, a *models.SurveyAssignment) (bool, error) {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "employee_id"}, {Name: "rater_email"}, {Name: "survey_code"}},
			DoNothing: true,
		}).
		Create(a)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ListAssignments returns the matching assignments with their employees,
// ordered by rater then survey then employee.
func (s *Store) ListAssignments(ctx context.Context, f AssignmentFilter) ([]models.SurveyAssignment, error) {
	q := s.db.WithContext(ctx).Preload("Employee").Model(&models.SurveyAssignment{})
	if f.EmployeeID != 0 {
		q = q.Where("employee_id = ?", f.EmployeeID)
	}
	if f.Unsubmitted {
		q = q.Where("is_submitted = ?", false)
	}
	if f.Invited != nil {
		if *f.Invited {
			q = q.Where("invite_token_hash IS NOT NULL")
		} else {
			q = q.Where("invite_token_hash IS NULL")
		}
	}

	var assignments []models.SurveyAssignment
	err := q.Order("rater_email, survey_code, employee_id").Find(&assignments).Error
	return assignments, err
}

func (s *Store) GetAssignmentByTokenHash(ctx context.Context, hash string) (*models.SurveyAssignment, error) {
	var a models.SurveyAssignment
	err := s.db.WithContext(ctx).Preload("Employee").First(&a, "invite_token_hash = ?", hash).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

// MarkInvited records a delivered invitation. The update only applies while
// the stored hash is still prevHash (NULL for a first invitation) and the
// assignment is unsubmitted, so a concurrent dispatch that already replaced
// the token wins and this call reports ErrStaleInvitation.
func (s *Store) MarkInvited(ctx context.Context, assignmentID uint, prevHash *string, tokenHash string, at time.Time) error {
	q := s.db.WithContext(ctx).Model(&models.SurveyAssignment{}).
		Where("id = ? AND is_submitted = ?", assignmentID, false)
	if prevHash == nil {
		q = q.Where("invite_token_hash IS NULL")
	} else {
		q = q.Where("invite_token_hash = ?", *prevHash)
	}
	res := q.Updates(map[string]interface{}{
		"invite_token_hash": tokenHash,
		"invited_at":        at,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleInvitation
	}
	return nil
}
