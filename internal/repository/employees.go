package repository

import (
	"context"
	"errors"

	"survey-go/internal/models"

	"gorm.io/gorm"
)

// UpsertEmployee creates the employee identified by e.Email or updates its
// name, department and position. e is filled with the stored row.
func (s *Store) UpsertEmployee(ctx context.Context, e *models.Employee) (created bool, err error) {
	var existing models.Employee
	err = s.db.WithContext(ctx).First(&existing, "email = ?", e.Email).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := s.db.WithContext(ctx).Create(e).Error; err != nil {
			return false, err
		}
		return true, nil
	case err != nil:
		return false, err
	}

	err = s.db.WithContext(ctx).Model(&existing).Updates(map[string]interface{}{
		"name":       e.Name,
		"department": e.Department,
		"position":   e.Position,
	}).Error
	if err != nil {
		return false, err
	}
	existing.Name, existing.Department, existing.Position = e.Name, e.Department, e.Position
	*e = existing
	return false, nil
}

// ListEmployees returns every employee with its assignments.
func (s *Store) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	var employees []models.Employee
	err := s.db.WithContext(ctx).
		Preload("Assignments", func(db *gorm.DB) *gorm.DB { return db.Order("rater_email, survey_code") }).
		Order("id").
		Find(&employees).Error
	return employees, err
}

// DeleteEmployee removes an employee together with its assignments,
// submissions, responses and comments.
func (s *Store) DeleteEmployee(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		submissionIDs := tx.Model(&models.Submission{}).Select("id").Where("employee_id = ?", id)
		if err := tx.Where("submission_id IN (?)", submissionIDs).Delete(&models.Response{}).Error; err != nil {
			return err
		}
		if err := tx.Where("submission_id IN (?)", submissionIDs).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("employee_id = ?", id).Delete(&models.Submission{}).Error; err != nil {
			return err
		}
		if err := tx.Where("employee_id = ?", id).Delete(&models.SurveyAssignment{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Employee{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
