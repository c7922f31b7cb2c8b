package repository

import (
	"context"

	"survey-go/internal/metrics"
	"survey-go/internal/models"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// LoadDataset reads everything the aggregation needs for the given surveys.
// An empty code list loads every survey.
func (s *Store) LoadDataset(ctx context.Context, codes []string) (metrics.Dataset, error) {
	var data metrics.Dataset
	db := s.db.WithContext(ctx)

	scoped := func(q *gorm.DB) *gorm.DB {
		if len(codes) == 0 {
			return q
		}
		return q.Where("survey_code = ANY(?)", pq.Array(codes))
	}

	if err := scoped(db.Preload("Employee")).Order("id").Find(&data.Assignments).Error; err != nil {
		return data, err
	}
	if err := scoped(db.Preload("Employee").Model(&models.Submission{})).Order("submitted_at").Find(&data.Submissions).Error; err != nil {
		return data, err
	}
	if err := scoped(db.Model(&models.Response{})).Order("submission_id, question_no").Find(&data.Responses).Error; err != nil {
		return data, err
	}
	return data, nil
}
