package repository

import (
	"context"
	"errors"

	"survey-go/internal/models"

	"gorm.io/gorm"
)

// EnsureSMTPSettings stores defaults unless a settings row already exists.
func (s *Store) EnsureSMTPSettings(ctx context.Context, defaults models.SMTPSettings) error {
	_, err := s.GetSMTPSettings(ctx)
	if !errors.Is(err, ErrNotFound) {
		return err
	}
	defaults.ID = 0
	return s.db.WithContext(ctx).Create(&defaults).Error
}

// GetSMTPSettings returns the current outgoing mail configuration.
func (s *Store) GetSMTPSettings(ctx context.Context) (*models.SMTPSettings, error) {
	var settings models.SMTPSettings
	if err := s.db.WithContext(ctx).Order("id").First(&settings).Error; err != nil {
		return nil, notFound(err)
	}
	return &settings, nil
}

// SaveSMTPSettings replaces the stored configuration. An empty password keeps
// the previous one.
func (s *Store) SaveSMTPSettings(ctx context.Context, settings *models.SMTPSettings) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.SMTPSettings
		err := tx.Order("id").First(&current).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			settings.ID = 0
			return tx.Create(settings).Error
		}
		if err != nil {
			return err
		}
		settings.ID = current.ID
		if settings.Password == "" {
			settings.Password = current.Password
		}
		return tx.Save(settings).Error
	})
}

func (s *Store) SaveDispatchRun(ctx context.Context, run *models.DispatchRun) error {
	return s.db.WithContext(ctx).Create(run).Error
}

// LatestDispatchRun returns the most recent run, or ErrNotFound before the
// first dispatch.
func (s *Store) LatestDispatchRun(ctx context.Context) (*models.DispatchRun, error) {
	var run models.DispatchRun
	if err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").First(&run).Error; err != nil {
		return nil, notFound(err)
	}
	return &run, nil
}
