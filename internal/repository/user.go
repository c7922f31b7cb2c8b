package repository

import (
	"context"
	"errors"

	"survey-go/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// EnsureAdmin creates the administrator account if none exists yet. It
// reports whether an account was created.
func (s *Store) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	var existing models.AdminUser
	err := s.db.WithContext(ctx).First(&existing).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}
	admin := &models.AdminUser{Email: email, PasswordHash: string(hashedPassword)}
	if err := s.db.WithContext(ctx).Create(admin).Error; err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) GetAdminByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	var admin models.AdminUser
	err := s.db.WithContext(ctx).First(&admin, "email = ?", email).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &admin, nil
}

func (s *Store) GetAdminByID(ctx context.Context, id uint) (*models.AdminUser, error) {
	var admin models.AdminUser
	if err := s.db.WithContext(ctx).First(&admin, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &admin, nil
}
