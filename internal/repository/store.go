// Package repository persists employees, assignments and submissions with GORM.
package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadySubmitted is returned when an assignment already has a
	// submission, including when a concurrent writer won the race.
	ErrAlreadySubmitted = errors.New("assignment already submitted")
	// ErrStaleInvitation is returned when an assignment's token changed, or
	// it was submitted, after it was listed for dispatch.
	ErrStaleInvitation = errors.New("invitation changed since it was listed")
)

// Store is the GORM-backed persistence layer.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
