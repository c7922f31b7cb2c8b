package services

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInvitation means the presented token matches no assignment
	// or points at a survey the catalog does not know.
	ErrInvalidInvitation = errors.New("invalid or expired invitation")
	// ErrAlreadySubmitted means the assignment already has its submission.
	ErrAlreadySubmitted = errors.New("survey already submitted")
	// ErrNoSMTPSettings is returned when mail is sent before SMTP is configured.
	ErrNoSMTPSettings = errors.New("smtp settings are not configured")
)

// DeliveryError wraps a failed e-mail delivery to one recipient.
type DeliveryError struct {
	To  string
	Err error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery to %s failed: %v", e.To, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
