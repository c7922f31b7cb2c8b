package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"survey-go/internal/metrics"
	"survey-go/internal/models"
	"survey-go/internal/repository"
)

// memStore is an in-memory stand-in for *repository.Store.
type memStore struct {
	mu          sync.Mutex
	employees   []*models.Employee
	assignments []*models.SurveyAssignment
	submissions []*models.Submission
	comments    map[string]string
	runs        []*models.DispatchRun
	smtp        *models.SMTPSettings
	markErr     error
}

func newMemStore() *memStore {
	return &memStore{comments: map[string]string{}}
}

func (s *memStore) employeeByID(id uint) *models.Employee {
	for _, e := range s.employees {
		if e.ID == id {
			return e
		}
	}
	return nil
}

func (s *memStore) withEmployee(a *models.SurveyAssignment) models.SurveyAssignment {
	cp := *a
	if e := s.employeeByID(a.EmployeeID); e != nil {
		cp.Employee = *e
	}
	return cp
}

func (s *memStore) UpsertEmployee(ctx context.Context, e *models.Employee) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.employees {
		if existing.Email == e.Email {
			existing.Name, existing.Department, existing.Position = e.Name, e.Department, e.Position
			*e = *existing
			return false, nil
		}
	}
	e.ID = uint(len(s.employees) + 1)
	cp := *e
	s.employees = append(s.employees, &cp)
	return true, nil
}

func (s *memStore) EnsureAssignment(ctx context.Context, a *models.SurveyAssignment) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.assignments {
		if existing.EmployeeID == a.EmployeeID && existing.RaterEmail == a.RaterEmail && existing.SurveyCode == a.SurveyCode {
			return false, nil
		}
	}
	a.ID = uint(len(s.assignments) + 1)
	cp := *a
	s.assignments = append(s.assignments, &cp)
	return true, nil
}

func (s *memStore) ListAssignments(ctx context.Context, f repository.AssignmentFilter) ([]models.SurveyAssignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.SurveyAssignment
	for _, a := range s.assignments {
		if f.EmployeeID != 0 && a.EmployeeID != f.EmployeeID {
			continue
		}
		if f.Unsubmitted && a.IsSubmitted {
			continue
		}
		if f.Invited != nil && *f.Invited != (a.InviteTokenHash != nil) {
			continue
		}
		out = append(out, s.withEmployee(a))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RaterEmail != out[j].RaterEmail {
			return out[i].RaterEmail < out[j].RaterEmail
		}
		if out[i].SurveyCode != out[j].SurveyCode {
			return out[i].SurveyCode < out[j].SurveyCode
		}
		return out[i].EmployeeID < out[j].EmployeeID
	})
	return out, nil
}

func (s *memStore) GetAssignmentByTokenHash(ctx context.Context, hash string) (*models.SurveyAssignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.assignments {
		if a.InviteTokenHash != nil && *a.InviteTokenHash == hash {
			cp := s.withEmployee(a)
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memStore) MarkInvited(ctx context.Context, assignmentID uint, prevHash *string, tokenHash string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.markErr != nil {
		return s.markErr
	}
	for _, a := range s.assignments {
		if a.ID != assignmentID {
			continue
		}
		if a.IsSubmitted || !sameHash(a.InviteTokenHash, prevHash) {
			return repository.ErrStaleInvitation
		}
		h := tokenHash
		a.InviteTokenHash = &h
		a.InvitedAt = &at
		return nil
	}
	return repository.ErrNotFound
}

func sameHash(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (s *memStore) CreateSubmission(ctx context.Context, sub *models.Submission, comment string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.assignments {
		if a.ID != sub.AssignmentID {
			continue
		}
		if a.IsSubmitted {
			return repository.ErrAlreadySubmitted
		}
		a.IsSubmitted = true
		at := sub.SubmittedAt
		a.SubmittedAt = &at
		cp := *sub
		s.submissions = append(s.submissions, &cp)
		if c := strings.TrimSpace(comment); c != "" {
			s.comments[sub.ID] = c
		}
		return nil
	}
	return errors.New("assignment does not exist")
}

func (s *memStore) SaveDispatchRun(ctx context.Context, run *models.DispatchRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run.ID = uint(len(s.runs) + 1)
	s.runs = append(s.runs, run)
	return nil
}

func (s *memStore) LatestDispatchRun(ctx context.Context) (*models.DispatchRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.runs) == 0 {
		return nil, repository.ErrNotFound
	}
	return s.runs[len(s.runs)-1], nil
}

func (s *memStore) GetSMTPSettings(ctx context.Context) (*models.SMTPSettings, error) {
	if s.smtp == nil {
		return nil, repository.ErrNotFound
	}
	return s.smtp, nil
}

func (s *memStore) LoadDataset(ctx context.Context, codes []string) (metrics.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var data metrics.Dataset
	for _, a := range s.assignments {
		data.Assignments = append(data.Assignments, s.withEmployee(a))
	}
	for _, sub := range s.submissions {
		cp := *sub
		if e := s.employeeByID(sub.EmployeeID); e != nil {
			cp.Employee = *e
		}
		data.Submissions = append(data.Submissions, cp)
		data.Responses = append(data.Responses, sub.Responses...)
	}
	return data, nil
}

func (s *memStore) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Employee
	for _, e := range s.employees {
		cp := *e
		for _, a := range s.assignments {
			if a.EmployeeID == e.ID {
				cp.Assignments = append(cp.Assignments, *a)
			}
		}
		out = append(out, cp)
	}
	return out, nil
}

func (s *memStore) ListComments(ctx context.Context, ids []string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]string{}
	for _, id := range ids {
		if c, ok := s.comments[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}

// addAssignment registers an employee and one assignment, optionally with
// an invitation token already issued.
func (s *memStore) addAssignment(emp models.Employee, rater, code, tokenHash string) *models.SurveyAssignment {
	ctx := context.Background()
	e := emp
	if _, err := s.UpsertEmployee(ctx, &e); err != nil {
		panic(err)
	}
	a := &models.SurveyAssignment{EmployeeID: e.ID, RaterEmail: rater, RaterName: "Rater " + rater, SurveyCode: code}
	if _, err := s.EnsureAssignment(ctx, a); err != nil {
		panic(err)
	}
	stored := s.assignments[len(s.assignments)-1]
	if tokenHash != "" {
		h := tokenHash
		stored.InviteTokenHash = &h
	}
	return stored
}

// stubMailer records messages and fails for the listed recipients.
type stubMailer struct {
	mu       sync.Mutex
	sent     []Message
	failFor  map[string]bool
	attempts int
	// onSend runs before each delivery attempt.
	onSend func(Message)
}

func (m *stubMailer) Send(ctx context.Context, msg Message) error {
	if m.onSend != nil {
		m.onSend(msg)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts++
	if m.failFor[msg.To] {
		return &DeliveryError{To: msg.To, Err: errors.New("connection refused")}
	}
	m.sent = append(m.sent, msg)
	return nil
}
