package repository

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"survey-go/internal/models"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// These tests need a disposable PostgreSQL database, e.g.
// SURVEY_TEST_DSN="host=localhost user=survey password=survey dbname=survey_test sslmode=disable".
func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("SURVEY_TEST_DSN")
	if dsn == "" {
		t.Skip("SURVEY_TEST_DSN not set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("connecting: %v", err)
	}
	err = db.AutoMigrate(&models.Employee{}, &models.SurveyAssignment{}, &models.Submission{}, &models.Response{}, &models.Comment{})
	if err != nil {
		t.Fatalf("migrating: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		t.Cleanup(func() { sqlDB.Close() })
	}
	return NewStore(db)
}

// seedAssignment creates an employee with one MSES assignment. The rows are
// removed when the test ends.
func seedAssignment(t *testing.T, s *Store) *models.SurveyAssignment {
	t.Helper()
	ctx := context.Background()
	e := &models.Employee{Name: "Alice", Email: uuid.NewString() + "@example.com", Department: "Operations"}
	if _, err := s.UpsertEmployee(ctx, e); err != nil {
		t.Fatalf("UpsertEmployee: %v", err)
	}
	t.Cleanup(func() {
		if err := s.DeleteEmployee(context.Background(), e.ID); err != nil {
			t.Errorf("cleanup: %v", err)
		}
	})

	a := &models.SurveyAssignment{EmployeeID: e.ID, RaterEmail: "boss@example.com", SurveyCode: "MSES"}
	if _, err := s.EnsureAssignment(ctx, a); err != nil {
		t.Fatalf("EnsureAssignment: %v", err)
	}
	return a
}

func TestEnsureAssignmentIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	a := seedAssignment(t, s)
	ctx := context.Background()

	dup := &models.SurveyAssignment{EmployeeID: a.EmployeeID, RaterEmail: a.RaterEmail, SurveyCode: a.SurveyCode}
	created, err := s.EnsureAssignment(ctx, dup)
	if err != nil {
		t.Fatal(err)
	}
	if created {
		t.Fatal("a second assignment for the same triple must not be created")
	}

	var count int64
	s.db.Model(&models.SurveyAssignment{}).Where("employee_id = ?", a.EmployeeID).Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 assignment row, got %d", count)
	}
}

func TestCreateSubmissionAcceptsOneConcurrentWriter(t *testing.T) {
	s := openTestStore(t)
	a := seedAssignment(t, s)
	ctx := context.Background()

	const writers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		rejected int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub := &models.Submission{
				ID:           uuid.NewString(),
				AssignmentID: a.ID,
				EmployeeID:   a.EmployeeID,
				RaterEmail:   a.RaterEmail,
				SurveyCode:   a.SurveyCode,
				Department:   "Operations",
				SubmittedAt:  time.Now().UTC(),
				Responses:    []models.Response{{SurveyCode: a.SurveyCode, QuestionNo: 1, Score: 5}},
			}
			err := s.CreateSubmission(ctx, sub, "fine")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				accepted++
			case errors.Is(err, ErrAlreadySubmitted):
				rejected++
			default:
				t.Errorf("CreateSubmission: %v", err)
			}
		}()
	}
	wg.Wait()

	if accepted != 1 || rejected != writers-1 {
		t.Fatalf("accepted=%d rejected=%d", accepted, rejected)
	}
	var subs int64
	s.db.Model(&models.Submission{}).Where("assignment_id = ?", a.ID).Count(&subs)
	if subs != 1 {
		t.Fatalf("expected 1 stored submission, got %d", subs)
	}
}

func TestMarkInvitedRequiresListedHash(t *testing.T) {
	s := openTestStore(t)
	a := seedAssignment(t, s)
	ctx := context.Background()
	now := time.Now().UTC()
	first, second := uuid.NewString(), uuid.NewString()

	if err := s.MarkInvited(ctx, a.ID, nil, first, now); err != nil {
		t.Fatal(err)
	}
	// A run that listed the assignment before the first token was stored.
	if err := s.MarkInvited(ctx, a.ID, nil, second, now); !errors.Is(err, ErrStaleInvitation) {
		t.Fatalf("expected ErrStaleInvitation, got %v", err)
	}
	got, err := s.GetAssignmentByTokenHash(ctx, first)
	if err != nil || got.ID != a.ID {
		t.Fatalf("the first token must stay valid: %v", err)
	}

	// A reminder replaces the token it listed.
	if err := s.MarkInvited(ctx, a.ID, &first, second, now); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetAssignmentByTokenHash(ctx, first); !errors.Is(err, ErrNotFound) {
		t.Fatalf("the replaced token must be gone, got %v", err)
	}
}
