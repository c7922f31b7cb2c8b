package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"survey-go/internal/models"
	"survey-go/internal/scoring"
	"survey-go/internal/survey"
	"survey-go/internal/utils"

	"go.uber.org/zap"
)

func newSubmissionFixture(t *testing.T) (*SubmissionService, *memStore, *models.SurveyAssignment) {
	t.Helper()
	store := newMemStore()
	a := store.addAssignment(models.Employee{Name: "Alice", Email: "alice@example.com", Department: "Operations", Position: "Analyst"},
		"boss@example.com", "MSES", utils.HashToken("tok-alice"))

	catalog := survey.DefaultCatalog()
	svc := NewSubmissionService(store, catalog, scoring.NewEngine(catalog), zap.NewNop())
	svc.now = func() time.Time { return time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC) }
	return svc, store, a
}

func allAnswers(n, value int) scoring.Answers {
	answers := scoring.Answers{}
	for q := 1; q <= n; q++ {
		answers[q] = value
	}
	return answers
}

func TestSubmitStoresWeightedScores(t *testing.T) {
	svc, store, a := newSubmissionFixture(t)
	svc.newID = func() string { return "sub-1" }

	result, err := svc.Submit(context.Background(), "tok-alice", allAnswers(8, 5), "  Great manager  ")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if result.Total != 320 || result.Points != 40 {
		t.Fatalf("got total %d points %.1f, want 320 and 40", result.Total, result.Points)
	}
	if result.Classification.Band != scoring.Outstanding {
		t.Fatalf("got %s, want Outstanding", result.Classification.Category)
	}

	if len(store.submissions) != 1 {
		t.Fatalf("expected one submission, got %d", len(store.submissions))
	}
	sub := store.submissions[0]
	if sub.ID != "sub-1" || sub.AssignmentID != a.ID || sub.Department != "Operations" || sub.Position != "Analyst" {
		t.Fatalf("unexpected submission %+v", sub)
	}
	if len(sub.Responses) != 8 {
		t.Fatalf("expected 8 responses, got %d", len(sub.Responses))
	}
	for i, r := range sub.Responses {
		if r.QuestionNo != i+1 || r.Score != 40 || r.SubmissionID != "sub-1" {
			t.Fatalf("response %d: %+v", i, r)
		}
	}
	if store.comments["sub-1"] != "Great manager" {
		t.Fatalf("comment not stored: %q", store.comments["sub-1"])
	}
	if a.State() != models.StateSubmitted {
		t.Fatalf("assignment state %s, want submitted", a.State())
	}
}

func TestSubmitTwiceIsRejected(t *testing.T) {
	svc, store, _ := newSubmissionFixture(t)

	if _, err := svc.Submit(context.Background(), "tok-alice", allAnswers(8, 4), ""); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	_, err := svc.Submit(context.Background(), "tok-alice", allAnswers(8, 1), "")
	if !errors.Is(err, ErrAlreadySubmitted) {
		t.Fatalf("second submit: got %v, want ErrAlreadySubmitted", err)
	}
	if len(store.submissions) != 1 {
		t.Fatalf("expected exactly one submission, got %d", len(store.submissions))
	}
	if store.submissions[0].Responses[0].Score != 32 {
		t.Fatal("the first submission must be kept unchanged")
	}
}

func TestConcurrentSubmitsAcceptOnlyOne(t *testing.T) {
	svc, store, _ := newSubmissionFixture(t)

	var (
		wg        sync.WaitGroup
		accepted  atomic.Int32
		conflicts atomic.Int32
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Submit(context.Background(), "tok-alice", allAnswers(8, 3), "")
			switch {
			case err == nil:
				accepted.Add(1)
			case errors.Is(err, ErrAlreadySubmitted):
				conflicts.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if accepted.Load() != 1 || conflicts.Load() != 9 {
		t.Fatalf("accepted %d conflicts %d, want 1 and 9", accepted.Load(), conflicts.Load())
	}
	if len(store.submissions) != 1 {
		t.Fatalf("expected one stored submission, got %d", len(store.submissions))
	}
}

func TestSubmitValidationStoresNothing(t *testing.T) {
	svc, store, a := newSubmissionFixture(t)

	answers := allAnswers(8, 4)
	delete(answers, 3)
	answers[5] = 9

	_, err := svc.Submit(context.Background(), "tok-alice", answers, "comment")
	var verr *scoring.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("got %v, want *scoring.ValidationError", err)
	}
	if !verr.HasError(3) || !verr.HasError(5) || verr.HasError(1) {
		t.Fatalf("unexpected field errors %+v", verr)
	}
	if len(store.submissions) != 0 || len(store.comments) != 0 {
		t.Fatal("nothing may be stored for a rejected submission")
	}
	if a.IsSubmitted {
		t.Fatal("assignment must stay open")
	}
}

func TestOpenRejectsUnknownTokens(t *testing.T) {
	svc, _, _ := newSubmissionFixture(t)
	for _, token := range []string{"", "   ", "not-a-token"} {
		if _, err := svc.Open(context.Background(), token); !errors.Is(err, ErrInvalidInvitation) {
			t.Errorf("Open(%q): got %v, want ErrInvalidInvitation", token, err)
		}
	}
}

func TestOpenUnknownSurveyIsInvalid(t *testing.T) {
	svc, store, _ := newSubmissionFixture(t)
	store.addAssignment(models.Employee{Name: "Bob", Email: "bob@example.com"}, "x@example.com", "XYZ", utils.HashToken("tok-bob"))

	if _, err := svc.Open(context.Background(), "tok-bob"); !errors.Is(err, ErrInvalidInvitation) {
		t.Fatalf("got %v, want ErrInvalidInvitation", err)
	}
}

func TestOpenSubmittedAssignment(t *testing.T) {
	svc, _, _ := newSubmissionFixture(t)
	if _, err := svc.Submit(context.Background(), "tok-alice", allAnswers(8, 2), ""); err != nil {
		t.Fatal(err)
	}

	inv, err := svc.Open(context.Background(), "tok-alice")
	if !errors.Is(err, ErrAlreadySubmitted) {
		t.Fatalf("got %v, want ErrAlreadySubmitted", err)
	}
	if inv == nil || inv.Definition.Code != survey.MSES || inv.Assignment.Employee.Name != "Alice" {
		t.Fatalf("expected the invitation alongside the error, got %+v", inv)
	}
}
