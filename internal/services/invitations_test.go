package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"survey-go/internal/config"
	"survey-go/internal/models"
	"survey-go/internal/repository"
	"survey-go/internal/scoring"
	"survey-go/internal/survey"
	"survey-go/internal/utils"

	"go.uber.org/zap"
)

func newInvitationFixture(t *testing.T, failFor ...string) (*InvitationService, *memStore, *stubMailer) {
	t.Helper()
	store := newMemStore()
	store.addAssignment(models.Employee{Name: "Alice", Email: "alice@example.com"}, "ok@example.com", "MSES", "")
	store.addAssignment(models.Employee{Name: "Bob", Email: "bob@example.com"}, "bad@example.com", "MSES", "")
	store.addAssignment(models.Employee{Name: "Carol", Email: "carol@example.com"}, "ok@example.com", "MSES", "")

	mailer := &stubMailer{failFor: map[string]bool{}}
	for _, to := range failFor {
		mailer.failFor[to] = true
	}
	content := func() config.SurveyConfig {
		return config.SurveyConfig{Deadline: "10th Feb 2026", Company: "Acme"}
	}
	svc := NewInvitationService(store, mailer, survey.DefaultCatalog(), content, zap.NewNop())
	n := 0
	svc.newToken = func() (string, error) {
		n++
		return fmt.Sprintf("tok-%d", n), nil
	}
	return svc, store, mailer
}

func hashOf(a *models.SurveyAssignment) string {
	if a.InviteTokenHash == nil {
		return ""
	}
	return *a.InviteTokenHash
}

func TestDispatchContinuesPastFailedDelivery(t *testing.T) {
	svc, store, mailer := newInvitationFixture(t, "bad@example.com")

	report, err := svc.Dispatch(context.Background(), DispatchOptions{BaseURL: "https://survey.test/"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if report.Kind != KindInvite || report.Recipients != 2 || report.Sent != 1 || report.Failed != 1 || report.Assignments != 2 {
		t.Fatalf("unexpected report %+v", report)
	}
	if len(report.Failures) != 1 || !strings.Contains(report.Failures[0], "bad@example.com") {
		t.Fatalf("unexpected failures %v", report.Failures)
	}

	// bad@ sorts first and consumes tok-1.
	alice, bob, carol := store.assignments[0], store.assignments[1], store.assignments[2]
	if hashOf(bob) != "" || bob.State() != models.StateCreated {
		t.Fatal("an undelivered invitation must not store a token")
	}
	if hashOf(alice) != utils.HashToken("tok-2") || hashOf(carol) != utils.HashToken("tok-3") {
		t.Fatal("delivered invitations must store the hash of their token")
	}
	if alice.State() != models.StateInvited || alice.InvitedAt == nil {
		t.Fatal("alice should be invited")
	}

	if len(mailer.sent) != 1 {
		t.Fatalf("expected one delivered mail, got %d", len(mailer.sent))
	}
	msg := mailer.sent[0]
	if msg.To != "ok@example.com" || strings.HasPrefix(msg.Subject, "Reminder") {
		t.Fatalf("unexpected message %+v", msg)
	}
	for _, want := range []string{"Alice", "Carol", "https://survey.test/survey/tok-2", "https://survey.test/survey/tok-3"} {
		if !strings.Contains(msg.HTML, want) {
			t.Errorf("html body misses %q", want)
		}
		if !strings.Contains(msg.Text, want) {
			t.Errorf("text body misses %q", want)
		}
	}
	if strings.Contains(msg.HTML, "Bob") {
		t.Error("a rater must only see their own employees")
	}

	if len(store.runs) != 1 || store.runs[0].Failed != 1 || store.runs[0].Kind != KindInvite {
		t.Fatalf("dispatch run not recorded: %+v", store.runs)
	}
}

func TestDispatchSkipsAlreadyInvited(t *testing.T) {
	svc, _, mailer := newInvitationFixture(t)

	if _, err := svc.Dispatch(context.Background(), DispatchOptions{BaseURL: "http://x"}); err != nil {
		t.Fatal(err)
	}
	report, err := svc.Dispatch(context.Background(), DispatchOptions{BaseURL: "http://x"})
	if err != nil {
		t.Fatal(err)
	}
	if report.Sent != 0 || report.Recipients != 0 || len(mailer.sent) != 2 {
		t.Fatalf("second invite run should send nothing, got %+v", report)
	}
}

func TestRemindersReissueTokens(t *testing.T) {
	svc, store, mailer := newInvitationFixture(t)
	ctx := context.Background()

	if _, err := svc.Dispatch(ctx, DispatchOptions{BaseURL: "http://x"}); err != nil {
		t.Fatal(err)
	}
	first := hashOf(store.assignments[0])

	// Submitted assignments get no reminder.
	store.assignments[1].IsSubmitted = true

	report, err := svc.Dispatch(ctx, DispatchOptions{BaseURL: "http://x", Reminders: true})
	if err != nil {
		t.Fatal(err)
	}
	if report.Kind != KindReminder || report.Sent != 1 || report.Assignments != 2 {
		t.Fatalf("unexpected reminder report %+v", report)
	}
	last := mailer.sent[len(mailer.sent)-1]
	if !strings.HasPrefix(last.Subject, "Reminder: ") || last.To != "ok@example.com" {
		t.Fatalf("unexpected reminder %+v", last)
	}
	if hashOf(store.assignments[0]) == first {
		t.Fatal("a reminder must replace the previous token")
	}
}

func TestDispatchSingleEmployee(t *testing.T) {
	svc, store, mailer := newInvitationFixture(t)

	report, err := svc.Dispatch(context.Background(), DispatchOptions{BaseURL: "http://x", EmployeeID: store.assignments[1].EmployeeID})
	if err != nil {
		t.Fatal(err)
	}
	if report.Sent != 1 || report.Assignments != 1 || mailer.sent[0].To != "bad@example.com" {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestDispatchUnknownSurveyCountsAsFailed(t *testing.T) {
	svc, store, _ := newInvitationFixture(t)
	store.addAssignment(models.Employee{Name: "Dan", Email: "dan@example.com"}, "ok@example.com", "XYZ", "")

	report, err := svc.Dispatch(context.Background(), DispatchOptions{BaseURL: "http://x"})
	if err != nil {
		t.Fatal(err)
	}
	if report.Failed != 1 || report.Sent != 2 {
		t.Fatalf("unexpected report %+v", report)
	}
	if hashOf(store.assignments[3]) != "" {
		t.Fatal("the unknown survey assignment must stay uninvited")
	}
}

func TestDispatchStopsOnCancelledContext(t *testing.T) {
	svc, store, mailer := newInvitationFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := svc.Dispatch(ctx, DispatchOptions{BaseURL: "http://x"})
	if err != nil {
		t.Fatal(err)
	}
	if mailer.attempts != 0 || report.Sent != 0 {
		t.Fatalf("nothing should be sent after cancellation, got %+v", report)
	}
	if len(report.Failures) != 1 || !strings.Contains(report.Failures[0], "interrupted") {
		t.Fatalf("unexpected failures %v", report.Failures)
	}
	if len(store.runs) != 1 {
		t.Fatal("an interrupted run is still recorded")
	}
}

func TestDispatchReportsTokenRecordingFailure(t *testing.T) {
	svc, store, _ := newInvitationFixture(t)
	store.markErr = errors.New("connection reset")

	report, err := svc.Dispatch(context.Background(), DispatchOptions{BaseURL: "http://x"})
	if err != nil {
		t.Fatal(err)
	}
	if report.Sent != 2 || report.Assignments != 0 || len(report.Failures) != 3 {
		t.Fatalf("unexpected report %+v", report)
	}
}

// listSignal reports a ListAssignments call on listed when someone is
// waiting for it.
type listSignal struct {
	*memStore
	listed chan struct{}
}

func (s *listSignal) ListAssignments(ctx context.Context, f repository.AssignmentFilter) ([]models.SurveyAssignment, error) {
	select {
	case s.listed <- struct{}{}:
	default:
	}
	return s.memStore.ListAssignments(ctx, f)
}

var surveyLink = regexp.MustCompile(`/survey/(tok-\d+)`)

func TestOverlappingDispatchesKeepDeliveredLinksValid(t *testing.T) {
	svc, store, mailer := newInvitationFixture(t)
	signal := &listSignal{memStore: store, listed: make(chan struct{})}
	svc.store = signal
	ctx := context.Background()

	// A second run (an admin click during the scheduled one) starts while
	// the first is delivering its first e-mail.
	var second sync.WaitGroup
	var once sync.Once
	mailer.onSend = func(Message) {
		once.Do(func() {
			second.Add(1)
			go func() {
				defer second.Done()
				if _, err := svc.Dispatch(ctx, DispatchOptions{BaseURL: "http://x"}); err != nil {
					t.Errorf("second Dispatch: %v", err)
				}
			}()
			select {
			case <-signal.listed:
			case <-time.After(100 * time.Millisecond):
			}
		})
	}

	report, err := svc.Dispatch(ctx, DispatchOptions{BaseURL: "http://x"})
	if err != nil {
		t.Fatal(err)
	}
	second.Wait()

	if len(report.Failures) != 0 {
		t.Fatalf("unexpected failures %v", report.Failures)
	}

	catalog := survey.DefaultCatalog()
	submissions := NewSubmissionService(store, catalog, scoring.NewEngine(catalog), zap.NewNop())
	links := 0
	for _, msg := range mailer.sent {
		for _, m := range surveyLink.FindAllStringSubmatch(msg.Text, -1) {
			links++
			if _, err := submissions.Open(ctx, m[1]); err != nil {
				t.Errorf("link %s mailed to %s does not open: %v", m[1], msg.To, err)
			}
		}
	}
	if links != 3 {
		t.Fatalf("expected 3 delivered links, got %d across %d mails", links, len(mailer.sent))
	}
}

func TestMarkInvitedRejectsReplacedToken(t *testing.T) {
	store := newMemStore()
	a := store.addAssignment(models.Employee{Name: "Alice", Email: "alice@example.com"}, "ok@example.com", "MSES", "")
	ctx := context.Background()
	now := time.Now()

	if err := store.MarkInvited(ctx, a.ID, nil, "first", now); err != nil {
		t.Fatal(err)
	}
	if err := store.MarkInvited(ctx, a.ID, nil, "second", now); !errors.Is(err, repository.ErrStaleInvitation) {
		t.Fatalf("expected ErrStaleInvitation, got %v", err)
	}
	prev := "first"
	if err := store.MarkInvited(ctx, a.ID, &prev, "third", now); err != nil {
		t.Fatal(err)
	}
	if hashOf(a) != "third" {
		t.Fatalf("unexpected hash %q", hashOf(a))
	}
}
