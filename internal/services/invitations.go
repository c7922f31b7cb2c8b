package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"survey-go/internal/config"
	"survey-go/internal/models"
	"survey-go/internal/repository"
	"survey-go/internal/survey"
	"survey-go/internal/utils"
	"survey-go/views"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

const (
	KindInvite   = "invite"
	KindReminder = "reminder"
)

// DispatchOptions selects what a dispatch sends.
type DispatchOptions struct {
	// BaseURL prefixes survey links, e.g. https://survey.example.com.
	BaseURL string
	// EmployeeID limits the dispatch to one employee when non-zero.
	EmployeeID uint
	// Reminders targets already invited, unsubmitted assignments instead of
	// never invited ones.
	Reminders bool
}

// DispatchReport is the outcome of one dispatch. Sent and Failed count
// e-mails, one per (rater, survey); Assignments counts links delivered.
type DispatchReport struct {
	Kind        string
	Recipients  int
	Sent        int
	Failed      int
	Assignments int
	Failures    []string
}

// Dispatcher is implemented by InvitationService.
type Dispatcher interface {
	Dispatch(ctx context.Context, opts DispatchOptions) (*DispatchReport, error)
}

// InvitationService e-mails survey links to raters. Dispatches run one at a
// time so a run never lists assignments another run is still sending.
type InvitationService struct {
	mu sync.Mutex

	store   DispatchStore
	mailer  Mailer
	catalog *survey.Catalog
	content func() config.SurveyConfig
	log     *zap.Logger

	now      func() time.Time
	newToken func() (string, error)
}

func NewInvitationService(store DispatchStore, mailer Mailer, catalog *survey.Catalog, content func() config.SurveyConfig, log *zap.Logger) *InvitationService {
	return &InvitationService{
		store:    store,
		mailer:   mailer,
		catalog:  catalog,
		content:  content,
		log:      log,
		now:      time.Now,
		newToken: func() (string, error) { return utils.GenerateSecureToken(utils.InviteTokenBytes) },
	}
}

// batch is everything one rater receives for one survey.
type batch struct {
	raterEmail  string
	raterName   string
	def         *survey.Definition
	assignments []models.SurveyAssignment
}

// Dispatch sends one e-mail per (rater, survey) listing every pending
// employee with its own link. A failed delivery is recorded and the run
// continues; tokens are stored only for delivered e-mails. Only a failure
// to load the pending assignments aborts the run.
func (s *InvitationService) Dispatch(ctx context.Context, opts DispatchOptions) (*DispatchReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kind := KindInvite
	if opts.Reminders {
		kind = KindReminder
	}
	invited := opts.Reminders
	pending, err := s.store.ListAssignments(ctx, repository.AssignmentFilter{
		EmployeeID:  opts.EmployeeID,
		Unsubmitted: true,
		Invited:     &invited,
	})
	if err != nil {
		return nil, fmt.Errorf("loading pending assignments: %w", err)
	}

	report := &DispatchReport{Kind: kind}
	batches := s.batches(pending, report)
	report.Recipients = len(lo.Uniq(lo.Map(batches, func(b batch, _ int) string { return b.raterEmail })))

	content := s.content()
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	for _, b := range batches {
		if err := ctx.Err(); err != nil {
			report.Failures = append(report.Failures, fmt.Sprintf("dispatch interrupted: %v", err))
			break
		}
		s.send(ctx, b, kind, baseURL, content, report)
	}

	s.log.Info("Dispatch finished",
		zap.String("kind", report.Kind),
		zap.Int("recipients", report.Recipients),
		zap.Int("sent", report.Sent),
		zap.Int("failed", report.Failed),
		zap.Int("assignments", report.Assignments),
	)
	s.record(ctx, report)
	return report, nil
}

// batches groups assignments by rater, then by survey in catalog order.
func (s *InvitationService) batches(pending []models.SurveyAssignment, report *DispatchReport) []batch {
	var out []batch
	byRater := lo.GroupBy(pending, func(a models.SurveyAssignment) string { return a.RaterEmail })
	raters := lo.Uniq(lo.Map(pending, func(a models.SurveyAssignment, _ int) string { return a.RaterEmail }))
	for _, email := range raters {
		rows := byRater[email]
		bySurvey := lo.GroupBy(rows, func(a models.SurveyAssignment) survey.Code { return s.catalog.Normalize(a.SurveyCode) })
		for code := range bySurvey {
			if _, err := s.catalog.Get(code); err != nil {
				report.Failed++
				report.Failures = append(report.Failures, fmt.Sprintf("%s: unknown survey %q", email, code))
			}
		}
		for _, code := range s.catalog.Codes() {
			group, ok := bySurvey[code]
			if !ok {
				continue
			}
			def, _ := s.catalog.Get(code)
			out = append(out, batch{
				raterEmail:  email,
				raterName:   raterName(group),
				def:         def,
				assignments: group,
			})
		}
	}
	return out
}

func raterName(group []models.SurveyAssignment) string {
	for _, a := range group {
		if a.RaterName != "" {
			return a.RaterName
		}
	}
	return defaultRaterName
}

func (s *InvitationService) send(ctx context.Context, b batch, kind, baseURL string, content config.SurveyConfig, report *DispatchReport) {
	tokens := make([]string, len(b.assignments))
	data := views.InvitationEmailData{
		RaterName: b.raterName,
		Survey:    b.def,
		Deadline:  content.Deadline,
		Company:   content.Company,
		Year:      s.now().Year(),
		Reminder:  kind == KindReminder,
	}
	for i, a := range b.assignments {
		token, err := s.newToken()
		if err != nil {
			report.Failed++
			report.Failures = append(report.Failures, fmt.Sprintf("%s: generating token: %v", b.raterEmail, err))
			return
		}
		tokens[i] = token
		data.Items = append(data.Items, views.InvitationItem{
			EmployeeName: a.Employee.Name,
			Link:         baseURL + "/survey/" + token,
		})
	}

	var html bytes.Buffer
	if err := views.InvitationEmail(data).Render(ctx, &html); err != nil {
		report.Failed++
		report.Failures = append(report.Failures, fmt.Sprintf("%s: rendering e-mail: %v", b.raterEmail, err))
		return
	}

	subject := b.def.Email.Subject
	if kind == KindReminder {
		subject = "Reminder: " + subject
	}
	err := s.mailer.Send(ctx, Message{
		To:      b.raterEmail,
		ToName:  b.raterName,
		Subject: subject,
		HTML:    html.String(),
		Text:    views.InvitationText(data),
	})
	if err != nil {
		report.Failed++
		report.Failures = append(report.Failures, fmt.Sprintf("%s (%s): %v", b.raterEmail, b.def.Code, err))
		return
	}
	report.Sent++

	// The hash seen at list time guards against another process having
	// reissued the token meanwhile; its link then stays the valid one.
	invitedAt := s.now().UTC()
	for i, a := range b.assignments {
		if err := s.store.MarkInvited(ctx, a.ID, a.InviteTokenHash, utils.HashToken(tokens[i]), invitedAt); err != nil {
			s.log.Error("Failed to record invitation token",
				zap.Uint("assignmentID", a.ID), zap.Error(err))
			report.Failures = append(report.Failures, fmt.Sprintf("assignment %d: recording token: %v", a.ID, err))
			continue
		}
		report.Assignments++
	}
}

func (s *InvitationService) record(ctx context.Context, report *DispatchReport) {
	run := &models.DispatchRun{
		Kind:        report.Kind,
		Recipients:  report.Recipients,
		Sent:        report.Sent,
		Failed:      report.Failed,
		Assignments: report.Assignments,
		Failures:    report.Failures,
	}
	if err := s.store.SaveDispatchRun(context.WithoutCancel(ctx), run); err != nil {
		s.log.Error("Failed to save dispatch run", zap.Error(err))
	}
}
