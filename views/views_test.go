package views

import (
	"context"
	"strings"
	"testing"

	"survey-go/internal/metrics"
	"survey-go/internal/models"
	"survey-go/internal/scoring"
	"survey-go/internal/survey"

	"github.com/a-h/templ"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var b strings.Builder
	if err := c.Render(context.Background(), &b); err != nil {
		t.Fatalf("render: %v", err)
	}
	return b.String()
}

func mses(t *testing.T) *survey.Definition {
	t.Helper()
	def, err := survey.DefaultCatalog().Get(survey.MSES)
	if err != nil {
		t.Fatal(err)
	}
	return def
}

func TestInvitationEmail(t *testing.T) {
	data := InvitationEmailData{
		RaterName: "Bob",
		Survey:    mses(t),
		Items: []InvitationItem{
			{EmployeeName: "Alice", Link: "https://survey.test/survey/tok-1"},
			{EmployeeName: "<script>x</script>", Link: "https://survey.test/survey/tok-2"},
		},
		Deadline: "10th Feb 2026",
		Company:  "Acme",
		Year:     2026,
	}

	html := render(t, InvitationEmail(data))
	for _, want := range []string{"Dear Bob", "Survey Invitation", `href="https://survey.test/survey/tok-1"`, "tok-2", "10th Feb 2026", "© 2026 Acme."} {
		if !strings.Contains(html, want) {
			t.Errorf("html misses %q", want)
		}
	}
	if strings.Contains(html, "<script>") {
		t.Error("employee names must be escaped")
	}

	data.Reminder = true
	if html := render(t, InvitationEmail(data)); !strings.Contains(html, "Survey Reminder") {
		t.Error("reminders use their own heading")
	}

	text := InvitationText(data)
	if !strings.Contains(text, "  Alice: https://survey.test/survey/tok-1\n") || !strings.HasPrefix(text, "Dear Bob,") {
		t.Errorf("unexpected text body %q", text)
	}
}

func TestSurveyFormRendersEveryQuestion(t *testing.T) {
	def := mses(t)
	html := render(t, SurveyForm(SurveyFormData{Token: "tok", CSRFToken: "csrf", Definition: def, EmployeeName: "Alice"}))

	if got := strings.Count(html, "<fieldset"); got != len(def.Questions) {
		t.Fatalf("rendered %d questions, want %d", got, len(def.Questions))
	}
	if got := strings.Count(html, `type="radio"`); got != len(def.Questions)*len(scoring.AnswerScale) {
		t.Fatalf("rendered %d options", got)
	}
	if !strings.Contains(html, `action="/survey/tok"`) || !strings.Contains(html, `name="_csrf" value="csrf"`) {
		t.Error("form target or csrf field missing")
	}
	if strings.Contains(html, "has-error") {
		t.Error("a fresh form has no errors")
	}
}

func TestLayoutWrapsChildren(t *testing.T) {
	ctx := templ.WithChildren(context.Background(), ThankYou("Team Survey"))
	var b strings.Builder
	if err := Layout("Thanks", false, "csrf", "n0nce").Render(ctx, &b); err != nil {
		t.Fatal(err)
	}
	html := b.String()
	if !strings.Contains(html, "Team Survey response has been recorded") {
		t.Error("children not rendered")
	}
	if !strings.Contains(html, `nonce="n0nce"`) {
		t.Error("inline script must carry the nonce")
	}
	if strings.Contains(html, `action="/admin/logout"`) {
		t.Error("logout is only shown to admins")
	}
}

func TestDashboardCarriesChartOptions(t *testing.T) {
	html := render(t, Dashboard(DashboardData{
		CSRFToken: "csrf",
		Nonce:     "n0nce",
		Surveys:   []metrics.SurveyStats{{Code: survey.MSES, DisplayName: "Team <Survey>", Assigned: 2, Submitted: 1, Pending: 1}},
		Charts:    map[string][]Chart{"MSES": {{ID: "chart-MSES-departments", OptionsJSON: `{"title":1}`}}},
	}))

	for _, want := range []string{
		`id="chart-MSES-departments" data-options="{&#34;title&#34;:1}"`,
		"Team &lt;Survey&gt;",
		"2 assigned, 1 submitted, 1 pending.",
		`action="/admin/send-reminders"`,
		`<script nonce="n0nce">`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("dashboard misses %q", want)
		}
	}
	if strings.Contains(html, "No surveys have been assigned yet") {
		t.Error("the empty state is only shown without surveys")
	}
}

func TestEmployeesCard(t *testing.T) {
	entry := metrics.DirectoryEntry{
		Employee: models.Employee{ID: 7, Name: "<b>Eve</b>", Email: "eve@example.com", Department: "Ops"},
		Assignments: []metrics.AssignmentResult{{
			Assignment: models.SurveyAssignment{SurveyCode: "MSES", RaterName: "Boss", RaterEmail: "boss@example.com"},
			State:      models.StateSubmitted,
			Detail: &metrics.SubmissionDetail{
				Points:    42.5,
				Questions: []metrics.QuestionScore{{Number: 1, Text: "Clear goals", Label: "Agree"}},
			},
			Comment: "fine",
		}},
	}
	html := render(t, Employees(EmployeesData{CSRFToken: "csrf", Entries: []metrics.DirectoryEntry{entry}}))

	for _, want := range []string{
		"&lt;b&gt;Eve&lt;/b&gt;",
		"eve@example.com · Ops · ",
		"Boss &lt;boss@example.com&gt;",
		"<td>42.5</td>",
		"Clear goals: <strong>Agree</strong>",
		"<blockquote>fine</blockquote>",
		`action="/admin/employees/7/delete"`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("employees page misses %q", want)
		}
	}
	if strings.Contains(html, "/admin/employees/7/send-invite") {
		t.Error("a fully answered employee has nothing to send")
	}
}
