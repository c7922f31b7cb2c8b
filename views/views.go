// Package views holds the HTML components of the admin pages, the public
// survey form and the invitation e-mail. Components live in .templ files;
// run `templ generate` after editing them.
package views

import (
	"fmt"
	"strconv"
	"strings"

	"survey-go/internal/models"
	"survey-go/internal/scoring"

	"github.com/a-h/templ"
)

func uintString(n uint) string {
	return strconv.FormatUint(uint64(n), 10)
}

func questionName(n int) string {
	return "q" + strconv.Itoa(n)
}

func optionID(n, value int) string {
	return fmt.Sprintf("q%d-%d", n, value)
}

// employeeMeta is the e-mail followed by department and position when known.
func employeeMeta(emp models.Employee) string {
	if emp.Department == "" && emp.Position == "" {
		return emp.Email
	}
	return emp.Email + " · " + emp.Department + " · " + emp.Position
}

func employeeAction(emp models.Employee, action string) string {
	return "/admin/employees/" + uintString(emp.ID) + "/" + action
}

func hasError(errs *scoring.ValidationError, n int) bool {
	return errs != nil && errs.HasError(n)
}

// intro fills the catalog's intro text. The catalog text is trusted HTML;
// the employee name is escaped.
func intro(d InvitationEmailData, employee string) string {
	return strings.ReplaceAll(d.Survey.Email.Intro, "{employee}", templ.EscapeString(employee))
}

// InvitationText is the plain-text alternative of InvitationEmail.
func InvitationText(d InvitationEmailData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", d.RaterName)
	fmt.Fprintf(&b, "You are invited to complete the %s for:\n\n", d.Survey.DisplayName)
	for _, item := range d.Items {
		fmt.Fprintf(&b, "  %s: %s\n", item.EmployeeName, item.Link)
	}
	b.WriteString("\nAll responses are anonymous.\n")
	if d.Deadline != "" {
		fmt.Fprintf(&b, "Please complete the survey by %s.\n", d.Deadline)
	}
	return b.String()
}
