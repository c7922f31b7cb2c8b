package metrics

import "survey-go/internal/models"

// AssignmentResult is one assignment of an employee with its scored
// submission, if there is one.
type AssignmentResult struct {
	Assignment models.SurveyAssignment
	State      models.AssignmentState
	Detail     *SubmissionDetail
	Comment    string
}

// DirectoryEntry is an employee and all of their assignments.
type DirectoryEntry struct {
	Employee    models.Employee
	Assignments []AssignmentResult
}

// Pending counts the entry's assignments that still wait for an answer.
func (e DirectoryEntry) Pending() int {
	n := 0
	for _, a := range e.Assignments {
		if a.State != models.StateSubmitted {
			n++
		}
	}
	return n
}
