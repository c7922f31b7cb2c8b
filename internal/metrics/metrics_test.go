package metrics

import (
	"fmt"
	"testing"

	"survey-go/internal/models"
	"survey-go/internal/scoring"
	"survey-go/internal/survey"
)

func newCalculator() *Calculator {
	cat := survey.DefaultCatalog()
	return NewCalculator(cat, scoring.NewEngine(cat))
}

// addSubmission appends a MSES submission with the given raw answers,
// stored with uniform weighting.
func addSubmission(d *Dataset, id string, emp models.Employee, dept, pos string, answers []int) {
	d.Submissions = append(d.Submissions, models.Submission{
		ID: id, EmployeeID: emp.ID, Employee: emp, SurveyCode: "MSES",
		Department: dept, Position: pos,
	})
	for i, a := range answers {
		d.Responses = append(d.Responses, models.Response{
			SubmissionID: id, SurveyCode: "MSES", QuestionNo: i + 1, Score: a * 8, Department: dept,
		})
	}
}

func sampleDataset() Dataset {
	alice := models.Employee{ID: 1, Name: "Alice"}
	bob := models.Employee{ID: 2, Name: "Bob"}
	d := Dataset{
		Assignments: []models.SurveyAssignment{
			{ID: 1, EmployeeID: 1, SurveyCode: "MSES", IsSubmitted: true},
			{ID: 2, EmployeeID: 1, SurveyCode: "MSES", IsSubmitted: true},
			{ID: 3, EmployeeID: 2, SurveyCode: "MSES", IsSubmitted: true},
			{ID: 4, EmployeeID: 2, SurveyCode: "MSES"},
			{ID: 5, EmployeeID: 2, SurveyCode: "TSES"},
		},
	}
	// Alice: 20 and 30 points from two raters, Bob: 38 points.
	addSubmission(&d, "s1", alice, "Operations", "Analyst", []int{3, 3, 3, 3, 2, 2, 2, 2})
	addSubmission(&d, "s2", alice, "Operations", "Analyst", []int{4, 4, 4, 4, 4, 4, 3, 3})
	addSubmission(&d, "s3", bob, "Engineering", "Lead", []int{5, 5, 5, 5, 5, 5, 4, 4})
	return d
}

func TestCalculateCounts(t *testing.T) {
	stats := newCalculator().Calculate(survey.MSES, sampleDataset())
	if stats.Assigned != 4 || stats.Submitted != 3 || stats.Pending != 1 {
		t.Fatalf("unexpected counts: assigned=%d submitted=%d pending=%d", stats.Assigned, stats.Submitted, stats.Pending)
	}
	if stats.DisplayName != "Management Satisfaction Survey" {
		t.Fatalf("unexpected display name %q", stats.DisplayName)
	}
	if stats.MaxPoints != 40 {
		t.Fatalf("expected max points 40, got %v", stats.MaxPoints)
	}
}

func TestCalculateDepartmentAverage(t *testing.T) {
	stats := newCalculator().Calculate(survey.MSES, sampleDataset())
	if len(stats.Departments) != 2 {
		t.Fatalf("expected 2 departments, got %d", len(stats.Departments))
	}
	// Sorted by name: Engineering, Operations.
	ops := stats.Departments[1]
	if ops.Name != "Operations" || ops.Count != 2 {
		t.Fatalf("unexpected department %+v", ops)
	}
	if ops.Average != 25 {
		t.Fatalf("expected average 25, got %v", ops.Average)
	}
	if ops.Classification.Band != scoring.MeetsTarget {
		t.Fatalf("expected Meets Target, got %s", ops.Classification.Category)
	}
}

func TestCalculateOverallAndPositions(t *testing.T) {
	stats := newCalculator().Calculate(survey.MSES, sampleDataset())
	want := (20.0 + 30.0 + 38.0) / 3
	if stats.Overall.Average != want || stats.Overall.Count != 3 {
		t.Fatalf("expected overall %v over 3, got %+v", want, stats.Overall)
	}
	if stats.Overall.Classification.Band != scoring.ExceedsTarget {
		t.Fatalf("expected Exceeds Target, got %s", stats.Overall.Classification.Category)
	}
	if len(stats.Positions) != 2 || stats.Positions[0].Name != "Analyst" || stats.Positions[1].Name != "Lead" {
		t.Fatalf("unexpected positions %+v", stats.Positions)
	}
}

func TestCalculateEmployeesAveragedAndSorted(t *testing.T) {
	stats := newCalculator().Calculate(survey.MSES, sampleDataset())
	if len(stats.Employees) != 2 {
		t.Fatalf("expected 2 employees, got %d", len(stats.Employees))
	}
	first, second := stats.Employees[0], stats.Employees[1]
	if first.Name != "Bob" || first.Average != 38 || first.Classification.Band != scoring.Outstanding {
		t.Fatalf("unexpected first employee %+v", first)
	}
	if second.Name != "Alice" || second.Submissions != 2 || second.Average != 25 {
		t.Fatalf("unexpected second employee %+v", second)
	}
}

func TestCalculateQuestionsAscending(t *testing.T) {
	stats := newCalculator().Calculate(survey.MSES, sampleDataset())
	if len(stats.Questions) != 8 {
		t.Fatalf("expected 8 questions, got %d", len(stats.Questions))
	}
	for i, q := range stats.Questions {
		if q.Number != i+1 {
			t.Fatalf("questions out of order at %d: %d", i, q.Number)
		}
		if q.Count != 3 {
			t.Fatalf("question %d: expected 3 answers, got %d", q.Number, q.Count)
		}
	}
	q1 := stats.Questions[0]
	if q1.Average != 4 {
		t.Fatalf("expected question 1 average 4, got %v", q1.Average)
	}
	// 4 on every question projects to 32 points.
	if q1.Classification.Band != scoring.ExceedsTarget {
		t.Fatalf("expected Exceeds Target, got %s", q1.Classification.Category)
	}
}

func TestCalculateEmptySurvey(t *testing.T) {
	stats := newCalculator().Calculate(survey.TSES, sampleDataset())
	if stats.Assigned != 1 || stats.Submitted != 0 || stats.Pending != 1 {
		t.Fatalf("unexpected counts %+v", stats)
	}
	if stats.Overall.Average != 0 || stats.Overall.Classification.Category != "N/A" {
		t.Fatalf("expected empty overall, got %+v", stats.Overall)
	}
	if len(stats.Departments) != 0 || len(stats.Employees) != 0 {
		t.Fatal("expected no groups for an empty survey")
	}
	for _, q := range stats.Questions {
		if q.Average != 0 || q.Classification.Category != "N/A" {
			t.Fatalf("expected empty question stats, got %+v", q)
		}
	}
}

func TestSummarizeEmptyGroup(t *testing.T) {
	g := newCalculator().Summarize(survey.ICSES, "Nobody", nil)
	if g.Average != 0 || g.Count != 0 || g.Classification.Category != "N/A" {
		t.Fatalf("expected 0 and N/A, got %+v", g)
	}
}

func TestCalculateAllSkipsUnassignedSurveys(t *testing.T) {
	all := newCalculator().CalculateAll(sampleDataset())
	if len(all) != 2 {
		t.Fatalf("expected MSES and TSES, got %d surveys", len(all))
	}
	if all[0].Code != survey.MSES || all[1].Code != survey.TSES {
		t.Fatalf("unexpected order %s, %s", all[0].Code, all[1].Code)
	}
}

func TestCalculateIgnoresOtherSurveysResponses(t *testing.T) {
	d := sampleDataset()
	d.Submissions = append(d.Submissions, models.Submission{ID: "t1", EmployeeID: 2, SurveyCode: "TSES"})
	for q := 1; q <= 16; q++ {
		d.Responses = append(d.Responses, models.Response{SubmissionID: "t1", SurveyCode: "TSES", QuestionNo: q, Score: 5 * 16})
	}
	mses := newCalculator().Calculate(survey.MSES, d)
	if mses.Overall.Count != 3 {
		t.Fatalf("TSES responses leaked into MSES: %+v", mses.Overall)
	}
	tses := newCalculator().Calculate(survey.TSES, d)
	if tses.Overall.Average != 80 || tses.Overall.Classification.Band != scoring.Outstanding {
		t.Fatalf("unexpected TSES overall %+v", tses.Overall)
	}
	if name := tses.Employees[0].Name; name != fmt.Sprintf("Employee #%d", 2) {
		t.Fatalf("expected fallback name, got %q", name)
	}
}

func TestDetail(t *testing.T) {
	d := sampleDataset()
	var rs []models.Response
	for i := len(d.Responses) - 1; i >= 0; i-- {
		if d.Responses[i].SubmissionID == "s3" {
			rs = append(rs, d.Responses[i])
		}
	}
	detail := newCalculator().Detail(survey.MSES, rs)
	if len(detail.Questions) != 8 || detail.Questions[0].Number != 1 {
		t.Fatalf("expected 8 ordered questions, got %+v", detail.Questions)
	}
	if detail.Questions[0].Answer != 5 || detail.Questions[0].Label != "Strongly Agree" || detail.Questions[0].Score != 40 {
		t.Fatalf("unexpected first question %+v", detail.Questions[0])
	}
	if detail.Total != 38*8 || detail.Points != 38 {
		t.Fatalf("unexpected totals %d / %v", detail.Total, detail.Points)
	}
	if detail.Classification.Band != scoring.Outstanding {
		t.Fatalf("expected Outstanding, got %s", detail.Classification.Category)
	}
}

func TestDetailEmpty(t *testing.T) {
	detail := newCalculator().Detail(survey.MSES, nil)
	if detail.Total != 0 || detail.Classification.Category != "N/A" {
		t.Fatalf("expected empty detail, got %+v", detail)
	}
}
