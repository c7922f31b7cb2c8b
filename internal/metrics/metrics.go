// Package metrics aggregates persisted submissions into the statistics shown
// on the admin dashboard.
package metrics

import (
	"fmt"
	"sort"

	"survey-go/internal/models"
	"survey-go/internal/scoring"
	"survey-go/internal/survey"

	"github.com/samber/lo"
)

// Dataset is the raw material for aggregation. Submissions are expected to
// carry their Employee when names are wanted in the per-employee results.
type Dataset struct {
	Assignments []models.SurveyAssignment
	Submissions []models.Submission
	Responses   []models.Response
}

// GroupStat is the mean of submission points over one group.
type GroupStat struct {
	Name           string
	Count          int
	Average        float64
	Classification scoring.Classification
}

// QuestionStat is the mean answer (1-5 scale) for one question.
type QuestionStat struct {
	Number         int
	Text           string
	Count          int
	Average        float64
	Classification scoring.Classification
}

// EmployeeStat averages every rater's submission for one employee.
type EmployeeStat struct {
	EmployeeID     uint
	Name           string
	Department     string
	Position       string
	Submissions    int
	Average        float64
	Classification scoring.Classification
}

// SurveyStats is the dashboard summary of one survey type.
type SurveyStats struct {
	Code        survey.Code
	DisplayName string
	MaxPoints   float64
	Assigned    int
	Submitted   int
	Pending     int
	Overall     GroupStat
	Departments []GroupStat
	Positions   []GroupStat
	Questions   []QuestionStat
	Employees   []EmployeeStat
}

// Calculator computes SurveyStats from a Dataset.
type Calculator struct {
	catalog *survey.Catalog
	engine  *scoring.Engine
}

func NewCalculator(catalog *survey.Catalog, engine *scoring.Engine) *Calculator {
	return &Calculator{catalog: catalog, engine: engine}
}

// scored is one submission reduced to its points.
type scored struct {
	sub    models.Submission
	points float64
}

// CalculateAll returns statistics for every survey that has at least one
// assignment, in catalog order.
func (c *Calculator) CalculateAll(data Dataset) []SurveyStats {
	var out []SurveyStats
	for _, code := range c.catalog.Codes() {
		hasAssignments := lo.ContainsBy(data.Assignments, func(a models.SurveyAssignment) bool {
			return survey.Code(a.SurveyCode) == code
		})
		if !hasAssignments {
			continue
		}
		out = append(out, c.Calculate(code, data))
	}
	return out
}

// Calculate computes the statistics of one survey.
func (c *Calculator) Calculate(code survey.Code, data Dataset) SurveyStats {
	stats := SurveyStats{Code: code, DisplayName: c.catalog.DisplayName(code)}
	var questions []string
	if def, err := c.catalog.Get(code); err == nil {
		questions = def.Questions
		stats.MaxPoints = def.MaxPoints()
	}

	assignments := lo.Filter(data.Assignments, func(a models.SurveyAssignment, _ int) bool {
		return survey.Code(a.SurveyCode) == code
	})
	stats.Assigned = len(assignments)
	stats.Submitted = lo.CountBy(assignments, func(a models.SurveyAssignment) bool { return a.IsSubmitted })
	stats.Pending = stats.Assigned - stats.Submitted

	subs := lo.Filter(data.Submissions, func(s models.Submission, _ int) bool {
		return survey.Code(s.SurveyCode) == code
	})
	subIDs := lo.SliceToMap(subs, func(s models.Submission) (string, struct{}) { return s.ID, struct{}{} })
	responses := lo.Filter(data.Responses, func(r models.Response, _ int) bool {
		_, ok := subIDs[r.SubmissionID]
		return ok
	})
	bySubmission := lo.GroupBy(responses, func(r models.Response) string { return r.SubmissionID })

	var all []scored
	for _, s := range subs {
		rs, ok := bySubmission[s.ID]
		if !ok {
			continue
		}
		total := lo.SumBy(rs, func(r models.Response) int { return r.Score })
		all = append(all, scored{sub: s, points: c.engine.Points(code, float64(total))})
	}

	stats.Overall = c.Summarize(code, "Overall", pointsOf(all))
	stats.Departments = c.groupBy(code, all, func(s scored) string { return s.sub.Department })
	stats.Positions = c.groupBy(code, all, func(s scored) string { return s.sub.Position })
	stats.Questions = c.questionStats(code, questions, responses)
	stats.Employees = c.employeeStats(code, all)
	return stats
}

// Summarize reduces a list of points to its mean and band. An empty list
// yields an average of 0 classified as N/A.
func (c *Calculator) Summarize(code survey.Code, name string, points []float64) GroupStat {
	if len(points) == 0 {
		return GroupStat{Name: name, Classification: scoring.NotApplicable}
	}
	avg := lo.Sum(points) / float64(len(points))
	return GroupStat{
		Name:           name,
		Count:          len(points),
		Average:        avg,
		Classification: c.engine.Classifier().Classify(code, avg),
	}
}

func (c *Calculator) groupBy(code survey.Code, all []scored, key func(scored) string) []GroupStat {
	groups := lo.GroupBy(all, key)
	names := lo.Keys(groups)
	sort.Strings(names)
	out := make([]GroupStat, 0, len(names))
	for _, name := range names {
		label := name
		if label == "" {
			label = "Unassigned"
		}
		out = append(out, c.Summarize(code, label, pointsOf(groups[name])))
	}
	return out
}

// questionStats reports every question of the survey, including ones without
// answers. The per-question band is taken from the average projected over
// the whole survey.
func (c *Calculator) questionStats(code survey.Code, questions []string, responses []models.Response) []QuestionStat {
	byQuestion := lo.GroupBy(responses, func(r models.Response) int { return r.QuestionNo })
	weight := float64(c.engine.Weight(code))
	n := float64(len(questions))

	out := make([]QuestionStat, 0, len(questions))
	for i, text := range questions {
		q := QuestionStat{Number: i + 1, Text: text, Classification: scoring.NotApplicable}
		rs := byQuestion[i+1]
		if len(rs) > 0 {
			sum := lo.SumBy(rs, func(r models.Response) float64 { return float64(r.Score) / weight })
			q.Count = len(rs)
			q.Average = sum / float64(len(rs))
			q.Classification = c.engine.Classifier().Classify(code, q.Average*n)
		}
		out = append(out, q)
	}
	return out
}

func (c *Calculator) employeeStats(code survey.Code, all []scored) []EmployeeStat {
	groups := lo.GroupBy(all, func(s scored) uint { return s.sub.EmployeeID })
	out := make([]EmployeeStat, 0, len(groups))
	for id, subs := range groups {
		first := subs[0].sub
		name := first.Employee.Name
		if name == "" {
			name = fmt.Sprintf("Employee #%d", id)
		}
		g := c.Summarize(code, name, pointsOf(subs))
		out = append(out, EmployeeStat{
			EmployeeID:     id,
			Name:           name,
			Department:     first.Department,
			Position:       first.Position,
			Submissions:    g.Count,
			Average:        g.Average,
			Classification: g.Classification,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Average != out[j].Average {
			return out[i].Average > out[j].Average
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func pointsOf(all []scored) []float64 {
	return lo.Map(all, func(s scored, _ int) float64 { return s.points })
}
