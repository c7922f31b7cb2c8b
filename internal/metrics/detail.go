package metrics

import (
	"fmt"
	"sort"

	"survey-go/internal/models"
	"survey-go/internal/scoring"
	"survey-go/internal/survey"

	"github.com/samber/lo"
)

// QuestionScore is one answered question of a single submission.
type QuestionScore struct {
	Number int
	Text   string
	Answer int
	Label  string
	Score  int
}

// SubmissionDetail is the breakdown of one submission.
type SubmissionDetail struct {
	Code           survey.Code
	DisplayName    string
	Questions      []QuestionScore
	Total          int
	Points         float64
	Classification scoring.Classification
}

// Detail rebuilds the per-question breakdown of one submission from its
// stored responses.
func (c *Calculator) Detail(code survey.Code, responses []models.Response) SubmissionDetail {
	d := SubmissionDetail{Code: code, DisplayName: c.catalog.DisplayName(code)}
	questions, _ := c.catalog.QuestionsFor(code)
	weight := c.engine.Weight(code)

	sorted := make([]models.Response, len(responses))
	copy(sorted, responses)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].QuestionNo < sorted[j].QuestionNo })

	for _, r := range sorted {
		text := fmt.Sprintf("Question %d", r.QuestionNo)
		if r.QuestionNo >= 1 && r.QuestionNo <= len(questions) {
			text = questions[r.QuestionNo-1]
		}
		answer := r.Score / weight
		d.Questions = append(d.Questions, QuestionScore{
			Number: r.QuestionNo,
			Text:   text,
			Answer: answer,
			Label:  scoring.Labels[answer],
			Score:  r.Score,
		})
	}
	d.Total = lo.SumBy(sorted, func(r models.Response) int { return r.Score })
	if len(sorted) == 0 {
		d.Classification = scoring.NotApplicable
		return d
	}
	d.Points = c.engine.Points(code, float64(d.Total))
	d.Classification = c.engine.Classifier().Classify(code, d.Points)
	return d
}
