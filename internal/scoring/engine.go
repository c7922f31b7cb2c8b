// Package scoring turns raw survey answers into stored scores and maps
// totals to performance bands.
package scoring

import (
	"fmt"
	"sort"
	"strings"

	"survey-go/internal/survey"
)

// Labels maps each answer on the ordinal scale to its label.
var Labels = map[int]string{
	5: "Strongly Agree",
	4: "Agree",
	3: "Satisfactory",
	2: "Disagree",
	1: "Strongly Disagree",
}

// AnswerScale lists the answer values from highest to lowest, the order in
// which they are offered on the form.
var AnswerScale = []int{5, 4, 3, 2, 1}

// Answers maps a 1-based question number to the submitted answer.
type Answers map[int]int

// ValidationError reports every question that prevented a submission from
// being scored. The submission is rejected as a whole.
type ValidationError struct {
	Missing    []int
	Invalid    []int
	Unexpected []int
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing answers for questions %v", e.Missing))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, fmt.Sprintf("answers out of range for questions %v", e.Invalid))
	}
	if len(e.Unexpected) > 0 {
		parts = append(parts, fmt.Sprintf("unknown questions %v", e.Unexpected))
	}
	return "invalid submission: " + strings.Join(parts, "; ")
}

// HasError reports whether question n is flagged.
func (e *ValidationError) HasError(n int) bool {
	for _, q := range e.Missing {
		if q == n {
			return true
		}
	}
	for _, q := range e.Invalid {
		if q == n {
			return true
		}
	}
	return false
}

// Result is the scored form of one submission.
type Result struct {
	Code survey.Code
	// Scores holds the stored value per question; Scores[i] is question i+1.
	Scores         []int
	Total          int
	Points         float64
	Classification Classification
}

// Engine scores submissions against a catalog.
type Engine struct {
	catalog    *survey.Catalog
	classifier *Classifier
}

func NewEngine(catalog *survey.Catalog) *Engine {
	return &Engine{catalog: catalog, classifier: NewClassifier(catalog)}
}

// Classifier returns the classifier bound to the engine's catalog.
func (e *Engine) Classifier() *Classifier {
	return e.classifier
}

// Weight returns the multiplier applied to every answer of a survey.
func (e *Engine) Weight(code survey.Code) int {
	if e.catalog.Weighting() == survey.WeightNone {
		return 1
	}
	def, err := e.catalog.Get(code)
	if err != nil {
		return 1
	}
	return len(def.Questions)
}

// StoredScore applies the weighting policy to a single answer.
func (e *Engine) StoredScore(code survey.Code, answer int) int {
	return answer * e.Weight(code)
}

// Points converts a weighted total back to the raw answer sum scale on which
// band thresholds are defined.
func (e *Engine) Points(code survey.Code, total float64) float64 {
	return total / float64(e.Weight(code))
}

// Score validates answers for every question of the survey and returns the
// weighted scores. Any missing or out of range answer rejects the submission.
func (e *Engine) Score(code survey.Code, answers Answers) (*Result, error) {
	def, err := e.catalog.Get(code)
	if err != nil {
		return nil, err
	}
	n := len(def.Questions)

	verr := &ValidationError{}
	for q := range answers {
		if q < 1 || q > n {
			verr.Unexpected = append(verr.Unexpected, q)
		}
	}
	sort.Ints(verr.Unexpected)

	res := &Result{Code: code, Scores: make([]int, n)}
	for q := 1; q <= n; q++ {
		a, ok := answers[q]
		switch {
		case !ok:
			verr.Missing = append(verr.Missing, q)
		case a < 1 || a > survey.MaxAnswer:
			verr.Invalid = append(verr.Invalid, q)
		default:
			stored := e.StoredScore(code, a)
			res.Scores[q-1] = stored
			res.Total += stored
		}
	}
	if len(verr.Missing)+len(verr.Invalid)+len(verr.Unexpected) > 0 {
		return nil, verr
	}

	res.Points = e.Points(code, float64(res.Total))
	res.Classification = e.classifier.Classify(code, res.Points)
	return res, nil
}
