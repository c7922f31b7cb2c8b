package scoring

import (
	"testing"

	"survey-go/internal/survey"
)

func TestClassifyBoundaries(t *testing.T) {
	c := NewClassifier(survey.DefaultCatalog())
	tests := []struct {
		code   survey.Code
		points float64
		want   Band
	}{
		{survey.MSES, 0, BelowTarget},
		{survey.MSES, 19, BelowTarget},
		{survey.MSES, 19.5, BelowTarget},
		{survey.MSES, 20, MeetsTarget},
		{survey.MSES, 25, MeetsTarget},
		{survey.MSES, 28, MeetsTarget},
		{survey.MSES, 28.5, MeetsTarget},
		{survey.MSES, 29, ExceedsTarget},
		{survey.MSES, 35, ExceedsTarget},
		{survey.MSES, 36, Outstanding},
		{survey.MSES, 40, Outstanding},
		{survey.MSES, 50, Outstanding},
		{survey.ICSES, 17, BelowTarget},
		{survey.ICSES, 18, MeetsTarget},
		{survey.ICSES, 25, MeetsTarget},
		{survey.ICSES, 26, ExceedsTarget},
		{survey.ICSES, 31, ExceedsTarget},
		{survey.ICSES, 32, Outstanding},
		{survey.ICSES, 35, Outstanding},
		{survey.TSES, 47, BelowTarget},
		{survey.TSES, 48, MeetsTarget},
		{survey.TSES, 64, MeetsTarget},
		{survey.TSES, 65, ExceedsTarget},
		{survey.TSES, 74, ExceedsTarget},
		{survey.TSES, 75, Outstanding},
		{survey.TSES, 80, Outstanding},
		{survey.TSES, -3, BelowTarget},
	}
	for _, tt := range tests {
		got := c.Classify(tt.code, tt.points)
		if got.Band != tt.want {
			t.Errorf("Classify(%s, %v) = %s, want %s", tt.code, tt.points, got.Category, tt.want)
		}
		if got.Category != tt.want.String() {
			t.Errorf("category text %q does not match band %s", got.Category, tt.want)
		}
		if got.Description == "" {
			t.Errorf("Classify(%s, %v) has no description", tt.code, tt.points)
		}
	}
}

func TestClassifyMonotonic(t *testing.T) {
	cat := survey.DefaultCatalog()
	c := NewClassifier(cat)
	for _, code := range cat.Codes() {
		def, _ := cat.Get(code)
		prev := BandNone
		for p := 0.0; p <= def.MaxPoints(); p += 0.25 {
			b := c.Classify(code, p).Band
			if b < prev {
				t.Fatalf("%s: band dropped from %s to %s at %v", code, prev, b, p)
			}
			prev = b
		}
		if prev != Outstanding {
			t.Fatalf("%s: maximum score should be Outstanding, got %s", code, prev)
		}
	}
}

func TestClassifyUnknownSurvey(t *testing.T) {
	c := NewClassifier(survey.DefaultCatalog())
	got := c.Classify("UNKNOWN", 30)
	if got != NotApplicable {
		t.Fatalf("expected N/A, got %+v", got)
	}
	if got.Category != "N/A" {
		t.Fatalf("expected N/A text, got %q", got.Category)
	}
}
