package survey

import (
	"errors"
	"testing"
)

func TestNormalize(t *testing.T) {
	c := DefaultCatalog()
	tests := []struct {
		in   string
		want Code
	}{
		{"MSES", MSES},
		{" mses ", MSES},
		{"icses", ICSES},
		{"Team Satisfaction Survey", TSES},
		{"  team   satisfaction   survey ", TSES},
		{"INTERNAL CUSTOMER SATISFACTION", ICSES},
		{"Management Satisfaction Survey", MSES},
		{"unknown thing", "UNKNOWN THING"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := c.Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	c := DefaultCatalog()
	inputs := []string{
		"mses", "Team Satisfaction Survey", "  internal customer satisfaction survey",
		"foo", " bar  baz ", "Ärger", "tses\t", "Management  Satisfaction",
	}
	for _, in := range inputs {
		once := c.Normalize(in)
		twice := c.Normalize(string(once))
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestResolve(t *testing.T) {
	c := DefaultCatalog()
	def, err := c.Resolve("team satisfaction")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if def.Code != TSES {
		t.Fatalf("expected TSES, got %s", def.Code)
	}
	if _, err := c.Resolve("Engineering Survey"); !errors.Is(err, ErrUnknownSurvey) {
		t.Fatalf("expected ErrUnknownSurvey, got %v", err)
	}
}
