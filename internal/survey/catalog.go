// Package survey holds the static survey definitions and the resolution of
// free-form survey names to their canonical codes.
package survey

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Code is the canonical identifier of a survey type.
type Code string

const (
	MSES  Code = "MSES"
	ICSES Code = "ICSES"
	TSES  Code = "TSES"
)

// MaxAnswer is the highest value on the answer scale.
const MaxAnswer = 5

// knownCodes lists the fixed set of survey types in display order.
var knownCodes = []Code{MSES, ICSES, TSES}

// Weighting names the transform applied to an answer before it is stored.
type Weighting string

const (
	// WeightUniform multiplies every answer by the survey's question count.
	WeightUniform Weighting = "uniform"
	// WeightNone stores answers as given.
	WeightNone Weighting = "none"
)

// ErrUnknownSurvey is returned when a code is not part of the catalog.
var ErrUnknownSurvey = errors.New("unknown survey")

//go:embed catalog.yaml
var defaultCatalog []byte

// Bands are the lower bounds (in points) of the three upper categories.
// Anything below Meets is Below Target.
type Bands struct {
	Meets       float64 `yaml:"meets"`
	Exceeds     float64 `yaml:"exceeds"`
	Outstanding float64 `yaml:"outstanding"`
}

// Descriptions are the human readable texts attached to each band.
type Descriptions struct {
	Below       string `yaml:"below"`
	Meets       string `yaml:"meets"`
	Exceeds     string `yaml:"exceeds"`
	Outstanding string `yaml:"outstanding"`
}

// EmailCopy is the invitation wording for a survey. Intro may contain the
// {employee} placeholder.
type EmailCopy struct {
	Subject string `yaml:"subject"`
	Intro   string `yaml:"intro"`
	Value   string `yaml:"value"`
}

// Definition describes one survey type.
type Definition struct {
	Code         Code         `yaml:"code"`
	DisplayName  string       `yaml:"display_name"`
	Aliases      []string     `yaml:"aliases"`
	Questions    []string     `yaml:"questions"`
	Bands        Bands        `yaml:"bands"`
	Descriptions Descriptions `yaml:"descriptions"`
	Email        EmailCopy    `yaml:"email"`
}

// MaxPoints is the highest achievable raw answer sum.
func (d *Definition) MaxPoints() float64 {
	return float64(len(d.Questions) * MaxAnswer)
}

type catalogFile struct {
	Weighting Weighting    `yaml:"weighting"`
	Surveys   []Definition `yaml:"surveys"`
}

// Catalog is the immutable registry of survey definitions.
type Catalog struct {
	weighting Weighting
	defs      map[Code]*Definition
}

// LoadCatalog reads a catalog file. An empty path loads the embedded default.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return ParseCatalog(defaultCatalog)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read survey catalog: %w", err)
	}
	return ParseCatalog(data)
}

// DefaultCatalog returns the embedded catalog. It panics if the embedded file
// is invalid, which is a build defect.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalog)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseCatalog decodes and validates catalog YAML.
func ParseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal survey catalog: %w", err)
	}

	if file.Weighting == "" {
		file.Weighting = WeightUniform
	}
	if file.Weighting != WeightUniform && file.Weighting != WeightNone {
		return nil, fmt.Errorf("unsupported weighting %q", file.Weighting)
	}

	c := &Catalog{weighting: file.Weighting, defs: make(map[Code]*Definition, len(knownCodes))}
	for i := range file.Surveys {
		def := file.Surveys[i]
		if !isKnown(def.Code) {
			return nil, fmt.Errorf("survey %q: %w", def.Code, ErrUnknownSurvey)
		}
		if _, dup := c.defs[def.Code]; dup {
			return nil, fmt.Errorf("survey %s defined twice", def.Code)
		}
		if err := validate(&def); err != nil {
			return nil, fmt.Errorf("survey %s: %w", def.Code, err)
		}
		c.defs[def.Code] = &def
	}
	for _, code := range knownCodes {
		if _, ok := c.defs[code]; !ok {
			return nil, fmt.Errorf("survey %s missing from catalog", code)
		}
	}
	return c, nil
}

func validate(d *Definition) error {
	if d.DisplayName == "" {
		return errors.New("display name is required")
	}
	if len(d.Questions) == 0 {
		return errors.New("at least one question is required")
	}
	b := d.Bands
	if !(b.Meets > 0 && b.Meets < b.Exceeds && b.Exceeds < b.Outstanding) {
		return fmt.Errorf("bands must be strictly increasing and positive, got %+v", b)
	}
	if b.Outstanding > d.MaxPoints() {
		return fmt.Errorf("outstanding threshold %.0f exceeds maximum of %.0f points", b.Outstanding, d.MaxPoints())
	}
	return nil
}

func isKnown(code Code) bool {
	for _, k := range knownCodes {
		if k == code {
			return true
		}
	}
	return false
}

// Weighting returns the weighting policy of the catalog.
func (c *Catalog) Weighting() Weighting {
	return c.weighting
}

// Codes returns the survey codes in display order.
func (c *Catalog) Codes() []Code {
	out := make([]Code, len(knownCodes))
	copy(out, knownCodes)
	return out
}

// Get returns the definition for a canonical code.
func (c *Catalog) Get(code Code) (*Definition, error) {
	def, ok := c.defs[code]
	if !ok {
		return nil, fmt.Errorf("survey %q: %w", code, ErrUnknownSurvey)
	}
	return def, nil
}

// QuestionsFor returns a copy of the ordered question list for a code.
func (c *Catalog) QuestionsFor(code Code) ([]string, error) {
	def, err := c.Get(code)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(def.Questions))
	copy(out, def.Questions)
	return out, nil
}

// DisplayName returns the full name of a survey, or the code itself when the
// code is unknown.
func (c *Catalog) DisplayName(code Code) string {
	if def, ok := c.defs[code]; ok {
		return def.DisplayName
	}
	return string(code)
}
