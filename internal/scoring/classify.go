package scoring

import "survey-go/internal/survey"

// Band is a qualitative performance category. Bands are ordered, so a higher
// value always means a better result. BandNone marks an empty group.
type Band int

const (
	BandNone Band = iota
	BelowTarget
	MeetsTarget
	ExceedsTarget
	Outstanding
)

func (b Band) String() string {
	switch b {
	case BelowTarget:
		return "Below Target"
	case MeetsTarget:
		return "Meets Target"
	case ExceedsTarget:
		return "Exceeds Target"
	case Outstanding:
		return "Outstanding"
	default:
		return "N/A"
	}
}

// Classification is the result of mapping a score to a band.
type Classification struct {
	Band        Band
	Category    string
	Description string
}

// NotApplicable is the classification of an empty group.
var NotApplicable = Classification{Band: BandNone, Category: BandNone.String()}

type table struct {
	bands survey.Bands
	desc  survey.Descriptions
}

// Classifier holds one threshold table per survey, resolved once from the
// catalog.
type Classifier struct {
	tables map[survey.Code]table
}

func NewClassifier(catalog *survey.Catalog) *Classifier {
	c := &Classifier{tables: make(map[survey.Code]table)}
	for _, code := range catalog.Codes() {
		def, err := catalog.Get(code)
		if err != nil {
			continue
		}
		c.tables[code] = table{bands: def.Bands, desc: def.Descriptions}
	}
	return c
}

// Classify maps points to a band of the given survey. Each band includes its
// lower bound; values below the lowest threshold are Below Target. Unknown
// codes classify as N/A.
func (c *Classifier) Classify(code survey.Code, points float64) Classification {
	t, ok := c.tables[code]
	if !ok {
		return NotApplicable
	}
	var band Band
	var desc string
	switch {
	case points >= t.bands.Outstanding:
		band, desc = Outstanding, t.desc.Outstanding
	case points >= t.bands.Exceeds:
		band, desc = ExceedsTarget, t.desc.Exceeds
	case points >= t.bands.Meets:
		band, desc = MeetsTarget, t.desc.Meets
	default:
		band, desc = BelowTarget, t.desc.Below
	}
	return Classification{Band: band, Category: band.String(), Description: desc}
}
