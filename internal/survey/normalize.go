package survey

import "strings"

// Normalize maps a survey code or name variant to its canonical code.
//
// Input is trimmed, inner whitespace collapsed and upper-cased. A known code is
// returned as is; otherwise the input is compared case-insensitively against
// every display name and alias. Unmatched input falls through as the cleaned
// upper-cased string, so callers must check membership with Resolve or Get.
func (c *Catalog) Normalize(raw string) Code {
	cleaned := strings.Join(strings.Fields(raw), " ")
	upper := Code(strings.ToUpper(cleaned))
	if isKnown(upper) {
		return upper
	}
	for _, code := range knownCodes {
		def, ok := c.defs[code]
		if !ok {
			continue
		}
		if strings.EqualFold(cleaned, def.DisplayName) {
			return code
		}
		for _, alias := range def.Aliases {
			if strings.EqualFold(cleaned, alias) {
				return code
			}
		}
	}
	return upper
}

// Resolve normalizes raw and returns the matching definition.
func (c *Catalog) Resolve(raw string) (*Definition, error) {
	return c.Get(c.Normalize(raw))
}
