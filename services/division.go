package services

import "strings"

// Division is a top-level workflow category of a site.
type Division string

const (
	DivisionPermit   Division = "Permit"
	DivisionSND      Division = "SND"
	DivisionCW       Division = "CW"
	DivisionEL       Division = "EL"
	DivisionDocument Division = "Document"
	DivisionMaterial Division = "Material"
)

// Divisions lists every division in display order.
var Divisions = []Division{
	DivisionPermit,
	DivisionSND,
	DivisionCW,
	DivisionEL,
	DivisionDocument,
	DivisionMaterial,
}

// divisionAliases maps lowercased spellings found in stored documents to
// the canonical division.
var divisionAliases = map[string]Division{
	"permit":     DivisionPermit,
	"snd":        DivisionSND,
	"survey":     DivisionSND,
	"cw":         DivisionCW,
	"civil work": DivisionCW,
	"civilwork":  DivisionCW,
	"el":         DivisionEL,
	"electrical": DivisionEL,
	"document":   DivisionDocument,
	"documents":  DivisionDocument,
	"material":   DivisionMaterial,
	"materials":  DivisionMaterial,
}

// ParseDivision normalizes a division string case-insensitively.
// The second return value is false when s names no known division.
func ParseDivision(s string) (Division, bool) {
	d, ok := divisionAliases[strings.ToLower(strings.TrimSpace(s))]
	return d, ok
}

// Valid reports whether d is one of the canonical divisions.
func (d Division) Valid() bool {
	for _, known := range Divisions {
		if d == known {
			return true
		}
	}
	return false
}

// Slug returns the lowercase form used in storage paths and URLs.
func (d Division) Slug() string {
	return strings.ToLower(string(d))
}
