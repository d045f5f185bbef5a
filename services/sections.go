package services

import (
	"strings"
	"unicode"
)

// SectionDefinition is a checklist item of a division that needs photo or
// document evidence.
type SectionDefinition struct {
	Title    string   // display label with ordinal prefix, e.g. "B. Digging Hole"
	BareName string   // Title without the prefix; join key against uploads
	Division Division // owning division
}

// NewSection builds a definition from its display title.
func NewSection(title string, division Division) SectionDefinition {
	return SectionDefinition{
		Title:    title,
		BareName: stripOrdinal(title),
		Division: division,
	}
}

// stripOrdinal removes a leading "A. " / "12. " style prefix.
func stripOrdinal(title string) string {
	title = strings.TrimSpace(title)
	idx := strings.Index(title, ". ")
	if idx <= 0 || idx > 3 {
		return title
	}
	for _, r := range title[:idx] {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return title
		}
	}
	return strings.TrimSpace(title[idx+2:])
}

// ruleKey is the lookup key of a title in the target rule table.
func ruleKey(title string) string {
	return strings.ToUpper(strings.TrimSpace(title))
}

// TargetRule gives the expected upload count of a section. A non-empty
// MaterialCode moves target resolution to the site's After DRM BOQ and the
// static Count is then never used.
type TargetRule struct {
	Count        int
	MaterialCode string
}

// Catalog is the compiled-in set of sections and their target rules.
type Catalog struct {
	sections []SectionDefinition
	rules    map[string]TargetRule
}

// NewCatalog builds a catalog. rules is keyed by section title, compared
// case-insensitively.
func NewCatalog(sections []SectionDefinition, rules map[string]TargetRule) *Catalog {
	c := &Catalog{
		sections: append([]SectionDefinition(nil), sections...),
		rules:    make(map[string]TargetRule, len(rules)),
	}
	for title, rule := range rules {
		c.rules[ruleKey(title)] = rule
	}
	return c
}

// Sections returns every definition in catalog order.
func (c *Catalog) Sections() []SectionDefinition {
	return append([]SectionDefinition(nil), c.sections...)
}

// SectionsIn returns the definitions of one division in catalog order.
func (c *Catalog) SectionsIn(d Division) []SectionDefinition {
	var out []SectionDefinition
	for _, s := range c.sections {
		if s.Division == d {
			out = append(out, s)
		}
	}
	return out
}

// Lookup finds a section of a division by its bare name.
func (c *Catalog) Lookup(d Division, bareName string) (SectionDefinition, bool) {
	for _, s := range c.sections {
		if s.Division == d && s.BareName == bareName {
			return s, true
		}
	}
	return SectionDefinition{}, false
}

// Rule returns the target rule for a section title.
func (c *Catalog) Rule(s SectionDefinition) (TargetRule, bool) {
	rule, ok := c.rules[ruleKey(s.Title)]
	return rule, ok
}

// DefaultCatalog returns the fiber deployment checklist.
func DefaultCatalog() *Catalog {
	return NewCatalog(defaultSections(), defaultRules())
}

func defaultSections() []SectionDefinition {
	titles := []struct {
		division Division
		titles   []string
	}{
		{DivisionPermit, []string{
			"A. Permit Submission",
			"B. Permit Approval",
			"C. Work Permit Letter",
		}},
		{DivisionSND, []string{
			"A. Visit",
			"B. Route Survey",
			"C. Design Drawing",
			"D. SND Approval",
		}},
		{DivisionCW, []string{
			"A. Marking",
			"B. Digging Hole",
			"C. Pole Installation",
			"D. Cable Pulling",
			"E. Handhole Installation",
			"F. Backfilling",
			"G. Reinstatement",
		}},
		{DivisionEL, []string{
			"A. Joint Closure",
			"B. Splicing",
			"C. ODP Installation",
			"D. OTDR Test",
			"E. OPM Test",
		}},
		{DivisionDocument, []string{
			"A. ABD Drawing",
			"B. Redline",
			"C. Test Report",
			"D. BAST",
		}},
		{DivisionMaterial, []string{
			"A. Material Receipt",
			"B. Material Usage",
			"C. Material Return",
		}},
	}

	var out []SectionDefinition
	for _, group := range titles {
		for _, title := range group.titles {
			out = append(out, NewSection(title, group.division))
		}
	}
	return out
}

func defaultRules() map[string]TargetRule {
	return map[string]TargetRule{
		"A. PERMIT SUBMISSION":  {Count: 1},
		"B. PERMIT APPROVAL":    {Count: 1},
		"C. WORK PERMIT LETTER": {Count: 1},

		"A. VISIT":          {Count: 3},
		"B. ROUTE SURVEY":   {Count: 5},
		"C. DESIGN DRAWING": {Count: 1},
		"D. SND APPROVAL":   {Count: 1},

		"A. MARKING":               {Count: 5},
		"B. DIGGING HOLE":          {Count: 50, MaterialCode: "200000690"},
		"C. POLE INSTALLATION":     {Count: 50, MaterialCode: "200001183"},
		"D. CABLE PULLING":         {Count: 10, MaterialCode: "200000167"},
		"E. HANDHOLE INSTALLATION": {Count: 4, MaterialCode: "200000516"},
		"F. BACKFILLING":           {Count: 5},
		"G. REINSTATEMENT":         {Count: 5},

		"A. JOINT CLOSURE":    {Count: 2},
		"B. SPLICING":         {Count: 4},
		"C. ODP INSTALLATION": {Count: 2},
		"D. OTDR TEST":        {Count: 2},
		"E. OPM TEST":         {Count: 2},

		"A. ABD DRAWING": {Count: 1},
		"B. REDLINE":     {Count: 1},
		"C. TEST REPORT": {Count: 1},
		"D. BAST":        {Count: 1},

		"A. MATERIAL RECEIPT": {Count: 3},
		"B. MATERIAL USAGE":   {Count: 3},
		// Material Return has no rule and resolves to the default of 1.
	}
}
