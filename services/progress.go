package services

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultTarget is the target used when no static rule exists, and for
// BOQ-governed sections whose material code cannot be resolved.
const DefaultTarget = 1

// ResolveTarget returns the number of uploads expected for a section.
//
// Sections without a material code use the static rule count (or
// DefaultTarget). Sections with a material code ignore the static count
// entirely: they take the After DRM quantity of the matching BOQ row, and
// DefaultTarget when boq is nil or has no matching row.
func (c *Catalog) ResolveTarget(s SectionDefinition, boq *BOQContext) int {
	rule, ok := c.Rule(s)
	if !ok {
		return DefaultTarget
	}
	if rule.MaterialCode == "" {
		if rule.Count < 0 {
			return 0
		}
		return rule.Count
	}
	if boq == nil {
		return DefaultTarget
	}
	for _, item := range boq.AfterDRMItems() {
		if item.MaterialCode == rule.MaterialCode {
			return CoerceQuantity(item.AfterDRM)
		}
	}
	return DefaultTarget
}

// CountUploads counts the uploads whose section equals the bare name.
func CountUploads(s SectionDefinition, uploads []UploadedSectionRecord) int {
	n := 0
	for _, u := range uploads {
		if u.Section == s.BareName {
			n++
		}
	}
	return n
}

// Status labels and badge colors.
const (
	StatusDone   = "Done"
	StatusNotYet = "Not Yet"

	ColorGreen = "green"
	ColorRed   = "red"
)

// StatusBadge is the derived completion status of a section.
type StatusBadge struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// Done reports whether the badge marks a completed section.
func (b StatusBadge) Done() bool { return b.Label == StatusDone }

// SectionStatus is Done as soon as any upload of the section has been
// signed off, regardless of how many uploads exist or of the target.
// A Done section accepts no further uploads or deletions.
func SectionStatus(s SectionDefinition, uploads []UploadedSectionRecord) StatusBadge {
	for _, u := range uploads {
		if u.Section == s.BareName && u.Review.IsDone() {
			return StatusBadge{Label: StatusDone, Color: ColorGreen}
		}
	}
	return StatusBadge{Label: StatusNotYet, Color: ColorRed}
}

// Progress is an uploaded/target pair. It serializes as "uploaded/target".
type Progress struct {
	Uploaded int
	Target   int
}

// String returns the canonical "uploaded/target" form.
func (p Progress) String() string {
	return fmt.Sprintf("%d/%d", p.Uploaded, p.Target)
}

// Add returns the element-wise sum of p and q.
func (p Progress) Add(q Progress) Progress {
	return Progress{Uploaded: p.Uploaded + q.Uploaded, Target: p.Target + q.Target}
}

// Fraction returns uploaded/target, or 0 when the target is 0.
func (p Progress) Fraction() float64 {
	if p.Target == 0 {
		return 0
	}
	return float64(p.Uploaded) / float64(p.Target)
}

// MarshalText implements encoding.TextMarshaler.
func (p Progress) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Progress) UnmarshalText(text []byte) error {
	parsed, err := ParseProgress(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParseProgress parses the "uploaded/target" form.
func ParseProgress(s string) (Progress, error) {
	left, right, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return Progress{}, fmt.Errorf("progress %q: missing '/'", s)
	}
	uploaded, err := strconv.Atoi(strings.TrimSpace(left))
	if err != nil {
		return Progress{}, fmt.Errorf("progress %q: uploaded: %w", s, err)
	}
	target, err := strconv.Atoi(strings.TrimSpace(right))
	if err != nil {
		return Progress{}, fmt.Errorf("progress %q: target: %w", s, err)
	}
	return Progress{Uploaded: uploaded, Target: target}, nil
}

// DivisionProgress sums upload counts and targets over every section of
// the division, in catalog order.
func (c *Catalog) DivisionProgress(d Division, uploads []UploadedSectionRecord, boq *BOQContext) Progress {
	var p Progress
	for _, s := range c.SectionsIn(d) {
		p.Uploaded += CountUploads(s, uploads)
		p.Target += c.ResolveTarget(s, boq)
	}
	return p
}

// NoSectionLabel is shown when a division has no completed section.
const NoSectionLabel = "-"

// LatestCompletedSection returns the section of the division's most recent
// Done upload by uploadedAt. On equal timestamps the earlier record wins.
// The second return value is false when the division has no Done upload.
func LatestCompletedSection(d Division, uploads []UploadedSectionRecord) (string, bool) {
	var (
		best  UploadedSectionRecord
		found bool
	)
	for _, u := range uploads {
		if u.Division != d || !u.Review.IsDone() {
			continue
		}
		if !found || u.UploadedAt.After(best.UploadedAt) {
			best = u
			found = true
		}
	}
	if !found {
		return "", false
	}
	return best.Section, true
}

// LatestCompletedLabel is LatestCompletedSection rendered for display.
func LatestCompletedLabel(d Division, uploads []UploadedSectionRecord) string {
	if name, ok := LatestCompletedSection(d, uploads); ok {
		return name
	}
	return NoSectionLabel
}
