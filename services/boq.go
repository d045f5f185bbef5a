package services

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// BOQType identifies one of the four bill-of-quantities snapshots.
type BOQType string

const (
	BOQBeforeDRM        BOQType = "Before DRM"
	BOQAfterDRM         BOQType = "After DRM"
	BOQConstructionDone BOQType = "Construction Done"
	BOQABD              BOQType = "ABD"
)

// BOQTypes lists every snapshot type in lifecycle order.
var BOQTypes = []BOQType{BOQBeforeDRM, BOQAfterDRM, BOQConstructionDone, BOQABD}

// ParseBOQType matches s against the known types case-insensitively and
// also accepts URL slugs such as "after-drm".
func ParseBOQType(s string) (BOQType, bool) {
	norm := strings.ToLower(strings.TrimSpace(strings.ReplaceAll(s, "-", " ")))
	for _, t := range BOQTypes {
		if strings.ToLower(string(t)) == norm {
			return t, true
		}
	}
	return "", false
}

// BOQLineItem is one material row. Quantities are kept as stored (string
// or number) and coerced only when read.
type BOQLineItem struct {
	MaterialCode     string `json:"materialCode"`
	MaterialName     string `json:"materialName,omitempty"`
	BeforeDRM        any    `json:"beforeDrmBoq,omitempty"`
	AfterDRM         any    `json:"afterDrmBoq,omitempty"`
	ConstructionDone any    `json:"constructionDoneBoq,omitempty"`
	ABD              any    `json:"abdBoq,omitempty"`
}

// UnmarshalJSON decodes a stored line item. Material codes and names may
// be stored as numbers; they are converted to strings, with numeric codes
// kept exactly as written.
func (it *BOQLineItem) UnmarshalJSON(data []byte) error {
	var w struct {
		MaterialCode     json.RawMessage `json:"materialCode"`
		MaterialName     any             `json:"materialName"`
		BeforeDRM        any             `json:"beforeDrmBoq"`
		AfterDRM         any             `json:"afterDrmBoq"`
		ConstructionDone any             `json:"constructionDoneBoq"`
		ABD              any             `json:"abdBoq"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*it = BOQLineItem{
		MaterialCode:     materialCodeString(w.MaterialCode),
		MaterialName:     strings.TrimSpace(cast.ToString(w.MaterialName)),
		BeforeDRM:        w.BeforeDRM,
		AfterDRM:         w.AfterDRM,
		ConstructionDone: w.ConstructionDone,
		ABD:              w.ABD,
	}
	return nil
}

func materialCodeString(raw json.RawMessage) string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	if _, ok := v.(float64); ok {
		return strings.TrimSpace(string(raw))
	}
	return strings.TrimSpace(cast.ToString(v))
}

// Quantity returns the raw quantity stored for the given snapshot type.
func (it BOQLineItem) Quantity(t BOQType) any {
	switch t {
	case BOQBeforeDRM:
		return it.BeforeDRM
	case BOQAfterDRM:
		return it.AfterDRM
	case BOQConstructionDone:
		return it.ConstructionDone
	case BOQABD:
		return it.ABD
	}
	return nil
}

// setQuantity stores q under the field of snapshot type t.
func (it *BOQLineItem) setQuantity(t BOQType, q any) {
	switch t {
	case BOQBeforeDRM:
		it.BeforeDRM = q
	case BOQAfterDRM:
		it.AfterDRM = q
	case BOQConstructionDone:
		it.ConstructionDone = q
	case BOQABD:
		it.ABD = q
	}
}

// BOQFile is one stored boq_files document: the line items of a single
// snapshot type for a site.
type BOQFile struct {
	SiteID   string
	SiteName string
	City     string
	Type     BOQType
	Items    []BOQLineItem
}

// BOQContext is the merged bill of quantities of one site.
type BOQContext struct {
	City     string
	SiteName string

	// Items holds one merged row per material code, in first-seen order.
	Items []BOQLineItem

	present map[BOQType]map[string]bool
}

// NewBOQContext merges the BOQ files of a site. Files are grouped by
// (city, site name); the group of the first file is used and files of
// other groups are ignored. Within a snapshot type, the first row for a
// material code wins. It returns nil when files is empty.
func NewBOQContext(files []BOQFile) *BOQContext {
	if len(files) == 0 {
		return nil
	}

	ctx := &BOQContext{
		City:     files[0].City,
		SiteName: files[0].SiteName,
		present:  make(map[BOQType]map[string]bool, len(BOQTypes)),
	}
	index := make(map[string]int)

	for _, f := range files {
		if !strings.EqualFold(f.City, ctx.City) || !strings.EqualFold(f.SiteName, ctx.SiteName) {
			continue
		}
		seen := ctx.present[f.Type]
		if seen == nil {
			seen = make(map[string]bool)
			ctx.present[f.Type] = seen
		}
		for _, item := range f.Items {
			code := strings.TrimSpace(item.MaterialCode)
			if code == "" || seen[code] {
				continue
			}
			seen[code] = true

			i, ok := index[code]
			if !ok {
				i = len(ctx.Items)
				index[code] = i
				ctx.Items = append(ctx.Items, BOQLineItem{MaterialCode: code, MaterialName: item.MaterialName})
			}
			if ctx.Items[i].MaterialName == "" {
				ctx.Items[i].MaterialName = item.MaterialName
			}
			q := item.Quantity(f.Type)
			if q == nil {
				q = firstQuantity(item)
			}
			ctx.Items[i].setQuantity(f.Type, q)
		}
	}
	return ctx
}

// firstQuantity returns the first non-nil quantity of an item.
func firstQuantity(item BOQLineItem) any {
	for _, t := range BOQTypes {
		if q := item.Quantity(t); q != nil {
			return q
		}
	}
	return nil
}

// ItemsOf returns the merged rows that appear in a file of type t.
func (c *BOQContext) ItemsOf(t BOQType) []BOQLineItem {
	if c == nil {
		return nil
	}
	var out []BOQLineItem
	for _, it := range c.Items {
		if c.present[t][it.MaterialCode] {
			out = append(out, it)
		}
	}
	return out
}

// AfterDRMItems returns the rows of the After DRM snapshot.
func (c *BOQContext) AfterDRMItems() []BOQLineItem {
	return c.ItemsOf(BOQAfterDRM)
}

// CoerceQuantity converts a stored quantity to a non-negative integer.
// Strings are parsed as base-10 integers (a decimal string is truncated);
// anything that does not parse, and any negative value, yields 0.
func CoerceQuantity(v any) int {
	var n int
	switch val := v.(type) {
	case nil:
		return 0
	case string:
		n = parseQuantityString(val)
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return 0
		}
		n = int(val)
	default:
		var err error
		n, err = cast.ToIntE(val)
		if err != nil {
			return 0
		}
	}
	if n < 0 {
		return 0
	}
	return n
}

func parseQuantityString(s string) int {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return int(f)
	}
	return 0
}

// FormatQuantity renders a raw quantity for display.
func FormatQuantity(v any) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", CoerceQuantity(v))
}
