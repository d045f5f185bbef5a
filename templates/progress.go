// Package templates renders the HTMX fragments of the progress dashboard.
package templates

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// SectionView is one row of a division table.
type SectionView struct {
	Title    string
	Uploaded int
	Target   int
	Label    string
	Color    string
	Locked   bool
}

// DivisionView is one division block of a site.
type DivisionView struct {
	Name            string
	Progress        string
	LatestCompleted string
	Sections        []SectionView
}

// SiteProgressData is the view model of the site progress panel.
type SiteProgressData struct {
	SiteID     string
	SiteName   string
	City       string
	Region     string
	LastUpdate string
	HasBOQ     bool
	Divisions  []DivisionView
}

// StatusBadge renders a colored status pill.
func StatusBadge(label, color string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<span class="badge badge-%s">%s</span>`,
			templ.EscapeString(color), templ.EscapeString(label))
		return err
	})
}

// DivisionTable renders the sections of one division.
func DivisionTable(siteID string, d DivisionView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		fmt.Fprintf(&b, `<section class="division" id="division-%s-%s">`,
			templ.EscapeString(siteID), templ.EscapeString(strings.ToLower(d.Name)))
		fmt.Fprintf(&b, `<h3>%s <span class="progress">%s</span></h3>`,
			templ.EscapeString(d.Name), templ.EscapeString(d.Progress))
		fmt.Fprintf(&b, `<p class="latest">Latest completed: %s</p>`, templ.EscapeString(d.LatestCompleted))
		b.WriteString(`<table><thead><tr><th>Section</th><th>Uploaded</th><th>Status</th></tr></thead><tbody>`)
		for _, s := range d.Sections {
			rowClass := ""
			if s.Locked {
				rowClass = ` class="locked"`
			}
			fmt.Fprintf(&b, `<tr%s><td>%s</td><td>%d/%d</td><td>`,
				rowClass, templ.EscapeString(s.Title), s.Uploaded, s.Target)
			if err := StatusBadge(s.Label, s.Color).Render(ctx, &b); err != nil {
				return err
			}
			b.WriteString(`</td></tr>`)
		}
		b.WriteString(`</tbody></table></section>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// SiteProgressContent renders the site panel swapped in by HTMX.
func SiteProgressContent(data SiteProgressData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		boq := "No BOQ uploaded"
		if data.HasBOQ {
			boq = "BOQ loaded"
		}
		_, err := fmt.Fprintf(w,
			`<div class="site-progress" id="site-%s"><header><h2>%s</h2><p>%s, %s</p><p class="boq">%s</p><p class="last-update">Last update: %s</p></header>`,
			templ.EscapeString(data.SiteID),
			templ.EscapeString(data.SiteName),
			templ.EscapeString(data.City),
			templ.EscapeString(data.Region),
			boq,
			templ.EscapeString(data.LastUpdate),
		)
		if err != nil {
			return err
		}
		for _, d := range data.Divisions {
			if err := DivisionTable(data.SiteID, d).Render(ctx, w); err != nil {
				return err
			}
		}
		_, err = io.WriteString(w, `</div>`)
		return err
	})
}
