package templates

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// DashboardRow is one site row of the dashboard table.
type DashboardRow struct {
	SiteID     string
	SiteName   string
	City       string
	LastUpdate string
	// Progress holds one "uploaded/target" cell per division, in Columns order.
	Progress []string
}

// DashboardTotal is one division column footer.
type DashboardTotal struct {
	Progress  string
	SitesDone int
}

// DashboardData is the view model of the dashboard table.
type DashboardData struct {
	Region  string
	City    string
	Columns []string
	Rows    []DashboardRow
	Totals  []DashboardTotal
}

// DashboardContent renders the dashboard table swapped in by HTMX.
func DashboardContent(data DashboardData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<table class="dashboard" id="dashboard-table"><thead><tr><th>Site</th><th>City</th>`)
		for _, c := range data.Columns {
			fmt.Fprintf(&b, `<th>%s</th>`, templ.EscapeString(c))
		}
		b.WriteString(`<th>Last update</th></tr></thead><tbody>`)

		if len(data.Rows) == 0 {
			fmt.Fprintf(&b, `<tr><td colspan="%d" class="empty">No sites found</td></tr>`, len(data.Columns)+3)
		}
		for _, r := range data.Rows {
			fmt.Fprintf(&b,
				`<tr><td><a hx-get="/api/sites/%s/progress" hx-target="#site-panel">%s</a></td><td>%s</td>`,
				templ.EscapeString(r.SiteID), templ.EscapeString(r.SiteName), templ.EscapeString(r.City))
			for _, p := range r.Progress {
				fmt.Fprintf(&b, `<td>%s</td>`, templ.EscapeString(p))
			}
			fmt.Fprintf(&b, `<td>%s</td></tr>`, templ.EscapeString(r.LastUpdate))
		}

		b.WriteString(`</tbody><tfoot><tr><th colspan="2">Total</th>`)
		for _, t := range data.Totals {
			fmt.Fprintf(&b, `<th>%s <small>(%d done)</small></th>`, templ.EscapeString(t.Progress), t.SitesDone)
		}
		b.WriteString(`<th></th></tr></tfoot></table>`)

		_, err := io.WriteString(w, b.String())
		return err
	})
}
