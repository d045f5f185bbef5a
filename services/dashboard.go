package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// DashboardFilter narrows the dashboard to a region and/or city.
// Empty fields do not filter.
type DashboardFilter struct {
	Region string
	City   string
}

func (f DashboardFilter) filters() map[string]any {
	out := make(map[string]any)
	if f.Region != "" {
		out["region"] = f.Region
	}
	if f.City != "" {
		out["city"] = f.City
	}
	return out
}

// DivisionTotal is the progress of one division summed over sites.
type DivisionTotal struct {
	Division  Division `json:"division"`
	Progress  Progress `json:"progress"`
	SitesDone int      `json:"sitesDone"` // sites whose every section of the division is Done
}

// Dashboard is the aggregate view over many sites.
type Dashboard struct {
	Sites  []SiteProgress  `json:"sites"`
	Totals []DivisionTotal `json:"totals"`
}

// BuildDashboard loads every matching site with at most workers concurrent
// site loads and derives its progress. Rows are ordered by site name.
func BuildDashboard(ctx context.Context, store DocumentStore, catalog *Catalog, filter DashboardFilter, workers int) (Dashboard, error) {
	siteRecords, err := store.Find(SitesCollection, filter.filters())
	if err != nil {
		return Dashboard{}, err
	}
	if workers < 1 {
		workers = 1
	}

	now := time.Now()
	rows := make([]SiteProgress, len(siteRecords))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, r := range siteRecords {
		site := SiteFromRecord(r)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rows[i] = BuildSiteProgress(catalog, LoadSiteSnapshot(store, site), now)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	sort.SliceStable(rows, func(a, b int) bool {
		return strings.ToLower(rows[a].Site.SiteName) < strings.ToLower(rows[b].Site.SiteName)
	})

	return Dashboard{Sites: rows, Totals: divisionTotals(rows)}, nil
}

func divisionTotals(rows []SiteProgress) []DivisionTotal {
	totals := make([]DivisionTotal, 0, len(Divisions))
	for _, d := range Divisions {
		total := DivisionTotal{Division: d}
		for _, row := range rows {
			ds, ok := row.Division(d)
			if !ok {
				continue
			}
			total.Progress = total.Progress.Add(ds.Progress)
			if allDone(ds.Sections) {
				total.SitesDone++
			}
		}
		totals = append(totals, total)
	}
	return totals
}

func allDone(sections []SectionProgress) bool {
	if len(sections) == 0 {
		return false
	}
	for _, s := range sections {
		if !s.Status.Done() {
			return false
		}
	}
	return true
}

// CityProgress is the progress of one division summed over a city's sites.
type CityProgress struct {
	City     string   `json:"city"`
	Sites    int      `json:"sites"`
	Progress Progress `json:"progress"`
}

// AggregateByCity sums a division's progress per city, ordered by city.
// Sites without a city are grouped under "-".
func AggregateByCity(rows []SiteProgress, d Division) []CityProgress {
	byCity := make(map[string]*CityProgress)
	var order []string
	for _, row := range rows {
		city := strings.TrimSpace(row.Site.City)
		if city == "" {
			city = NoSectionLabel
		}
		cp, ok := byCity[city]
		if !ok {
			cp = &CityProgress{City: city}
			byCity[city] = cp
			order = append(order, city)
		}
		cp.Sites++
		if ds, ok := row.Division(d); ok {
			cp.Progress = cp.Progress.Add(ds.Progress)
		}
	}
	sort.Strings(order)

	out := make([]CityProgress, 0, len(order))
	for _, city := range order {
		out = append(out, *byCity[city])
	}
	return out
}
