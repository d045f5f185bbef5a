package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"fibertrack/services"
	"fibertrack/templates"
)

// HandleDashboard returns a handler that derives the progress of every site
// matching the request's dashboard filter, loading at most workers sites
// at a time.
func HandleDashboard(app *pocketbase.PocketBase, catalog *services.Catalog, workers int) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		filter := GetDashboardFilter(e.Request)
		dash, err := services.BuildDashboard(e.Request.Context(), services.NewRecordStore(app), catalog, filter, workers)
		if err != nil {
			log.Printf("dashboard: could not build dashboard (%+v): %v", filter, err)
			return ErrorToast(e, http.StatusInternalServerError, "Internal error")
		}

		if e.Request.Header.Get("HX-Request") == "true" {
			return templates.DashboardContent(dashboardView(filter, dash)).Render(e.Request.Context(), e.Response)
		}
		return e.JSON(http.StatusOK, dash)
	}
}

// HandleDashboardCities returns a handler that sums one division's progress
// per city over the filtered sites.
func HandleDashboardCities(app *pocketbase.PocketBase, catalog *services.Catalog, workers int) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		division, ok := services.ParseDivision(e.Request.URL.Query().Get("division"))
		if !ok {
			return ErrorToast(e, http.StatusBadRequest, "Unknown division")
		}

		filter := GetDashboardFilter(e.Request)
		dash, err := services.BuildDashboard(e.Request.Context(), services.NewRecordStore(app), catalog, filter, workers)
		if err != nil {
			log.Printf("dashboard: could not build city view for %s: %v", division, err)
			return ErrorToast(e, http.StatusInternalServerError, "Internal error")
		}

		return e.JSON(http.StatusOK, map[string]any{
			"division": division,
			"cities":   services.AggregateByCity(dash.Sites, division),
		})
	}
}

// HandleDashboardFilters returns a handler listing the regions, and the
// cities of the selected region, for the filter dropdowns.
func HandleDashboardFilters(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		region := strings.TrimSpace(e.Request.URL.Query().Get("region"))
		opts, err := services.LoadFilterOptions(services.NewRecordStore(app), region)
		if err != nil {
			log.Printf("dashboard: could not load filter options: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Internal error")
		}
		return e.JSON(http.StatusOK, opts)
	}
}

func dashboardView(filter services.DashboardFilter, dash services.Dashboard) templates.DashboardData {
	data := templates.DashboardData{Region: filter.Region, City: filter.City}
	for _, d := range services.Divisions {
		data.Columns = append(data.Columns, string(d))
	}
	for _, site := range dash.Sites {
		row := templates.DashboardRow{
			SiteID:     site.Site.SiteID,
			SiteName:   site.Site.SiteName,
			City:       site.Site.City,
			LastUpdate: site.LastUpdate,
		}
		for _, d := range services.Divisions {
			ds, _ := site.Division(d)
			row.Progress = append(row.Progress, ds.Progress.String())
		}
		data.Rows = append(data.Rows, row)
	}
	for _, total := range dash.Totals {
		data.Totals = append(data.Totals, templates.DashboardTotal{
			Progress:  total.Progress.String(),
			SitesDone: total.SitesDone,
		})
	}
	return data
}
