package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"fibertrack/services"
	"fibertrack/templates"
)

// HandleSiteProgress returns a handler that derives the section and
// division progress of one site. HTMX requests get the HTML panel, other
// clients the JSON document.
func HandleSiteProgress(app *pocketbase.PocketBase, catalog *services.Catalog) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		siteID := e.Request.PathValue("siteId")
		if siteID == "" {
			return ErrorToast(e, http.StatusBadRequest, "Missing site ID")
		}

		store := services.NewRecordStore(app)
		site, err := services.FindSite(store, siteID)
		if err != nil {
			if errors.Is(err, services.ErrSiteNotFound) {
				return ErrorToast(e, http.StatusNotFound, "Site not found")
			}
			log.Printf("site_progress: could not load site %s: %v", siteID, err)
			return ErrorToast(e, http.StatusInternalServerError, "Internal error")
		}

		progress := services.BuildSiteProgress(catalog, services.LoadSiteSnapshot(store, site), time.Now())

		if e.Request.Header.Get("HX-Request") == "true" {
			return templates.SiteProgressContent(siteProgressView(progress)).Render(e.Request.Context(), e.Response)
		}
		return e.JSON(http.StatusOK, progress)
	}
}

func siteProgressView(p services.SiteProgress) templates.SiteProgressData {
	data := templates.SiteProgressData{
		SiteID:     p.Site.SiteID,
		SiteName:   p.Site.SiteName,
		City:       p.Site.City,
		Region:     p.Site.Region,
		LastUpdate: p.LastUpdate,
		HasBOQ:     p.HasBOQ,
	}
	for _, d := range p.Divisions {
		dv := templates.DivisionView{
			Name:            string(d.Division),
			Progress:        d.Progress.String(),
			LatestCompleted: d.LatestCompleted,
		}
		for _, s := range d.Sections {
			dv.Sections = append(dv.Sections, templates.SectionView{
				Title:    s.Title,
				Uploaded: s.Uploaded,
				Target:   s.Target,
				Label:    s.Status.Label,
				Color:    s.Status.Color,
				Locked:   s.Locked,
			})
		}
		data.Divisions = append(data.Divisions, dv)
	}
	return data
}
