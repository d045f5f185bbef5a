package main

import (
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"fibertrack/collections"
	"fibertrack/config"
	"fibertrack/handlers"
	"fibertrack/services"
)

func main() {
	cfg := config.Load()

	app := pocketbase.NewWithConfig(pocketbase.Config{
		DefaultDataDir: cfg.DataDir,
	})

	catalog := services.DefaultCatalog()

	// Create collections, seed data and normalize legacy documents on startup
	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		collections.Setup(app)
		if cfg.Seed {
			if err := collections.Seed(app); err != nil {
				log.Printf("Warning: seed data failed: %v", err)
			}
		}
		if err := collections.MigrateTaskDivisions(app, normalizeDivision); err != nil {
			log.Printf("Warning: division migration failed: %v", err)
		}
		return se.Next()
	})

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		// ── Site progress ────────────────────────────────────────
		se.Router.GET("/api/sites/{siteId}/progress", handlers.HandleSiteProgress(app, catalog))

		// ── Dashboard ────────────────────────────────────────────
		se.Router.GET("/api/dashboard", handlers.HandleDashboard(app, catalog, cfg.DashboardWorkers)).
			BindFunc(handlers.DashboardFilterMiddleware())
		se.Router.GET("/api/dashboard/cities", handlers.HandleDashboardCities(app, catalog, cfg.DashboardWorkers)).
			BindFunc(handlers.DashboardFilterMiddleware())
		se.Router.GET("/api/dashboard/filters", handlers.HandleDashboardFilters(app))

		// ── Section uploads ──────────────────────────────────────
		se.Router.POST("/api/sites/{siteId}/sections", handlers.HandleSectionUpload(app, catalog))
		se.Router.POST("/api/tasks/{taskId}/sections/{index}", handlers.HandleSectionReplace(app, catalog))
		se.Router.POST("/api/tasks/{taskId}/sections/{index}/review", handlers.HandleSectionReview(app, catalog))
		se.Router.DELETE("/api/tasks/{taskId}/sections/{index}", handlers.HandleSectionDelete(app, catalog))

		// ── BOQ import ───────────────────────────────────────────
		se.Router.POST("/api/sites/{siteId}/boq/{type}", handlers.HandleBOQImport(app))

		return se.Next()
	})

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}

func normalizeDivision(s string) (string, bool) {
	d, ok := services.ParseDivision(s)
	return string(d), ok
}
