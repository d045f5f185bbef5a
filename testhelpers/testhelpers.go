// Package testhelpers provides utilities for testing PocketBase-based applications.
package testhelpers

import (
	"strings"
	"testing"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"fibertrack/collections"
)

// NewTestApp creates a PocketBase instance backed by a temporary directory.
// It bootstraps the app and runs collections.Setup to create all tables.
// The temporary directory is cleaned up automatically when the test finishes.
func NewTestApp(t *testing.T) *pocketbase.PocketBase {
	t.Helper()

	tmpDir := t.TempDir()
	app := pocketbase.NewWithConfig(pocketbase.Config{
		DefaultDataDir: tmpDir,
	})

	if err := app.Bootstrap(); err != nil {
		t.Fatalf("failed to bootstrap test app: %v", err)
	}

	collections.Setup(app)

	return app
}

// CreateTestSite creates a sites record and returns it.
func CreateTestSite(t *testing.T, app *pocketbase.PocketBase, siteID, siteName, city, region string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("sites")
	if err != nil {
		t.Fatalf("failed to find sites collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("site_id", siteID)
	record.Set("site_name", siteName)
	record.Set("city", city)
	record.Set("region", region)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test site: %v", err)
	}

	return record
}

// CreateTestTask creates a tasks record for one division of a site. Each
// entry of sections is stored as-is in the sections JSON array.
func CreateTestTask(t *testing.T, app *pocketbase.PocketBase, siteID, division string, sections []map[string]any) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("tasks")
	if err != nil {
		t.Fatalf("failed to find tasks collection: %v", err)
	}

	if sections == nil {
		sections = []map[string]any{}
	}

	record := core.NewRecord(col)
	record.Set("site_id", siteID)
	record.Set("division", division)
	record.Set("sections", sections)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test task: %v", err)
	}

	return record
}

// CreateTestBOQFile creates a boq_files record holding items.
func CreateTestBOQFile(t *testing.T, app *pocketbase.PocketBase, siteID, siteName, city, boqType string, items []map[string]any) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("boq_files")
	if err != nil {
		t.Fatalf("failed to find boq_files collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("site_id", siteID)
	record.Set("site_name", siteName)
	record.Set("city", city)
	record.Set("boq_type", boqType)
	record.Set("file_name", "boq.xlsx")
	record.Set("items", items)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test BOQ file: %v", err)
	}

	return record
}

// Upload builds one raw upload record for CreateTestTask.
func Upload(section, status string) map[string]any {
	rec := map[string]any{
		"section":  section,
		"fileName": strings.ToLower(strings.ReplaceAll(section, " ", "_")) + ".jpg",
	}
	if status != "" {
		rec["status_task"] = status
	}
	return rec
}

// AssertHTMLContains checks that body contains all specified fragments.
func AssertHTMLContains(t *testing.T, body string, fragments ...string) {
	t.Helper()

	for _, frag := range fragments {
		if !strings.Contains(body, frag) {
			t.Errorf("expected HTML to contain %q, but it was not found\nbody (first 500 chars): %s",
				frag, truncate(body, 500))
		}
	}
}

// truncate returns the first n characters of s, appending "..." if truncated.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
