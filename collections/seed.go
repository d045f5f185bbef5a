package collections

import (
	"fmt"
	"log"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

// ── Definition structs ───────────────────────────────────────────────────

type uploadDef struct {
	section  string
	fileName string
	uploadBy string
	status   string // "", "Done" or "Rejected"
	reason   string
	ageHours int
}

type taskDef struct {
	division string
	uploads  []uploadDef
}

type boqItemDef struct {
	materialCode string
	materialName string
	qty          string
}

type siteDef struct {
	siteID   string
	siteName string
	city     string
	region   string
	tasks    []taskDef
	afterDRM []boqItemDef
}

// Seed populates sites, tasks and boq_files with demo fiber deployment
// data. It is safe to call on every startup because it returns early if
// any site records already exist.
func Seed(app *pocketbase.PocketBase) error {
	// ── idempotency: skip if sites already exist ─────────────────────
	sitesCol, err := app.FindCollectionByNameOrId("sites")
	if err != nil {
		return fmt.Errorf("seed: could not find sites collection: %w", err)
	}
	existing, err := app.FindAllRecords(sitesCol)
	if err != nil {
		return fmt.Errorf("seed: could not query sites: %w", err)
	}
	if len(existing) > 0 {
		return nil // already seeded
	}

	tasksCol, err := app.FindCollectionByNameOrId("tasks")
	if err != nil {
		return fmt.Errorf("seed: could not find tasks collection: %w", err)
	}
	boqCol, err := app.FindCollectionByNameOrId("boq_files")
	if err != nil {
		return fmt.Errorf("seed: could not find boq_files collection: %w", err)
	}

	now := time.Now().UTC()

	for _, sd := range demoSites() {
		site := core.NewRecord(sitesCol)
		site.Set("site_id", sd.siteID)
		site.Set("site_name", sd.siteName)
		site.Set("city", sd.city)
		site.Set("region", sd.region)
		if err := app.Save(site); err != nil {
			return fmt.Errorf("seed: save site %s: %w", sd.siteID, err)
		}

		for _, td := range sd.tasks {
			sections := make([]map[string]any, 0, len(td.uploads))
			for _, ud := range td.uploads {
				at := now.Add(-time.Duration(ud.ageHours) * time.Hour)
				rec := map[string]any{
					"section":    ud.section,
					"division":   td.division,
					"fileName":   ud.fileName,
					"uploadBy":   ud.uploadBy,
					"uploadedAt": at.Format(time.RFC3339),
				}
				if ud.status != "" {
					rec["status_task"] = ud.status
				}
				if ud.reason != "" {
					rec["reject_reason"] = ud.reason
				}
				sections = append(sections, rec)
			}

			task := core.NewRecord(tasksCol)
			task.Set("site_id", sd.siteID)
			task.Set("site_name", sd.siteName)
			task.Set("division", td.division)
			task.Set("sections", sections)
			if err := app.Save(task); err != nil {
				return fmt.Errorf("seed: save %s task for %s: %w", td.division, sd.siteID, err)
			}
		}

		if len(sd.afterDRM) > 0 {
			items := make([]map[string]any, 0, len(sd.afterDRM))
			for _, it := range sd.afterDRM {
				items = append(items, map[string]any{
					"materialCode": it.materialCode,
					"materialName": it.materialName,
					"afterDrmBoq":  it.qty,
				})
			}
			boq := core.NewRecord(boqCol)
			boq.Set("site_id", sd.siteID)
			boq.Set("site_name", sd.siteName)
			boq.Set("city", sd.city)
			boq.Set("boq_type", "After DRM")
			boq.Set("file_name", "boq_after_drm_"+sd.siteID+".xlsx")
			boq.Set("items", items)
			if err := app.Save(boq); err != nil {
				return fmt.Errorf("seed: save boq for %s: %w", sd.siteID, err)
			}
		}

		log.Printf("seed: site %s (%s) with %d task document(s)", sd.siteID, sd.siteName, len(sd.tasks))
	}

	return nil
}

func demoSites() []siteDef {
	return []siteDef{
		{
			siteID:   "JKT-0001",
			siteName: "Kebon Jeruk",
			city:     "Jakarta",
			region:   "Jabodetabek",
			tasks: []taskDef{
				{division: "Permit", uploads: []uploadDef{
					{section: "Permit Submission", fileName: "permit_form.pdf", uploadBy: "admin.permit", status: "Done", ageHours: 240},
					{section: "Permit Approval", fileName: "approval_letter.pdf", uploadBy: "admin.permit", status: "Done", ageHours: 200},
				}},
				{division: "SND", uploads: []uploadDef{
					{section: "Visit", fileName: "visit_1.jpg", uploadBy: "surveyor01", status: "Done", ageHours: 190},
					{section: "Visit", fileName: "visit_2.jpg", uploadBy: "surveyor01", ageHours: 189},
					{section: "Route Survey", fileName: "route.kmz", uploadBy: "surveyor01", status: "Rejected", reason: "route misses handhole HH-04", ageHours: 150},
				}},
				{division: "CW", uploads: []uploadDef{
					{section: "Marking", fileName: "marking_1.jpg", uploadBy: "field.cw", status: "Done", ageHours: 72},
					{section: "Digging Hole", fileName: "dig_1.jpg", uploadBy: "field.cw", status: "Done", ageHours: 48},
					{section: "Digging Hole", fileName: "dig_2.jpg", uploadBy: "field.cw", ageHours: 47},
					{section: "Digging Hole", fileName: "dig_3.jpg", uploadBy: "field.cw", ageHours: 30},
					{section: "Pole Installation", fileName: "pole_1.jpg", uploadBy: "field.cw", ageHours: 20},
				}},
			},
			afterDRM: []boqItemDef{
				{materialCode: "200000690", materialName: "Digging hole for pole", qty: "37"},
				{materialCode: "200001183", materialName: "Pole 7m", qty: "24"},
				{materialCode: "200000167", materialName: "Cable ADSS 24 core", qty: "1,250"},
			},
		},
		{
			siteID:   "JKT-0002",
			siteName: "Cempaka Putih",
			city:     "Jakarta",
			region:   "Jabodetabek",
			tasks: []taskDef{
				{division: "SND", uploads: []uploadDef{
					{section: "Visit", fileName: "visit.jpg", uploadBy: "surveyor02", ageHours: 12},
				}},
			},
		},
		{
			siteID:   "BDG-0001",
			siteName: "Dago",
			city:     "Bandung",
			region:   "West Java",
			tasks: []taskDef{
				{division: "EL", uploads: []uploadDef{
					{section: "Splicing", fileName: "splice_tray.jpg", uploadBy: "field.el", status: "Done", ageHours: 5},
					{section: "OTDR Test", fileName: "otdr.sor", uploadBy: "field.el", ageHours: 3},
				}},
			},
			afterDRM: []boqItemDef{
				{materialCode: "200000516", materialName: "Handhole 60x60", qty: "6"},
			},
		},
	}
}
