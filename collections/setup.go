package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

// BOQTypeValues are the allowed boq_files.boq_type values.
var BOQTypeValues = []string{"Before DRM", "After DRM", "Construction Done", "ABD"}

// Setup programmatically creates/ensures the sites, tasks and boq_files
// collections exist.
func Setup(app *pocketbase.PocketBase) {
	ensureCollection(app, "sites", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "site_id", Required: true})
		c.Fields.Add(&core.TextField{Name: "site_name", Required: true})
		c.Fields.Add(&core.TextField{Name: "city", Required: false})
		c.Fields.Add(&core.TextField{Name: "region", Required: false})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
		c.AddIndex("idx_sites_site_id", true, "site_id", "")
	})

	ensureCollection(app, "tasks", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "site_id", Required: true})
		c.Fields.Add(&core.TextField{Name: "site_name", Required: false})
		c.Fields.Add(&core.TextField{Name: "division", Required: true})
		c.Fields.Add(&core.JSONField{Name: "sections", MaxSize: 5 << 20})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
		c.AddIndex("idx_tasks_site_division", false, "site_id, division", "")
	})

	ensureCollection(app, "boq_files", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "site_id", Required: true})
		c.Fields.Add(&core.TextField{Name: "site_name", Required: false})
		c.Fields.Add(&core.TextField{Name: "city", Required: false})
		c.Fields.Add(&core.SelectField{
			Name:      "boq_type",
			Required:  true,
			Values:    BOQTypeValues,
			MaxSelect: 1,
		})
		c.Fields.Add(&core.TextField{Name: "file_name", Required: false})
		c.Fields.Add(&core.JSONField{Name: "items", MaxSize: 5 << 20})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
		c.AddIndex("idx_boq_files_site_type", false, "site_id, boq_type", "")
	})
}

// ensureCollection checks if a collection already exists by name. If it does,
// the existing collection is returned. Otherwise a new base collection is
// created, the addFields callback is invoked to populate its fields, and the
// collection is saved.
func ensureCollection(app *pocketbase.PocketBase, name string, addFields func(*core.Collection)) *core.Collection {
	existing, err := app.FindCollectionByNameOrId(name)
	if err == nil && existing != nil {
		log.Printf("Collection %q already exists, skipping creation.\n", name)
		return existing
	}

	collection := core.NewBaseCollection(name)
	addFields(collection)

	if err := app.Save(collection); err != nil {
		log.Fatalf("Failed to create collection %q: %v", name, err)
	}

	fmt.Printf("Created collection %q (id=%s)\n", name, collection.Id)
	return collection
}
