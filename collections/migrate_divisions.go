package collections

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase"
)

// MigrateTaskDivisions rewrites legacy division spellings ("cw", "Civil
// Work", ...) on tasks records and on the upload records inside their
// sections arrays. normalize maps a spelling to its canonical name and
// reports whether it was recognized; unrecognized values are left alone.
// Safe to call on every startup -- records already in canonical form are
// not saved again.
func MigrateTaskDivisions(app *pocketbase.PocketBase, normalize func(string) (string, bool)) error {
	tasksCol, err := app.FindCollectionByNameOrId("tasks")
	if err != nil {
		return fmt.Errorf("migrate: could not find tasks collection: %w", err)
	}

	tasks, err := app.FindAllRecords(tasksCol)
	if err != nil {
		return fmt.Errorf("migrate: could not query tasks: %w", err)
	}

	migrated := 0
	for _, task := range tasks {
		changed := false

		division := task.GetString("division")
		if canonical, ok := normalize(division); ok && canonical != division {
			task.Set("division", canonical)
			changed = true
		}

		var sections []map[string]any
		raw := task.GetString("sections")
		if raw != "" && raw != "null" {
			if err := json.Unmarshal([]byte(raw), &sections); err != nil {
				log.Printf("migrate: task %s has unreadable sections, skipping: %v\n", task.Id, err)
				continue
			}
		}
		for _, rec := range sections {
			d, _ := rec["division"].(string)
			if canonical, ok := normalize(d); ok && canonical != d {
				rec["division"] = canonical
				changed = true
			}
		}

		if !changed {
			continue
		}
		if sections != nil {
			task.Set("sections", sections)
		}
		if err := app.Save(task); err != nil {
			log.Printf("migrate: failed to save task %s: %v\n", task.Id, err)
			continue
		}
		migrated++
	}

	if migrated > 0 {
		log.Printf("migrate: normalized divisions on %d task document(s).\n", migrated)
	}
	return nil
}
