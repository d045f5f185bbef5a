package services

import (
	"testing"

	"fibertrack/testhelpers"
)

func TestRecordStore_FindFiltersInInsertionOrder(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	testhelpers.CreateTestTask(t, app, "S-1", "CW", nil)
	testhelpers.CreateTestTask(t, app, "S-2", "CW", nil)
	testhelpers.CreateTestTask(t, app, "S-1", "EL", nil)

	store := NewRecordStore(app)
	records, err := store.Find(TasksCollection, map[string]any{"site_id": "S-1"})
	if err != nil {
		t.Fatalf("Find error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].GetString("division") != "CW" || records[1].GetString("division") != "EL" {
		t.Errorf("order = %s, %s; want CW, EL", records[0].GetString("division"), records[1].GetString("division"))
	}

	all, err := store.Find(TasksCollection, nil)
	if err != nil {
		t.Fatalf("Find(nil) error: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 records without filters, got %d", len(all))
	}
}

func TestRecordStore_FindMultipleFilters(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	testhelpers.CreateTestTask(t, app, "S-1", "CW", nil)
	testhelpers.CreateTestTask(t, app, "S-1", "EL", nil)

	records, err := NewRecordStore(app).Find(TasksCollection, map[string]any{"site_id": "S-1", "division": "EL"})
	if err != nil {
		t.Fatalf("Find error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
}

func TestRecordStore_Update(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	site := testhelpers.CreateTestSite(t, app, "S-1", "Old Name", "Jakarta", "Jabodetabek")

	store := NewRecordStore(app)
	if err := store.Update(SitesCollection, site.Id, map[string]any{"site_name": "New Name"}); err != nil {
		t.Fatalf("Update error: %v", err)
	}

	updated, _ := app.FindRecordById(SitesCollection, site.Id)
	if got := updated.GetString("site_name"); got != "New Name" {
		t.Errorf("site_name = %q, want New Name", got)
	}
	if got := updated.GetString("city"); got != "Jakarta" {
		t.Errorf("city = %q, want untouched Jakarta", got)
	}
}

func TestRecordStore_UpdateMissing(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	if err := NewRecordStore(app).Update(SitesCollection, "nonexistent", map[string]any{"city": "X"}); err == nil {
		t.Error("expected error updating a missing record")
	}
}

func TestRecordStore_Append(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	task := testhelpers.CreateTestTask(t, app, "S-1", "CW", []map[string]any{
		testhelpers.Upload("Marking", "Done"),
	})

	store := NewRecordStore(app)
	rec := UploadedSectionRecord{Section: "Backfilling", Division: DivisionCW, FileName: "fill.jpg", Review: Pending()}
	if err := store.Append(TasksCollection, task.Id, "sections", rec); err != nil {
		t.Fatalf("Append error: %v", err)
	}

	reloaded, _ := app.FindRecordById(TasksCollection, task.Id)
	doc, err := TaskFromRecord(reloaded)
	if err != nil {
		t.Fatalf("TaskFromRecord error: %v", err)
	}
	if len(doc.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(doc.Sections))
	}
	if doc.Sections[0].Section != "Marking" || !doc.Sections[0].Review.IsDone() {
		t.Errorf("first record changed: %+v", doc.Sections[0])
	}
	if doc.Sections[1].Section != "Backfilling" || doc.Sections[1].FileName != "fill.jpg" {
		t.Errorf("appended record = %+v", doc.Sections[1])
	}
}

func TestRecordStore_AppendToEmptyField(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	task := testhelpers.CreateTestTask(t, app, "S-1", "EL", nil)

	store := NewRecordStore(app)
	if err := store.Append(TasksCollection, task.Id, "sections", UploadedSectionRecord{Section: "Splicing"}); err != nil {
		t.Fatalf("Append error: %v", err)
	}
	reloaded, _ := app.FindRecordById(TasksCollection, task.Id)
	doc, _ := TaskFromRecord(reloaded)
	if len(doc.Sections) != 1 || doc.Sections[0].Division != DivisionEL {
		t.Errorf("sections = %+v, want one EL record", doc.Sections)
	}
}
