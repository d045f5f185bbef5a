package collections_test

import (
	"testing"

	"fibertrack/collections"
	"fibertrack/testhelpers"

	"github.com/pocketbase/pocketbase/core"
)

// expectedCollections is the full list of collections that Setup() must create.
var expectedCollections = []string{
	"sites",
	"tasks",
	"boq_files",
}

func TestSetup_AllCollectionsExist(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	for _, name := range expectedCollections {
		col, err := app.FindCollectionByNameOrId(name)
		if err != nil {
			t.Errorf("collection %q not found after Setup(): %v", name, err)
			continue
		}
		if col.Name != name {
			t.Errorf("expected collection name %q, got %q", name, col.Name)
		}
	}
}

func TestSetup_Idempotent(t *testing.T) {
	app := testhelpers.NewTestApp(t) // Setup() already called once via NewTestApp

	ids := make(map[string]string)
	for _, name := range expectedCollections {
		col, _ := app.FindCollectionByNameOrId(name)
		ids[name] = col.Id
	}

	collections.Setup(app)

	for _, name := range expectedCollections {
		col, err := app.FindCollectionByNameOrId(name)
		if err != nil {
			t.Errorf("collection %q missing after second Setup(): %v", name, err)
			continue
		}
		if col.Id != ids[name] {
			t.Errorf("collection %q id changed after second Setup(): %s -> %s", name, ids[name], col.Id)
		}
	}
}

func TestSetup_SitesFields(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	col, _ := app.FindCollectionByNameOrId("sites")

	for _, f := range []string{"site_id", "site_name", "city", "region", "created", "updated"} {
		if col.Fields.GetByName(f) == nil {
			t.Errorf("sites: missing field %q", f)
		}
	}
}

func TestSetup_SitesUniqueSiteID(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	testhelpers.CreateTestSite(t, app, "S-1", "First", "Jakarta", "Jabodetabek")

	col, _ := app.FindCollectionByNameOrId("sites")
	dup := core.NewRecord(col)
	dup.Set("site_id", "S-1")
	dup.Set("site_name", "Duplicate")
	if err := app.Save(dup); err == nil {
		t.Error("expected duplicate site_id to be rejected")
	}
}

func TestSetup_TasksFields(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	col, _ := app.FindCollectionByNameOrId("tasks")

	for _, f := range []string{"site_id", "site_name", "division", "sections", "created", "updated"} {
		if col.Fields.GetByName(f) == nil {
			t.Errorf("tasks: missing field %q", f)
		}
	}
	if _, ok := col.Fields.GetByName("sections").(*core.JSONField); !ok {
		t.Error("tasks.sections is not a JSONField")
	}
}

func TestSetup_BOQFilesFields(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	col, _ := app.FindCollectionByNameOrId("boq_files")

	for _, f := range []string{"site_id", "site_name", "city", "boq_type", "file_name", "items", "created", "updated"} {
		if col.Fields.GetByName(f) == nil {
			t.Errorf("boq_files: missing field %q", f)
		}
	}

	typeField := col.Fields.GetByName("boq_type")
	sf, ok := typeField.(*core.SelectField)
	if !ok {
		t.Fatal("boq_type field is not a SelectField")
	}
	expected := map[string]bool{"Before DRM": true, "After DRM": true, "Construction Done": true, "ABD": true}
	for _, v := range sf.Values {
		if !expected[v] {
			t.Errorf("unexpected boq_type value: %q", v)
		}
		delete(expected, v)
	}
	for v := range expected {
		t.Errorf("missing boq_type value: %q", v)
	}
}
