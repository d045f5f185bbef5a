package services

import (
	"bytes"
	"testing"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

// bytesReader wraps workbook bytes built in a test for ParseBOQFile.
func bytesReader(b []byte) *bytes.Reader {
	return bytes.NewReader(b)
}

// createRawTask stores a tasks record whose sections array may hold
// values of any JSON shape.
func createRawTask(t *testing.T, app *pocketbase.PocketBase, siteID, division string, sections []any) *core.Record {
	t.Helper()
	col, err := app.FindCollectionByNameOrId(TasksCollection)
	if err != nil {
		t.Fatalf("failed to find tasks collection: %v", err)
	}
	record := core.NewRecord(col)
	record.Set("site_id", siteID)
	record.Set("division", division)
	record.Set("sections", sections)
	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save raw task: %v", err)
	}
	return record
}
