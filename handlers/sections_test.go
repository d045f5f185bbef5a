package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"fibertrack/services"
	"fibertrack/testhelpers"
)

func formRequest(method, target string, form url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func loadSections(t *testing.T, app *pocketbase.PocketBase, taskID string) []services.UploadedSectionRecord {
	t.Helper()
	record, err := app.FindRecordById("tasks", taskID)
	if err != nil {
		t.Fatalf("reload task: %v", err)
	}
	doc, err := services.TaskFromRecord(record)
	if err != nil {
		t.Fatalf("decode task: %v", err)
	}
	return doc.Sections
}

func positionRequest(method, taskID, index, suffix string, form url.Values) *http.Request {
	req := formRequest(method, "/api/tasks/"+taskID+"/sections/"+index+suffix, form)
	req.SetPathValue("taskId", taskID)
	req.SetPathValue("index", index)
	return req
}

func serve(app *pocketbase.PocketBase, handler func(*core.RequestEvent) error, req *http.Request) (*httptest.ResponseRecorder, error) {
	rec := httptest.NewRecorder()
	err := handler(newTestRequestEvent(app, req, rec))
	return rec, err
}

func TestHandleSectionUpload_Success(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	testhelpers.CreateTestSite(t, app, "JKT-0001", "Kebon Jeruk", "Jakarta", "Jabodetabek")

	req := formRequest(http.MethodPost, "/api/sites/JKT-0001/sections", url.Values{
		"section":  {"Visit"},
		"division": {"snd"},
		"fileName": {"visit.jpg"},
		"uploadBy": {"surveyor01"},
	})
	req.SetPathValue("siteId", "JKT-0001")

	rec, err := serve(app, HandleSectionUpload(app, services.DefaultCatalog()), req)
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var result services.UploadResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if result.TaskID == "" || result.Record.Division != services.DivisionSND {
		t.Errorf("result = %+v", result)
	}
	if rec.Header().Get("HX-Trigger") == "" {
		t.Error("expected success toast")
	}

	sections := loadSections(t, app, result.TaskID)
	if len(sections) != 1 || sections[0].UploadBy != "surveyor01" {
		t.Errorf("stored sections = %+v", sections)
	}
}

func TestHandleSectionUpload_Errors(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	testhelpers.CreateTestSite(t, app, "JKT-0001", "Kebon Jeruk", "Jakarta", "Jabodetabek")
	testhelpers.CreateTestTask(t, app, "JKT-0001", "Permit", []map[string]any{
		testhelpers.Upload("Permit Submission", "Done"),
	})
	handler := HandleSectionUpload(app, services.DefaultCatalog())

	tests := []struct {
		name   string
		siteID string
		form   url.Values
		want   int
	}{
		{"unknown site", "NOPE", url.Values{"section": {"Visit"}, "division": {"SND"}, "fileName": {"a.jpg"}}, http.StatusNotFound},
		{"missing file name", "JKT-0001", url.Values{"section": {"Visit"}, "division": {"SND"}}, http.StatusBadRequest},
		{"unknown section", "JKT-0001", url.Values{"section": {"Visit"}, "division": {"CW"}, "fileName": {"a.jpg"}}, http.StatusBadRequest},
		{"locked section", "JKT-0001", url.Values{"section": {"Permit Submission"}, "division": {"Permit"}, "fileName": {"a.pdf"}}, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := formRequest(http.MethodPost, "/api/sites/"+tt.siteID+"/sections", tt.form)
			req.SetPathValue("siteId", tt.siteID)
			rec, err := serve(app, handler, req)
			if err != nil {
				t.Fatalf("handler returned error: %v", err)
			}
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestHandleSectionReplace(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	task := testhelpers.CreateTestTask(t, app, "S-1", "CW", []map[string]any{
		testhelpers.Upload("Marking", "Done"),
		testhelpers.Upload("Marking", "Rejected"),
	})
	handler := HandleSectionReplace(app, services.DefaultCatalog())

	rec, err := serve(app, handler, positionRequest(http.MethodPost, task.Id, "0", "", url.Values{"fileName": {"new.jpg"}}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Errorf("replace Done record: expected 409, got %d", rec.Code)
	}

	rec, err = serve(app, handler, positionRequest(http.MethodPost, task.Id, "1", "", url.Values{"fileName": {"new.jpg"}}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	sections := loadSections(t, app, task.Id)
	if sections[1].FileName != "new.jpg" || sections[1].Review.Status != services.ReviewPending {
		t.Errorf("replaced record = %+v", sections[1])
	}
}

func TestHandleSectionReview(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	task := testhelpers.CreateTestTask(t, app, "S-1", "SND", []map[string]any{
		testhelpers.Upload("Visit", ""),
	})
	handler := HandleSectionReview(app, services.DefaultCatalog())

	rec, err := serve(app, handler, positionRequest(http.MethodPost, task.Id, "0", "/review", url.Values{"status": {"Rejected"}}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("reject without reason: expected 400, got %d", rec.Code)
	}

	rec, err = serve(app, handler, positionRequest(http.MethodPost, task.Id, "0", "/review", url.Values{"status": {"Rejected"}, "reason": {"photo too dark"}}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	got := loadSections(t, app, task.Id)[0].Review
	if got.Status != services.ReviewRejected || got.Reason != "photo too dark" {
		t.Errorf("review = %+v", got)
	}

	rec, _ = serve(app, handler, positionRequest(http.MethodPost, task.Id, "7", "/review", url.Values{"status": {"Done"}}))
	if rec.Code != http.StatusNotFound {
		t.Errorf("index out of range: expected 404, got %d", rec.Code)
	}

	rec, _ = serve(app, handler, positionRequest(http.MethodPost, task.Id, "first", "/review", url.Values{"status": {"Done"}}))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("non-numeric index: expected 400, got %d", rec.Code)
	}
}

func TestHandleSectionDelete(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	open := testhelpers.CreateTestTask(t, app, "S-1", "SND", []map[string]any{
		testhelpers.Upload("Visit", ""),
	})
	locked := testhelpers.CreateTestTask(t, app, "S-1", "Permit", []map[string]any{
		testhelpers.Upload("Permit Approval", "Done"),
	})
	handler := HandleSectionDelete(app, services.DefaultCatalog())

	rec, err := serve(app, handler, positionRequest(http.MethodDelete, locked.Id, "0", "", nil))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Errorf("delete from Done section: expected 409, got %d", rec.Code)
	}

	rec, err = serve(app, handler, positionRequest(http.MethodDelete, open.Id, "0", "", nil))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if n := len(loadSections(t, app, open.Id)); n != 0 {
		t.Errorf("expected upload removed, %d left", n)
	}

	rec, _ = serve(app, handler, positionRequest(http.MethodDelete, "missing", "0", "", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown task: expected 404, got %d", rec.Code)
	}
}
