package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/spf13/cast"

	"fibertrack/services"
)

// HandleSectionUpload returns a handler that records a new section upload
// for a site. Uploads to a section that is already Done are refused with 409.
func HandleSectionUpload(app *pocketbase.PocketBase, catalog *services.Catalog) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		siteID := e.Request.PathValue("siteId")
		if err := e.Request.ParseForm(); err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Invalid form data")
		}

		site, err := services.FindSite(services.NewRecordStore(app), siteID)
		if err != nil {
			return RespondError(e, "sections", err)
		}

		in := services.UploadInput{
			Section:  formValue(e, "section"),
			Division: formValue(e, "division"),
			FileURL:  formValue(e, "fileUrl"),
			FileName: formValue(e, "fileName"),
			Details:  formValue(e, "details"),
			Remark:   formValue(e, "remark"),
			UploadBy: formValue(e, "uploadBy"),
		}
		result, err := services.NewSectionWriter(app, catalog).Upload(site, in)
		if err != nil {
			return RespondError(e, "sections", err)
		}

		SetToast(e, ToastSuccess, fmt.Sprintf("%s uploaded", result.Record.Section))
		return e.JSON(http.StatusCreated, result)
	}
}

// HandleSectionReplace returns a handler that replaces the file of an
// upload that has not been signed off.
func HandleSectionReplace(app *pocketbase.PocketBase, catalog *services.Catalog) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		taskID, index, err := uploadPosition(e)
		if err != nil {
			return ErrorToast(e, http.StatusBadRequest, err.Error())
		}
		if err := e.Request.ParseForm(); err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Invalid form data")
		}

		in := services.ReplaceInput{
			FileURL:  formValue(e, "fileUrl"),
			FileName: formValue(e, "fileName"),
			Details:  formValue(e, "details"),
			Remark:   formValue(e, "remark"),
			UploadBy: formValue(e, "uploadBy"),
		}
		record, err := services.NewSectionWriter(app, catalog).Replace(taskID, index, in)
		if err != nil {
			return RespondError(e, "sections", err)
		}

		SetToast(e, ToastSuccess, fmt.Sprintf("%s replaced", record.Section))
		return e.JSON(http.StatusOK, record)
	}
}

// HandleSectionReview returns a handler that records a reviewer verdict.
func HandleSectionReview(app *pocketbase.PocketBase, catalog *services.Catalog) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		taskID, index, err := uploadPosition(e)
		if err != nil {
			return ErrorToast(e, http.StatusBadRequest, err.Error())
		}
		if err := e.Request.ParseForm(); err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Invalid form data")
		}

		review, err := services.ReviewInput{
			Status: formValue(e, "status"),
			Reason: formValue(e, "reason"),
		}.Review()
		if err != nil {
			return RespondError(e, "sections", err)
		}

		record, err := services.NewSectionWriter(app, catalog).SetReview(taskID, index, review)
		if err != nil {
			return RespondError(e, "sections", err)
		}

		label := record.Review.String()
		if label == "" {
			label = "Pending"
		}
		SetToast(e, ToastSuccess, fmt.Sprintf("%s marked %s", record.Section, label))
		return e.JSON(http.StatusOK, record)
	}
}

// HandleSectionDelete returns a handler that removes an upload. Uploads of
// a section that is Done are refused with 409.
func HandleSectionDelete(app *pocketbase.PocketBase, catalog *services.Catalog) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		taskID, index, err := uploadPosition(e)
		if err != nil {
			return ErrorToast(e, http.StatusBadRequest, err.Error())
		}

		if err := services.NewSectionWriter(app, catalog).Delete(taskID, index); err != nil {
			return RespondError(e, "sections", err)
		}

		SetToast(e, ToastSuccess, "Upload deleted")
		return e.JSON(http.StatusOK, map[string]any{"taskId": taskID, "index": index})
	}
}

// uploadPosition reads the {taskId} and {index} path values.
func uploadPosition(e *core.RequestEvent) (string, int, error) {
	taskID := e.Request.PathValue("taskId")
	if taskID == "" {
		return "", 0, errors.New("Missing task ID")
	}
	index, err := cast.ToIntE(e.Request.PathValue("index"))
	if err != nil {
		return "", 0, fmt.Errorf("Invalid upload index %q", e.Request.PathValue("index"))
	}
	return taskID, index, nil
}

func formValue(e *core.RequestEvent, key string) string {
	return strings.TrimSpace(e.Request.FormValue(key))
}
