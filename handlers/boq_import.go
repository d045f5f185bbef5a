package handlers

import (
	"fmt"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"fibertrack/services"
)

// HandleBOQImport returns a handler that imports one BOQ snapshot (.xlsx or
// .csv, form field "file") for a site, replacing the previous file of the
// same type.
func HandleBOQImport(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		siteID := e.Request.PathValue("siteId")
		boqType, ok := services.ParseBOQType(e.Request.PathValue("type"))
		if !ok {
			return ErrorToast(e, http.StatusBadRequest, "Unknown BOQ type")
		}

		site, err := services.FindSite(services.NewRecordStore(app), siteID)
		if err != nil {
			return RespondError(e, "boq_import", err)
		}

		if err := e.Request.ParseMultipartForm(10 << 20); err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Invalid upload")
		}
		file, header, err := e.Request.FormFile("file")
		if err != nil {
			return ErrorToast(e, http.StatusBadRequest, "No file uploaded")
		}
		defer file.Close()

		items, err := services.ParseBOQFile(file, header.Filename, boqType)
		if err != nil {
			return RespondError(e, "boq_import", err)
		}

		id, err := services.SaveBOQFile(app, site, boqType, header.Filename, items)
		if err != nil {
			return RespondError(e, "boq_import", err)
		}

		SetToast(e, ToastSuccess, fmt.Sprintf("%s BOQ imported (%d items)", boqType, len(items)))
		return e.JSON(http.StatusOK, map[string]any{
			"id":       id,
			"siteId":   site.SiteID,
			"boqType":  boqType,
			"fileName": header.Filename,
			"items":    len(items),
		})
	}
}
