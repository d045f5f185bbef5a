package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pocketbase/pocketbase/core"

	"fibertrack/services"
)

// Toast types understood by the client.
const (
	ToastSuccess = "success"
	ToastWarning = "warning"
	ToastError   = "error"
)

// SetToast sets the HX-Trigger response header to show a toast notification
// on the client via HTMX. If an HX-Trigger header already exists, the toast
// payload is merged into the existing JSON object.
// It also sets a flash cookie so toasts survive regular (non-HTMX) redirects.
func SetToast(e *core.RequestEvent, toastType string, message string) {
	payload := map[string]string{"message": message, "type": toastType}

	trigger := map[string]any{}
	if existing := e.Response.Header().Get("HX-Trigger"); existing != "" {
		if err := json.Unmarshal([]byte(existing), &trigger); err != nil {
			log.Printf("toast: existing HX-Trigger is not valid JSON, overwriting: %v", err)
			trigger = map[string]any{}
		}
	}
	trigger["showToast"] = payload

	data, err := json.Marshal(trigger)
	if err != nil {
		log.Printf("toast: failed to marshal HX-Trigger JSON: %v", err)
		return
	}
	e.Response.Header().Set("HX-Trigger", string(data))

	// Also set a flash cookie for non-HTMX redirects (302) where HX-Trigger is lost
	cookieVal, err := json.Marshal(payload)
	if err == nil {
		http.SetCookie(e.Response, &http.Cookie{
			Name:     "flash_toast",
			Value:    url.QueryEscape(string(cookieVal)),
			Path:     "/",
			MaxAge:   10,
			HttpOnly: false, // JS needs to read it
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// ErrorToast sets an error toast and prevents HTMX from swapping the error text into the DOM.
// It sets HX-Reswap: none so the response body is ignored by HTMX, while the HX-Trigger
// header still fires the toast event.
func ErrorToast(e *core.RequestEvent, statusCode int, message string) error {
	SetToast(e, ToastError, message)
	e.Response.Header().Set("HX-Reswap", "none")
	return e.String(statusCode, message)
}

// ErrorStatus maps an engine error to its HTTP status: 409 for writes to
// completed sections or unreadable records, 404 for unknown sites, tasks
// and upload positions, 400 for rejected input and 500 otherwise.
func ErrorStatus(err error) int {
	var verrs validation.Errors
	switch {
	case errors.Is(err, services.ErrSectionLocked),
		errors.Is(err, services.ErrRecordLocked),
		errors.Is(err, services.ErrUnreadableRecord):
		return http.StatusConflict
	case errors.Is(err, services.ErrSiteNotFound),
		errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrRecordIndex):
		return http.StatusNotFound
	case errors.As(err, &verrs),
		errors.Is(err, services.ErrUnknownSection),
		errors.Is(err, services.ErrRejectReasonRequired),
		errors.Is(err, services.ErrInvalidBOQFile):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// RespondError logs err under component and answers with an error toast.
// Internal errors are reported with a generic message.
func RespondError(e *core.RequestEvent, component string, err error) error {
	status := ErrorStatus(err)
	if status == http.StatusInternalServerError {
		log.Printf("%s: %v", component, err)
		return ErrorToast(e, status, "Internal error")
	}
	return ErrorToast(e, status, err.Error())
}
