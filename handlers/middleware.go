package handlers

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/pocketbase/pocketbase/core"

	"fibertrack/services"
)

type contextKey string

const DashboardFilterKey contextKey = "dashboardFilter"

const (
	regionCookie = "dashboard_region"
	cityCookie   = "dashboard_city"
)

// GetDashboardFilter extracts the dashboard filter from the request context.
func GetDashboardFilter(r *http.Request) services.DashboardFilter {
	if val, ok := r.Context().Value(DashboardFilterKey).(services.DashboardFilter); ok {
		return val
	}
	return services.DashboardFilter{}
}

// DashboardFilterMiddleware resolves the region/city filter of the dashboard
// and stores it in the request context. A region or city query parameter
// wins and is remembered in a cookie (an empty value clears it); without
// one, the cookie of the previous selection applies.
func DashboardFilterMiddleware() func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		query := e.Request.URL.Query()
		filter := services.DashboardFilter{
			Region: resolveFilterValue(e, query, "region", regionCookie),
			City:   resolveFilterValue(e, query, "city", cityCookie),
		}

		ctx := context.WithValue(e.Request.Context(), DashboardFilterKey, filter)
		e.Request = e.Request.WithContext(ctx)

		return e.Next()
	}
}

func resolveFilterValue(e *core.RequestEvent, query url.Values, param, cookieName string) string {
	if _, ok := query[param]; ok {
		value := strings.TrimSpace(query.Get(param))
		cookie := &http.Cookie{
			Name:     cookieName,
			Value:    url.QueryEscape(value),
			Path:     "/",
			MaxAge:   30 * 24 * 60 * 60,
			SameSite: http.SameSiteLaxMode,
		}
		if value == "" {
			cookie.MaxAge = -1
		}
		http.SetCookie(e.Response, cookie)
		return value
	}

	cookie, err := e.Request.Cookie(cookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	value, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return ""
	}
	return value
}
