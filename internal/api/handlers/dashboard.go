package handlers

import (
	"net/http"

	"github.com/Lllllllleong/trapmonitor/internal/api/middleware"
	"github.com/Lllllllleong/trapmonitor/internal/services"
)

// Dashboard returns the status counts of all pins.
func Dashboard(svc *services.DashboardService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sum, err := svc.Summary(r.Context())
		if err != nil {
			middleware.WriteError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, sum)
	}
}

// RefreshStatuses rewrites the stored status of pins whose day bucket moved.
func RefreshStatuses(svc *services.DashboardService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.RefreshStatuses(r.Context())
		if err != nil {
			middleware.WriteError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
