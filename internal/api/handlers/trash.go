package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Lllllllleong/trapmonitor/internal/api/middleware"
	"github.com/Lllllllleong/trapmonitor/internal/models"
	"github.com/Lllllllleong/trapmonitor/internal/services"
	"github.com/gorilla/mux"
)

// TrashFicha moves a ficha to the trash.
func TrashFicha(svc *services.TrashService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		at, err := svc.SoftDelete(r.Context(), id)
		if err != nil {
			middleware.WriteError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, models.TrashResponse{ID: id, Deleted: true, DeletedAt: at.Format(time.RFC3339)})
	}
}

func RestoreFicha(svc *services.TrashService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		if err := svc.Restore(r.Context(), id); err != nil {
			middleware.WriteError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, models.TrashResponse{ID: id, Deleted: false})
	}
}

// PurgeFicha deletes a ficha and its image for good.
func PurgeFicha(svc *services.TrashService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		slog.Info("Permanent ficha delete requested.", "fichaId", id, "callerUid", callerUID(r))
		res, err := svc.Purge(r.Context(), id)
		if err != nil {
			middleware.WriteError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func ListTrash(svc *services.TrashService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fichas, err := svc.ListTrash(r.Context())
		if err != nil {
			middleware.WriteError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, fichas)
	}
}

// EmptyTrash purges every trashed ficha and reports the outcome of each.
func EmptyTrash(svc *services.TrashService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("Empty trash requested.", "callerUid", callerUID(r))
		results, err := svc.EmptyTrash(r.Context())
		if err != nil {
			middleware.WriteError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, results)
	}
}

func callerUID(r *http.Request) string {
	if p := middleware.Caller(r.Context()); p != nil {
		return p.UID
	}
	return ""
}
