// Package handlers provides HTTP request handlers for the field records API.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Lllllllleong/trapmonitor/internal/api/middleware"
	"github.com/Lllllllleong/trapmonitor/internal/apperrors"
	"github.com/Lllllllleong/trapmonitor/internal/models"
	"github.com/Lllllllleong/trapmonitor/internal/services"
	"github.com/gorilla/mux"
)

// ListPins returns every pin with its status as of today.
func ListPins(svc *services.PinService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pins, err := svc.ListPins(r.Context())
		if err != nil {
			middleware.WriteError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, pins)
	}
}

// CreatePin stores a new trap from the map screen.
func CreatePin(svc *services.PinService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.CreatePinRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		id, err := svc.CreatePin(r.Context(), req)
		if err != nil {
			middleware.WriteError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, models.CreatedResponse{ID: id})
	}
}

func GetPin(svc *services.PinService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pin, err := svc.GetPin(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			middleware.WriteError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, pin)
	}
}

// UpdatePinStatus applies a hand-picked status and returns the flags written.
func UpdatePinStatus(svc *services.PinService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.UpdatePinStatusRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		flags, err := svc.UpdatePinStatus(r.Context(), mux.Vars(r)["id"], req.Status)
		if err != nil {
			middleware.WriteError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, flags)
	}
}

func DeletePin(svc *services.PinService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeletePin(r.Context(), mux.Vars(r)["id"]); err != nil {
			middleware.WriteError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// FichasForTrap lists the live fichas recorded against a trap number.
func FichasForTrap(svc *services.PinService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fichas, err := svc.FindFichasForPin(r.Context(), mux.Vars(r)["trap"])
		if err != nil {
			middleware.WriteError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, fichas)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to write response.", "error", err)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		middleware.WriteError(w, r, apperrors.Validation("decode", "invalid request body"))
		return false
	}
	return true
}
