// Package api provides HTTP routing for the field records REST API.
package api

import (
	"github.com/Lllllllleong/trapmonitor/internal/api/handlers"
	"github.com/Lllllllleong/trapmonitor/internal/api/middleware"
	"github.com/Lllllllleong/trapmonitor/internal/services"
	"github.com/gorilla/mux"
)

// NewRouter creates and configures the HTTP router with all API routes.
// Every route under /api requires a verified ID token.
func NewRouter(app *services.FieldRecords) *mux.Router {
	r := mux.NewRouter()

	// Apply global middleware
	r.Use(middleware.Logging)
	r.Use(middleware.ErrorRecovery)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.RequireAuth(app.Tokens))

	// Pin endpoints
	api.HandleFunc("/pins", handlers.ListPins(app.Pins)).Methods("GET")
	api.HandleFunc("/pins", handlers.CreatePin(app.Pins)).Methods("POST")
	api.HandleFunc("/pins/refresh-status", handlers.RefreshStatuses(app.Dashboard)).Methods("POST")
	api.HandleFunc("/pins/trap/{trap}/fichas", handlers.FichasForTrap(app.Pins)).Methods("GET")
	api.HandleFunc("/pins/{id}", handlers.GetPin(app.Pins)).Methods("GET")
	api.HandleFunc("/pins/{id}/status", handlers.UpdatePinStatus(app.Pins)).Methods("PUT")
	api.HandleFunc("/pins/{id}", handlers.DeletePin(app.Pins)).Methods("DELETE")

	// Ficha endpoints
	api.HandleFunc("/fichas", handlers.ListFichas(app.Fichas)).Methods("GET")
	api.HandleFunc("/fichas", handlers.CreateFicha(app.Fichas)).Methods("POST")
	api.HandleFunc("/fichas/{id}", handlers.GetFicha(app.Fichas)).Methods("GET")
	api.HandleFunc("/fichas/{id}", handlers.UpdateFicha(app.Fichas)).Methods("PUT")
	api.HandleFunc("/fichas/{id}/report.pdf", handlers.FichaReport(app.Reports)).Methods("GET")
	api.HandleFunc("/fichas/{id}/trash", handlers.TrashFicha(app.Trash)).Methods("POST")
	api.HandleFunc("/fichas/{id}/restore", handlers.RestoreFicha(app.Trash)).Methods("POST")
	api.HandleFunc("/fichas/{id}", handlers.PurgeFicha(app.Trash)).Methods("DELETE")

	// Trash endpoints
	api.HandleFunc("/trash", handlers.ListTrash(app.Trash)).Methods("GET")
	api.HandleFunc("/trash", handlers.EmptyTrash(app.Trash)).Methods("DELETE")

	api.HandleFunc("/dashboard", handlers.Dashboard(app.Dashboard)).Methods("GET")

	return r
}
