package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sync"
	_ "time/tzdata"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/trapmonitor/internal/api"
	"github.com/Lllllllleong/trapmonitor/internal/services"
)

var (
	router  http.Handler
	once    sync.Once
	initErr error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// "HandleFieldRecords" serves the pins, fichas, trash and dashboard routes.
	functions.HTTP("HandleFieldRecords", handleFieldRecords)
}

// main is required by the Go Functions Framework.
func main() {}

func handleFieldRecords(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		var app *services.FieldRecords
		app, initErr = services.NewFieldRecords(context.Background())
		if initErr == nil {
			router = api.NewRouter(app)
		}
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}
	router.ServeHTTP(w, r)
}
