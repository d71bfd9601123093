package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/trapmonitor/internal/callable"
	"github.com/Lllllllleong/trapmonitor/internal/models"
	"github.com/Lllllllleong/trapmonitor/internal/services"
)

var (
	roleAdmin *services.RoleAdmin
	once      sync.Once
	initErr   error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.HTTP("listUsers", lazy("listUsers", func(a *services.RoleAdmin) http.HandlerFunc {
		return callable.Handler("listUsers", a.Tokens, func(ctx context.Context, caller *models.Principal, _ struct{}) (models.ListUsersResponse, error) {
			users, err := a.Roles.ListUsers(ctx, caller)
			return models.ListUsersResponse{Users: users}, err
		})
	}))
	functions.HTTP("createUserAndAssignRole", lazy("createUserAndAssignRole", func(a *services.RoleAdmin) http.HandlerFunc {
		return callable.Handler("createUserAndAssignRole", a.Tokens, a.Roles.CreateUserAndAssignRole)
	}))
	functions.HTTP("updateUserRole", lazy("updateUserRole", func(a *services.RoleAdmin) http.HandlerFunc {
		return callable.Handler("updateUserRole", a.Tokens, a.Roles.UpdateUserRole)
	}))
	functions.HTTP("deleteUser", lazy("deleteUser", func(a *services.RoleAdmin) http.HandlerFunc {
		return callable.Handler("deleteUser", a.Tokens, a.Roles.DeleteUser)
	}))
	functions.HTTP("updateUserEmail", lazy("updateUserEmail", func(a *services.RoleAdmin) http.HandlerFunc {
		return callable.Handler("updateUserEmail", a.Tokens, a.Roles.UpdateUserEmail)
	}))
	functions.HTTP("updateUserPassword", lazy("updateUserPassword", func(a *services.RoleAdmin) http.HandlerFunc {
		return callable.Handler("updateUserPassword", a.Tokens, a.Roles.UpdateUserPassword)
	}))
	// addInitialAdmin ignores the caller; it is gated by ALLOW_INITIAL_ADMIN instead.
	functions.HTTP("addInitialAdmin", lazy("addInitialAdmin", func(a *services.RoleAdmin) http.HandlerFunc {
		return callable.Handler("addInitialAdmin", a.Tokens, func(ctx context.Context, _ *models.Principal, req models.AddInitialAdminRequest) (models.MessageResponse, error) {
			return a.Roles.AddInitialAdmin(ctx, req)
		})
	}))
}

// main is required by the Go Functions Framework.
func main() {}

// lazy defers client creation to the first request, as each instance only
// ever serves one of the registered functions.
func lazy(name string, build func(*services.RoleAdmin) http.HandlerFunc) http.HandlerFunc {
	var (
		handler   http.HandlerFunc
		buildOnce sync.Once
	)
	return func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() {
			roleAdmin, initErr = services.NewRoleAdmin(context.Background())
		})
		if initErr != nil {
			slog.Error("Critical error during function initialization", "function", name, "error", initErr)
			callable.WriteError(w, initErr)
			return
		}
		buildOnce.Do(func() { handler = build(roleAdmin) })
		handler(w, r)
	}
}
