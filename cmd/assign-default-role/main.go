package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/trapmonitor/internal/models"
	"github.com/Lllllllleong/trapmonitor/internal/services"
	cloudevents "github.com/cloudevents/sdk-go/v2"
)

var (
	roleAdmin *services.RoleAdmin
	once      sync.Once
	initErr   error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Triggered when a new account is created in the identity provider.
	functions.CloudEvent("AssignDefaultRole", assignDefaultRole)
}

// main is required by the Go Functions Framework.
func main() {}

func assignDefaultRole(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		roleAdmin, initErr = services.NewRoleAdmin(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	var user models.AuthUserEvent
	if err := json.Unmarshal(e.Data(), &user); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "eventId", e.ID(), "data", string(e.Data()))
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	logCtx := slog.With("uid", user.UID, "eventId", e.ID())
	wrote, err := roleAdmin.Roles.AssignDefaultRole(ctx, user)
	if err != nil {
		logCtx.Error("Failed to assign default role.", "error", err)
		return err
	}
	if !wrote {
		logCtx.Info("Account already has a role, nothing to do.")
	}
	return nil
}
