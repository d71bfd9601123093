package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"cloud.google.com/go/storage"
	"github.com/Lllllllleong/trapmonitor/internal/gcp"
	"github.com/Lllllllleong/trapmonitor/internal/store"
)

// FieldRecordsConfig holds the configuration of the field records API.
type FieldRecordsConfig struct {
	ProjectID        string
	DatabaseID       string
	ImagesBucket     string
	PinsCollection   string
	FichasCollection string
	RequireImage     bool
	Location         *time.Location
}

// RoleAdminConfig holds the configuration of the account callables and the
// user-created trigger.
type RoleAdminConfig struct {
	ProjectID         string
	AllowInitialAdmin bool
}

// FieldRecords bundles the services behind the REST API. Tokens verifies
// the bearer token of every request.
type FieldRecords struct {
	Pins      *PinService
	Fichas    *FichaService
	Trash     *TrashService
	Dashboard *DashboardService
	Reports   *ReportService
	Tokens    TokenVerifier
}

// RoleAdmin bundles the account service with the token verifier the
// callables authenticate with.
type RoleAdmin struct {
	Roles  *RoleService
	Tokens TokenVerifier
}

func loadFieldRecordsConfig() (*FieldRecordsConfig, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	bucket := gcp.GetEnv("IMAGES_BUCKET", "")
	if bucket == "" {
		return nil, fmt.Errorf("IMAGES_BUCKET environment variable must be set")
	}
	requireImage, err := envBool("REQUIRE_FICHA_IMAGE", false)
	if err != nil {
		return nil, err
	}
	loc, err := loadLocation()
	if err != nil {
		return nil, err
	}

	return &FieldRecordsConfig{
		ProjectID:        projectID,
		DatabaseID:       gcp.GetEnv("FIRESTORE_DATABASE", ""),
		ImagesBucket:     bucket,
		PinsCollection:   gcp.GetEnv("PINS_COLLECTION", "pins"),
		FichasCollection: gcp.GetEnv("FICHAS_COLLECTION", "fichas"),
		RequireImage:     requireImage,
		Location:         loc,
	}, nil
}

func loadRoleAdminConfig() (*RoleAdminConfig, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	allow, err := envBool("ALLOW_INITIAL_ADMIN", true)
	if err != nil {
		return nil, err
	}
	return &RoleAdminConfig{ProjectID: projectID, AllowInitialAdmin: allow}, nil
}

// NewFieldRecords creates the Firestore, Storage and Auth clients and wires
// the REST services on top of them.
func NewFieldRecords(ctx context.Context) (*FieldRecords, error) {
	config, err := loadFieldRecordsConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	fsClient, err := gcp.NewFirestoreClient(ctx, config.ProjectID, config.DatabaseID)
	if err != nil {
		return nil, err
	}
	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	authClient, err := gcp.NewAuthClient(ctx, config.ProjectID)
	if err != nil {
		return nil, err
	}

	pins := store.NewPinStore(fsClient, config.PinsCollection)
	fichas := store.NewFichaStore(fsClient, config.FichasCollection)
	images := gcp.NewImageStore(storageClient, config.ImagesBucket)
	clock := LocalClock(config.Location)

	return &FieldRecords{
		Pins:      NewPinService(pins, fichas, clock),
		Fichas:    NewFichaService(fichas, images, clock, config.RequireImage),
		Trash:     NewTrashService(fichas, images, clock),
		Dashboard: NewDashboardService(pins, clock),
		Reports:   NewReportService(fichas, clock),
		Tokens:    gcp.NewDirectory(authClient),
	}, nil
}

// NewRoleAdmin creates the Auth client and the account service.
func NewRoleAdmin(ctx context.Context) (*RoleAdmin, error) {
	config, err := loadRoleAdminConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	authClient, err := gcp.NewAuthClient(ctx, config.ProjectID)
	if err != nil {
		return nil, err
	}
	dir := gcp.NewDirectory(authClient)
	return &RoleAdmin{
		Roles:  NewRoleService(dir, config.AllowInitialAdmin),
		Tokens: dir,
	}, nil
}

// LocalClock returns a Clock reading the wall time in loc.
func LocalClock(loc *time.Location) Clock {
	return func() time.Time { return time.Now().In(loc) }
}

func loadLocation() (*time.Location, error) {
	name := gcp.GetEnv("TZ_LOCATION", "America/Santiago")
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid TZ_LOCATION %q: %w", name, err)
	}
	return loc, nil
}

func envBool(key string, fallback bool) (bool, error) {
	raw := gcp.GetEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", key, raw)
	}
	return v, nil
}
