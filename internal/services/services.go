package services

import (
	"context"
	"time"

	"github.com/Lllllllleong/trapmonitor/internal/models"
	"github.com/Lllllllleong/trapmonitor/internal/trapstatus"
)

// PinRepository is the document-store view of the pins collection.
type PinRepository interface {
	Create(ctx context.Context, pin models.Pin) (string, error)
	Get(ctx context.Context, id string) (models.Pin, error)
	UpdateStatus(ctx context.Context, id string, label trapstatus.Label, removed, pestDetected bool) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]models.Pin, error)
}

// FichaRepository is the document-store view of the fichas collection.
type FichaRepository interface {
	Create(ctx context.Context, f models.Ficha) (string, error)
	Get(ctx context.Context, id string) (models.Ficha, error)
	Update(ctx context.Context, id string, f models.Ficha) error
	SetTrashed(ctx context.Context, id string, at *time.Time) error
	Delete(ctx context.Context, id string) error
	ListByTrap(ctx context.Context, trap int64) ([]models.Ficha, error)
	ListActive(ctx context.Context) ([]models.Ficha, error)
	ListTrashed(ctx context.Context) ([]models.Ficha, error)
}

// BlobStore holds ficha images. Delete of a missing object must succeed.
type BlobStore interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) error
	URL(ctx context.Context, path string) (string, error)
	PathFromURL(rawURL string) (string, error)
	Delete(ctx context.Context, path string) error
}

// UserDirectory is the identity provider's account administration surface.
type UserDirectory interface {
	ListUsers(ctx context.Context) ([]models.UserAccount, error)
	GetUser(ctx context.Context, uid string) (models.UserAccount, error)
	GetUserByEmail(ctx context.Context, email string) (models.UserAccount, error)
	CreateUser(ctx context.Context, email, password string) (models.UserAccount, error)
	SetCustomClaims(ctx context.Context, uid string, claims map[string]interface{}) error
	UpdateEmail(ctx context.Context, uid, email string) error
	UpdatePassword(ctx context.Context, uid, password string) error
	DeleteUser(ctx context.Context, uid string) error
}

// TokenVerifier turns a bearer ID token into the caller it identifies.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*models.Principal, error)
}

// Clock returns the current time. Services take one so tests can pin the day.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}
