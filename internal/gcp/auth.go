package gcp

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/Lllllllleong/trapmonitor/internal/apperrors"
	"github.com/Lllllllleong/trapmonitor/internal/models"
	"google.golang.org/api/iterator"
)

// NewAuthClient creates a Firebase Authentication admin client for the given project.
func NewAuthClient(ctx context.Context, projectID string) (*auth.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create an auth client")
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Auth client: %w", err)
	}
	return client, nil
}

// Directory adapts the Firebase Auth admin client to the account and token
// operations the services need, translating provider errors into apperrors kinds.
type Directory struct {
	client *auth.Client
}

func NewDirectory(client *auth.Client) *Directory {
	return &Directory{client: client}
}

// VerifyIDToken checks a bearer token and returns the caller it identifies.
func (d *Directory) VerifyIDToken(ctx context.Context, idToken string) (*models.Principal, error) {
	token, err := d.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, apperrors.Unauthenticated("verifyIdToken", "invalid or expired ID token")
	}
	email, _ := token.Claims["email"].(string)
	return &models.Principal{UID: token.UID, Email: email, Claims: token.Claims}, nil
}

func (d *Directory) ListUsers(ctx context.Context) ([]models.UserAccount, error) {
	var users []models.UserAccount
	it := d.client.Users(ctx, "")
	for {
		u, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, apperrors.Transient("listUsers", err, "failed to list accounts")
		}
		users = append(users, toAccount(u.UserRecord))
	}
	return users, nil
}

func (d *Directory) GetUser(ctx context.Context, uid string) (models.UserAccount, error) {
	u, err := d.client.GetUser(ctx, uid)
	if err != nil {
		return models.UserAccount{}, mapAuthError("getUser", err, uid)
	}
	return toAccount(u), nil
}

func (d *Directory) GetUserByEmail(ctx context.Context, email string) (models.UserAccount, error) {
	u, err := d.client.GetUserByEmail(ctx, email)
	if err != nil {
		return models.UserAccount{}, mapAuthError("getUserByEmail", err, email)
	}
	return toAccount(u), nil
}

func (d *Directory) CreateUser(ctx context.Context, email, password string) (models.UserAccount, error) {
	params := (&auth.UserToCreate{}).Email(email).Password(password)
	u, err := d.client.CreateUser(ctx, params)
	if err != nil {
		return models.UserAccount{}, mapAuthError("createUser", err, email)
	}
	return toAccount(u), nil
}

func (d *Directory) SetCustomClaims(ctx context.Context, uid string, claims map[string]interface{}) error {
	if err := d.client.SetCustomUserClaims(ctx, uid, claims); err != nil {
		return mapAuthError("setCustomClaims", err, uid)
	}
	return nil
}

func (d *Directory) UpdateEmail(ctx context.Context, uid, email string) error {
	if _, err := d.client.UpdateUser(ctx, uid, (&auth.UserToUpdate{}).Email(email)); err != nil {
		return mapAuthError("updateEmail", err, uid)
	}
	return nil
}

func (d *Directory) UpdatePassword(ctx context.Context, uid, password string) error {
	if _, err := d.client.UpdateUser(ctx, uid, (&auth.UserToUpdate{}).Password(password)); err != nil {
		return mapAuthError("updatePassword", err, uid)
	}
	return nil
}

func (d *Directory) DeleteUser(ctx context.Context, uid string) error {
	if err := d.client.DeleteUser(ctx, uid); err != nil {
		return mapAuthError("deleteUser", err, uid)
	}
	return nil
}

func toAccount(u *auth.UserRecord) models.UserAccount {
	if u == nil || u.UserInfo == nil {
		return models.UserAccount{}
	}
	return models.UserAccount{UID: u.UID, Email: u.Email, CustomClaims: u.CustomClaims}
}

func mapAuthError(op string, err error, subject string) error {
	switch {
	case auth.IsUserNotFound(err):
		return apperrors.NotFound(op, "account %s not found", subject)
	case auth.IsInvalidEmail(err):
		return apperrors.Validation(op, "invalid email address %q", subject)
	case auth.IsEmailAlreadyExists(err):
		return apperrors.Conflict(op, "email %s is already in use", subject)
	default:
		return apperrors.Transient(op, err, "identity provider request failed")
	}
}
