package services

import (
	"context"
	"log/slog"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/Lllllllleong/trapmonitor/internal/apperrors"
	"github.com/Lllllllleong/trapmonitor/internal/models"
)

// MinPasswordLength is the identity provider's minimum password length.
const MinPasswordLength = 6

// RoleService implements the privileged account operations. Every method
// except AddInitialAdmin and AssignDefaultRole requires an admin caller.
type RoleService struct {
	users             UserDirectory
	allowInitialAdmin bool
}

// NewRoleService builds the service. allowInitialAdmin enables the
// unauthenticated bootstrap path; it should be switched off once the first
// administrator exists.
func NewRoleService(users UserDirectory, allowInitialAdmin bool) *RoleService {
	return &RoleService{users: users, allowInitialAdmin: allowInitialAdmin}
}

func requireAdmin(op string, caller *models.Principal) error {
	if caller == nil || caller.UID == "" {
		return apperrors.Unauthenticated(op, "the request must be authenticated")
	}
	if !caller.IsAdmin() {
		return apperrors.Permission(op, "only administrators can perform this action")
	}
	return nil
}

// providerError marks provider failures with no specific kind so they surface as "internal".
func providerError(op string, err error) error {
	if apperrors.KindOf(err) != apperrors.KindTransient {
		return err
	}
	return apperrors.Transient(op, err, "identity provider request failed")
}

func (s *RoleService) ListUsers(ctx context.Context, caller *models.Principal) ([]models.UserAccount, error) {
	const op = "listUsers"
	if err := requireAdmin(op, caller); err != nil {
		return nil, err
	}
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		slog.Error("Failed to list users.", "error", err)
		return nil, providerError(op, err)
	}
	if users == nil {
		users = []models.UserAccount{}
	}
	return users, nil
}

// CreateUserAndAssignRole creates an account and sets its role claim. All
// input is checked before the provider is called.
func (s *RoleService) CreateUserAndAssignRole(ctx context.Context, caller *models.Principal, req models.CreateUserRequest) (models.CreateUserResponse, error) {
	const op = "createUserAndAssignRole"
	if err := requireAdmin(op, caller); err != nil {
		return models.CreateUserResponse{}, err
	}
	email := strings.TrimSpace(req.Email)
	role := strings.TrimSpace(req.Role)
	if email == "" || req.Password == "" || role == "" {
		return models.CreateUserResponse{}, apperrors.Validation(op, "email, password and role are required")
	}
	if err := validateEmail(op, email); err != nil {
		return models.CreateUserResponse{}, err
	}
	if err := validatePassword(op, req.Password); err != nil {
		return models.CreateUserResponse{}, err
	}

	logCtx := slog.With("email", email, "role", role, "callerUid", caller.UID)
	user, err := s.users.CreateUser(ctx, email, req.Password)
	if err != nil {
		logCtx.Error("Failed to create account.", "error", err)
		return models.CreateUserResponse{}, providerError(op, err)
	}

	claims := claimsForRole(role)
	if claims == nil {
		logCtx.Warn("Unknown role, account created without claims.", "uid", user.UID)
		return models.CreateUserResponse{UID: user.UID, Message: "user created without role: unknown role " + role}, nil
	}
	if err := s.users.SetCustomClaims(ctx, user.UID, claims); err != nil {
		logCtx.Error("Account created but role claim could not be set.", "uid", user.UID, "error", err)
		return models.CreateUserResponse{}, providerError(op, err)
	}
	logCtx.Info("Account created.", "uid", user.UID)
	return models.CreateUserResponse{UID: user.UID, Message: "user created with role " + role}, nil
}

// UpdateUserRole replaces the account's claims with newClaims as given.
// Merging with the previous claims is the caller's job.
func (s *RoleService) UpdateUserRole(ctx context.Context, caller *models.Principal, req models.UpdateUserRoleRequest) (models.MessageResponse, error) {
	const op = "updateUserRole"
	if err := requireAdmin(op, caller); err != nil {
		return models.MessageResponse{}, err
	}
	uid := strings.TrimSpace(req.UID)
	if uid == "" || req.NewClaims == nil {
		return models.MessageResponse{}, apperrors.Validation(op, "uid and newClaims are required")
	}
	if err := s.users.SetCustomClaims(ctx, uid, req.NewClaims); err != nil {
		slog.Error("Failed to update claims.", "uid", uid, "error", err)
		return models.MessageResponse{}, providerError(op, err)
	}
	slog.Info("Claims updated.", "uid", uid, "callerUid", caller.UID)
	return models.MessageResponse{Success: true, Message: "role updated"}, nil
}

// DeleteUser removes an account. Callers can never delete themselves.
func (s *RoleService) DeleteUser(ctx context.Context, caller *models.Principal, req models.DeleteUserRequest) (models.MessageResponse, error) {
	const op = "deleteUser"
	if caller == nil || caller.UID == "" {
		return models.MessageResponse{}, apperrors.Unauthenticated(op, "the request must be authenticated")
	}
	uid := strings.TrimSpace(req.UID)
	if uid == caller.UID {
		return models.MessageResponse{}, apperrors.Permission(op, "you cannot delete your own account")
	}
	if err := requireAdmin(op, caller); err != nil {
		return models.MessageResponse{}, err
	}
	if uid == "" {
		return models.MessageResponse{}, apperrors.Validation(op, "uid is required")
	}
	if err := s.users.DeleteUser(ctx, uid); err != nil {
		slog.Error("Failed to delete account.", "uid", uid, "error", err)
		return models.MessageResponse{}, providerError(op, err)
	}
	slog.Info("Account deleted.", "uid", uid, "callerUid", caller.UID)
	return models.MessageResponse{Success: true, Message: "user deleted"}, nil
}

func (s *RoleService) UpdateUserEmail(ctx context.Context, caller *models.Principal, req models.UpdateUserEmailRequest) (models.MessageResponse, error) {
	const op = "updateUserEmail"
	if err := requireAdmin(op, caller); err != nil {
		return models.MessageResponse{}, err
	}
	uid := strings.TrimSpace(req.UID)
	email := strings.TrimSpace(req.NewEmail)
	if uid == "" || email == "" {
		return models.MessageResponse{}, apperrors.Validation(op, "uid and newEmail are required")
	}
	if err := validateEmail(op, email); err != nil {
		return models.MessageResponse{}, err
	}
	if err := s.users.UpdateEmail(ctx, uid, email); err != nil {
		slog.Error("Failed to update email.", "uid", uid, "error", err)
		return models.MessageResponse{}, providerError(op, err)
	}
	return models.MessageResponse{Success: true, Message: "email updated"}, nil
}

func (s *RoleService) UpdateUserPassword(ctx context.Context, caller *models.Principal, req models.UpdateUserPasswordRequest) (models.MessageResponse, error) {
	const op = "updateUserPassword"
	if err := requireAdmin(op, caller); err != nil {
		return models.MessageResponse{}, err
	}
	uid := strings.TrimSpace(req.UID)
	if uid == "" || req.NewPassword == "" {
		return models.MessageResponse{}, apperrors.Validation(op, "uid and newPassword are required")
	}
	if err := validatePassword(op, req.NewPassword); err != nil {
		return models.MessageResponse{}, err
	}
	if err := s.users.UpdatePassword(ctx, uid, req.NewPassword); err != nil {
		slog.Error("Failed to update password.", "uid", uid, "error", err)
		return models.MessageResponse{}, providerError(op, err)
	}
	return models.MessageResponse{Success: true, Message: "password updated"}, nil
}

// AddInitialAdmin promotes an existing account to admin without checking
// who is asking. It exists for first-run setup only and is gated by the
// allowInitialAdmin switch rather than by authentication.
func (s *RoleService) AddInitialAdmin(ctx context.Context, req models.AddInitialAdminRequest) (models.MessageResponse, error) {
	const op = "addInitialAdmin"
	if !s.allowInitialAdmin {
		return models.MessageResponse{}, apperrors.Permission(op, "initial admin bootstrap is disabled")
	}
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return models.MessageResponse{}, apperrors.Validation(op, "email is required")
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return models.MessageResponse{}, providerError(op, err)
	}
	if user.HasClaim(models.ClaimAdmin) {
		return models.MessageResponse{Success: true, Message: "user is already an admin"}, nil
	}
	if err := s.users.SetCustomClaims(ctx, user.UID, map[string]interface{}{models.ClaimAdmin: true}); err != nil {
		return models.MessageResponse{}, providerError(op, err)
	}
	slog.Warn("Account promoted through the initial admin bootstrap.", "uid", user.UID, "email", email)
	return models.MessageResponse{Success: true, Message: "user promoted to admin"}, nil
}

// AssignDefaultRole gives a newly created account the commonUser claim
// unless it already carries a role. The event snapshot predates any claims
// set right after creation, so the current account is read first. It
// reports whether a claim was written.
func (s *RoleService) AssignDefaultRole(ctx context.Context, event models.AuthUserEvent) (bool, error) {
	const op = "assignDefaultRole"
	uid := strings.TrimSpace(event.UID)
	if uid == "" {
		return false, apperrors.Validation(op, "uid is required")
	}
	user, err := s.users.GetUser(ctx, uid)
	if err != nil {
		return false, providerError(op, err)
	}
	if user.HasClaim(models.ClaimAdmin) || user.HasClaim(models.ClaimCommonUser) {
		return false, nil
	}

	claims := make(map[string]interface{}, len(user.CustomClaims)+1)
	for k, v := range user.CustomClaims {
		claims[k] = v
	}
	claims[models.ClaimCommonUser] = true
	if err := s.users.SetCustomClaims(ctx, uid, claims); err != nil {
		return false, providerError(op, err)
	}
	slog.Info("Default role assigned.", "uid", uid)
	return true, nil
}

func claimsForRole(role string) map[string]interface{} {
	switch role {
	case models.RoleAdmin:
		return map[string]interface{}{models.ClaimAdmin: true}
	case models.RoleCommonUser:
		return map[string]interface{}{models.ClaimCommonUser: true}
	default:
		return nil
	}
}

func validatePassword(op, password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return apperrors.Validation(op, "password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

func validateEmail(op, email string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return apperrors.Validation(op, "invalid email address %q", email)
	}
	return nil
}
