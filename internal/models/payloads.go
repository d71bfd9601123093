package models

import "github.com/Lllllllleong/trapmonitor/internal/trapstatus"

// These structs define the JSON payloads of the callable account functions
// and of the field records API.

// CreateUserRequest is the input of createUserAndAssignRole.
type CreateUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// CreateUserResponse is the output of createUserAndAssignRole.
type CreateUserResponse struct {
	UID     string `json:"uid"`
	Message string `json:"message"`
}

type UpdateUserRoleRequest struct {
	UID       string                 `json:"uid"`
	NewClaims map[string]interface{} `json:"newClaims"`
}

type DeleteUserRequest struct {
	UID string `json:"uid"`
}

type UpdateUserEmailRequest struct {
	UID      string `json:"uid"`
	NewEmail string `json:"newEmail"`
}

type UpdateUserPasswordRequest struct {
	UID         string `json:"uid"`
	NewPassword string `json:"newPassword"`
}

type AddInitialAdminRequest struct {
	Email string `json:"email"`
}

type ListUsersResponse struct {
	Users []UserAccount `json:"users"`
}

// MessageResponse is returned by the mutating account callables.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// CreatePinRequest is the "save trap" payload from the map screen.
// InstalledAt is optional and defaults to the time of the request.
type CreatePinRequest struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Description string  `json:"description"`
	TrapNumber  string  `json:"n_trampa"`
	Status      string  `json:"estado"`
	InstalledAt string  `json:"fecha_instalacion,omitempty"`
}

type CreatedResponse struct {
	ID string `json:"id"`
}

type UpdatePinStatusRequest struct {
	Status string `json:"estado"`
}

type TrashResponse struct {
	ID        string `json:"id"`
	Deleted   bool   `json:"deleted"`
	DeletedAt string `json:"deletedAt,omitempty"`
}

// DashboardSummary counts pins per derived status.
type DashboardSummary struct {
	Total   int                      `json:"total"`
	Invalid int                      `json:"invalid"`
	Counts  map[trapstatus.Label]int `json:"counts"`
}

type RefreshResponse struct {
	Checked int `json:"checked"`
	Updated int `json:"updated"`
}
