package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"validation", Validation("createPin", "invalid trap number"), KindValidation},
		{"wrapped not found", fmt.Errorf("lookup: %w", NotFound("getFicha", "ficha %s not found", "x")), KindNotFound},
		{"plain error", errors.New("boom"), KindTransient},
		{"transient", Transient("upload", errors.New("503"), "upload failed"), KindTransient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestSentinelMatching(t *testing.T) {
	err := fmt.Errorf("outer: %w", Permission("deleteUser", "cannot delete own account"))

	assert.ErrorIs(t, err, ErrPermission)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.True(t, IsPermission(err))
}

func TestErrorMessage(t *testing.T) {
	base := errors.New("connection reset")
	err := Transient("purge", base, "failed to delete document")

	assert.Equal(t, "purge: failed to delete document: connection reset", err.Error())
	assert.Equal(t, "failed to delete document", MessageOf(err))
	assert.ErrorIs(t, err, base)
}

func TestCodeAndHTTPStatus(t *testing.T) {
	tests := []struct {
		err    error
		code   string
		status int
	}{
		{Validation("op", "bad"), "invalid-argument", http.StatusBadRequest},
		{NotFound("op", "gone"), "not-found", http.StatusNotFound},
		{Permission("op", "no"), "permission-denied", http.StatusForbidden},
		{Unauthenticated("op", "who"), "unauthenticated", http.StatusUnauthorized},
		{Conflict("op", "dup"), "already-exists", http.StatusConflict},
		{errors.New("boom"), "internal", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.code, Code(tt.err))
		assert.Equal(t, tt.status, HTTPStatus(tt.err))
	}
}
