// Package callable serves functions over the callable wire protocol: a POST
// of {"data": ...} with a bearer ID token, answered with {"result": ...} or
// {"error": {...}}.
package callable

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Lllllllleong/trapmonitor/internal/apperrors"
	"github.com/Lllllllleong/trapmonitor/internal/models"
	"github.com/Lllllllleong/trapmonitor/internal/services"
)

// Func is a callable body. caller is nil when the request carried no token.
type Func[Req, Res any] func(ctx context.Context, caller *models.Principal, req Req) (Res, error)

type request[Req any] struct {
	Data Req `json:"data"`
}

type response[Res any] struct {
	Result Res `json:"result"`
}

// ErrorBody is the error object of a failed call.
type ErrorBody struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error ErrorBody `json:"error"`
}

// Handler adapts fn to an HTTP handler. A missing token is passed through
// as a nil caller so fn decides whether the call needs one; an invalid token
// is always rejected.
func Handler[Req, Res any](name string, tokens services.TokenVerifier, fn Func[Req, Res]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logCtx := slog.With("callable", name)
		if r.Method != http.MethodPost {
			WriteError(w, apperrors.Validation(name, "callable functions only accept POST"))
			return
		}

		caller, err := Authenticate(r.Context(), tokens, r)
		if err != nil {
			logCtx.Warn("Rejected callable request.", "error", err)
			WriteError(w, err)
			return
		}

		var req request[Req]
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			logCtx.Warn("Could not decode callable body.", "error", err)
			WriteError(w, apperrors.Validation(name, "request body must be JSON of the form {\"data\": ...}"))
			return
		}

		res, err := fn(r.Context(), caller, req.Data)
		if err != nil {
			if apperrors.KindOf(err) == apperrors.KindTransient {
				logCtx.Error("Callable failed.", "error", err)
			} else {
				logCtx.Info("Callable refused.", "error", err)
			}
			WriteError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(response[Res]{Result: res}); err != nil {
			logCtx.Error("Failed to write callable response.", "error", err)
		}
	}
}

// Authenticate verifies the bearer token of r. It returns a nil principal
// and no error when the header is absent.
func Authenticate(ctx context.Context, tokens services.TokenVerifier, r *http.Request) (*models.Principal, error) {
	token, ok := BearerToken(r)
	if !ok {
		return nil, nil
	}
	if token == "" {
		return nil, apperrors.Unauthenticated("authenticate", "malformed Authorization header")
	}
	return tokens.VerifyIDToken(ctx, token)
}

// BearerToken extracts the token of an "Authorization: Bearer" header. ok is
// false when no Authorization header was sent.
func BearerToken(r *http.Request) (token string, ok bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	scheme, rest, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", true
	}
	return strings.TrimSpace(rest), true
}

// WriteError writes err as a callable error response. Internal errors never
// expose their cause.
func WriteError(w http.ResponseWriter, err error) {
	code := apperrors.Code(err)
	message := apperrors.MessageOf(err)
	if code == "internal" {
		message = "internal error"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apperrors.HTTPStatus(err))
	_ = json.NewEncoder(w).Encode(errorResponse{Error: ErrorBody{
		Status:  strings.ToUpper(strings.ReplaceAll(code, "-", "_")),
		Code:    code,
		Message: message,
	}})
}
