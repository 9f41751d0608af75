package shared

import (
	"errors"
	"log/slog"
	"net/http"

	"hrmgate/internal/domain/accounts"
	"hrmgate/internal/domain/attendance"
	"hrmgate/internal/domain/auth"
	"hrmgate/internal/transport/http/api"
)

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

var domainErrors = []errorMapping{
	{auth.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials", "invalid credentials"},
	{auth.ErrMFARequired, http.StatusUnauthorized, "mfa_required", "mfa code required"},
	{auth.ErrMFAInvalid, http.StatusUnauthorized, "mfa_invalid", "invalid mfa code"},
	{auth.ErrUnauthorized, http.StatusForbidden, "access_denied", "access denied"},
	{auth.ErrProtectedAccount, http.StatusForbidden, "protected_account", "cannot delete administrator account"},
	{auth.ErrNotFound, http.StatusNotFound, "not_found", "user not found"},
	{auth.ErrAlreadyExists, http.StatusConflict, "already_exists", "user already exists"},
	{auth.ErrInvalidRole, http.StatusBadRequest, "invalid_role", "invalid role"},
	{accounts.ErrMFAUnavailable, http.StatusServiceUnavailable, "mfa_unavailable", "mfa is not configured"},
	{accounts.ErrMFANotSetUp, http.StatusBadRequest, "mfa_not_setup", "mfa setup required"},
	{attendance.ErrInvalidKind, http.StatusBadRequest, "invalid_kind", "kind must be checkIn or checkOut"},
	{attendance.ErrInvalidRange, http.StatusBadRequest, "invalid_range", "from must be on or before to"},
	{attendance.ErrInvalidClock, http.StatusBadRequest, "invalid_time", "time must be HH:MM or HH:MM:SS"},
}

// WriteError maps domain sentinels to their HTTP status and stable code.
// Anything unrecognised is logged and reported as fallbackCode with 500.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallbackCode string) {
	reqID := api.RequestID(r)
	for _, m := range domainErrors {
		if errors.Is(err, m.target) {
			api.Fail(w, m.status, m.code, m.message, reqID)
			return
		}
	}
	slog.ErrorContext(r.Context(), "request failed", "code", fallbackCode, "err", err)
	api.Fail(w, http.StatusInternalServerError, fallbackCode, "internal error", reqID)
}
