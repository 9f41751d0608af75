package authhandler

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hrmgate/internal/domain/accounts"
	"hrmgate/internal/domain/auth"
	"hrmgate/internal/domain/session"
	"hrmgate/internal/transport/http/api"
	"hrmgate/internal/transport/http/middleware"
	"hrmgate/internal/transport/http/shared"
)

// AccountService is what sign-in and MFA enrolment need from accounts.
type AccountService interface {
	middleware.AccountService
	SetupMFA(ctx context.Context, userID string) (accounts.MFASetup, error)
	EnableMFA(ctx context.Context, userID, code string) error
	DisableMFA(ctx context.Context, userID, code string) error
}

// SignInRecorder counts sign-in outcomes. It may be nil.
type SignInRecorder interface {
	RecordSignIn(outcome string)
}

type Handler struct {
	Accounts AccountService
	Storage  session.Storage
	Secret   string
	TokenTTL time.Duration
	Metrics  SignInRecorder
}

func NewHandler(accts AccountService, storage session.Storage, secret string, ttl time.Duration, metrics SignInRecorder) *Handler {
	return &Handler{Accounts: accts, Storage: storage, Secret: secret, TokenTTL: ttl, Metrics: metrics}
}

// RegisterRoutes mounts the auth endpoints. login gets its own throttle.
func (h *Handler) RegisterRoutes(r chi.Router, loginLimit func(http.Handler) http.Handler) {
	r.Route("/auth", func(r chi.Router) {
		r.With(loginLimit).Post("/login", h.HandleLogin)
		r.Post("/logout", h.HandleLogout)
		r.With(middleware.RequireUser).Get("/me", h.HandleMe)
		r.With(middleware.RequireUser).Post("/mfa/setup", h.HandleMFASetup)
		r.With(middleware.RequireUser).Post("/mfa/enable", h.HandleMFAEnable)
		r.With(middleware.RequireUser).Post("/mfa/disable", h.HandleMFADisable)
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	MFACode  string `json:"mfaCode"`
}

type mfaCodeRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginRequest
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", api.RequestID(r))
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	if v.Reject(w, api.RequestID(r)) {
		return
	}

	sessionID, err := generateSessionID()
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", api.RequestID(r))
		return
	}
	store := session.New(h.Storage, h.Accounts, session.WithSlotKey(session.SlotKey(sessionID)))
	user, err := store.SignIn(r.Context(), payload.Email, payload.Password, session.WithMFACode(payload.MFACode))
	if err != nil {
		h.recordSignIn(signInOutcome(err))
		shared.WriteError(w, r, err, "login_failed")
		return
	}

	token, err := auth.GenerateToken(h.Secret, auth.Claims{UserID: user.ID, Role: user.Role, SessionID: sessionID}, h.TokenTTL)
	if err != nil {
		if signOutErr := store.SignOut(r.Context()); signOutErr != nil {
			slog.WarnContext(r.Context(), "discard session failed", "err", signOutErr)
		}
		h.recordSignIn("error")
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", api.RequestID(r))
		return
	}
	h.recordSignIn("success")

	api.Success(w, map[string]any{
		"token": token,
		"user":  user,
	}, api.RequestID(r))
}

// HandleLogout clears the session slot. Logging out twice is not an error.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if store, ok := middleware.GetSession(r.Context()); ok {
		if err := store.SignOut(r.Context()); err != nil {
			slog.WarnContext(r.Context(), "logout failed", "err", err)
			api.Fail(w, http.StatusInternalServerError, "logout_failed", "failed to end session", api.RequestID(r))
			return
		}
	}
	api.Success(w, map[string]string{"status": "logged_out"}, api.RequestID(r))
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	api.Success(w, middleware.GetUser(r.Context()), api.RequestID(r))
}

func (h *Handler) HandleMFASetup(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	setup, err := h.Accounts.SetupMFA(r.Context(), user.ID)
	if err != nil {
		shared.WriteError(w, r, err, "mfa_setup_failed")
		return
	}
	api.Success(w, map[string]string{"secret": setup.Secret, "otpauthUrl": setup.OTPAuthURL}, api.RequestID(r))
}

func (h *Handler) HandleMFAEnable(w http.ResponseWriter, r *http.Request) {
	h.handleMFAToggle(w, r, h.Accounts.EnableMFA, "enabled", "mfa_enable_failed")
}

func (h *Handler) HandleMFADisable(w http.ResponseWriter, r *http.Request) {
	h.handleMFAToggle(w, r, h.Accounts.DisableMFA, "disabled", "mfa_disable_failed")
}

func (h *Handler) handleMFAToggle(w http.ResponseWriter, r *http.Request, toggle func(context.Context, string, string) error, status, failCode string) {
	var payload mfaCodeRequest
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", api.RequestID(r))
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	if v.Reject(w, api.RequestID(r)) {
		return
	}
	user := middleware.GetUser(r.Context())
	if err := toggle(r.Context(), user.ID, payload.Code); err != nil {
		shared.WriteError(w, r, err, failCode)
		return
	}
	api.Success(w, map[string]string{"status": status}, api.RequestID(r))
}

func (h *Handler) recordSignIn(outcome string) {
	if h.Metrics != nil {
		h.Metrics.RecordSignIn(outcome)
	}
}

func signInOutcome(err error) string {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, auth.ErrMFARequired):
		return "mfa_required"
	case errors.Is(err, auth.ErrMFAInvalid):
		return "mfa_invalid"
	}
	return "error"
}

func generateSessionID() (string, error) {
	buff := make([]byte, 32)
	if _, err := rand.Read(buff); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buff), nil
}
