package authhandler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"

	"hrmgate/internal/domain/accounts"
	"hrmgate/internal/domain/session"
	"hrmgate/internal/platform/crypto"
	"hrmgate/internal/transport/http/middleware"
)

const secret = "handler-secret"

type outcomes struct {
	mu   sync.Mutex
	seen []string
}

func (o *outcomes) RecordSignIn(outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seen = append(o.seen, outcome)
}

type response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func newRouter(t *testing.T, rec SignInRecorder) http.Handler {
	t.Helper()
	sealer, err := crypto.New("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)
	svc := accounts.NewService(accounts.NewMemoryRepository(), accounts.WithSealer(sealer, "hrmgate-test"))
	_, err = svc.Seed(context.Background(), accounts.DemoAccounts("", "hr@example.com", "", ""), "demo123")
	require.NoError(t, err)

	storage := session.NewMemoryStorage()
	r := chi.NewRouter()
	r.Use(middleware.Auth(secret, storage, svc))
	NewHandler(svc, storage, secret, time.Hour, rec).RegisterRoutes(r, func(next http.Handler) http.Handler { return next })
	return r
}

func call(t *testing.T, h http.Handler, method, path, token string, body any) (int, response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec.Code, out
}

func login(t *testing.T, h http.Handler, code string) (int, response, string) {
	t.Helper()
	status, out := call(t, h, http.MethodPost, "/auth/login", "", map[string]string{"email": "HR@example.com", "password": "demo123", "mfaCode": code})
	var data struct {
		Token string `json:"token"`
	}
	if status == http.StatusOK {
		require.NoError(t, json.Unmarshal(out.Data, &data))
	}
	return status, out, data.Token
}

func TestLoginIssuesSessionToken(t *testing.T) {
	rec := &outcomes{}
	h := newRouter(t, rec)

	status, _, token := login(t, h, "")
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, token)

	status, out := call(t, h, http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	var me struct {
		Email string `json:"email"`
	}
	require.NoError(t, json.Unmarshal(out.Data, &me))
	require.Equal(t, "hr@example.com", me.Email)
	require.Equal(t, []string{"success"}, rec.seen)
}

func TestMFAEnrolmentGatesLogin(t *testing.T) {
	rec := &outcomes{}
	h := newRouter(t, rec)
	_, _, token := login(t, h, "")

	status, out := call(t, h, http.MethodPost, "/auth/mfa/setup", token, nil)
	require.Equal(t, http.StatusOK, status)
	var setup struct {
		Secret string `json:"secret"`
	}
	require.NoError(t, json.Unmarshal(out.Data, &setup))
	require.NotEmpty(t, setup.Secret)

	status, out = call(t, h, http.MethodPost, "/auth/mfa/enable", token, map[string]string{"code": "12"})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "validation_error", out.Error.Code)

	code, err := totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)
	status, _ = call(t, h, http.MethodPost, "/auth/mfa/enable", token, map[string]string{"code": code})
	require.Equal(t, http.StatusOK, status)

	status, out, _ = login(t, h, "")
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "mfa_required", out.Error.Code)

	status, out, _ = login(t, h, "000000")
	if status != http.StatusOK {
		require.Equal(t, "mfa_invalid", out.Error.Code)
	}

	code, err = totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)
	status, _, _ = login(t, h, code)
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, rec.seen, "mfa_required")
}

func TestMFARequiresSession(t *testing.T) {
	h := newRouter(t, nil)
	status, out := call(t, h, http.MethodPost, "/auth/mfa/setup", "", nil)
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "unauthorized", out.Error.Code)
}
