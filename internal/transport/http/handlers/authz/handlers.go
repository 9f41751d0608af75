package authzhandler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"hrmgate/internal/domain/auth"
	"hrmgate/internal/transport/http/api"
	"hrmgate/internal/transport/http/middleware"
	"hrmgate/internal/transport/http/shared"
)

// Handler exposes authorization decisions for the calling user so clients
// can hide controls they could not use.
type Handler struct {
	Authz *auth.Authorizer
}

func NewHandler(authz *auth.Authorizer) *Handler {
	return &Handler{Authz: authz}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/authz", func(r chi.Router) {
		r.Get("/permissions", h.handlePermission)
		r.Get("/routes", h.handleRoute)
		r.Get("/operations", h.handleOperation)
		r.Get("/policy", h.handlePolicy)
	})
}

type decision struct {
	Subject string `json:"subject"`
	Target  string `json:"target"`
	Allowed bool   `json:"allowed"`
}

type policyView struct {
	Routes      map[string]auth.Permission       `json:"routes"`
	Operations  map[string]auth.Permission       `json:"operations"`
	Permissions map[auth.Role]auth.PermissionSet `json:"permissions"`
}

// handlePermission answers for an anonymous caller too; the answer is false.
func (h *Handler) handlePermission(w http.ResponseWriter, r *http.Request) {
	target, ok := requiredQuery(w, r, "permission")
	if !ok {
		return
	}
	user := middleware.GetUser(r.Context())
	h.respond(w, r, user, target, h.Authz.HasPermission(user, auth.Permission(target)))
}

func (h *Handler) handleRoute(w http.ResponseWriter, r *http.Request) {
	target, ok := requiredQuery(w, r, "path")
	if !ok {
		return
	}
	user := middleware.GetUser(r.Context())
	h.respond(w, r, user, target, h.Authz.CanAccessRoute(user, target))
}

func (h *Handler) handleOperation(w http.ResponseWriter, r *http.Request) {
	target, ok := requiredQuery(w, r, "operation")
	if !ok {
		return
	}
	user := middleware.GetUser(r.Context())
	h.respond(w, r, user, target, h.Authz.CanPerformSensitiveOperation(user, target))
}

func (h *Handler) handlePolicy(w http.ResponseWriter, r *http.Request) {
	policy := h.Authz.Policy()
	catalog := make(map[auth.Role]auth.PermissionSet, len(auth.Roles))
	for _, role := range auth.Roles {
		catalog[role] = auth.PermissionsForRole(role)
	}
	api.Success(w, policyView{
		Routes:      policy.Routes,
		Operations:  policy.Operations,
		Permissions: catalog,
	}, api.RequestID(r))
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, user *auth.User, target string, allowed bool) {
	subject := "anonymous"
	if user != nil {
		subject = user.ID
	}
	api.Success(w, decision{Subject: subject, Target: target, Allowed: allowed}, api.RequestID(r))
}

func requiredQuery(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	value := strings.TrimSpace(r.URL.Query().Get(name))
	v := shared.NewValidator()
	v.Required(name, value, "is required")
	if v.Reject(w, api.RequestID(r)) {
		return "", false
	}
	return value, true
}
