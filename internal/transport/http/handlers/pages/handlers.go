package pageshandler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"hrmgate/internal/domain/auth"
	"hrmgate/internal/domain/session"
	"hrmgate/internal/transport/http/api"
	"hrmgate/internal/transport/http/middleware"
)

// Handler answers page-guard checks for /app/* paths. The page path is the
// request path with the /app prefix removed.
type Handler struct {
	Guard *session.Guard
}

func NewHandler(guard *session.Guard) *Handler {
	return &Handler{Guard: guard}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/app/*", h.handlePage)
}

type pageDecision struct {
	Path     string `json:"path"`
	Decision string `json:"decision"`
	Redirect string `json:"redirect,omitempty"`
}

func (h *Handler) handlePage(w http.ResponseWriter, r *http.Request) {
	path := "/" + strings.Trim(chi.URLParam(r, "*"), "/")
	required := auth.Permission(strings.TrimSpace(r.URL.Query().Get("requires")))

	decision := session.DecisionUnauthenticated
	if store, ok := middleware.GetSession(r.Context()); ok && middleware.GetUser(r.Context()) != nil {
		decision = h.Guard.Evaluate(store, path, required)
	}

	view := pageDecision{Path: path, Decision: decision.String()}
	switch decision {
	case session.DecisionUnauthenticated:
		view.Redirect = "/login"
		api.WriteJSON(w, http.StatusUnauthorized, api.Envelope{Success: false, Data: view, Error: &api.Error{Code: "unauthorized", Message: "authentication required"}, RequestID: api.RequestID(r)})
	case session.DecisionDenied:
		api.WriteJSON(w, http.StatusForbidden, api.Envelope{Success: false, Data: view, Error: &api.Error{Code: "access_denied", Message: "access denied"}, RequestID: api.RequestID(r)})
	case session.DecisionLoading:
		api.WriteJSON(w, http.StatusServiceUnavailable, api.Envelope{Success: false, Data: view, Error: &api.Error{Code: "loading", Message: "session is loading"}, RequestID: api.RequestID(r)})
	default:
		api.Success(w, view, api.RequestID(r))
	}
}
