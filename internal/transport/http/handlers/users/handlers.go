package usershandler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"hrmgate/internal/domain/accounts"
	"hrmgate/internal/domain/auth"
	"hrmgate/internal/transport/http/api"
	"hrmgate/internal/transport/http/middleware"
	"hrmgate/internal/transport/http/shared"
)

type Lister interface {
	ListUsers(ctx context.Context) ([]auth.User, error)
}

type Handler struct {
	Users Lister
	Authz *auth.Authorizer
}

func NewHandler(users Lister, authz *auth.Authorizer) *Handler {
	return &Handler{Users: users, Authz: authz}
}

// RegisterRoutes mounts user management. Create, update and delete carry
// their own privilege checks inside the account service.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.With(middleware.RequirePermission(h.Authz, auth.PermUsersCreate)).Get("/", h.handleList)
		r.With(middleware.RequireUser).Post("/", h.handleCreate)
		r.With(middleware.RequireUser).Patch("/{userID}", h.handleUpdate)
		r.With(middleware.RequireUser).Delete("/{userID}", h.handleDelete)
	})
}

type createUserRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=6"`
	Name       string `json:"name" validate:"required"`
	Role       string `json:"role" validate:"required"`
	EmployeeID string `json:"employeeId"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.Users.ListUsers(r.Context())
	if err != nil {
		shared.WriteError(w, r, err, "users_list_failed")
		return
	}
	api.Success(w, users, api.RequestID(r))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	store, ok := middleware.GetSession(r.Context())
	if !ok {
		shared.WriteError(w, r, fmt.Errorf("must be logged in to create users: %w", auth.ErrUnauthorized), "user_create_failed")
		return
	}
	var payload createUserRequest
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", api.RequestID(r))
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	v.Enum("role", payload.Role, roleNames(), "must be one of: "+strings.Join(roleNames(), ", "))
	if v.Reject(w, api.RequestID(r)) {
		return
	}

	created, err := store.CreateUserAccount(r.Context(), accounts.NewAccount{
		Email:      payload.Email,
		Password:   payload.Password,
		Name:       payload.Name,
		Role:       auth.Role(strings.ToLower(strings.TrimSpace(payload.Role))),
		EmployeeID: payload.EmployeeID,
	})
	if err != nil {
		shared.WriteError(w, r, err, "user_create_failed")
		return
	}
	api.Created(w, created, api.RequestID(r))
}

// roleNames lists every known role. Admin passes here and is refused by the
// account service with invalid_role.
func roleNames() []string {
	names := make([]string, 0, len(auth.Roles))
	for _, role := range auth.Roles {
		names = append(names, role.String())
	}
	return names
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	store, ok := middleware.GetSession(r.Context())
	if !ok {
		shared.WriteError(w, r, auth.ErrUnauthorized, "user_update_failed")
		return
	}
	var patch accounts.Patch
	if err := api.Decode(r, &patch); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", api.RequestID(r))
		return
	}
	if patch.Email != nil {
		v := shared.NewValidator()
		v.Struct(struct {
			Email string `validate:"email"`
		}{Email: *patch.Email})
		if v.Reject(w, api.RequestID(r)) {
			return
		}
	}

	updated, err := store.UpdateUser(r.Context(), chi.URLParam(r, "userID"), patch)
	if err != nil {
		shared.WriteError(w, r, err, "user_update_failed")
		return
	}
	api.Success(w, updated, api.RequestID(r))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	store, ok := middleware.GetSession(r.Context())
	if !ok {
		shared.WriteError(w, r, auth.ErrUnauthorized, "user_delete_failed")
		return
	}
	if err := store.DeleteUser(r.Context(), chi.URLParam(r, "userID")); err != nil {
		shared.WriteError(w, r, err, "user_delete_failed")
		return
	}
	api.Success(w, map[string]string{"status": "deleted"}, api.RequestID(r))
}
