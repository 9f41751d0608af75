package attendancehandler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hrmgate/internal/domain/attendance"
	"hrmgate/internal/domain/auth"
	"hrmgate/internal/transport/http/api"
	"hrmgate/internal/transport/http/middleware"
	"hrmgate/internal/transport/http/shared"
)

type Service interface {
	List(ctx context.Context, requester *auth.User, from, to time.Time) ([]attendance.Record, error)
	Mark(ctx context.Context, requester *auth.User, userID string, date time.Time, kind attendance.Kind, clock string) (attendance.Record, error)
}

type Handler struct {
	Service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/attendance", func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.Get("/", h.handleList)
		r.Put("/{userID}/{date}", h.handleMark)
	})
}

type markRequest struct {
	Kind string `json:"kind" validate:"required,oneof=checkIn checkOut"`
	Time string `json:"time"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	v := shared.NewValidator()
	from, _ := v.Date("from", r.URL.Query().Get("from"))
	to, _ := v.Date("to", r.URL.Query().Get("to"))
	v.DateOrder("from", from, "to", to)
	if v.Reject(w, api.RequestID(r)) {
		return
	}

	records, err := h.Service.List(r.Context(), middleware.GetUser(r.Context()), from, to)
	if err != nil {
		shared.WriteError(w, r, err, "attendance_list_failed")
		return
	}
	api.Success(w, records, api.RequestID(r))
}

func (h *Handler) handleMark(w http.ResponseWriter, r *http.Request) {
	var payload markRequest
	if err := api.Decode(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", api.RequestID(r))
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	date, _ := v.Date("date", chi.URLParam(r, "date"))
	if v.Reject(w, api.RequestID(r)) {
		return
	}

	rec, err := h.Service.Mark(r.Context(), middleware.GetUser(r.Context()), chi.URLParam(r, "userID"), date, attendance.Kind(payload.Kind), payload.Time)
	if err != nil {
		shared.WriteError(w, r, err, "attendance_mark_failed")
		return
	}
	api.Success(w, rec, api.RequestID(r))
}
