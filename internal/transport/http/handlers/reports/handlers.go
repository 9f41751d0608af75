package reportshandler

import (
	"bytes"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"hrmgate/internal/domain/auth"
	"hrmgate/internal/domain/reports"
	"hrmgate/internal/transport/http/api"
	"hrmgate/internal/transport/http/middleware"
)

type Handler struct {
	Authz *auth.Authorizer
	Now   func() time.Time
}

func NewHandler(authz *auth.Authorizer) *Handler {
	return &Handler{Authz: authz, Now: time.Now}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Use(middleware.RequireOperation(h.Authz, auth.OpExportData))
		r.Get("/access-matrix", h.handleAccessMatrix)
		r.Get("/access-matrix.pdf", h.handleAccessMatrixPDF)
	})
}

func (h *Handler) handleAccessMatrix(w http.ResponseWriter, r *http.Request) {
	api.Success(w, reports.BuildAccessMatrix(h.Authz, h.Now().UTC()), api.RequestID(r))
}

// handleAccessMatrixPDF renders into a buffer first so a rendering failure
// still produces a JSON error.
func (h *Handler) handleAccessMatrixPDF(w http.ResponseWriter, r *http.Request) {
	matrix := reports.BuildAccessMatrix(h.Authz, h.Now().UTC())
	var buf bytes.Buffer
	if err := reports.WriteAccessMatrixPDF(&buf, matrix); err != nil {
		slog.ErrorContext(r.Context(), "access matrix pdf failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to render report", api.RequestID(r))
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=access-matrix.pdf")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.WarnContext(r.Context(), "access matrix pdf write failed", "err", err)
	}
}
