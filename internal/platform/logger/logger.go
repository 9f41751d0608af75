package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	"hrmgate/internal/requestctx"
)

const service = "hrmgate"

// Handler adds the request id and user id carried by the context to every
// record.
type Handler struct {
	slog.Handler
}

func (h *Handler) Handle(ctx context.Context, record slog.Record) error {
	if v := requestctx.GetRequestID(ctx); v != "" {
		record.Add("request_id", v)
	}
	if v := requestctx.GetUserID(ctx); v != "" {
		record.Add("user_id", v)
	}
	record.Add("service", service)
	return h.Handler.Handle(ctx, record)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{Handler: h.Handler.WithGroup(name)}
}

func New(level slog.Level) *slog.Logger {
	return NewWithWriter(os.Stdout, level)
}

func NewWithWriter(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(&Handler{
		Handler: slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}),
	})
}
