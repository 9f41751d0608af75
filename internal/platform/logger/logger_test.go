package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"hrmgate/internal/requestctx"
)

func TestHandlerEnrichesFromContext(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, slog.LevelInfo).With("component", "test")

	ctx := requestctx.WithUserID(requestctx.WithRequestID(context.Background(), "req-9"), "user-7")
	log.InfoContext(ctx, "hello")

	line := buf.String()
	for _, want := range []string{`"request_id":"req-9"`, `"user_id":"user-7"`, `"component":"test"`, `"service":"hrmgate"`} {
		if !strings.Contains(line, want) {
			t.Fatalf("log line %s missing %s", line, want)
		}
	}
}

func TestHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, slog.LevelWarn)
	log.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered, got %s", buf.String())
	}
}
