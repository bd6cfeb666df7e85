package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func newTestLogger(t *testing.T, level slog.Level) (*SlogLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: level})
	return NewSlogLogger(slog.New(h)), &buf
}

func TestSlogLogger_Levels_WriteExpectedOutput(t *testing.T) {
	log, buf := newTestLogger(t, slog.LevelDebug)
	ctx := context.Background()

	log.Debug(ctx, "tick", "interval", "1m0s")
	log.Info(ctx, "pinned", "hash", "bafy")
	log.Warn(ctx, "unpin failed", "step", "unpin")
	log.Error(ctx, "transport", "status", 0)

	out := buf.String()

	tests := []struct {
		level string
		msg   string
		attr  string
	}{
		{"DEBUG", "tick", "interval=1m0s"},
		{"INFO", "pinned", "hash=bafy"},
		{"WARN", `"unpin failed"`, "step=unpin"},
		{"ERROR", "transport", "status=0"},
	}

	for _, tc := range tests {
		if !strings.Contains(out, "level="+tc.level) {
			t.Fatalf("expected line with level=%s in output:\n%s", tc.level, out)
		}
		if !strings.Contains(out, "msg="+tc.msg) {
			t.Fatalf("expected line with msg=%s in output:\n%s", tc.msg, out)
		}
		if !strings.Contains(out, tc.attr) {
			t.Fatalf("expected attribute %s in output:\n%s", tc.attr, out)
		}
	}
}

func TestSlogLogger_LevelFiltering(t *testing.T) {
	log, buf := newTestLogger(t, slog.LevelWarn)
	ctx := context.Background()

	log.Debug(ctx, "hidden-debug")
	log.Info(ctx, "hidden-info")
	log.Warn(ctx, "shown")

	out := buf.String()
	if strings.Contains(out, "hidden-") {
		t.Fatalf("debug/info must be filtered at warn level:\n%s", out)
	}
	if !strings.Contains(out, "msg=shown") {
		t.Fatalf("expected warn line, got:\n%s", out)
	}
}

func TestSlogLogger_With_AddsAttributes(t *testing.T) {
	log, buf := newTestLogger(t, slog.LevelDebug)

	log.With("component", "session", "user", "42").Info(context.Background(), "expired", "route", "/login")

	out := buf.String()
	for _, s := range []string{"level=INFO", "msg=expired", "component=session", "user=42", "route=/login"} {
		if !strings.Contains(out, s) {
			t.Fatalf("expected %q in output, got:\n%s", s, out)
		}
	}
}

func TestSlogLogger_NilContext(t *testing.T) {
	log, buf := newTestLogger(t, slog.LevelInfo)

	var ctx context.Context
	log.Info(ctx, "from cron", "job", "validate")

	if !strings.Contains(buf.String(), "job=validate") {
		t.Fatalf("expected record without a context, got:\n%s", buf.String())
	}
}
