package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for input, want := range cases {
		if got := ParseLevel(input); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "warn")

	logger.Info("hidden")
	logger.Warn("shown")

	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("unexpected output %s", buf.String())
	}
}

func TestStartSpanNestsUnderTrace(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), slog.New(slog.NewJSONHandler(&buf, nil)))

	ctx, parent := StartSpan(ctx, "parent")
	traceID := TraceIDFromContext(ctx)
	parentID := SpanIDFromContext(ctx)

	child, span := StartSpan(ctx, "child")
	if TraceIDFromContext(child) != traceID {
		t.Fatal("expected child span to share the trace id")
	}
	if SpanIDFromContext(child) == parentID {
		t.Fatal("expected child span to get its own id")
	}
	span.End()
	parent.End()

	if !strings.Contains(buf.String(), `"parent_span_id":"`+parentID+`"`) {
		t.Fatalf("expected child log to reference parent span, got %s", buf.String())
	}
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	if FromContext(context.Background()) != slog.Default() {
		t.Fatal("expected default logger")
	}
}

func TestSpanRecordsError(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), slog.New(slog.NewJSONHandler(&buf, nil)))

	_, span := StartSpan(ctx, "work")
	span.RecordError(nil)
	span.RecordError(errors.New("store unavailable"))
	span.End()

	if !strings.Contains(buf.String(), `"msg":"span failed"`) || !strings.Contains(buf.String(), "store unavailable") {
		t.Fatalf("expected failed span log, got %s", buf.String())
	}
}

func TestWithUserTagsLogger(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), slog.New(slog.NewJSONHandler(&buf, nil)))

	ctx = WithUser(ctx, "user-1")
	FromContext(ctx).Info("hello")

	if UserIDFromContext(ctx) != "user-1" {
		t.Fatalf("unexpected user id %q", UserIDFromContext(ctx))
	}
	if !strings.Contains(buf.String(), `"user_id":"user-1"`) {
		t.Fatalf("expected user id on log line, got %s", buf.String())
	}
	if WithUser(ctx, "") != ctx {
		t.Fatal("expected empty id to leave context unchanged")
	}
}
