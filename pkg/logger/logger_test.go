package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func logLine(t *testing.T, ctx context.Context, level string) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	WithContext(ctx, NewWithWriter("storefront", level, &buf)).Info("cart updated")
	if buf.Len() == 0 {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	return out
}

func TestNewWithWriter(t *testing.T) {
	out := logLine(t, context.Background(), "info")
	if out["service"] != "storefront" {
		t.Errorf("service = %v, want storefront", out["service"])
	}
	if out["msg"] != "cart updated" {
		t.Errorf("msg = %v", out["msg"])
	}

	if out := logLine(t, context.Background(), "warn"); out != nil {
		t.Errorf("info line should be filtered at warn level, got %v", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"Error":   slog.LevelError,
		"info+2":  slog.LevelInfo,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestWithContext(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	spanCtx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	tests := []struct {
		name string
		ctx  context.Context
		want map[string]string
	}{
		{
			name: "nothing in context",
			ctx:  context.Background(),
			want: map[string]string{},
		},
		{
			name: "correlation and session",
			ctx:  WithSessionID(WithCorrelationID(context.Background(), "req-123"), "sess-789"),
			want: map[string]string{"correlation_id": "req-123", "session_id": "sess-789"},
		},
		{
			name: "session set before correlation survives",
			ctx:  WithCorrelationID(WithSessionID(context.Background(), "sess-1"), "req-1"),
			want: map[string]string{"correlation_id": "req-1", "session_id": "sess-1"},
		},
		{
			name: "active span",
			ctx:  spanCtx,
			want: map[string]string{"trace_id": "4bf92f3577b34da6a3ce929d0e0e4736", "span_id": "00f067aa0ba902b7"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := logLine(t, tt.ctx, "info")
			for _, key := range []string{"correlation_id", "session_id", "trace_id", "span_id"} {
				got, present := out[key]
				want, expected := tt.want[key]
				if present != expected || (expected && got != want) {
					t.Errorf("%s = %v (present %v), want %q (present %v)", key, got, present, want, expected)
				}
			}
		})
	}
}

func TestContextIDs(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "corr-1")
	ctx = WithSessionID(ctx, "sess-1")
	ctx = WithCorrelationID(ctx, "corr-2")

	if got := CorrelationIDFromContext(ctx); got != "corr-2" {
		t.Errorf("correlation id = %q, want corr-2", got)
	}
	if got := SessionIDFromContext(ctx); got != "sess-1" {
		t.Errorf("session id = %q, want sess-1", got)
	}
	if got := SessionIDFromContext(context.Background()); got != "" {
		t.Errorf("empty context session id = %q", got)
	}
}

func TestFromContext(t *testing.T) {
	l := NewWithWriter("storefront", "info", &bytes.Buffer{})

	if got := FromContext(NewContext(context.Background(), l)); got != l {
		t.Error("FromContext should return the logger stored via NewContext")
	}
	if got := FromContext(context.Background()); got != slog.Default() {
		t.Error("FromContext should fall back to slog.Default()")
	}
}
