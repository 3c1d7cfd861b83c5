package database

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)

	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})

	return exporter
}

func TestTraceOp_Success(t *testing.T) {
	exporter := setupTestTracer(t)

	ctx, end := TraceOp(context.Background(), "cart.get", "cart:sess-1")
	assert.True(t, trace.SpanFromContext(ctx).SpanContext().IsValid())
	end(nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "redis.cart.get", spans[0].Name)
	assert.Equal(t, trace.SpanKindClient, spans[0].SpanKind)

	attrs := make(map[string]string)
	for _, a := range spans[0].Attributes {
		attrs[string(a.Key)] = a.Value.Emit()
	}
	assert.Equal(t, "redis", attrs["db.system"])
	assert.Equal(t, "cart.get", attrs["db.operation"])
	assert.Equal(t, "cart:sess-1", attrs["db.redis.key"])
}

func TestTraceOp_Error(t *testing.T) {
	exporter := setupTestTracer(t)

	_, end := TraceOp(context.Background(), "cart.save", "cart:sess-1")
	end(errors.New("connection refused"))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, "connection refused", spans[0].Status.Description)
	assert.NotEmpty(t, spans[0].Events, "error should be recorded as a span event")
}

func TestSlowOpLogging(t *testing.T) {
	tests := []struct {
		name      string
		threshold time.Duration
		sleep     time.Duration
		err       error
		wantLog   bool
	}{
		{"slow op logged", time.Millisecond, 5 * time.Millisecond, nil, true},
		{"slow op with error logged", time.Millisecond, 5 * time.Millisecond, errors.New("timeout"), true},
		{"fast op not logged", time.Hour, 0, nil, false},
		{"disabled", 0, 5 * time.Millisecond, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			SetSlowOpLogging(tt.threshold, slog.New(slog.NewJSONHandler(&buf, nil)))
			t.Cleanup(func() { SetSlowOpLogging(0, nil) })

			_, end := TraceOp(context.Background(), "cart.get", "cart:sess-1")
			time.Sleep(tt.sleep)
			end(tt.err)

			if !tt.wantLog {
				assert.Zero(t, buf.Len())
				return
			}
			assert.Contains(t, buf.String(), "slow redis operation")
			assert.Contains(t, buf.String(), "cart:sess-1")
			if tt.err != nil {
				assert.Contains(t, buf.String(), tt.err.Error())
			}
		})
	}
}
