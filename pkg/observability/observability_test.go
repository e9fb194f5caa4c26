package observability

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newSpanRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return recorder
}

func TestStartSpanRecordsError(t *testing.T) {
	recorder := newSpanRecorder(t)

	_, end := StartSpan(context.Background(), "build_entry")
	end("1-zabc", errors.New("boom"))

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 ended span, got %d", len(spans))
	}
	span := spans[0]
	if span.Name() != "webvh.build_entry" {
		t.Errorf("span name = %q, want %q", span.Name(), "webvh.build_entry")
	}
	if span.Status().Code != codes.Error {
		t.Errorf("expected error status, got %v", span.Status().Code)
	}
	found := false
	for _, attr := range span.Attributes() {
		if string(attr.Key) == "webvh.version_id" && attr.Value.AsString() == "1-zabc" {
			found = true
		}
	}
	if !found {
		t.Error("expected the versionId attribute on the span")
	}
}

func TestStartSpanNoError(t *testing.T) {
	recorder := newSpanRecorder(t)

	_, end := StartSpan(context.Background(), "replay")
	end("", nil)

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 ended span, got %d", len(spans))
	}
	if spans[0].Status().Code == codes.Error {
		t.Error("expected a clean span status")
	}
}

func TestLoggingHelpersDoNotPanic(t *testing.T) {
	ctx := context.Background()
	LogAccepted(ctx, "create", "1-zabc")
	LogDegraded(ctx, "resolve", "fast resolution elided interior verification")
	LogFailed(ctx, "update", "2-zdef", errors.New("broken chain"))
}
