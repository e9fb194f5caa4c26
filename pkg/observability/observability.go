// Package observability wraps the resolver facade's boundary operations
// with OpenTelemetry spans and structured slog logging. The leaf algorithm
// packages stay silent; only the facade logs. It does not configure an OTLP
// exporter — wiring spans to a collector is the embedding application's
// concern; callers register their own TracerProvider via
// otel.SetTracerProvider and this package picks it up through otel.Tracer.
package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/Mindburn-Labs/didwebvh/pkg/webvh"

func tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// StartSpan starts a span named "webvh.<op>" (e.g. "webvh.build_entry",
// "webvh.replay", "webvh.witness_quorum") carrying versionId as an
// attribute once known. The returned End func records the error (if any)
// on the span and closes it; callers defer it.
func StartSpan(ctx context.Context, op string) (context.Context, func(versionID string, err error)) {
	ctx, span := tracer().Start(ctx, "webvh."+op)
	return ctx, func(versionID string, err error) {
		if versionID != "" {
			span.SetAttributes(attribute.String("webvh.version_id", versionID))
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// Logger returns the package-scoped slog.Logger used at the resolver
// facade boundary.
func Logger() *slog.Logger {
	return slog.Default().With("component", "webvh")
}

// LogAccepted emits the boundary-level acceptance log for a newly built or
// resolved entry.
func LogAccepted(ctx context.Context, op, versionID string) {
	Logger().InfoContext(ctx, "webvh: entry accepted", "op", op, "versionId", versionID)
}

// LogDegraded warns about a recoverable replay degradation. The resolver
// facade calls it when fast-resolution mode skips interior verification;
// default-service injection is not logged.
func LogDegraded(ctx context.Context, op, reason string) {
	Logger().WarnContext(ctx, "webvh: degraded resolution", "op", op, "reason", reason)
}

// LogFailed logs a terminal replay or build failure immediately before it
// is returned to the caller.
func LogFailed(ctx context.Context, op, versionID string, err error) {
	Logger().ErrorContext(ctx, "webvh: operation failed", "op", op, "versionId", versionID, "error", err)
}
