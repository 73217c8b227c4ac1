// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LedgerNotes Contributors

package web

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// statusRecorder captures the response status for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withTelemetry traces each request, records request metrics by route
// pattern, and logs the outcome.
func (s *Server) withTelemetry(next http.Handler) http.Handler {
	tracer := otel.Tracer("github.com/ledgernotes/ledgernotes/internal/web")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), r.Method+" "+r.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", r.Method),
				attribute.String("url.path", r.URL.Path),
			),
		)
		defer span.End()

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		req := r.WithContext(ctx)
		next.ServeHTTP(recorder, req)

		// Pattern is filled in by the mux; fall back to the raw path for
		// unmatched requests.
		route := req.Pattern
		if route == "" {
			route = r.URL.Path
		}

		span.SetAttributes(attribute.Int("http.response.status_code", recorder.status))

		s.cfg.Metrics.RecordRequest(r.Method, route, recorder.status)

		s.logger.InfoContext(ctx, "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", recorder.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
