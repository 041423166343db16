// Package middleware provides net/http observability middleware for the
// tablequery server.
//
// This package includes:
//   - Prometheus metrics for HTTP requests, codec activity and live sessions
//   - OpenTelemetry tracing for HTTP requests
//
// Both are plain func(http.Handler) http.Handler middleware and plug into
// any router:
//
//	m := middleware.Prometheus(
//	    middleware.WithNamespace("tablequery"),
//	    middleware.WithRegistry(reg),
//	)
//
//	r := chi.NewRouter()
//	r.Use(m.Handler)
//	r.Use(middleware.OpenTelemetry(middleware.WithTracerName("tablequery")))
//	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
//
// # Prometheus Metrics
//
//   - tablequery_http_requests_total: requests by route, method and status
//   - tablequery_http_request_duration_seconds: request duration histogram
//   - tablequery_codec_operations_total: encode, select-all and decode calls
//   - tablequery_codec_ignored_params_total: query parameters decode skipped
//   - tablequery_live_sessions: open live channels
//   - tablequery_url_patches_sent_total: URL patches written to live channels
//   - tablequery_websocket_errors_total: live channel errors by type
//
// The metrics value returned by Prometheus also implements
// tablequery.Observer, so a codec built with tablequery.WithObserver(m)
// reports into the same registry.
//
// # Context Propagation
//
// The tracing middleware stores the span on the request context. Handlers
// reach it with SpanFromContext(r.Context()) and pass r.Context() on to
// downstream calls.
package middleware
