package telemetry

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// WithHTTPRoute names the current span after the matched ServeMux pattern
// and tags it with the route. otelhttp starts the span before routing and
// cannot see the pattern itself.
func WithHTTPRoute(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Pattern != "" {
			span := oteltrace.SpanFromContext(r.Context())
			span.SetName(r.Pattern)
			span.SetAttributes(semconv.HTTPRoute(r.Pattern))
		}
		h(w, r)
	}
}

// spanName keeps unrouted requests down to the method so raw paths never
// become span names.
func spanName(_ string, r *http.Request) string {
	return r.Method
}

// Handler wraps the server mux in an otelhttp handler whose spans are
// renamed to routes by WithHTTPRoute.
func Handler(h http.Handler, operation string, opts ...otelhttp.Option) http.Handler {
	opts = append([]otelhttp.Option{otelhttp.WithSpanNameFormatter(spanName)}, opts...)
	return otelhttp.NewHandler(h, operation, opts...)
}
