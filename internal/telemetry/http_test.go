package telemetry

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestHandler_SpanNames(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /orders/{id}", WithHTTPRoute(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name      string
		path      string
		wantCode  int
		wantSpan  string
		wantRoute bool
	}{
		{"routed request uses pattern", "/orders/3f6c2a9e-1b7d-4c0e-9a51-6d2f0b8e4c11", http.StatusNoContent, "GET /orders/{id}", true},
		{"unrouted request uses method", "/nowhere/42", http.StatusNotFound, "GET", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := tracetest.NewSpanRecorder()
			tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
			t.Cleanup(func() { _ = tp.Shutdown(t.Context()) })
			handler := Handler(mux, "api", otelhttp.WithTracerProvider(tp))

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.wantCode {
				t.Fatalf("expected status %d, got %d", tt.wantCode, rec.Code)
			}

			spans := recorder.Ended()
			if len(spans) != 1 {
				t.Fatalf("expected 1 span, got %d", len(spans))
			}
			if got := spans[0].Name(); got != tt.wantSpan {
				t.Errorf("expected span name %q, got %q", tt.wantSpan, got)
			}

			want := attribute.String("http.route", "GET /orders/{id}")
			found := false
			for _, attr := range spans[0].Attributes() {
				if attr == want {
					found = true
				}
			}
			if found != tt.wantRoute {
				t.Errorf("http.route present = %v, want %v (attributes %v)", found, tt.wantRoute, spans[0].Attributes())
			}
		})
	}
}
