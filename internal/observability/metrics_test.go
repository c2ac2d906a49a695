package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/caisse")

	req := httptest.NewRequest(http.MethodGet, "/caisse", nil)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rr.Code)
	}

	mr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(mr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if mr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", mr.Code)
	}
	if !strings.Contains(mr.Body.String(), "cityprop_http_requests_total") {
		t.Fatalf("expected exported counter in metrics body")
	}
}

func TestBusinessCounters(t *testing.T) {
	metrics := NewMetrics()
	metrics.OrderCreated("CITYPROP")
	metrics.DocumentIssued("FACTURE")
	metrics.ClientRetained()

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rr.Body.String()
	for _, want := range []string{
		`cityprop_orders_created_total{service_type="CITYPROP"} 1`,
		`cityprop_documents_issued_total{doc_type="FACTURE"} 1`,
		`cityprop_clients_retained_total 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics body missing %q", want)
		}
	}

	// Nil receivers are a no-op so services can run without metrics wired.
	var m *Metrics
	m.OrderCreated("TAPISPROP")
	m.DocumentIssued("DEVIS")
	m.ClientRetained()
}

func TestNilMetricsHandlerIsUnavailable(t *testing.T) {
	var m *Metrics
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}
