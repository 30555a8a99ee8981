package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/guestlink/guestlink/internal/metrics"
)

func TestMetricsHandler_Exposition(t *testing.T) {
	rec := metrics.NewInMemory()
	rec.IncCustomersRegistered()
	rec.AddOrdersLinked(3)
	rec.ObserveLinkDuration(1500 * time.Millisecond)
	rec.IncNoticesShown()

	w := httptest.NewRecorder()
	NewMetricsHandler(rec).Metrics(w, httptest.NewRequest(http.MethodGet, "/api/v1/admin/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q", ct)
	}
	body := w.Body.String()
	for _, line := range []string{
		"guestlink_customers_registered_total 1\n",
		"guestlink_orders_linked_total 3\n",
		"guestlink_link_failures_total 0\n",
		"guestlink_link_duration_seconds_count 1\n",
		"guestlink_link_duration_seconds_sum 1.500000\n",
		"guestlink_notices_shown_total 1\n",
	} {
		if !strings.Contains(body, line) {
			t.Errorf("missing %q in:\n%s", line, body)
		}
	}
}

func TestMetricsHandler_Disabled(t *testing.T) {
	w := httptest.NewRecorder()
	NewMetricsHandler(nil).Metrics(w, httptest.NewRequest(http.MethodGet, "/api/v1/admin/metrics", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", w.Code)
	}
}
