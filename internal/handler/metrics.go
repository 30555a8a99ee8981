package handler

import (
	"fmt"
	"net/http"

	"github.com/guestlink/guestlink/internal/metrics"
)

// MetricsHandler renders linker and registration counters in Prometheus
// text exposition format.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		writeError(w, http.StatusServiceUnavailable, "METRICS_DISABLED", "Metrics collection is disabled")
		return
	}

	snap := h.snapshotter.Snapshot()
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "guestlink_customers_registered_total %d\n", snap.CustomersRegistered)
	writeMetric(w, "guestlink_orders_linked_total %d\n", snap.OrdersLinked)
	writeMetric(w, "guestlink_link_failures_total %d\n", snap.LinkFailures)
	writeMetric(w, "guestlink_link_duration_seconds_count %d\n", snap.LinkDurationCount)
	writeMetric(w, "guestlink_link_duration_seconds_sum %.6f\n", float64(snap.LinkDurationTotalNs)/1e9)
	writeMetric(w, "guestlink_notices_shown_total %d\n", snap.NoticesShown)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
