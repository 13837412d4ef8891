package node

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DiagnosticsMux builds the ambient ops surface for a running node:
// liveness at /healthz and Prometheus scraping at /metrics. This is not the
// collaborative-object read API — only operator-facing health tooling.
func DiagnosticsMux(m *Metrics) http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{}))
	return r
}
