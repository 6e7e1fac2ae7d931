package handlers

import "net/http"

// ServeMetrics exposes the Prometheus registry, or answers 404 when metrics
// are disabled.
func (a *App) ServeMetrics(w http.ResponseWriter, r *http.Request) {
	if a.Metrics == nil {
		a.NotFound(w, r)
		return
	}
	a.Metrics.Handler().ServeHTTP(w, r)
}
