package handlers

import "net/http"

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{
		"status":      "ok",
		"message":     translate(r.Context(), msgHealthRunning),
		"timestamp":   a.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		"environment": a.Env,
	})
}
