package handlers

import (
	"encoding/json"
	"net/http"
	"time"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}

// MetricsHandler serves the Prometheus registry, or 404 when metrics are off.
func (a *App) MetricsHandler(w http.ResponseWriter, r *http.Request) {
	if a.Metrics == nil {
		http.NotFound(w, r)
		return
	}
	a.Metrics.ServeHTTP(w, r)
}

func (a *App) APITestGet(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"message":     "API is working correctly",
		"timestamp":   a.now().UTC().Format(time.RFC3339Nano),
		"environment": a.AppEnv,
	})
}

func (a *App) APITestPost(w http.ResponseWriter, r *http.Request) {
	var body json.RawMessage
	if err := a.decode(w, r, &body); err != nil {
		a.error(w, http.StatusInternalServerError, "Test POST API failed")
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"message":      "POST request received successfully",
		"receivedData": body,
		"timestamp":    a.now().UTC().Format(time.RFC3339Nano),
	})
}
