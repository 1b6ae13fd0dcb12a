package main

import (
	"encoding/json"
	"net/http"

	"github.com/JaimeStill/tickler/internal/infrastructure"
)

type healthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components,omitempty"`
}

func healthz() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, http.StatusOK, healthResponse{Status: "ok"})
	})
}

// readyz reports ready only after every startup hook has finished and the
// database pool is usable. Storage readiness is covered by its startup hook.
func readyz(infra *infrastructure.Infrastructure) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{
			Status: "ready",
			Components: map[string]string{
				"startup":  status(infra.Lifecycle.Ready()),
				"database": status(infra.Database.Ready()),
			},
		}

		code := http.StatusOK
		for _, s := range resp.Components {
			if s != "ok" {
				resp.Status = "not ready"
				code = http.StatusServiceUnavailable
				break
			}
		}
		writeHealth(w, code, resp)
	})
}

func status(ok bool) string {
	if ok {
		return "ok"
	}
	return "pending"
}

func writeHealth(w http.ResponseWriter, code int, resp healthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(resp)
}
