package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

type healthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Liveness always reports up while the process is serving.
func Liveness(w http.ResponseWriter, r *http.Request) {
	writeHealth(w, http.StatusOK, healthResponse{Status: "up", Timestamp: time.Now().UTC()})
}

// Readiness reports whether the datastore answers a ping.
func Readiness(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		resp := healthResponse{Status: "up", Timestamp: time.Now().UTC(), Checks: map[string]string{"database": "up"}}
		status := http.StatusOK
		if err := store.Ping(ctx); err != nil {
			resp.Status = "down"
			resp.Checks["database"] = err.Error()
			status = http.StatusServiceUnavailable
		}
		writeHealth(w, status, resp)
	}
}

func writeHealth(w http.ResponseWriter, status int, resp healthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
