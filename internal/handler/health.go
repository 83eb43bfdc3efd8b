package handler

import (
	"context"
	"net/http"
	"time"
)

// Health reports liveness and, when a ping function is set, store reachability
type Health struct {
	Ping func(ctx context.Context) error
}

// ServeHTTP handles GET /health
func (h Health) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.Ping(ctx); err != nil {
			WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
