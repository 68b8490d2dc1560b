package api

import (
	"context"
	"net/http"
	"time"

	"github.com/dukerupert/taxsim/internal/handler"
)

// Pinger is a dependency the health check can probe, such as the database pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles GET /health. It answers 503 when any registered
// dependency fails its ping.
type HealthHandler struct {
	checks map[string]Pinger
}

func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{checks: checks}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			results[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	handler.JSON(w, status, map[string]any{
		"status": state,
		"checks": results,
	})
}
