package router

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/wolfman30/telehealth-platform/internal/http/respond"
)

// HealthCheck probes one dependency, e.g. a database ping.
type HealthCheck func(ctx context.Context) error

const healthTimeout = 2 * time.Second

// healthHandler reports "ok" when every check passes and 503 otherwise.
func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(names))
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				results[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}

		body := map[string]any{"status": "ok"}
		if status != http.StatusOK {
			body["status"] = "degraded"
		}
		if len(results) > 0 {
			body["checks"] = results
		}
		respond.JSON(w, status, body)
	}
}
