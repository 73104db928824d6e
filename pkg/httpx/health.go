package httpx

import (
	"context"
	"net/http"
	"time"
)

const healthTimeout = 2 * time.Second

// HealthChecker is satisfied by any dependency with a Ping method
// (database.Database, cache.RedisClient, events.EventBus).
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthChecks maps a dependency name to its checker. Nil entries are
// skipped, so optional dependencies can be listed unconditionally.
type HealthChecks map[string]HealthChecker

type healthResponse struct {
	OK     bool              `json:"ok"`
	Checks map[string]string `json:"checks"`
}

// HealthHandler pings every checker concurrently under a shared 2s deadline.
// It answers 200 {"ok":true,...} when all succeed and 503 with ok=false and
// the failing dependency marked "unreachable" otherwise.
func HealthHandler(checks HealthChecks) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		type result struct {
			name string
			err  error
		}
		results := make(chan result, len(checks))
		pending := 0
		for name, c := range checks {
			if c == nil {
				continue
			}
			pending++
			go func() {
				results <- result{name: name, err: c.Ping(ctx)}
			}()
		}

		resp := healthResponse{OK: true, Checks: make(map[string]string, pending)}
		for range pending {
			res := <-results
			if res.err != nil {
				resp.OK = false
				resp.Checks[res.name] = "unreachable"
				continue
			}
			resp.Checks[res.name] = "ok"
		}

		status := http.StatusOK
		if !resp.OK {
			status = http.StatusServiceUnavailable
		}
		JSON(w, status, resp)
	}
}
