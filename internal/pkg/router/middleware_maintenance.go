package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/shandysiswandi/accountd/internal/pkg/config"
	"go.uber.org/atomic"
)

// maintenance blocks configured routes, or every route but /health when no
// routes are listed, while enabled.
type maintenance struct {
	enabled   atomic.Bool
	endpoints map[string]struct{}
}

func newMaintenance(cfg config.Config) *maintenance {
	m := &maintenance{endpoints: make(map[string]struct{})}
	if cfg == nil {
		return m
	}

	m.enabled.Store(cfg.GetBool("app.maintenance.enabled"))
	for _, endpoint := range cfg.GetArray("app.maintenance.endpoints") {
		endpoint = strings.TrimSpace(endpoint)
		if endpoint == "" {
			continue
		}
		m.endpoints[endpoint] = struct{}{}
	}
	return m
}

func (m *maintenance) blocked(route string) bool {
	if !m.enabled.Load() || route == "/health" {
		return false
	}
	if len(m.endpoints) == 0 {
		return true
	}
	_, ok := m.endpoints[route]
	return ok
}

func middlewareMaintenance(m *maintenance, now func() time.Time) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.blocked(matchedRoutePath(r)) {
				writeEnvelope(w, failure("Service is under maintenance", http.StatusServiceUnavailable, nil, now()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
