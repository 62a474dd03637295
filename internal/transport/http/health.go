// Copyright 2026 The Datagov Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package http

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/datagov/datagov/internal/observability/logger"
)

const readinessTimeout = 5 * time.Second

// HealthChecker is a dependency probed by the readiness endpoint.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// AddHealthCheck registers a readiness probe under name.
func (h *Handler) AddHealthCheck(name string, c HealthChecker) {
	h.healthChecks[name] = c
}

// HealthCheck reports liveness and process uptime.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(h.startedAt).Seconds(),
	})
}

// ReadinessCheck pings every registered dependency. Checks named in the
// expected set but never registered report "not configured".
func (h *Handler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	checks := map[string]string{"postgres": "not configured", "redis": "not configured"}
	healthy := true

	names := make([]string, 0, len(h.healthChecks))
	for name := range h.healthChecks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := h.healthChecks[name].Ping(ctx); err != nil {
			slog.WarnContext(ctx, "readiness check failed", logger.Component(name), logger.Error(err))
			checks[name] = "error"
			healthy = false
			continue
		}
		checks[name] = "ok"
	}

	status, code := "ready", http.StatusOK
	if !healthy {
		status, code = "unavailable", http.StatusServiceUnavailable
	}
	respondJSON(w, code, map[string]any{"status": status, "checks": checks})
}
