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
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/datagov/datagov/internal/authz"
)

// RouterConfig holds the transport level settings of the router.
type RouterConfig struct {
	Production     bool
	AllowedOrigins []string
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	// RateLimiter is optional; nil disables rate limiting.
	RateLimiter *RateLimiter
}

// NewRouter creates a new HTTP router
func NewRouter(h *Handler, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(SecurityHeaders(cfg.Production))
	r.Use(CORS(cfg.AllowedOrigins))
	r.Use(RateLimitMiddleware(cfg.RateLimiter))
	r.Use(func(handler http.Handler) http.Handler {
		return otelhttp.NewHandler(handler, "http_request",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})
	r.Use(LoggingMiddleware())
	r.Use(Recoverer)
	r.Use(middleware.Compress(5))
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	if cfg.MaxBodyBytes > 0 {
		r.Use(MaxBodySize(cfg.MaxBodyBytes))
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusNotFound, errorResponse{Error: "route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.HealthCheck)
		r.Get("/health/ready", h.ReadinessCheck)

		r.Group(func(r chi.Router) {
			r.Use(h.Authenticate)

			r.Route("/auth", func(r chi.Router) {
				r.With(Validate(registerSchema)).Post("/register", handle(h.Register))
				r.With(Validate(loginSchema)).Post("/login", handle(h.Login))
				r.Post("/logout", handle(h.Logout))
				r.With(RequireAuth).Get("/user", handle(h.CurrentUser))
			})

			r.Group(func(r chi.Router) {
				r.Use(RequireAuth)

				r.Get("/tenants", handle(h.ListTenants))
				r.With(Validate(createTenantSchema)).Post("/tenants", handle(h.CreateTenant))
				r.Post("/invitations/{token}/accept", handle(h.AcceptInvitation))

				r.Route("/tenants/{tenantId}", h.tenantRoutes)
			})
		})
	})

	return r
}

// tenantRoutes mounts every tenant scoped route. Each route runs the access
// guard first and the body validator second.
func (h *Handler) tenantRoutes(r chi.Router) {
	guard := h.RequirePermission

	r.With(guard(authz.PermTenantRead)).Get("/", handle(h.GetTenant))
	r.With(guard(authz.PermTenantUpdate), Validate(updateTenantSchema)).Patch("/", handle(h.UpdateTenant))
	r.With(guard(authz.PermTenantDelete)).Delete("/", handle(h.DeleteTenant))

	r.Route("/datasets", func(r chi.Router) {
		r.With(guard(authz.PermDatasetList)).Get("/", handle(h.ListDatasets))
		r.With(guard(authz.PermDatasetCreate), Validate(createDatasetSchema)).Post("/", handle(h.CreateDataset))
		r.With(guard(authz.PermDatasetRead)).Get("/{id}", handle(h.GetDataset))
		r.With(guard(authz.PermDatasetUpdate), Validate(updateDatasetSchema)).Patch("/{id}", handle(h.UpdateDataset))
		r.With(guard(authz.PermDatasetDelete)).Delete("/{id}", handle(h.DeleteDataset))
	})

	r.Route("/jobs", func(r chi.Router) {
		r.With(guard(authz.PermJobList)).Get("/", handle(h.ListJobs))
		r.With(guard(authz.PermJobCreate), Validate(createJobSchema)).Post("/", handle(h.CreateJob))
		r.With(guard(authz.PermJobRead)).Get("/{id}", handle(h.GetJob))
		r.With(guard(authz.PermJobUpdate), Validate(updateJobSchema)).Patch("/{id}", handle(h.UpdateJob))
		r.With(guard(authz.PermJobDelete)).Delete("/{id}", handle(h.DeleteJob))
		r.With(guard(authz.PermJobRun)).Post("/{id}/run", handle(h.RunJob))
		r.With(guard(authz.PermJobRunsList)).Get("/{id}/runs", handle(h.ListJobRuns))
	})

	r.Route("/members", func(r chi.Router) {
		r.With(guard(authz.PermMemberList)).Get("/", handle(h.ListMembers))
		r.With(guard(authz.PermMemberInvite), Validate(inviteMemberSchema)).Post("/invite", handle(h.InviteMember))
		r.With(guard(authz.PermMemberRemove)).Delete("/{userId}", handle(h.RemoveMember))
		r.With(guard(authz.PermMemberChangeRole), Validate(updateRoleSchema)).Patch("/{userId}/role", handle(h.ChangeMemberRole))
	})

	r.With(guard(authz.PermInvitationList)).Get("/invitations", handle(h.ListInvitations))

	r.Route("/api-keys", func(r chi.Router) {
		r.With(guard(authz.PermAPIKeyList)).Get("/", handle(h.ListAPIKeys))
		r.With(guard(authz.PermAPIKeyCreate), Validate(createAPIKeySchema)).Post("/", handle(h.CreateAPIKey))
		r.With(guard(authz.PermAPIKeyRevoke)).Delete("/{id}", handle(h.RevokeAPIKey))
	})
}
