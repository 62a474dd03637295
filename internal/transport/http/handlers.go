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

// Package http exposes the datagov JSON API.
package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/datagov/datagov/internal/apikey"
	"github.com/datagov/datagov/internal/audit"
	"github.com/datagov/datagov/internal/authz"
	"github.com/datagov/datagov/internal/dataset"
	"github.com/datagov/datagov/internal/identity"
	"github.com/datagov/datagov/internal/job"
	"github.com/datagov/datagov/internal/observability/logger"
	"github.com/datagov/datagov/internal/observability/metrics"
	"github.com/datagov/datagov/internal/session"
	"github.com/datagov/datagov/internal/tenant"
	"github.com/datagov/datagov/internal/validation"
)

// Services are the domain services the handlers delegate to.
type Services struct {
	Identity *identity.Service
	Sessions *session.Service
	Tenants  *tenant.Service
	Datasets *dataset.Service
	Jobs     *job.Service
	APIKeys  *apikey.Service
	Guard    *authz.Guard
	Audit    audit.Logger
	Metrics  *metrics.Instruments
}

// Handler holds HTTP handlers and dependencies
type Handler struct {
	identityService *identity.Service
	sessions        *session.Service
	tenantService   *tenant.Service
	datasetService  *dataset.Service
	jobService      *job.Service
	apiKeyService   *apikey.Service
	guard           *authz.Guard
	auditLogger     audit.Logger
	metrics         *metrics.Instruments
	sessionConfig   SessionConfig

	healthChecks map[string]HealthChecker
	startedAt    time.Time
}

// SessionConfig holds session cookie configuration
type SessionConfig struct {
	CookieName     string
	CookieDomain   string
	CookiePath     string
	CookieSecure   bool
	CookieHTTPOnly bool
	CookieSameSite http.SameSite
	MaxAge         time.Duration
}

// ParseSameSite maps a configuration value to http.SameSite. Unknown values
// fall back to Lax.
func ParseSameSite(s string) http.SameSite {
	switch strings.ToLower(s) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// NewHandler creates a new HTTP handler
func NewHandler(svc Services, sessionConfig SessionConfig) *Handler {
	auditLogger := svc.Audit
	if auditLogger == nil {
		auditLogger = audit.Nop{}
	}
	return &Handler{
		identityService: svc.Identity,
		sessions:        svc.Sessions,
		tenantService:   svc.Tenants,
		datasetService:  svc.Datasets,
		jobService:      svc.Jobs,
		apiKeyService:   svc.APIKeys,
		guard:           svc.Guard,
		auditLogger:     auditLogger,
		metrics:         svc.Metrics,
		sessionConfig:   sessionConfig,
		healthChecks:    make(map[string]HealthChecker),
		startedAt:       time.Now(),
	}
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.sessionConfig.CookieName,
		Value:    sessionID,
		Path:     h.sessionConfig.CookiePath,
		Domain:   h.sessionConfig.CookieDomain,
		Secure:   h.sessionConfig.CookieSecure,
		HttpOnly: h.sessionConfig.CookieHTTPOnly,
		SameSite: h.sessionConfig.CookieSameSite,
		MaxAge:   int(h.sessionConfig.MaxAge.Seconds()),
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.sessionConfig.CookieName,
		Value:    "",
		Path:     h.sessionConfig.CookiePath,
		Domain:   h.sessionConfig.CookieDomain,
		Secure:   h.sessionConfig.CookieSecure,
		HttpOnly: h.sessionConfig.CookieHTTPOnly,
		SameSite: h.sessionConfig.CookieSameSite,
		MaxAge:   -1,
	})
}

func (h *Handler) getSessionFromCookie(r *http.Request) string {
	cookie, err := r.Cookie(h.sessionConfig.CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", logger.Error(err))
	}
}

func respondMessage(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusOK, map[string]string{"message": message})
}

// decodeBody decodes a body that Validate has already accepted.
func decodeBody(r *http.Request, dst any) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return validation.NewError("body", "is malformed")
	}
	return nil
}
