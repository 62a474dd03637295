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
	"compress/gzip"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealth_Liveness(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(nil, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decodeJSON[map[string]any](t, rec)
	assert.Equal(t, "healthy", body["status"])
	_, err := time.Parse(time.RFC3339, body["timestamp"].(string))
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, body["uptime"].(float64), 0.0)
}

// TestPurpose: Validates that readiness reflects every registered dependency.
// Scope: Unit Test
// Security: N/A
// Expected: 200 ready when all pings succeed; 503 unavailable when any fails, without leaking the cause.
// Test Case ID: HLT-01
func TestHealth_Readiness(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(nil, http.MethodGet, "/api/health/ready", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready","checks":{"postgres":"not configured","redis":"not configured"}}`, rec.Body.String())

	api.handler.AddHealthCheck("postgres", pingFunc(func(context.Context) error { return nil }))
	api.handler.AddHealthCheck("redis", pingFunc(func(context.Context) error {
		return errors.New("dial tcp 10.0.0.7:6379: connection refused")
	}))

	rec = api.do(nil, http.MethodGet, "/api/health/ready", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"unavailable","checks":{"postgres":"ok","redis":"error"}}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "10.0.0.7")
}

// TestPurpose: Validates per client rate limiting.
// Scope: Unit Test
// Security: Resource Exhaustion (CWE-770)
// Expected: Requests past the burst get 429 with Retry-After; other clients are unaffected.
// Test Case ID: RL-01
func TestRateLimit_TooManyRequests(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	t.Cleanup(rl.Stop)
	api := newTestAPIWithConfig(t, RouterConfig{RateLimiter: rl})

	for i := 0; i < 2; i++ {
		rec := api.do(nil, http.MethodGet, "/api/health", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := api.do(nil, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Equal(t, "too many requests", errorMessage(t, rec))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.RemoteAddr = "198.51.100.20:4000"
	other := httptest.NewRecorder()
	api.router.ServeHTTP(other, req)
	assert.Equal(t, http.StatusOK, other.Code)
}

func TestRateLimiter_EvictIdle(t *testing.T) {
	rl := NewRateLimiter(10, 10)
	t.Cleanup(rl.Stop)

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	first := rl.GetLimiter("203.0.113.1")
	assert.Same(t, first, rl.GetLimiter("203.0.113.1"))

	now = now.Add(rl.idleTTL + time.Second)
	rl.evictIdle()
	assert.NotSame(t, first, rl.GetLimiter("203.0.113.1"))
}

// TestPurpose: Validates that panics become a generic 500 response.
// Scope: Unit Test
// Security: Information Disclosure (CWE-209)
// Expected: 500 internal server error; the panic value and stack stay in the logs.
// Test Case ID: SEC-01
func TestRecoverer_Panic(t *testing.T) {
	api := newTestAPI(t)
	mux := NewRouter(api.handler, RouterConfig{})
	mux.Get("/boom", func(http.ResponseWriter, *http.Request) {
		panic("secret connection string postgres://admin:hunter2@db")
	})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "hunter2")
}

func TestRecoverer_AbortHandlerPropagates(t *testing.T) {
	h := Recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

// TestPurpose: Validates the request body size limit for declared and streamed bodies.
// Scope: Unit Test
// Security: Resource Exhaustion (CWE-400)
// Expected: 413 request body too large in both cases.
// Test Case ID: SEC-03
func TestMaxBodySize(t *testing.T) {
	api := newTestAPIWithConfig(t, RouterConfig{MaxBodyBytes: 64})
	big := `{"email":"a@example.com","password":"` + strings.Repeat("x", 128) + `"}`

	rec := api.do(nil, http.MethodPost, "/api/auth/register", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "request body too large", errorMessage(t, rec))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", io.MultiReader(strings.NewReader(big)))
	req.Header.Set("Content-Type", "application/json")
	require.EqualValues(t, -1, req.ContentLength)
	streamed := httptest.NewRecorder()
	api.router.ServeHTTP(streamed, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, streamed.Code)

	rec = api.do(nil, http.MethodPost, "/api/auth/login", `{"email":"a@example.com","password":"p"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "small bodies pass through")
}

func TestSecurityHeaders(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(nil, http.MethodGet, "/api/health", nil)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))

	prod := newTestAPIWithConfig(t, RouterConfig{Production: true})
	rec = prod.do(nil, http.MethodGet, "/api/health", nil)
	assert.Contains(t, rec.Header().Get("Strict-Transport-Security"), "max-age=")
}

// TestPurpose: Validates credentialed CORS for configured origins only.
// Scope: Unit Test
// Security: CORS Misconfiguration (CWE-942)
// Expected: Allowed origins are echoed with credentials; others get no CORS headers and failing preflights.
// Test Case ID: SEC-04
func TestCORS(t *testing.T) {
	api := newTestAPIWithConfig(t, RouterConfig{AllowedOrigins: []string{"https://app.example.com"}})

	preflight := func(origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		api.router.ServeHTTP(rec, req)
		return rec
	}

	rec := preflight("https://app.example.com")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPatch)

	rec = preflight("https://evil.example.com")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	simple := httptest.NewRecorder()
	api.router.ServeHTTP(simple, req)
	assert.Equal(t, http.StatusOK, simple.Code)
	assert.Empty(t, simple.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_JSONFallbacks(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(nil, http.MethodGet, "/api/nothing-here", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	rec = api.do(nil, http.MethodPut, "/api/health", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestAuthenticate_StaleCookieCleared(t *testing.T) {
	api := newTestAPI(t)
	stale := &http.Cookie{Name: testCookieName, Value: "does-not-exist"}

	rec := api.do(stale, http.MethodGet, "/api/auth/user", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	cleared := sessionCookie(t, rec)
	assert.Empty(t, cleared.Value)

	rec = api.do(stale, http.MethodPost, "/api/auth/login", map[string]any{"email": "x@example.com", "password": "p"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "anonymous routes still run")
	assert.Equal(t, "invalid email or password", errorMessage(t, rec))
}

func TestRequestID_Propagated(t *testing.T) {
	api := newTestAPI(t)

	var seen string
	mux := NewRouter(api.handler, RouterConfig{})
	mux.Get("/echo", func(_ http.ResponseWriter, r *http.Request) {
		seen = middleware.GetReqID(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/echo", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-123")
	mux.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "req-123", seen)
}

// TestPurpose: Validates that JSON responses are gzip compressed when the client accepts it.
// Scope: Unit Test
// Expected: Content-Encoding gzip with a decodable body; plain JSON without Accept-Encoding.
// Test Case ID: HTTP-05
func TestCompress(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
	zr, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	plain, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Contains(t, string(plain), `"status":"healthy"`)

	rec = api.do(nil, http.MethodGet, "/api/health", nil)
	assert.Empty(t, rec.Header().Get("Content-Encoding"))
}
