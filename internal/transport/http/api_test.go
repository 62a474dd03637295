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
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/datagov/datagov/internal/apikey"
	"github.com/datagov/datagov/internal/audit"
	"github.com/datagov/datagov/internal/authz"
	"github.com/datagov/datagov/internal/dataset"
	"github.com/datagov/datagov/internal/identity"
	"github.com/datagov/datagov/internal/job"
	"github.com/datagov/datagov/internal/session"
	"github.com/datagov/datagov/internal/tenant"
)

const (
	testCookieName = "datagov_session"
	testPassword   = "password123"
	runDelay       = 20 * time.Millisecond
)

type testAPI struct {
	t       *testing.T
	store   *memStore
	handler *Handler
	router  http.Handler
}

func testSessionConfig() SessionConfig {
	return SessionConfig{
		CookieName:     testCookieName,
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSameSite: http.SameSiteLaxMode,
		MaxAge:         24 * time.Hour,
	}
}

// newTestAPI wires the real services and router to an in-memory store.
func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	return newTestAPIWithConfig(t, RouterConfig{RequestTimeout: 5 * time.Second, MaxBodyBytes: 1 << 20})
}

func newTestAPIWithConfig(t *testing.T, cfg RouterConfig) *testAPI {
	t.Helper()

	store := newMemStore()
	hasher := identity.NewPasswordHasher(1024, 1, 1, 16, 32)
	identitySvc := identity.NewService(memUsers{store}, hasher, audit.Nop{})
	sessions := session.NewService(memSessions{store}, identitySvc, 24*time.Hour, 0)
	tenants := tenant.NewService(memTenants{store}, memMembers{store}, memInvitations{store}, identitySvc, audit.Nop{})

	runner := job.NewRunner(memJobs{store}, runDelay, 16)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = runner.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-runner.Done()
	})

	h := NewHandler(Services{
		Identity: identitySvc,
		Sessions: sessions,
		Tenants:  tenants,
		Datasets: dataset.NewService(memDatasets{store}, audit.Nop{}),
		Jobs:     job.NewService(memJobs{store}, memJobs{store}, runner, audit.Nop{}),
		APIKeys:  apikey.NewService(memAPIKeys{store}, audit.Nop{}, nil),
		Guard:    authz.NewGuard(tenants),
	}, testSessionConfig())

	return &testAPI{t: t, store: store, handler: h, router: NewRouter(h, cfg)}
}

func (a *testAPI) do(cookie *http.Cookie, method, path string, body any) *httptest.ResponseRecorder {
	a.t.Helper()

	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(a.t, err)
		rdr = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, rdr)
	if rdr != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == testCookieName {
			return c
		}
	}
	t.Fatalf("response carries no %s cookie", testCookieName)
	return nil
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeJSON[errorResponse](t, rec).Error
}

type account struct {
	id     string
	email  string
	cookie *http.Cookie
}

type userEnvelope struct {
	User identity.Summary `json:"user"`
}

func (a *testAPI) register(email, workspace string) account {
	a.t.Helper()
	body := map[string]any{"email": email, "password": testPassword}
	if workspace != "" {
		body["workspaceName"] = workspace
	}

	rec := a.do(nil, http.MethodPost, "/api/auth/register", body)
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeJSON[userEnvelope](a.t, rec)
	return account{id: resp.User.ID, email: resp.User.Email, cookie: sessionCookie(a.t, rec)}
}

func (a *testAPI) tenants(acct account) []tenant.WithRole {
	a.t.Helper()
	rec := a.do(acct.cookie, http.MethodGet, "/api/tenants", nil)
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeJSON[struct {
		Tenants []tenant.WithRole `json:"tenants"`
	}](a.t, rec).Tenants
}

func (a *testAPI) createTenant(acct account, name string) string {
	a.t.Helper()
	rec := a.do(acct.cookie, http.MethodPost, "/api/tenants", map[string]any{"name": name})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeJSON[struct {
		Tenant tenant.Tenant `json:"tenant"`
	}](a.t, rec).Tenant.ID
}

func (a *testAPI) invite(acct account, tenantID, email string, role authz.Role) *httptest.ResponseRecorder {
	a.t.Helper()
	return a.do(acct.cookie, http.MethodPost, "/api/tenants/"+tenantID+"/members/invite",
		map[string]any{"email": email, "role": string(role)})
}

func (a *testAPI) createDataset(acct account, tenantID, name string) string {
	a.t.Helper()
	rec := a.do(acct.cookie, http.MethodPost, "/api/tenants/"+tenantID+"/datasets", map[string]any{"name": name})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeJSON[struct {
		Dataset dataset.Dataset `json:"dataset"`
	}](a.t, rec).Dataset.ID
}

func (a *testAPI) createJob(acct account, tenantID, name string) string {
	a.t.Helper()
	rec := a.do(acct.cookie, http.MethodPost, "/api/tenants/"+tenantID+"/jobs",
		map[string]any{"name": name, "type": "ingest"})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeJSON[struct {
		Job job.Job `json:"job"`
	}](a.t, rec).Job.ID
}

func (a *testAPI) createAPIKey(acct account, tenantID, name string) (id, key string) {
	a.t.Helper()
	rec := a.do(acct.cookie, http.MethodPost, "/api/tenants/"+tenantID+"/api-keys", map[string]any{"name": name})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decodeJSON[struct {
		APIKey struct {
			ID  string `json:"id"`
			Key string `json:"key"`
		} `json:"apiKey"`
	}](a.t, rec)
	return resp.APIKey.ID, resp.APIKey.Key
}

// world is a tenant with one account per role, a non-member and one
// resource of each kind.
type world struct {
	api      *testAPI
	tenantID string

	owner, admin, member, target, outsider account

	datasetID, jobID, apiKeyID string
}

func newWorld(t *testing.T) *world {
	t.Helper()
	api := newTestAPI(t)
	w := &world{api: api}

	w.owner = api.register("owner@acme.test", "Acme")
	tenants := api.tenants(w.owner)
	require.Len(t, tenants, 1)
	w.tenantID = tenants[0].ID

	w.admin = api.register("admin@acme.test", "")
	w.member = api.register("member@acme.test", "")
	w.target = api.register("target@acme.test", "")
	w.outsider = api.register("outsider@globex.test", "")

	for _, m := range []struct {
		acct account
		role authz.Role
	}{{w.admin, authz.RoleAdmin}, {w.member, authz.RoleMember}, {w.target, authz.RoleMember}} {
		rec := api.invite(w.owner, w.tenantID, m.acct.email, m.role)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	w.datasetID = api.createDataset(w.owner, w.tenantID, "customers")
	w.jobID = api.createJob(w.owner, w.tenantID, "nightly import")
	w.apiKeyID, _ = api.createAPIKey(w.owner, w.tenantID, "ci")
	return w
}

func (w *world) as(role authz.Role) account {
	switch role {
	case authz.RoleOwner:
		return w.owner
	case authz.RoleAdmin:
		return w.admin
	default:
		return w.member
	}
}

func (w *world) path(suffix string) string {
	return "/api/tenants/" + w.tenantID + suffix
}
