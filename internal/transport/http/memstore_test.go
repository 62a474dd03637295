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
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/datagov/datagov/internal/apikey"
	"github.com/datagov/datagov/internal/authz"
	"github.com/datagov/datagov/internal/dataset"
	"github.com/datagov/datagov/internal/identity"
	"github.com/datagov/datagov/internal/job"
	"github.com/datagov/datagov/internal/jsonvalue"
	"github.com/datagov/datagov/internal/session"
	"github.com/datagov/datagov/internal/tenant"
)

// memStore is an in-memory stand-in for the Postgres store. It keeps the
// same scoping and constraint behavior: tenant scoped lookups, unique
// violations as SQLSTATE 23505 and cascades on tenant deletion.
type memStore struct {
	mu          sync.Mutex
	users       map[string]*identity.User
	sessions    map[string]*session.Session
	tenants     map[string]*tenant.Tenant
	members     map[string]*tenant.Membership
	invitations map[string]*tenant.Invitation
	datasets    map[string]*dataset.Dataset
	jobs        map[string]*job.Job
	runs        map[string]*job.Run
	keys        map[string]*apikey.APIKey
}

func newMemStore() *memStore {
	return &memStore{
		users:       map[string]*identity.User{},
		sessions:    map[string]*session.Session{},
		tenants:     map[string]*tenant.Tenant{},
		members:     map[string]*tenant.Membership{},
		invitations: map[string]*tenant.Invitation{},
		datasets:    map[string]*dataset.Dataset{},
		jobs:        map[string]*job.Job{},
		runs:        map[string]*job.Run{},
		keys:        map[string]*apikey.APIKey{},
	}
}

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint, Message: "duplicate key value"}
}

func memberKey(tenantID, userID string) string { return tenantID + "/" + userID }

func (s *memStore) creator(userID string) *identity.Summary {
	u, ok := s.users[userID]
	if !ok {
		return nil
	}
	sum := u.Summary()
	return &sum
}

// Users

type memUsers struct{ *memStore }

func (r memUsers) Create(_ context.Context, u *identity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return identity.ErrUserAlreadyExists
		}
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r memUsers) GetByID(_ context.Context, id string) (*identity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, identity.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*identity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, identity.ErrUserNotFound
}

// Sessions

type memSessions struct{ *memStore }

func (r memSessions) Create(_ context.Context, sess *session.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *sess
	r.sessions[sess.ID] = &cp
	return nil
}

func (r memSessions) Get(_ context.Context, id string) (*session.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[id]
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	cp := *sess
	return &cp, nil
}

func (r memSessions) Touch(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sess, ok := r.sessions[id]; ok {
		sess.LastSeenAt = at
	}
	return nil
}

func (r memSessions) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return session.ErrSessionNotFound
	}
	delete(r.sessions, id)
	return nil
}

func (r memSessions) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, sess := range r.sessions {
		if sess.IsExpired(now) {
			delete(r.sessions, id)
			n++
		}
	}
	return n, nil
}

// Tenants

type memTenants struct{ *memStore }

func (r memTenants) slugTaken(slug, exceptID string) bool {
	for _, t := range r.tenants {
		if t.Slug == slug && t.ID != exceptID {
			return true
		}
	}
	return false
}

func (r memTenants) CreateWithOwner(_ context.Context, t *tenant.Tenant, owner *tenant.Membership) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.slugTaken(t.Slug, "") {
		return uniqueViolation("tenants_slug_key")
	}
	tc, mc := *t, *owner
	r.tenants[t.ID] = &tc
	r.members[memberKey(t.ID, owner.UserID)] = &mc
	return nil
}

func (r memTenants) GetByID(_ context.Context, id string) (*tenant.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tenants[id]
	if !ok {
		return nil, tenant.ErrTenantNotFound
	}
	cp := *t
	return &cp, nil
}

func (r memTenants) SlugExists(_ context.Context, slug string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.slugTaken(slug, ""), nil
}

func (r memTenants) ListForUser(_ context.Context, userID string) ([]*tenant.WithRole, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*tenant.WithRole{}
	for _, m := range r.members {
		if m.UserID != userID {
			continue
		}
		if t, ok := r.tenants[m.TenantID]; ok {
			out = append(out, &tenant.WithRole{Tenant: *t, Role: m.Role})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memTenants) Update(_ context.Context, id string, upd tenant.Update) (*tenant.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tenants[id]
	if !ok {
		return nil, tenant.ErrTenantNotFound
	}
	if upd.Slug != nil && r.slugTaken(*upd.Slug, id) {
		return nil, uniqueViolation("tenants_slug_key")
	}
	if upd.Name != nil {
		t.Name = *upd.Name
	}
	if upd.Slug != nil {
		t.Slug = *upd.Slug
	}
	if upd.Description != nil {
		t.Description = upd.Description
	}
	t.UpdatedAt = time.Now().UTC()
	cp := *t
	return &cp, nil
}

func (r memTenants) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tenants[id]; !ok {
		return tenant.ErrTenantNotFound
	}
	delete(r.tenants, id)
	for k, m := range r.members {
		if m.TenantID == id {
			delete(r.members, k)
		}
	}
	for k, inv := range r.invitations {
		if inv.TenantID == id {
			delete(r.invitations, k)
		}
	}
	for k, d := range r.datasets {
		if d.TenantID == id {
			delete(r.datasets, k)
		}
	}
	for k, j := range r.jobs {
		if j.TenantID != id {
			continue
		}
		delete(r.jobs, k)
		for rk, run := range r.runs {
			if run.JobID == k {
				delete(r.runs, rk)
			}
		}
	}
	for k, key := range r.keys {
		if key.TenantID == id {
			delete(r.keys, k)
		}
	}
	return nil
}

// Memberships

type memMembers struct{ *memStore }

func (r memMembers) Get(_ context.Context, tenantID, userID string) (*tenant.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[memberKey(tenantID, userID)]
	if !ok {
		return nil, tenant.ErrMemberNotFound
	}
	cp := *m
	return &cp, nil
}

func (r memMembers) Create(_ context.Context, m *tenant.Membership) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := memberKey(m.TenantID, m.UserID)
	if _, ok := r.members[k]; ok {
		return tenant.ErrAlreadyMember
	}
	cp := *m
	r.members[k] = &cp
	return nil
}

func (r memMembers) List(_ context.Context, tenantID string) ([]*tenant.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*tenant.Member{}
	for _, m := range r.members {
		if m.TenantID != tenantID {
			continue
		}
		u := r.users[m.UserID]
		out = append(out, &tenant.Member{
			ID:        m.ID,
			Role:      m.Role,
			User:      tenant.MemberUser{ID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt},
			CreatedAt: m.CreatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memMembers) owners(tenantID string) int {
	n := 0
	for _, m := range r.members {
		if m.TenantID == tenantID && m.Role == authz.RoleOwner {
			n++
		}
	}
	return n
}

func (r memMembers) UpdateRole(_ context.Context, tenantID, userID string, role authz.Role) (*tenant.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[memberKey(tenantID, userID)]
	if !ok {
		return nil, tenant.ErrMemberNotFound
	}
	if m.Role == authz.RoleOwner && role != authz.RoleOwner && r.owners(tenantID) <= 1 {
		return nil, tenant.ErrLastOwner
	}
	m.Role = role
	m.UpdatedAt = time.Now().UTC()
	cp := *m
	return &cp, nil
}

func (r memMembers) Delete(_ context.Context, tenantID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := memberKey(tenantID, userID)
	if _, ok := r.members[k]; !ok {
		return tenant.ErrMemberNotFound
	}
	delete(r.members, k)
	return nil
}

func (r memMembers) CountOwners(_ context.Context, tenantID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.owners(tenantID), nil
}

// Invitations

type memInvitations struct{ *memStore }

func (r memInvitations) Create(_ context.Context, inv *tenant.Invitation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.invitations {
		if existing.Token == inv.Token {
			return uniqueViolation("invitations_token_key")
		}
	}
	cp := *inv
	r.invitations[inv.ID] = &cp
	return nil
}

func (r memInvitations) GetByToken(_ context.Context, token string) (*tenant.Invitation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inv := range r.invitations {
		if inv.Token == token {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, tenant.ErrInvitationNotFound
}

func (r memInvitations) ListByTenant(_ context.Context, tenantID string) ([]*tenant.Invitation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	out := []*tenant.Invitation{}
	for _, inv := range r.invitations {
		if inv.TenantID == tenantID && !inv.IsExpired(now) {
			cp := *inv
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r memInvitations) Accept(_ context.Context, invitationID string, m *tenant.Membership) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.invitations[invitationID]; !ok {
		return tenant.ErrInvitationNotFound
	}
	k := memberKey(m.TenantID, m.UserID)
	if _, ok := r.members[k]; ok {
		return uniqueViolation("tenant_members_tenant_id_user_id_key")
	}
	delete(r.invitations, invitationID)
	cp := *m
	r.members[k] = &cp
	return nil
}

// Datasets

type memDatasets struct{ *memStore }

func (r memDatasets) Create(_ context.Context, d *dataset.Dataset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *d
	r.datasets[d.ID] = &cp
	return nil
}

func (r memDatasets) List(_ context.Context, tenantID string) ([]*dataset.Dataset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*dataset.Dataset{}
	for _, d := range r.datasets {
		if d.TenantID == tenantID {
			cp := *d
			cp.Creator = r.creator(d.CreatedBy)
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memDatasets) get(tenantID, id string) (*dataset.Dataset, bool) {
	d, ok := r.datasets[id]
	if !ok || d.TenantID != tenantID {
		return nil, false
	}
	return d, true
}

func (r memDatasets) Get(_ context.Context, tenantID, id string) (*dataset.Dataset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.get(tenantID, id)
	if !ok {
		return nil, dataset.ErrDatasetNotFound
	}
	cp := *d
	cp.Creator = r.creator(d.CreatedBy)
	return &cp, nil
}

func (r memDatasets) Update(_ context.Context, tenantID, id string, p dataset.UpdateParams) (*dataset.Dataset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.get(tenantID, id)
	if !ok {
		return nil, dataset.ErrDatasetNotFound
	}
	if p.Name != nil {
		d.Name = *p.Name
	}
	if p.Description != nil {
		d.Description = p.Description
	}
	if p.Status != nil {
		d.Status = *p.Status
	}
	if p.Schema.Present() {
		d.Schema = p.Schema
	}
	if p.Metadata.Present() {
		d.Metadata = p.Metadata
	}
	d.UpdatedAt = time.Now().UTC()
	cp := *d
	cp.Creator = r.creator(d.CreatedBy)
	return &cp, nil
}

func (r memDatasets) Delete(_ context.Context, tenantID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.get(tenantID, id); !ok {
		return dataset.ErrDatasetNotFound
	}
	delete(r.datasets, id)
	return nil
}

// Jobs and runs

type memJobs struct{ *memStore }

func (r memJobs) Create(_ context.Context, j *job.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *j
	r.jobs[j.ID] = &cp
	return nil
}

func (r memJobs) List(_ context.Context, tenantID string) ([]*job.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*job.Job{}
	for _, j := range r.jobs {
		if j.TenantID == tenantID {
			cp := *j
			cp.Creator = r.creator(j.CreatedBy)
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID > out[k].ID })
	return out, nil
}

func (r memJobs) get(tenantID, id string) (*job.Job, bool) {
	j, ok := r.jobs[id]
	if !ok || j.TenantID != tenantID {
		return nil, false
	}
	return j, true
}

func (r memJobs) Get(_ context.Context, tenantID, id string) (*job.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.get(tenantID, id)
	if !ok {
		return nil, job.ErrJobNotFound
	}
	cp := *j
	cp.Creator = r.creator(j.CreatedBy)
	return &cp, nil
}

func (r memJobs) Update(_ context.Context, tenantID, id string, p job.UpdateParams) (*job.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.get(tenantID, id)
	if !ok {
		return nil, job.ErrJobNotFound
	}
	if p.Name != nil {
		j.Name = *p.Name
	}
	if p.Description != nil {
		j.Description = p.Description
	}
	if p.Type != nil {
		j.Type = *p.Type
	}
	if p.Config.Present() {
		j.Config = p.Config
	}
	if p.Schedule != nil {
		j.Schedule = p.Schedule
	}
	if p.IsActive != nil {
		j.IsActive = *p.IsActive
	}
	j.UpdatedAt = time.Now().UTC()
	cp := *j
	cp.Creator = r.creator(j.CreatedBy)
	return &cp, nil
}

func (r memJobs) Delete(_ context.Context, tenantID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.get(tenantID, id); !ok {
		return job.ErrJobNotFound
	}
	delete(r.jobs, id)
	for k, run := range r.runs {
		if run.JobID == id {
			delete(r.runs, k)
		}
	}
	return nil
}

func (r memJobs) CreateRun(_ context.Context, run *job.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *run
	r.runs[run.ID] = &cp
	return nil
}

func (r memJobs) ListRuns(_ context.Context, jobID string) ([]*job.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*job.Run{}
	for _, run := range r.runs {
		if run.JobID == jobID {
			cp := *run
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID > out[k].ID })
	return out, nil
}

func (r memJobs) finish(runID string, status job.RunStatus, at time.Time, msg *string, result jsonvalue.Value) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[runID]
	if !ok || (run.Status != job.RunPending && run.Status != job.RunRunning) {
		return job.ErrRunNotFound
	}
	run.Status = status
	run.CompletedAt = &at
	run.Error = msg
	run.Result = result
	return nil
}

func (r memJobs) CompleteRun(_ context.Context, runID string, at time.Time, result jsonvalue.Value) error {
	return r.finish(runID, job.RunCompleted, at, nil, result)
}

func (r memJobs) FailRun(_ context.Context, runID string, at time.Time, message string) error {
	return r.finish(runID, job.RunFailed, at, &message, jsonvalue.Value{})
}

// API keys

type memAPIKeys struct{ *memStore }

func (r memAPIKeys) Create(_ context.Context, k *apikey.APIKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.keys {
		if existing.KeyHash == k.KeyHash {
			return uniqueViolation("api_keys_key_hash_key")
		}
	}
	cp := *k
	r.keys[k.ID] = &cp
	return nil
}

func (r memAPIKeys) List(_ context.Context, tenantID string) ([]*apikey.APIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*apikey.APIKey{}
	for _, k := range r.keys {
		if k.TenantID == tenantID {
			cp := *k
			cp.MaskedKey = ""
			cp.Creator = r.creator(k.CreatedBy)
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memAPIKeys) Delete(_ context.Context, tenantID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k, ok := r.keys[id]
	if !ok || k.TenantID != tenantID {
		return apikey.ErrAPIKeyNotFound
	}
	delete(r.keys, id)
	return nil
}
