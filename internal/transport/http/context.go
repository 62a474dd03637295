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

	"github.com/datagov/datagov/internal/authz"
	"github.com/datagov/datagov/internal/session"
)

type contextKey string

const (
	principalKey contextKey = "principal"
	tenantIDKey  contextKey = "tenant_id"
	roleKey      contextKey = "tenant_role"
)

func withPrincipal(ctx context.Context, p *session.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func withTenant(ctx context.Context, tenantID string, role authz.Role) context.Context {
	ctx = context.WithValue(ctx, tenantIDKey, tenantID)
	return context.WithValue(ctx, roleKey, role)
}

// PrincipalFrom returns the authenticated principal, or nil.
func PrincipalFrom(ctx context.Context) *session.Principal {
	p, _ := ctx.Value(principalKey).(*session.Principal)
	return p
}

// UserIDFrom returns the authenticated user id, or "".
func UserIDFrom(ctx context.Context) string {
	if p := PrincipalFrom(ctx); p != nil {
		return p.UserID
	}
	return ""
}

// TenantIDFrom returns the tenant id approved by the access guard.
func TenantIDFrom(ctx context.Context) string {
	if val, ok := ctx.Value(tenantIDKey).(string); ok {
		return val
	}
	return ""
}

// RoleFrom returns the caller's role in the tenant approved by the access guard.
func RoleFrom(ctx context.Context) authz.Role {
	if val, ok := ctx.Value(roleKey).(authz.Role); ok {
		return val
	}
	return ""
}
