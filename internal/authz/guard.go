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

// Package authz decides whether an authenticated user may perform an
// operation inside a tenant.
package authz

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrUnauthenticated is returned when no user is bound to the request.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrTenantRequired is returned when the request path carries no tenant id.
	ErrTenantRequired = errors.New("tenant id is required")
	// ErrAccessDenied is returned when the user holds no membership in the tenant.
	ErrAccessDenied = errors.New("access denied to this workspace")
	// ErrInsufficientPermissions is returned when the membership role is not accepted.
	ErrInsufficientPermissions = errors.New("insufficient permissions")
	// ErrNoMembership is returned by a MembershipLookup when no row matches.
	ErrNoMembership = errors.New("membership not found")
)

// MembershipLookup resolves the role a user holds in a tenant.
type MembershipLookup interface {
	MemberRole(ctx context.Context, tenantID, userID string) (Role, error)
}

// Guard enforces tenant membership and the route role table.
type Guard struct {
	memberships MembershipLookup
}

// NewGuard creates a guard backed by the given membership lookup.
func NewGuard(memberships MembershipLookup) *Guard {
	return &Guard{memberships: memberships}
}

// Authorize checks, in order: a user is present, a tenant id is present, the
// user is a member of the tenant, and the member's role is in accepted. It
// returns the resolved role so callers need no second lookup.
func (g *Guard) Authorize(ctx context.Context, userID, tenantID string, accepted []Role) (Role, error) {
	if userID == "" {
		return "", ErrUnauthenticated
	}
	if tenantID == "" {
		return "", ErrTenantRequired
	}

	role, err := g.memberships.MemberRole(ctx, tenantID, userID)
	if err != nil {
		if errors.Is(err, ErrNoMembership) {
			return "", ErrAccessDenied
		}
		return "", fmt.Errorf("failed to resolve membership: %w", err)
	}

	if !slices.Contains(accepted, role) {
		return role, ErrInsufficientPermissions
	}
	return role, nil
}

// Check authorizes against the role set registered for perm.
func (g *Guard) Check(ctx context.Context, userID, tenantID string, perm Permission) (Role, error) {
	return g.Authorize(ctx, userID, tenantID, RolesFor(perm))
}
