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

package tenant

import (
	"context"

	"github.com/datagov/datagov/internal/authz"
)

// Update lists tenant columns to change. Nil fields are left untouched.
type Update struct {
	Name        *string
	Slug        *string
	Description *string
}

// IsEmpty reports whether the update changes nothing.
func (u Update) IsEmpty() bool {
	return u.Name == nil && u.Slug == nil && u.Description == nil
}

// Repository defines the interface for tenant storage
type Repository interface {
	// CreateWithOwner stores the tenant and its first owner membership atomically.
	CreateWithOwner(ctx context.Context, tenant *Tenant, owner *Membership) error
	GetByID(ctx context.Context, id string) (*Tenant, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	// ListForUser returns the tenants userID belongs to, newest first.
	ListForUser(ctx context.Context, userID string) ([]*WithRole, error)
	Update(ctx context.Context, id string, upd Update) (*Tenant, error)
	// Delete removes the tenant and, by cascade, everything it owns.
	Delete(ctx context.Context, id string) error
}

// MembershipRepository defines the interface for membership storage
type MembershipRepository interface {
	Get(ctx context.Context, tenantID, userID string) (*Membership, error)
	Create(ctx context.Context, m *Membership) error
	List(ctx context.Context, tenantID string) ([]*Member, error)
	// UpdateRole changes a role. Implementations must refuse, with
	// ErrLastOwner, to demote the only remaining owner.
	UpdateRole(ctx context.Context, tenantID, userID string, role authz.Role) (*Membership, error)
	Delete(ctx context.Context, tenantID, userID string) error
	CountOwners(ctx context.Context, tenantID string) (int, error)
}

// InvitationRepository defines the interface for invitation storage
type InvitationRepository interface {
	Create(ctx context.Context, inv *Invitation) error
	GetByToken(ctx context.Context, token string) (*Invitation, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*Invitation, error)
	// Accept inserts the membership and deletes the invitation atomically.
	Accept(ctx context.Context, invitationID string, m *Membership) error
}
