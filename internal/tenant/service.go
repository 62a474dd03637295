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
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/datagov/datagov/internal/audit"
	"github.com/datagov/datagov/internal/authz"
	"github.com/datagov/datagov/internal/id"
	"github.com/datagov/datagov/internal/identity"
	"github.com/datagov/datagov/internal/validation"
)

// UserDirectory finds registered users by email.
type UserDirectory interface {
	FindByEmail(ctx context.Context, email string) (*identity.User, error)
}

// Service provides tenant management business logic
type Service struct {
	repo        Repository
	members     MembershipRepository
	invitations InvitationRepository
	users       UserDirectory
	auditLogger audit.Logger
	now         func() time.Time
}

// NewService creates a new tenant service
func NewService(
	repo Repository,
	members MembershipRepository,
	invitations InvitationRepository,
	users UserDirectory,
	auditLogger audit.Logger,
) *Service {
	return &Service{
		repo:        repo,
		members:     members,
		invitations: invitations,
		users:       users,
		auditLogger: auditLogger,
		now:         time.Now,
	}
}

// CreateTenant creates a tenant and makes ownerID its owner.
func (s *Service) CreateTenant(ctx context.Context, name string, description *string, ownerID string) (*Tenant, error) {
	if err := validation.Blank("name", name); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)

	now := s.now().UTC()
	t := &Tenant{
		ID:          id.NewUUIDv7(),
		Name:        name,
		Slug:        Slugify(name),
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	owner := &Membership{
		ID:        id.NewUUIDv7(),
		TenantID:  t.ID,
		UserID:    ownerID,
		Role:      authz.RoleOwner,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.CreateWithOwner(ctx, t, owner); err != nil {
		return nil, fmt.Errorf("failed to create tenant: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeTenantCreated,
		TenantID: t.ID,
		ActorID:  ownerID,
		Resource: "tenant",
		Metadata: map[string]any{audit.AttrName: t.Name},
	})

	return t, nil
}

// CheckName reports whether name can be given to a new tenant: it must not be
// blank and its slug must be free. A concurrent create can still take the slug,
// in which case CreateTenant fails with a unique violation.
func (s *Service) CheckName(ctx context.Context, name string) error {
	if err := validation.Blank("name", name); err != nil {
		return err
	}
	taken, err := s.repo.SlugExists(ctx, Slugify(strings.TrimSpace(name)))
	if err != nil {
		return fmt.Errorf("failed to check slug: %w", err)
	}
	if taken {
		return ErrSlugTaken
	}
	return nil
}

// ListTenants lists the tenants userID belongs to with the role held in each.
func (s *Service) ListTenants(ctx context.Context, userID string) ([]*WithRole, error) {
	return s.repo.ListForUser(ctx, userID)
}

// GetTenant retrieves a tenant by ID
func (s *Service) GetTenant(ctx context.Context, tenantID string) (*Tenant, error) {
	return s.repo.GetByID(ctx, tenantID)
}

// UpdateTenant renames or re-describes a tenant. A new name regenerates the slug.
func (s *Service) UpdateTenant(ctx context.Context, tenantID, actorID string, name, description *string) (*Tenant, error) {
	upd := Update{Description: description}
	if name != nil {
		if err := validation.Blank("name", *name); err != nil {
			return nil, err
		}
		trimmed := strings.TrimSpace(*name)
		slug := Slugify(trimmed)
		upd.Name = &trimmed
		upd.Slug = &slug
	}

	if upd.IsEmpty() {
		return s.repo.GetByID(ctx, tenantID)
	}

	t, err := s.repo.Update(ctx, tenantID, upd)
	if err != nil {
		return nil, err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeTenantUpdated,
		TenantID: tenantID,
		ActorID:  actorID,
		Resource: "tenant",
	})

	return t, nil
}

// DeleteTenant deletes a tenant and everything scoped to it.
func (s *Service) DeleteTenant(ctx context.Context, tenantID, actorID string) error {
	if err := s.repo.Delete(ctx, tenantID); err != nil {
		return err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeTenantDeleted,
		TenantID: tenantID,
		ActorID:  actorID,
		Resource: "tenant",
	})
	return nil
}

// MemberRole implements authz.MembershipLookup. Malformed tenant ids cannot
// match a membership and are reported the same way.
func (s *Service) MemberRole(ctx context.Context, tenantID, userID string) (authz.Role, error) {
	if !id.IsUUID(tenantID) {
		return "", authz.ErrNoMembership
	}

	m, err := s.members.Get(ctx, tenantID, userID)
	if err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			return "", authz.ErrNoMembership
		}
		return "", err
	}
	return m.Role, nil
}
