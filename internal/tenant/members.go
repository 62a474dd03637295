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

	"github.com/datagov/datagov/internal/audit"
	"github.com/datagov/datagov/internal/authz"
	"github.com/datagov/datagov/internal/id"
	"github.com/datagov/datagov/internal/identity"
)

// InviteResult reports how an invite was fulfilled: an existing user is added
// directly, anyone else receives an invitation.
type InviteResult struct {
	Member     *Membership
	Invitation *Invitation
}

// ListMembers lists the members of a tenant with their user details.
func (s *Service) ListMembers(ctx context.Context, tenantID string) ([]*Member, error) {
	return s.members.List(ctx, tenantID)
}

// InviteMember grants role to the owner of email.
func (s *Service) InviteMember(ctx context.Context, tenantID, actorID, email string, role authz.Role) (*InviteResult, error) {
	if role != authz.RoleAdmin && role != authz.RoleMember {
		return nil, ErrInvalidRole
	}
	email = identity.NormalizeEmail(email)
	now := s.now().UTC()

	user, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if _, err := s.members.Get(ctx, tenantID, user.ID); err == nil {
			return nil, ErrAlreadyMember
		} else if !errors.Is(err, ErrMemberNotFound) {
			return nil, fmt.Errorf("failed to check membership: %w", err)
		}

		m := &Membership{
			ID:        id.NewUUIDv7(),
			TenantID:  tenantID,
			UserID:    user.ID,
			Role:      role,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.members.Create(ctx, m); err != nil {
			return nil, fmt.Errorf("failed to add member: %w", err)
		}

		s.auditLogger.Log(ctx, audit.Event{
			Type:     audit.TypeMemberAdded,
			TenantID: tenantID,
			ActorID:  actorID,
			Resource: user.ID,
			Metadata: map[string]any{audit.AttrRole: string(role)},
		})
		return &InviteResult{Member: m}, nil

	case errors.Is(err, identity.ErrUserNotFound):
		token, err := id.RandomHex(32)
		if err != nil {
			return nil, err
		}
		inv := &Invitation{
			ID:        id.NewUUIDv7(),
			TenantID:  tenantID,
			Email:     email,
			Role:      role,
			Token:     token,
			ExpiresAt: now.Add(InvitationTTL),
			InvitedBy: actorID,
			CreatedAt: now,
		}
		if err := s.invitations.Create(ctx, inv); err != nil {
			return nil, fmt.Errorf("failed to create invitation: %w", err)
		}

		s.auditLogger.Log(ctx, audit.Event{
			Type:     audit.TypeMemberInvited,
			TenantID: tenantID,
			ActorID:  actorID,
			Resource: "invitation",
			Metadata: map[string]any{audit.AttrRole: string(role)},
		})
		return &InviteResult{Invitation: inv}, nil

	default:
		return nil, fmt.Errorf("failed to look up invitee: %w", err)
	}
}

// RemoveMember removes userID from the tenant. Owners cannot be removed.
func (s *Service) RemoveMember(ctx context.Context, tenantID, actorID, userID string) error {
	m, err := s.members.Get(ctx, tenantID, userID)
	if err != nil {
		return err
	}
	if m.Role == authz.RoleOwner {
		return ErrCannotRemoveOwner
	}

	if err := s.members.Delete(ctx, tenantID, userID); err != nil {
		return err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeMemberRemoved,
		TenantID: tenantID,
		ActorID:  actorID,
		Resource: userID,
	})
	return nil
}

// ChangeRole sets the role of userID. Demoting the last owner fails with
// ErrLastOwner.
func (s *Service) ChangeRole(ctx context.Context, tenantID, actorID, userID string, role authz.Role) (*Membership, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	current, err := s.members.Get(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}

	if current.Role == authz.RoleOwner && role != authz.RoleOwner {
		owners, err := s.members.CountOwners(ctx, tenantID)
		if err != nil {
			return nil, fmt.Errorf("failed to count owners: %w", err)
		}
		if owners <= 1 {
			return nil, ErrLastOwner
		}
	}

	m, err := s.members.UpdateRole(ctx, tenantID, userID, role)
	if err != nil {
		return nil, err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeRoleChanged,
		TenantID: tenantID,
		ActorID:  actorID,
		Resource: userID,
		Metadata: map[string]any{
			"from":         string(current.Role),
			audit.AttrRole: string(role),
		},
	})
	return m, nil
}

// ListInvitations lists the pending invitations of a tenant.
func (s *Service) ListInvitations(ctx context.Context, tenantID string) ([]*Invitation, error) {
	return s.invitations.ListByTenant(ctx, tenantID)
}

// AcceptInvitation redeems an invitation token for the authenticated user,
// whose email must match the invited address.
func (s *Service) AcceptInvitation(ctx context.Context, token, userID, email string) (*Membership, error) {
	inv, err := s.invitations.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if inv.IsExpired(now) {
		return nil, ErrInvitationNotFound
	}
	if identity.NormalizeEmail(inv.Email) != identity.NormalizeEmail(email) {
		return nil, ErrInvitationEmailMismatch
	}

	if _, err := s.members.Get(ctx, inv.TenantID, userID); err == nil {
		return nil, ErrAlreadyMember
	} else if !errors.Is(err, ErrMemberNotFound) {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}

	m := &Membership{
		ID:        id.NewUUIDv7(),
		TenantID:  inv.TenantID,
		UserID:    userID,
		Role:      inv.Role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.invitations.Accept(ctx, inv.ID, m); err != nil {
		return nil, err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeInvitationAccepted,
		TenantID: inv.TenantID,
		ActorID:  userID,
		Resource: inv.ID,
		Metadata: map[string]any{audit.AttrRole: string(inv.Role)},
	})
	return m, nil
}
