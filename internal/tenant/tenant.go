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

// Package tenant manages workspaces, their memberships and invitations.
package tenant

import (
	"errors"
	"time"

	"github.com/datagov/datagov/internal/authz"
)

// Domain errors
var (
	ErrTenantNotFound          = errors.New("tenant not found")
	ErrSlugTaken               = errors.New("workspace name is already taken")
	ErrMemberNotFound          = errors.New("member not found")
	ErrAlreadyMember           = errors.New("user is already a member")
	ErrCannotRemoveOwner       = errors.New("cannot remove owner")
	ErrLastOwner               = errors.New("tenant must retain at least one owner")
	ErrInvalidRole             = errors.New("invalid role")
	ErrInvitationNotFound      = errors.New("invitation not found or expired")
	ErrInvitationEmailMismatch = errors.New("invitation belongs to a different email")
)

// InvitationTTL is how long an invitation token stays redeemable.
const InvitationTTL = 7 * 24 * time.Hour

// Tenant is an isolated workspace
type Tenant struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// WithRole is a tenant as seen by one of its members.
type WithRole struct {
	Tenant
	Role authz.Role `json:"role"`
}

// Membership grants a user a role in a tenant. A user holds at most one
// membership per tenant.
type Membership struct {
	ID        string     `json:"id"`
	TenantID  string     `json:"tenantId"`
	UserID    string     `json:"userId"`
	Role      authz.Role `json:"role"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// MemberUser is the user projection shown in member listings.
type MemberUser struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// Member is a membership joined with its user.
type Member struct {
	ID        string     `json:"id"`
	Role      authz.Role `json:"role"`
	User      MemberUser `json:"user"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Invitation is a pending grant of a role to an email address. The token is
// returned once at creation and never serialized afterwards.
type Invitation struct {
	ID        string     `json:"id"`
	TenantID  string     `json:"tenantId"`
	Email     string     `json:"email"`
	Role      authz.Role `json:"role"`
	Token     string     `json:"-"`
	ExpiresAt time.Time  `json:"expiresAt"`
	InvitedBy string     `json:"invitedBy"`
	CreatedAt time.Time  `json:"createdAt"`
}

// IsExpired reports whether the invitation can no longer be redeemed.
func (i *Invitation) IsExpired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}
