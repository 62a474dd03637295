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

package authz

// -----------------------------------------------------------------------------
// Role Constants
// These are the canonical role names stored on tenant memberships.
// -----------------------------------------------------------------------------

// Role is a tenant membership role.
type Role string

const (
	// RoleOwner has full control of the tenant, including deletion and role changes.
	RoleOwner Role = "owner"

	// RoleAdmin manages members, jobs and API keys.
	RoleAdmin Role = "admin"

	// RoleMember reads everything and may create and edit datasets.
	RoleMember Role = "member"
)

// AllRoles lists every role, most privileged first.
var AllRoles = []Role{RoleOwner, RoleAdmin, RoleMember}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	}
	return false
}

// ParseRole converts a stored or submitted role name.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, r.Valid()
}

// -----------------------------------------------------------------------------
// Permission Constants
// One permission per tenant scoped route. Routes name the permission they
// require and RoutePolicy lists the exact roles that hold it.
// -----------------------------------------------------------------------------

// Permission names a tenant scoped operation.
type Permission string

const (
	PermTenantRead   Permission = "tenant:read"
	PermTenantUpdate Permission = "tenant:update"
	PermTenantDelete Permission = "tenant:delete"

	PermDatasetList   Permission = "dataset:list"
	PermDatasetRead   Permission = "dataset:read"
	PermDatasetCreate Permission = "dataset:create"
	PermDatasetUpdate Permission = "dataset:update"
	PermDatasetDelete Permission = "dataset:delete"

	PermJobList     Permission = "job:list"
	PermJobRead     Permission = "job:read"
	PermJobCreate   Permission = "job:create"
	PermJobUpdate   Permission = "job:update"
	PermJobDelete   Permission = "job:delete"
	PermJobRun      Permission = "job:run"
	PermJobRunsList Permission = "job:runs:list"

	PermMemberList       Permission = "member:list"
	PermMemberInvite     Permission = "member:invite"
	PermMemberRemove     Permission = "member:remove"
	PermMemberChangeRole Permission = "member:change_role"
	PermInvitationList   Permission = "invitation:list"

	PermAPIKeyList   Permission = "api_key:list"
	PermAPIKeyCreate Permission = "api_key:create"
	PermAPIKeyRevoke Permission = "api_key:revoke"
)

var (
	anyRole      = []Role{RoleOwner, RoleAdmin, RoleMember}
	ownerOrAdmin = []Role{RoleOwner, RoleAdmin}
	ownerOnly    = []Role{RoleOwner}
)

// RoutePolicy is the per operation role table. Sets are exact, not thresholds.
var RoutePolicy = map[Permission][]Role{
	PermTenantRead:   anyRole,
	PermTenantUpdate: ownerOrAdmin,
	PermTenantDelete: ownerOnly,

	PermDatasetList:   anyRole,
	PermDatasetRead:   anyRole,
	PermDatasetCreate: anyRole,
	PermDatasetUpdate: anyRole,
	PermDatasetDelete: ownerOrAdmin,

	PermJobList:     anyRole,
	PermJobRead:     anyRole,
	PermJobCreate:   ownerOrAdmin,
	PermJobUpdate:   ownerOrAdmin,
	PermJobDelete:   ownerOrAdmin,
	PermJobRun:      anyRole,
	PermJobRunsList: anyRole,

	PermMemberList:       anyRole,
	PermMemberInvite:     ownerOrAdmin,
	PermMemberRemove:     ownerOrAdmin,
	PermMemberChangeRole: ownerOnly,
	PermInvitationList:   ownerOrAdmin,

	PermAPIKeyList:   ownerOrAdmin,
	PermAPIKeyCreate: ownerOrAdmin,
	PermAPIKeyRevoke: ownerOrAdmin,
}

// RolesFor returns the roles accepted for perm. Unknown permissions accept no role.
func RolesFor(perm Permission) []Role {
	return RoutePolicy[perm]
}
