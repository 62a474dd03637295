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

package postgres

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5"

	"github.com/datagov/datagov/internal/authz"
	"github.com/datagov/datagov/internal/tenant"
)

// MembershipRepository implements tenant.MembershipRepository
type MembershipRepository struct {
	db *DB
}

// NewMembershipRepository creates a new membership repository
func NewMembershipRepository(db *DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

const membershipColumns = `id, tenant_id, user_id, role, created_at, updated_at`

func scanMembership(row pgx.Row) (*tenant.Membership, error) {
	var m tenant.Membership
	if err := row.Scan(&m.ID, &m.TenantID, &m.UserID, &m.Role, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func insertMembership(ctx context.Context, q querier, m *tenant.Membership) error {
	_, err := q.Exec(ctx, `
		INSERT INTO tenant_members (id, tenant_id, user_id, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, m.ID, m.TenantID, m.UserID, m.Role, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return tenant.ErrAlreadyMember
		}
		return fmt.Errorf("failed to insert membership: %w", err)
	}
	return nil
}

// Get retrieves the membership of a user in a tenant
func (r *MembershipRepository) Get(ctx context.Context, tenantID, userID string) (*tenant.Membership, error) {
	m, err := scanMembership(r.db.pool.QueryRow(ctx, `
		SELECT `+membershipColumns+`
		FROM tenant_members
		WHERE tenant_id = $1 AND user_id = $2
	`, tenantID, userID))
	if err != nil {
		return nil, notFound(err, tenant.ErrMemberNotFound, "get membership")
	}
	return m, nil
}

// Create adds a membership
func (r *MembershipRepository) Create(ctx context.Context, m *tenant.Membership) error {
	return insertMembership(ctx, r.db.pool, m)
}

// List lists the members of a tenant with their user details, oldest first
func (r *MembershipRepository) List(ctx context.Context, tenantID string) ([]*tenant.Member, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT m.id, m.role, m.created_at, u.id, u.name, u.email, u.created_at
		FROM tenant_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.tenant_id = $1
		ORDER BY m.created_at
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	out := []*tenant.Member{}
	for rows.Next() {
		var m tenant.Member
		if err := rows.Scan(&m.ID, &m.Role, &m.CreatedAt, &m.User.ID, &m.User.Name, &m.User.Email, &m.User.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating members: %w", err)
	}
	return out, nil
}

// UpdateRole changes a member's role. The owner rows of the tenant are locked
// for the duration so two concurrent demotions cannot both pass the last
// owner check.
func (r *MembershipRepository) UpdateRole(ctx context.Context, tenantID, userID string, role authz.Role) (*tenant.Membership, error) {
	var updated *tenant.Membership

	err := r.db.withTx(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			SELECT user_id FROM tenant_members
			WHERE tenant_id = $1 AND role = 'owner'
			FOR UPDATE
		`, tenantID)
		if err != nil {
			return fmt.Errorf("failed to lock owners: %w", err)
		}
		owners, err := pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return fmt.Errorf("failed to read owners: %w", err)
		}

		if role != authz.RoleOwner && slices.Contains(owners, userID) && len(owners) <= 1 {
			return tenant.ErrLastOwner
		}

		updated, err = scanMembership(tx.QueryRow(ctx, `
			UPDATE tenant_members SET role = $3, updated_at = NOW()
			WHERE tenant_id = $1 AND user_id = $2
			RETURNING `+membershipColumns,
			tenantID, userID, role))
		return err
	})
	if err != nil {
		if errors.Is(err, tenant.ErrLastOwner) {
			return nil, err
		}
		return nil, notFound(err, tenant.ErrMemberNotFound, "update member role")
	}
	return updated, nil
}

// Delete removes a membership
func (r *MembershipRepository) Delete(ctx context.Context, tenantID, userID string) error {
	tag, err := r.db.pool.Exec(ctx, `DELETE FROM tenant_members WHERE tenant_id = $1 AND user_id = $2`, tenantID, userID)
	if err != nil {
		return notFound(err, tenant.ErrMemberNotFound, "delete membership")
	}
	if tag.RowsAffected() == 0 {
		return tenant.ErrMemberNotFound
	}
	return nil
}

// CountOwners counts the owners of a tenant
func (r *MembershipRepository) CountOwners(ctx context.Context, tenantID string) (int, error) {
	var n int
	err := r.db.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM tenant_members WHERE tenant_id = $1 AND role = 'owner'
	`, tenantID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count owners: %w", err)
	}
	return n, nil
}
