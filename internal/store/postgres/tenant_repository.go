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
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/datagov/datagov/internal/tenant"
)

// TenantRepository implements tenant.Repository
type TenantRepository struct {
	db *DB
}

// NewTenantRepository creates a new tenant repository
func NewTenantRepository(db *DB) *TenantRepository {
	return &TenantRepository{db: db}
}

const tenantColumns = `t.id, t.name, t.slug, t.description, t.created_at, t.updated_at`

func scanTenant(row pgx.Row, extra ...any) (*tenant.Tenant, error) {
	var t tenant.Tenant
	dest := append([]any{&t.ID, &t.Name, &t.Slug, &t.Description, &t.CreatedAt, &t.UpdatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateWithOwner creates the tenant and its owner membership in one transaction
func (r *TenantRepository) CreateWithOwner(ctx context.Context, t *tenant.Tenant, owner *tenant.Membership) error {
	return r.db.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO tenants (id, name, slug, description, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, t.ID, t.Name, t.Slug, t.Description, t.CreatedAt, t.UpdatedAt); err != nil {
			return fmt.Errorf("failed to insert tenant: %w", err)
		}
		return insertMembership(ctx, tx, owner)
	})
}

// GetByID retrieves a tenant by ID
func (r *TenantRepository) GetByID(ctx context.Context, id string) (*tenant.Tenant, error) {
	t, err := scanTenant(r.db.pool.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants t WHERE t.id = $1`, id))
	if err != nil {
		return nil, notFound(err, tenant.ErrTenantNotFound, "get tenant")
	}
	return t, nil
}

// SlugExists reports whether a tenant already uses slug
func (r *TenantRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	if err := r.db.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tenants WHERE slug = $1)`, slug).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return exists, nil
}

// ListForUser lists the tenants a user belongs to with the user's role
func (r *TenantRepository) ListForUser(ctx context.Context, userID string) ([]*tenant.WithRole, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT `+tenantColumns+`, m.role
		FROM tenants t
		JOIN tenant_members m ON m.tenant_id = t.id
		WHERE m.user_id = $1
		ORDER BY t.created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	defer rows.Close()

	out := []*tenant.WithRole{}
	for rows.Next() {
		var wr tenant.WithRole
		t, err := scanTenant(rows, &wr.Role)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tenant: %w", err)
		}
		wr.Tenant = *t
		out = append(out, &wr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tenants: %w", err)
	}
	return out, nil
}

// Update applies a partial update and returns the stored tenant
func (r *TenantRepository) Update(ctx context.Context, id string, upd tenant.Update) (*tenant.Tenant, error) {
	set := map[string]any{"updated_at": sq.Expr("NOW()")}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Slug != nil {
		set["slug"] = *upd.Slug
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}

	query, args, err := psql.Update("tenants t").
		SetMap(set).
		Where(sq.Eq{"t.id": id}).
		Suffix("RETURNING " + tenantColumns).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build tenant update: %w", err)
	}

	t, err := scanTenant(r.db.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, err
		}
		return nil, notFound(err, tenant.ErrTenantNotFound, "update tenant")
	}
	return t, nil
}

// Delete deletes a tenant; memberships and tenant resources cascade
func (r *TenantRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.pool.Exec(ctx, `DELETE FROM tenants WHERE id = $1`, id)
	if err != nil {
		return notFound(err, tenant.ErrTenantNotFound, "delete tenant")
	}
	if tag.RowsAffected() == 0 {
		return tenant.ErrTenantNotFound
	}
	return nil
}
