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
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/datagov/datagov/internal/tenant"
)

// InvitationRepository implements tenant.InvitationRepository
type InvitationRepository struct {
	db *DB
}

// NewInvitationRepository creates a new invitation repository
func NewInvitationRepository(db *DB) *InvitationRepository {
	return &InvitationRepository{db: db}
}

const invitationColumns = `id, tenant_id, email, role, token, expires_at, invited_by, created_at`

func scanInvitation(row pgx.Row) (*tenant.Invitation, error) {
	var inv tenant.Invitation
	err := row.Scan(&inv.ID, &inv.TenantID, &inv.Email, &inv.Role, &inv.Token, &inv.ExpiresAt, &inv.InvitedBy, &inv.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// Create stores an invitation
func (r *InvitationRepository) Create(ctx context.Context, inv *tenant.Invitation) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO invitations (`+invitationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, inv.ID, inv.TenantID, inv.Email, inv.Role, inv.Token, inv.ExpiresAt, inv.InvitedBy, inv.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert invitation: %w", err)
	}
	return nil
}

// GetByToken retrieves an invitation by its token
func (r *InvitationRepository) GetByToken(ctx context.Context, token string) (*tenant.Invitation, error) {
	inv, err := scanInvitation(r.db.pool.QueryRow(ctx, `
		SELECT `+invitationColumns+` FROM invitations WHERE token = $1
	`, token))
	if err != nil {
		return nil, notFound(err, tenant.ErrInvitationNotFound, "get invitation")
	}
	return inv, nil
}

// ListByTenant lists the unexpired invitations of a tenant, newest first
func (r *InvitationRepository) ListByTenant(ctx context.Context, tenantID string) ([]*tenant.Invitation, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT `+invitationColumns+`
		FROM invitations
		WHERE tenant_id = $1 AND expires_at > NOW()
		ORDER BY created_at DESC
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	defer rows.Close()

	out := []*tenant.Invitation{}
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invitation: %w", err)
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invitations: %w", err)
	}
	return out, nil
}

// Accept consumes the invitation and creates the membership in one transaction
func (r *InvitationRepository) Accept(ctx context.Context, invitationID string, m *tenant.Membership) error {
	return r.db.withTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM invitations WHERE id = $1`, invitationID)
		if err != nil {
			return fmt.Errorf("failed to consume invitation: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return tenant.ErrInvitationNotFound
		}
		return insertMembership(ctx, tx, m)
	})
}

// DeleteExpired deletes invitations that expired before now
func (r *InvitationRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.pool.Exec(ctx, `DELETE FROM invitations WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired invitations: %w", err)
	}
	return tag.RowsAffected(), nil
}
