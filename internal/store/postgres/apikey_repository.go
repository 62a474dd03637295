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

	"github.com/datagov/datagov/internal/apikey"
	"github.com/datagov/datagov/internal/identity"
)

// APIKeyRepository implements apikey.Repository
type APIKeyRepository struct {
	db *DB
}

// NewAPIKeyRepository creates a new API key repository
func NewAPIKeyRepository(db *DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

// Create stores a key digest; the plaintext never reaches the database
func (r *APIKeyRepository) Create(ctx context.Context, k *apikey.APIKey) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO api_keys (id, tenant_id, name, key_hash, key_prefix, key_last4, expires_at, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, k.ID, k.TenantID, k.Name, k.KeyHash, k.KeyPrefix, k.KeyLast4, k.ExpiresAt, k.CreatedBy, k.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create API key: %w", err)
	}
	return nil
}

// List lists the keys of a tenant, newest first
func (r *APIKeyRepository) List(ctx context.Context, tenantID string) ([]*apikey.APIKey, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT k.id, k.tenant_id, k.name, k.key_hash, k.key_prefix, k.key_last4,
			k.last_used_at, k.expires_at, k.created_by, k.created_at,
			u.id, u.name, u.email
		FROM api_keys k
		JOIN users u ON u.id = k.created_by
		WHERE k.tenant_id = $1
		ORDER BY k.created_at DESC
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list API keys: %w", err)
	}
	defer rows.Close()

	out := []*apikey.APIKey{}
	for rows.Next() {
		var k apikey.APIKey
		k.Creator = new(identity.Summary)
		if err := rows.Scan(
			&k.ID, &k.TenantID, &k.Name, &k.KeyHash, &k.KeyPrefix, &k.KeyLast4,
			&k.LastUsedAt, &k.ExpiresAt, &k.CreatedBy, &k.CreatedAt,
			&k.Creator.ID, &k.Creator.Name, &k.Creator.Email,
		); err != nil {
			return nil, fmt.Errorf("failed to scan API key: %w", err)
		}
		out = append(out, &k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating API keys: %w", err)
	}
	return out, nil
}

// Delete deletes a key
func (r *APIKeyRepository) Delete(ctx context.Context, tenantID, id string) error {
	return deleteScoped(ctx, r.db.pool, "api_keys", tenantID, id, apikey.ErrAPIKeyNotFound)
}
