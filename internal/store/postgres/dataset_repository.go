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

	"github.com/datagov/datagov/internal/dataset"
	"github.com/datagov/datagov/internal/identity"
	"github.com/datagov/datagov/internal/jsonvalue"
)

// DatasetRepository implements dataset.Repository
type DatasetRepository struct {
	db *DB
}

// NewDatasetRepository creates a new dataset repository
func NewDatasetRepository(db *DB) *DatasetRepository {
	return &DatasetRepository{db: db}
}

var datasetSelect = psql.Select(
	"d.id", "d.tenant_id", "d.name", "d.description", "d.status", "d.schema", "d.metadata",
	"d.created_by", "d.created_at", "d.updated_at", "u.id", "u.name", "u.email",
).From("datasets d").Join("users u ON u.id = d.created_by")

func scanDataset(row pgx.Row) (*dataset.Dataset, error) {
	var (
		d            dataset.Dataset
		creator      identity.Summary
		schema, meta []byte
	)
	err := row.Scan(
		&d.ID, &d.TenantID, &d.Name, &d.Description, &d.Status, &schema, &meta,
		&d.CreatedBy, &d.CreatedAt, &d.UpdatedAt, &creator.ID, &creator.Name, &creator.Email,
	)
	if err != nil {
		return nil, err
	}
	if d.Schema, err = jsonvalue.FromBytes(schema); err != nil {
		return nil, err
	}
	if d.Metadata, err = jsonvalue.FromBytes(meta); err != nil {
		return nil, err
	}
	d.Creator = &creator
	return &d, nil
}

// Create creates a new dataset
func (r *DatasetRepository) Create(ctx context.Context, d *dataset.Dataset) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO datasets (id, tenant_id, name, description, status, schema, metadata, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		d.ID, d.TenantID, d.Name, d.Description, d.Status,
		d.Schema.SQLValue(), d.Metadata.SQLValue(),
		d.CreatedBy, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert dataset: %w", err)
	}
	return nil
}

// List lists the datasets of a tenant, newest first
func (r *DatasetRepository) List(ctx context.Context, tenantID string) ([]*dataset.Dataset, error) {
	query, args, err := datasetSelect.Where(sq.Eq{"d.tenant_id": tenantID}).OrderBy("d.created_at DESC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build dataset query: %w", err)
	}

	rows, err := r.db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	defer rows.Close()

	out := []*dataset.Dataset{}
	for rows.Next() {
		d, err := scanDataset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dataset: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating datasets: %w", err)
	}
	return out, nil
}

// Get retrieves a dataset by tenant and ID
func (r *DatasetRepository) Get(ctx context.Context, tenantID, id string) (*dataset.Dataset, error) {
	query, args, err := datasetSelect.Where(sq.Eq{"d.tenant_id": tenantID, "d.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build dataset query: %w", err)
	}

	d, err := scanDataset(r.db.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, notFound(err, dataset.ErrDatasetNotFound, "get dataset")
	}
	return d, nil
}

// Update applies a partial update
func (r *DatasetRepository) Update(ctx context.Context, tenantID, id string, p dataset.UpdateParams) (*dataset.Dataset, error) {
	set := map[string]any{"updated_at": sq.Expr("NOW()")}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.Status != nil {
		set["status"] = *p.Status
	}
	if p.Schema.Present() {
		set["schema"] = p.Schema.SQLValue()
	}
	if p.Metadata.Present() {
		set["metadata"] = p.Metadata.SQLValue()
	}

	if err := updateScoped(ctx, r.db.pool, "datasets", tenantID, id, set); err != nil {
		return nil, notFound(err, dataset.ErrDatasetNotFound, "update dataset")
	}
	return r.Get(ctx, tenantID, id)
}

// Delete deletes a dataset
func (r *DatasetRepository) Delete(ctx context.Context, tenantID, id string) error {
	return deleteScoped(ctx, r.db.pool, "datasets", tenantID, id, dataset.ErrDatasetNotFound)
}

// updateScoped updates one tenant scoped row and reports pgx.ErrNoRows when
// the tenant and id do not match.
func updateScoped(ctx context.Context, q querier, table, tenantID, id string, set map[string]any) error {
	query, args, err := psql.Update(table).
		SetMap(set).
		Where(sq.Eq{"tenant_id": tenantID, "id": id}).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build %s update: %w", table, err)
	}

	var updated string
	return q.QueryRow(ctx, query, args...).Scan(&updated)
}

func deleteScoped(ctx context.Context, q querier, table, tenantID, id string, sentinel error) error {
	query, args, err := psql.Delete(table).Where(sq.Eq{"tenant_id": tenantID, "id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build %s delete: %w", table, err)
	}

	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return notFound(err, sentinel, "delete from "+table)
	}
	if tag.RowsAffected() == 0 {
		return sentinel
	}
	return nil
}
