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

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/datagov/datagov/internal/identity"
	"github.com/datagov/datagov/internal/job"
	"github.com/datagov/datagov/internal/jsonvalue"
)

// JobRepository implements job.Repository and job.RunRepository
type JobRepository struct {
	db *DB
}

// NewJobRepository creates a new job repository
func NewJobRepository(db *DB) *JobRepository {
	return &JobRepository{db: db}
}

var jobSelect = psql.Select(
	"j.id", "j.tenant_id", "j.name", "j.description", "j.type", "j.config", "j.schedule", "j.is_active",
	"j.created_by", "j.created_at", "j.updated_at", "u.id", "u.name", "u.email",
).From("jobs j").Join("users u ON u.id = j.created_by")

func scanJob(row pgx.Row) (*job.Job, error) {
	var (
		j       job.Job
		creator identity.Summary
		config  []byte
	)
	err := row.Scan(
		&j.ID, &j.TenantID, &j.Name, &j.Description, &j.Type, &config, &j.Schedule, &j.IsActive,
		&j.CreatedBy, &j.CreatedAt, &j.UpdatedAt, &creator.ID, &creator.Name, &creator.Email,
	)
	if err != nil {
		return nil, err
	}
	if j.Config, err = jsonvalue.FromBytes(config); err != nil {
		return nil, err
	}
	j.Creator = &creator
	return &j, nil
}

// Create creates a new job
func (r *JobRepository) Create(ctx context.Context, j *job.Job) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO jobs (id, tenant_id, name, description, type, config, schedule, is_active, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		j.ID, j.TenantID, j.Name, j.Description, j.Type, j.Config.SQLValue(), j.Schedule, j.IsActive,
		j.CreatedBy, j.CreatedAt, j.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}
	return nil
}

// List lists the jobs of a tenant, newest first
func (r *JobRepository) List(ctx context.Context, tenantID string) ([]*job.Job, error) {
	query, args, err := jobSelect.Where(sq.Eq{"j.tenant_id": tenantID}).OrderBy("j.created_at DESC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build job query: %w", err)
	}

	rows, err := r.db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	out := []*job.Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating jobs: %w", err)
	}
	return out, nil
}

// Get retrieves a job by tenant and ID
func (r *JobRepository) Get(ctx context.Context, tenantID, id string) (*job.Job, error) {
	query, args, err := jobSelect.Where(sq.Eq{"j.tenant_id": tenantID, "j.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build job query: %w", err)
	}

	j, err := scanJob(r.db.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, notFound(err, job.ErrJobNotFound, "get job")
	}
	return j, nil
}

// Update applies a partial update
func (r *JobRepository) Update(ctx context.Context, tenantID, id string, p job.UpdateParams) (*job.Job, error) {
	set := map[string]any{"updated_at": sq.Expr("NOW()")}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.Type != nil {
		set["type"] = *p.Type
	}
	if p.Config.Present() {
		set["config"] = p.Config.SQLValue()
	}
	if p.Schedule != nil {
		set["schedule"] = *p.Schedule
	}
	if p.IsActive != nil {
		set["is_active"] = *p.IsActive
	}

	if err := updateScoped(ctx, r.db.pool, "jobs", tenantID, id, set); err != nil {
		return nil, notFound(err, job.ErrJobNotFound, "update job")
	}
	return r.Get(ctx, tenantID, id)
}

// Delete deletes a job; its runs cascade
func (r *JobRepository) Delete(ctx context.Context, tenantID, id string) error {
	return deleteScoped(ctx, r.db.pool, "jobs", tenantID, id, job.ErrJobNotFound)
}

const runColumns = `id, job_id, status, started_at, completed_at, error, result, created_at`

func scanRun(row pgx.Row) (*job.Run, error) {
	var (
		run    job.Run
		result []byte
	)
	err := row.Scan(&run.ID, &run.JobID, &run.Status, &run.StartedAt, &run.CompletedAt, &run.Error, &result, &run.CreatedAt)
	if err != nil {
		return nil, err
	}
	if run.Result, err = jsonvalue.FromBytes(result); err != nil {
		return nil, err
	}
	return &run, nil
}

// CreateRun stores a new job run
func (r *JobRepository) CreateRun(ctx context.Context, run *job.Run) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO job_runs (`+runColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, run.ID, run.JobID, run.Status, run.StartedAt, run.CompletedAt, run.Error, run.Result.SQLValue(), run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert job run: %w", err)
	}
	return nil
}

// ListRuns lists the runs of a job, newest first
func (r *JobRepository) ListRuns(ctx context.Context, jobID string) ([]*job.Run, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT `+runColumns+`
		FROM job_runs
		WHERE job_id = $1
		ORDER BY created_at DESC, id DESC
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list job runs: %w", err)
	}
	defer rows.Close()

	out := []*job.Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job run: %w", err)
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating job runs: %w", err)
	}
	return out, nil
}

// CompleteRun marks a running run completed
func (r *JobRepository) CompleteRun(ctx context.Context, runID string, at time.Time, result jsonvalue.Value) error {
	return r.finishRun(ctx, runID, job.RunCompleted, at, nil, result.SQLValue())
}

// FailRun marks a running run failed
func (r *JobRepository) FailRun(ctx context.Context, runID string, at time.Time, message string) error {
	return r.finishRun(ctx, runID, job.RunFailed, at, &message, nil)
}

func (r *JobRepository) finishRun(ctx context.Context, runID string, status job.RunStatus, at time.Time, msg *string, result []byte) error {
	tag, err := r.db.pool.Exec(ctx, `
		UPDATE job_runs
		SET status = $2, completed_at = $3, error = $4, result = $5
		WHERE id = $1 AND status IN ('pending', 'running')
	`, runID, status, at, msg, result)
	if err != nil {
		return fmt.Errorf("failed to finish job run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return job.ErrRunNotFound
	}
	return nil
}
