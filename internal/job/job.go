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

// Package job manages tenant scoped job definitions and their runs.
package job

import (
	"context"
	"errors"
	"time"

	"github.com/datagov/datagov/internal/identity"
	"github.com/datagov/datagov/internal/jsonvalue"
)

// Domain errors
var (
	ErrJobNotFound = errors.New("job not found")
	ErrRunNotFound = errors.New("job run not found")
)

// Job is a named, configurable unit of work registered in a tenant.
type Job struct {
	ID          string            `json:"id"`
	TenantID    string            `json:"tenantId"`
	Name        string            `json:"name"`
	Description *string           `json:"description"`
	Type        string            `json:"type"`
	Config      jsonvalue.Value   `json:"config"`
	Schedule    *string           `json:"schedule"`
	IsActive    bool              `json:"isActive"`
	CreatedBy   string            `json:"createdBy"`
	Creator     *identity.Summary `json:"creator,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// CreateParams holds the client supplied fields of a new job.
type CreateParams struct {
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Type        string          `json:"type"`
	Config      jsonvalue.Value `json:"config"`
	Schedule    *string         `json:"schedule"`
	IsActive    *bool           `json:"isActive"`
}

// UpdateParams is a partial update; unset fields are left unchanged.
type UpdateParams struct {
	Name        *string         `json:"name"`
	Description *string         `json:"description"`
	Type        *string         `json:"type"`
	Config      jsonvalue.Value `json:"config"`
	Schedule    *string         `json:"schedule"`
	IsActive    *bool           `json:"isActive"`
}

// IsEmpty reports whether the update changes nothing.
func (p UpdateParams) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Type == nil &&
		!p.Config.Present() && p.Schedule == nil && p.IsActive == nil
}

// RunStatus is the state of a job run.
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// Run is one execution of a job. Run ids are ULIDs so they sort by creation.
type Run struct {
	ID          string          `json:"id"`
	JobID       string          `json:"jobId"`
	Status      RunStatus       `json:"status"`
	StartedAt   *time.Time      `json:"startedAt"`
	CompletedAt *time.Time      `json:"completedAt"`
	Error       *string         `json:"error"`
	Result      jsonvalue.Value `json:"result"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Repository defines the interface for job storage, scoped by tenant.
type Repository interface {
	Create(ctx context.Context, j *Job) error
	List(ctx context.Context, tenantID string) ([]*Job, error)
	Get(ctx context.Context, tenantID, id string) (*Job, error)
	Update(ctx context.Context, tenantID, id string, p UpdateParams) (*Job, error)
	Delete(ctx context.Context, tenantID, id string) error
}

// RunCompleter moves runs to a terminal status.
type RunCompleter interface {
	CompleteRun(ctx context.Context, runID string, at time.Time, result jsonvalue.Value) error
	FailRun(ctx context.Context, runID string, at time.Time, message string) error
}

// RunRepository defines the interface for job run storage
type RunRepository interface {
	RunCompleter
	CreateRun(ctx context.Context, r *Run) error
	// ListRuns returns the runs of a job newest first.
	ListRuns(ctx context.Context, jobID string) ([]*Run, error)
}
