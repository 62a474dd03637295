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

package job

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/datagov/datagov/internal/audit"
	"github.com/datagov/datagov/internal/id"
	"github.com/datagov/datagov/internal/observability/logger"
	"github.com/datagov/datagov/internal/validation"
)

const unavailableMessage = "job runner unavailable"

// Scheduler hands a started run over for asynchronous completion.
type Scheduler interface {
	Schedule(ctx context.Context, runID string, startedAt time.Time) error
}

// Service provides job business logic
type Service struct {
	jobs        Repository
	runs        RunRepository
	scheduler   Scheduler
	auditLogger audit.Logger
	now         func() time.Time
}

// NewService creates a new job service
func NewService(jobs Repository, runs RunRepository, scheduler Scheduler, auditLogger audit.Logger) *Service {
	return &Service{
		jobs:        jobs,
		runs:        runs,
		scheduler:   scheduler,
		auditLogger: auditLogger,
		now:         time.Now,
	}
}

// Create registers a job. Jobs are active unless the caller says otherwise.
func (s *Service) Create(ctx context.Context, tenantID, userID string, p CreateParams) (*Job, error) {
	if err := validation.Blank("name", p.Name); err != nil {
		return nil, err
	}
	if err := validation.Blank("type", p.Type); err != nil {
		return nil, err
	}

	active := true
	if p.IsActive != nil {
		active = *p.IsActive
	}

	now := s.now().UTC()
	j := &Job{
		ID:          id.NewUUIDv7(),
		TenantID:    tenantID,
		Name:        strings.TrimSpace(p.Name),
		Description: p.Description,
		Type:        strings.TrimSpace(p.Type),
		Config:      p.Config,
		Schedule:    p.Schedule,
		IsActive:    active,
		CreatedBy:   userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.jobs.Create(ctx, j); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeJobCreated,
		TenantID: tenantID,
		ActorID:  userID,
		Resource: j.ID,
		Metadata: map[string]any{audit.AttrName: j.Name, "type": j.Type},
	})
	return j, nil
}

// List returns the jobs of a tenant.
func (s *Service) List(ctx context.Context, tenantID string) ([]*Job, error) {
	return s.jobs.List(ctx, tenantID)
}

// Get returns one job of a tenant.
func (s *Service) Get(ctx context.Context, tenantID, jobID string) (*Job, error) {
	if !id.IsUUID(jobID) {
		return nil, ErrJobNotFound
	}
	return s.jobs.Get(ctx, tenantID, jobID)
}

// Update applies a partial update. An empty update returns the stored row.
func (s *Service) Update(ctx context.Context, tenantID, jobID string, p UpdateParams) (*Job, error) {
	if !id.IsUUID(jobID) {
		return nil, ErrJobNotFound
	}
	if p.Name != nil {
		if err := validation.Blank("name", *p.Name); err != nil {
			return nil, err
		}
		name := strings.TrimSpace(*p.Name)
		p.Name = &name
	}
	if p.Type != nil {
		if err := validation.Blank("type", *p.Type); err != nil {
			return nil, err
		}
		typ := strings.TrimSpace(*p.Type)
		p.Type = &typ
	}
	if p.IsEmpty() {
		return s.jobs.Get(ctx, tenantID, jobID)
	}
	return s.jobs.Update(ctx, tenantID, jobID, p)
}

// Delete removes a job and its runs.
func (s *Service) Delete(ctx context.Context, tenantID, actorID, jobID string) error {
	if !id.IsUUID(jobID) {
		return ErrJobNotFound
	}
	if err := s.jobs.Delete(ctx, tenantID, jobID); err != nil {
		return err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeJobDeleted,
		TenantID: tenantID,
		ActorID:  actorID,
		Resource: jobID,
	})
	return nil
}

// Run starts a run of the job. The run is returned in status running and is
// completed later by the scheduler. If the scheduler refuses it the run is
// failed immediately and returned in that state.
func (s *Service) Run(ctx context.Context, tenantID, actorID, jobID string) (*Run, error) {
	j, err := s.Get(ctx, tenantID, jobID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	run := &Run{
		ID:        id.NewULID(),
		JobID:     j.ID,
		Status:    RunRunning,
		StartedAt: &now,
		CreatedAt: now,
	}
	if err := s.runs.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to create job run: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeJobRunStarted,
		TenantID: tenantID,
		ActorID:  actorID,
		Resource: j.ID,
		Metadata: map[string]any{"run_id": run.ID},
	})

	if err := s.scheduler.Schedule(ctx, run.ID, now); err != nil {
		slog.WarnContext(ctx, "job run not scheduled", logger.RunID(run.ID), logger.Error(err))

		if err := s.runs.FailRun(ctx, run.ID, now, unavailableMessage); err != nil {
			return nil, fmt.Errorf("failed to record unscheduled run: %w", err)
		}
		msg := unavailableMessage
		run.Status = RunFailed
		run.CompletedAt = &now
		run.Error = &msg
	}
	return run, nil
}

// ListRuns returns the runs of a job newest first.
func (s *Service) ListRuns(ctx context.Context, tenantID, jobID string) ([]*Run, error) {
	j, err := s.Get(ctx, tenantID, jobID)
	if err != nil {
		return nil, err
	}
	return s.runs.ListRuns(ctx, j.ID)
}
