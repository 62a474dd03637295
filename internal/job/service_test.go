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
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/datagov/datagov/internal/audit"
	"github.com/datagov/datagov/internal/jsonvalue"
	"github.com/datagov/datagov/internal/validation"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, j *Job) error {
	return m.Called(ctx, j).Error(0)
}

func (m *MockRepository) List(ctx context.Context, tenantID string) ([]*Job, error) {
	args := m.Called(ctx, tenantID)
	if l := args.Get(0); l != nil {
		return l.([]*Job), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) Get(ctx context.Context, tenantID, id string) (*Job, error) {
	args := m.Called(ctx, tenantID, id)
	if j := args.Get(0); j != nil {
		return j.(*Job), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, tenantID, id string, p UpdateParams) (*Job, error) {
	args := m.Called(ctx, tenantID, id, p)
	if j := args.Get(0); j != nil {
		return j.(*Job), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) Delete(ctx context.Context, tenantID, id string) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

type MockRunRepository struct {
	mock.Mock
}

func (m *MockRunRepository) CreateRun(ctx context.Context, r *Run) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockRunRepository) ListRuns(ctx context.Context, jobID string) ([]*Run, error) {
	args := m.Called(ctx, jobID)
	if l := args.Get(0); l != nil {
		return l.([]*Run), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRunRepository) CompleteRun(ctx context.Context, runID string, at time.Time, result jsonvalue.Value) error {
	return m.Called(ctx, runID, at, result).Error(0)
}

func (m *MockRunRepository) FailRun(ctx context.Context, runID string, at time.Time, message string) error {
	return m.Called(ctx, runID, at, message).Error(0)
}

type schedulerFunc func(ctx context.Context, runID string, startedAt time.Time) error

func (f schedulerFunc) Schedule(ctx context.Context, runID string, startedAt time.Time) error {
	return f(ctx, runID, startedAt)
}

const (
	tenantA = "0192a3b4-0000-7000-8000-00000000000a"
	jobID   = "0192a3b4-0000-7000-8000-0000000000b1"
)

func TestService_Create_ActiveByDefault(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	svc := NewService(repo, new(MockRunRepository), nil, audit.Nop{})

	repo.On("Create", ctx, mock.AnythingOfType("*job.Job")).Return(nil)

	j, err := svc.Create(ctx, tenantA, "user-a", CreateParams{Name: "Nightly", Type: "etl"})
	require.NoError(t, err)
	assert.True(t, j.IsActive)
	assert.Equal(t, "etl", j.Type)

	inactive := false
	j, err = svc.Create(ctx, tenantA, "user-a", CreateParams{Name: "Paused", Type: "etl", IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, j.IsActive)
}

// TestPurpose: Validates that starting a run records it as running and hands it to the scheduler.
// Scope: Unit Test
// Expected: The returned run is running with a start time and a ULID id.
// Test Case ID: JOB-03
func TestService_Run(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	runs := new(MockRunRepository)

	var scheduled []string
	svc := NewService(repo, runs, schedulerFunc(func(_ context.Context, runID string, _ time.Time) error {
		scheduled = append(scheduled, runID)
		return nil
	}), audit.Nop{})

	repo.On("Get", ctx, tenantA, jobID).Return(&Job{ID: jobID, TenantID: tenantA}, nil)
	runs.On("CreateRun", ctx, mock.AnythingOfType("*job.Run")).Return(nil)

	run, err := svc.Run(ctx, tenantA, "user-a", jobID)
	require.NoError(t, err)
	assert.Equal(t, RunRunning, run.Status)
	assert.Equal(t, jobID, run.JobID)
	require.NotNil(t, run.StartedAt)
	assert.Nil(t, run.CompletedAt)
	assert.Len(t, run.ID, 26)
	assert.Equal(t, []string{run.ID}, scheduled)
}

func TestService_Run_SchedulerUnavailable(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	runs := new(MockRunRepository)
	svc := NewService(repo, runs, schedulerFunc(func(context.Context, string, time.Time) error {
		return ErrQueueFull
	}), audit.Nop{})

	repo.On("Get", ctx, tenantA, jobID).Return(&Job{ID: jobID, TenantID: tenantA}, nil)
	runs.On("CreateRun", ctx, mock.AnythingOfType("*job.Run")).Return(nil)
	runs.On("FailRun", ctx, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time"), "job runner unavailable").Return(nil)

	run, err := svc.Run(ctx, tenantA, "user-a", jobID)
	require.NoError(t, err)
	assert.Equal(t, RunFailed, run.Status)
	require.NotNil(t, run.Error)
	assert.Equal(t, "job runner unavailable", *run.Error)
	runs.AssertExpectations(t)
}

func TestService_Runs_UnknownJob(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	runs := new(MockRunRepository)
	svc := NewService(repo, runs, nil, audit.Nop{})

	repo.On("Get", ctx, tenantA, jobID).Return(nil, ErrJobNotFound)

	_, err := svc.Run(ctx, tenantA, "user-a", jobID)
	assert.ErrorIs(t, err, ErrJobNotFound)
	_, err = svc.ListRuns(ctx, tenantA, jobID)
	assert.ErrorIs(t, err, ErrJobNotFound)
	_, err = svc.ListRuns(ctx, tenantA, "nope")
	assert.ErrorIs(t, err, ErrJobNotFound)

	runs.AssertNotCalled(t, "CreateRun", mock.Anything, mock.Anything)
	runs.AssertNotCalled(t, "ListRuns", mock.Anything, mock.Anything)
}

func TestService_Delete_PropagatesNotFound(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	svc := NewService(repo, new(MockRunRepository), nil, audit.Nop{})

	repo.On("Delete", ctx, tenantA, jobID).Return(nil).Once()
	repo.On("Delete", ctx, tenantA, jobID).Return(ErrJobNotFound)

	require.NoError(t, svc.Delete(ctx, tenantA, "user-a", jobID))
	err := svc.Delete(ctx, tenantA, "user-a", jobID)
	assert.True(t, errors.Is(err, ErrJobNotFound))
}

// TestPurpose: Validates that job names and types must contain more than whitespace.
// Scope: Unit Test
// Expected: A *validation.Error naming the blank field; the repository is never called.
// Test Case ID: JOB-05
func TestService_BlankFields(t *testing.T) {
	ctx := context.Background()
	blank := "   "

	tests := []struct {
		name   string
		create CreateParams
		update UpdateParams
		field  string
	}{
		{"empty name", CreateParams{Name: "", Type: "ingest"}, UpdateParams{Name: new(string)}, "name"},
		{"spaces name", CreateParams{Name: blank, Type: "ingest"}, UpdateParams{Name: &blank}, "name"},
		{"spaces type", CreateParams{Name: "nightly", Type: blank}, UpdateParams{Type: &blank}, "type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			svc := NewService(repo, new(MockRunRepository), nil, audit.Nop{})

			var verr *validation.Error
			_, err := svc.Create(ctx, tenantA, "user-a", tt.create)
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Details[0].Field)

			_, err = svc.Update(ctx, tenantA, jobID, tt.update)
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Details[0].Field)

			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}
