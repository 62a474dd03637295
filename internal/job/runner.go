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
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/datagov/datagov/internal/jsonvalue"
	"github.com/datagov/datagov/internal/observability/logger"
	"github.com/datagov/datagov/internal/observability/metrics"
)

// Runner errors
var (
	ErrQueueFull     = errors.New("job runner queue is full")
	ErrRunnerStopped = errors.New("job runner stopped")
	ErrRunnerStarted = errors.New("job runner already started")
)

const (
	stoppedMessage = "job runner stopped before completion"
	drainTimeout   = 5 * time.Second
)

// completedResult is stored on every successfully completed run.
var completedResult, _ = jsonvalue.FromBytes([]byte(`{"message":"Job completed successfully"}`))

// Task is a run waiting for completion.
type Task struct {
	RunID     string
	StartedAt time.Time
	DueAt     time.Time
}

// Runner completes job runs after a fixed delay. Tasks are processed strictly
// in enqueue order by a single worker started with Run.
type Runner struct {
	completer RunCompleter
	delay     time.Duration
	queue     chan Task

	mu      sync.RWMutex
	stopped bool
	started atomic.Bool
	done    chan struct{}

	metrics *metrics.Instruments
	tracer  trace.Tracer
	now     func() time.Time
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithInstruments records run outcomes on i.
func WithInstruments(i *metrics.Instruments) RunnerOption {
	return func(r *Runner) { r.metrics = i }
}

// NewRunner creates a runner that completes each run delay after it started.
// At most queueSize runs may wait at once.
func NewRunner(completer RunCompleter, delay time.Duration, queueSize int, opts ...RunnerOption) *Runner {
	if queueSize < 1 {
		queueSize = 1
	}
	r := &Runner{
		completer: completer,
		delay:     delay,
		queue:     make(chan Task, queueSize),
		done:      make(chan struct{}),
		tracer:    otel.Tracer("github.com/datagov/datagov/internal/job"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Schedule queues runID for completion delay after startedAt.
func (r *Runner) Schedule(_ context.Context, runID string, startedAt time.Time) error {
	return r.Enqueue(Task{RunID: runID, StartedAt: startedAt, DueAt: startedAt.Add(r.delay)})
}

// Enqueue adds a task without blocking.
func (r *Runner) Enqueue(t Task) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.stopped {
		return ErrRunnerStopped
	}
	select {
	case r.queue <- t:
		return nil
	default:
		return ErrQueueFull
	}
}

// Done is closed once Run has returned.
func (r *Runner) Done() <-chan struct{} {
	return r.done
}

// Run processes tasks until ctx is cancelled. Tasks still waiting at that
// point are marked failed. Run may only be called once.
func (r *Runner) Run(ctx context.Context) error {
	if !r.started.CompareAndSwap(false, true) {
		return ErrRunnerStarted
	}
	defer close(r.done)

	slog.InfoContext(ctx, "job runner started", logger.Component("job_runner"))

	for {
		select {
		case <-ctx.Done():
			r.drain(ctx, nil)
			return nil
		case t := <-r.queue:
			if !r.wait(ctx, t.DueAt) {
				r.drain(ctx, &t)
				return nil
			}
			r.complete(ctx, t)
		}
	}
}

func (r *Runner) wait(ctx context.Context, due time.Time) bool {
	d := due.Sub(r.now())
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (r *Runner) complete(ctx context.Context, t Task) {
	ctx, span := r.tracer.Start(ctx, "job.run.complete", trace.WithAttributes(attribute.String("job.run_id", t.RunID)))
	defer span.End()

	at := r.now().UTC()
	if err := r.completer.CompleteRun(ctx, t.RunID, at, completedResult); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "complete run")
		slog.ErrorContext(ctx, "failed to complete job run", logger.RunID(t.RunID), logger.Error(err))
		return
	}
	r.metrics.JobRunFinished(ctx, string(RunCompleted), at.Sub(t.StartedAt))
}

// drain stops intake and fails the in-flight task and everything queued.
func (r *Runner) drain(ctx context.Context, current *Task) {
	r.mu.Lock()
	r.stopped = true
	r.mu.Unlock()

	failCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), drainTimeout)
	defer cancel()

	pending := make([]Task, 0, len(r.queue)+1)
	if current != nil {
		pending = append(pending, *current)
	}
loop:
	for {
		select {
		case t := <-r.queue:
			pending = append(pending, t)
		default:
			break loop
		}
	}

	at := r.now().UTC()
	for _, t := range pending {
		if err := r.completer.FailRun(failCtx, t.RunID, at, stoppedMessage); err != nil {
			slog.ErrorContext(failCtx, "failed to mark job run failed", logger.RunID(t.RunID), logger.Error(err))
			continue
		}
		r.metrics.JobRunFinished(failCtx, string(RunFailed), at.Sub(t.StartedAt))
	}

	slog.InfoContext(failCtx, "job runner stopped", logger.Component("job_runner"), slog.Int("abandoned_runs", len(pending)))
}
