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

package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Config holds metrics configuration
type Config struct {
	Enabled bool
}

// Meter wraps OpenTelemetry meter
type Meter struct {
	meter metric.Meter
}

// New creates a new meter instance. When disabled every instrument is a no-op.
func New(cfg Config, serviceName string) *Meter {
	if !cfg.Enabled {
		return &Meter{meter: noop.NewMeterProvider().Meter(serviceName)}
	}
	return &Meter{meter: otel.Meter(serviceName)}
}

// GetMeter returns the underlying meter
func (m *Meter) GetMeter() metric.Meter {
	return m.meter
}

// CreateCounter creates a new counter metric
func (m *Meter) CreateCounter(name, description string) (metric.Int64Counter, error) {
	counter, err := m.meter.Int64Counter(
		name,
		metric.WithDescription(description),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create counter %s: %w", name, err)
	}
	return counter, nil
}

// CreateHistogram creates a new histogram metric
func (m *Meter) CreateHistogram(name, description, unit string) (metric.Float64Histogram, error) {
	histogram, err := m.meter.Float64Histogram(
		name,
		metric.WithDescription(description),
		metric.WithUnit(unit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create histogram %s: %w", name, err)
	}
	return histogram, nil
}

// Instruments groups the application level measurements. A nil *Instruments
// records nothing, so components may hold one unconditionally.
type Instruments struct {
	logins         metric.Int64Counter
	jobRuns        metric.Int64Counter
	jobRunLatency  metric.Float64Histogram
	apiKeysIssued  metric.Int64Counter
	guardDecisions metric.Int64Counter
}

// NewInstruments registers all application instruments on m.
func NewInstruments(m *Meter) (*Instruments, error) {
	var (
		i   Instruments
		err error
	)
	if i.logins, err = m.CreateCounter("datagov.auth.logins", "Login attempts by outcome"); err != nil {
		return nil, err
	}
	if i.jobRuns, err = m.CreateCounter("datagov.job.runs", "Job runs by final status"); err != nil {
		return nil, err
	}
	if i.jobRunLatency, err = m.CreateHistogram("datagov.job.run.duration", "Time from run start to completion", "s"); err != nil {
		return nil, err
	}
	if i.apiKeysIssued, err = m.CreateCounter("datagov.apikey.issued", "API keys created"); err != nil {
		return nil, err
	}
	if i.guardDecisions, err = m.CreateCounter("datagov.authz.decisions", "Tenant access decisions by outcome"); err != nil {
		return nil, err
	}
	return &i, nil
}

// Login records a login attempt.
func (i *Instruments) Login(ctx context.Context, success bool) {
	if i == nil {
		return
	}
	i.logins.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
}

// JobRunFinished records a run reaching a terminal status.
func (i *Instruments) JobRunFinished(ctx context.Context, status string, elapsed time.Duration) {
	if i == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("status", status))
	i.jobRuns.Add(ctx, 1, attrs)
	i.jobRunLatency.Record(ctx, elapsed.Seconds(), attrs)
}

// APIKeyIssued records a newly created API key.
func (i *Instruments) APIKeyIssued(ctx context.Context) {
	if i == nil {
		return
	}
	i.apiKeysIssued.Add(ctx, 1)
}

// GuardDecision records the outcome of a tenant access check.
func (i *Instruments) GuardDecision(ctx context.Context, outcome string) {
	if i == nil {
		return
	}
	i.guardDecisions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
