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

package dataset

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/datagov/datagov/internal/audit"
	"github.com/datagov/datagov/internal/id"
	"github.com/datagov/datagov/internal/validation"
)

// Service provides dataset business logic
type Service struct {
	repo        Repository
	auditLogger audit.Logger
	now         func() time.Time
}

// NewService creates a new dataset service
func NewService(repo Repository, auditLogger audit.Logger) *Service {
	return &Service{repo: repo, auditLogger: auditLogger, now: time.Now}
}

// Create registers a dataset in tenantID on behalf of userID.
func (s *Service) Create(ctx context.Context, tenantID, userID string, p CreateParams) (*Dataset, error) {
	if err := validation.Blank("name", p.Name); err != nil {
		return nil, err
	}

	status := StatusDraft
	if p.Status != nil {
		status = *p.Status
	}

	now := s.now().UTC()
	d := &Dataset{
		ID:          id.NewUUIDv7(),
		TenantID:    tenantID,
		Name:        strings.TrimSpace(p.Name),
		Description: p.Description,
		Status:      status,
		Schema:      p.Schema,
		Metadata:    p.Metadata,
		CreatedBy:   userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to create dataset: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeDatasetCreated,
		TenantID: tenantID,
		ActorID:  userID,
		Resource: d.ID,
		Metadata: map[string]any{audit.AttrName: d.Name},
	})
	return d, nil
}

// List returns the datasets of a tenant.
func (s *Service) List(ctx context.Context, tenantID string) ([]*Dataset, error) {
	return s.repo.List(ctx, tenantID)
}

// Get returns one dataset of a tenant.
func (s *Service) Get(ctx context.Context, tenantID, datasetID string) (*Dataset, error) {
	if !id.IsUUID(datasetID) {
		return nil, ErrDatasetNotFound
	}
	return s.repo.Get(ctx, tenantID, datasetID)
}

// Update applies a partial update. An empty update returns the stored row.
func (s *Service) Update(ctx context.Context, tenantID, datasetID string, p UpdateParams) (*Dataset, error) {
	if !id.IsUUID(datasetID) {
		return nil, ErrDatasetNotFound
	}
	if p.Name != nil {
		if err := validation.Blank("name", *p.Name); err != nil {
			return nil, err
		}
		name := strings.TrimSpace(*p.Name)
		p.Name = &name
	}
	if p.IsEmpty() {
		return s.repo.Get(ctx, tenantID, datasetID)
	}
	return s.repo.Update(ctx, tenantID, datasetID, p)
}

// Delete removes a dataset.
func (s *Service) Delete(ctx context.Context, tenantID, actorID, datasetID string) error {
	if !id.IsUUID(datasetID) {
		return ErrDatasetNotFound
	}
	if err := s.repo.Delete(ctx, tenantID, datasetID); err != nil {
		return err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeDatasetDeleted,
		TenantID: tenantID,
		ActorID:  actorID,
		Resource: datasetID,
	})
	return nil
}
