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

// Package dataset manages tenant scoped dataset descriptors.
package dataset

import (
	"context"
	"errors"
	"time"

	"github.com/datagov/datagov/internal/identity"
	"github.com/datagov/datagov/internal/jsonvalue"
)

// ErrDatasetNotFound is returned when no dataset matches the tenant and id.
var ErrDatasetNotFound = errors.New("dataset not found")

// Status is the lifecycle state of a dataset.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

// Statuses lists every valid status.
var Statuses = []string{string(StatusDraft), string(StatusActive), string(StatusArchived)}

// Dataset describes a dataset registered in a tenant. Schema and Metadata
// are stored verbatim.
type Dataset struct {
	ID          string            `json:"id"`
	TenantID    string            `json:"tenantId"`
	Name        string            `json:"name"`
	Description *string           `json:"description"`
	Status      Status            `json:"status"`
	Schema      jsonvalue.Value   `json:"schema"`
	Metadata    jsonvalue.Value   `json:"metadata"`
	CreatedBy   string            `json:"createdBy"`
	Creator     *identity.Summary `json:"creator,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// CreateParams holds the client supplied fields of a new dataset.
type CreateParams struct {
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Status      *Status         `json:"status"`
	Schema      jsonvalue.Value `json:"schema"`
	Metadata    jsonvalue.Value `json:"metadata"`
}

// UpdateParams is a partial update. Nil pointers and absent JSON values leave
// the column unchanged; an explicit JSON null clears it.
type UpdateParams struct {
	Name        *string         `json:"name"`
	Description *string         `json:"description"`
	Status      *Status         `json:"status"`
	Schema      jsonvalue.Value `json:"schema"`
	Metadata    jsonvalue.Value `json:"metadata"`
}

// IsEmpty reports whether the update changes nothing.
func (p UpdateParams) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Status == nil &&
		!p.Schema.Present() && !p.Metadata.Present()
}

// Repository defines the interface for dataset storage. Every method is
// scoped by tenant; a dataset id alone never addresses a row.
type Repository interface {
	Create(ctx context.Context, d *Dataset) error
	// List returns the tenant's datasets newest first with their creators.
	List(ctx context.Context, tenantID string) ([]*Dataset, error)
	Get(ctx context.Context, tenantID, id string) (*Dataset, error)
	Update(ctx context.Context, tenantID, id string, p UpdateParams) (*Dataset, error)
	Delete(ctx context.Context, tenantID, id string) error
}
