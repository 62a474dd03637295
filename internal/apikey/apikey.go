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

// Package apikey issues tenant API keys. A key's plaintext is returned once,
// at creation; afterwards only a masked form is ever shown.
package apikey

import (
	"context"
	"errors"
	"time"

	"github.com/datagov/datagov/internal/identity"
)

// ErrAPIKeyNotFound is returned when no key matches the tenant and id.
var ErrAPIKeyNotFound = errors.New("API key not found")

// Warning accompanies every newly revealed key.
const Warning = "Save this key securely. You will not be able to see it again."

// APIKey is a stored key. Only its digest and the characters needed for the
// masked display are persisted.
type APIKey struct {
	ID         string            `json:"id"`
	TenantID   string            `json:"tenantId"`
	Name       string            `json:"name"`
	MaskedKey  string            `json:"key"`
	KeyHash    string            `json:"-"`
	KeyPrefix  string            `json:"-"`
	KeyLast4   string            `json:"-"`
	LastUsedAt *time.Time        `json:"lastUsedAt"`
	ExpiresAt  *time.Time        `json:"expiresAt"`
	CreatedBy  string            `json:"createdBy"`
	Creator    *identity.Summary `json:"creator,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// Created is the one response that carries the plaintext key.
type Created struct {
	*APIKey
	Key     string `json:"key"`
	Warning string `json:"warning"`
}

// Repository defines the interface for API key storage, scoped by tenant.
type Repository interface {
	Create(ctx context.Context, k *APIKey) error
	// List returns the tenant's keys newest first with their creators.
	List(ctx context.Context, tenantID string) ([]*APIKey, error)
	Delete(ctx context.Context, tenantID, id string) error
}
