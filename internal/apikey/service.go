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

package apikey

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/datagov/datagov/internal/audit"
	"github.com/datagov/datagov/internal/id"
	"github.com/datagov/datagov/internal/observability/metrics"
	"github.com/datagov/datagov/internal/validation"
)

// Service provides API key business logic
type Service struct {
	repo        Repository
	auditLogger audit.Logger
	metrics     *metrics.Instruments
	now         func() time.Time
}

// NewService creates a new API key service. instruments may be nil.
func NewService(repo Repository, auditLogger audit.Logger, instruments *metrics.Instruments) *Service {
	return &Service{repo: repo, auditLogger: auditLogger, metrics: instruments, now: time.Now}
}

// Create issues a key and returns it with its plaintext. This is the only
// time the plaintext leaves the service.
func (s *Service) Create(ctx context.Context, tenantID, userID, name string, expiresAt *time.Time) (*Created, error) {
	if err := validation.Blank("name", name); err != nil {
		return nil, err
	}

	gen, err := GenerateKey()
	if err != nil {
		return nil, err
	}

	k := &APIKey{
		ID:        id.NewUUIDv7(),
		TenantID:  tenantID,
		Name:      strings.TrimSpace(name),
		KeyHash:   gen.Hash,
		KeyPrefix: gen.Prefix,
		KeyLast4:  gen.Last4,
		ExpiresAt: expiresAt,
		CreatedBy: userID,
		CreatedAt: s.now().UTC(),
	}
	k.MaskedKey = Mask(k.KeyPrefix, k.KeyLast4)

	if err := s.repo.Create(ctx, k); err != nil {
		return nil, fmt.Errorf("failed to create API key: %w", err)
	}

	s.metrics.APIKeyIssued(ctx)
	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeAPIKeyCreated,
		TenantID: tenantID,
		ActorID:  userID,
		Resource: k.ID,
		Metadata: map[string]any{audit.AttrName: k.Name},
	})

	return &Created{APIKey: k, Key: gen.Plaintext, Warning: Warning}, nil
}

// List returns the tenant's keys in masked form.
func (s *Service) List(ctx context.Context, tenantID string) ([]*APIKey, error) {
	keys, err := s.repo.List(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	for _, k := range keys {
		k.MaskedKey = Mask(k.KeyPrefix, k.KeyLast4)
	}
	return keys, nil
}

// Revoke deletes a key.
func (s *Service) Revoke(ctx context.Context, tenantID, actorID, keyID string) error {
	if !id.IsUUID(keyID) {
		return ErrAPIKeyNotFound
	}
	if err := s.repo.Delete(ctx, tenantID, keyID); err != nil {
		return err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeAPIKeyRevoked,
		TenantID: tenantID,
		ActorID:  actorID,
		Resource: keyID,
	})
	return nil
}
