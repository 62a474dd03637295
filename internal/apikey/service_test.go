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
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datagov/datagov/internal/audit"
	"github.com/datagov/datagov/internal/validation"
)

type memRepo struct {
	mu   sync.Mutex
	keys []*APIKey
}

func (r *memRepo) Create(_ context.Context, k *APIKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *k
	cp.MaskedKey = ""
	r.keys = append(r.keys, &cp)
	return nil
}

func (r *memRepo) List(_ context.Context, tenantID string) ([]*APIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*APIKey
	for _, k := range r.keys {
		if k.TenantID == tenantID {
			cp := *k
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memRepo) Delete(_ context.Context, tenantID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, k := range r.keys {
		if k.TenantID == tenantID && k.ID == id {
			r.keys = append(r.keys[:i], r.keys[i+1:]...)
			return nil
		}
	}
	return ErrAPIKeyNotFound
}

const tenantA = "0192a3b4-0000-7000-8000-00000000000a"

var keyPattern = regexp.MustCompile(`^dgk_[a-f0-9]{64}$`)

func TestGenerateKey(t *testing.T) {
	gen, err := GenerateKey()
	require.NoError(t, err)

	assert.Regexp(t, keyPattern, gen.Plaintext)
	assert.Len(t, gen.Plaintext, 68)
	assert.Equal(t, gen.Plaintext[:8], gen.Prefix)
	assert.Equal(t, gen.Plaintext[64:], gen.Last4)
	assert.Equal(t, HashKey(gen.Plaintext), gen.Hash)
	assert.NotContains(t, gen.Hash, gen.Plaintext[4:])

	other, err := GenerateKey()
	require.NoError(t, err)
	assert.NotEqual(t, gen.Plaintext, other.Plaintext)
}

// TestPurpose: Validates the one-time reveal of API key secrets.
// Scope: Unit Test
// Security: Sensitive Data Exposure (CWE-200)
// Expected: The create response carries the full key and warning; every list shows only first8...last4.
// Test Case ID: KEY-01
func TestService_OneTimeReveal(t *testing.T) {
	ctx := context.Background()
	repo := &memRepo{}

	var logs bytes.Buffer
	svc := NewService(repo, audit.NewSlogLogger(slog.New(slog.NewJSONHandler(&logs, nil))), nil)

	created, err := svc.Create(ctx, tenantA, "user-a", "CI pipeline", nil)
	require.NoError(t, err)
	assert.Regexp(t, keyPattern, created.Key)
	assert.Equal(t, Warning, created.Warning)

	body, err := json.Marshal(created)
	require.NoError(t, err)
	var wire map[string]any
	require.NoError(t, json.Unmarshal(body, &wire))
	assert.Equal(t, created.Key, wire["key"])
	assert.NotContains(t, wire, "keyHash")

	for i := 0; i < 2; i++ {
		keys, err := svc.List(ctx, tenantA)
		require.NoError(t, err)
		require.Len(t, keys, 1)

		masked := keys[0].MaskedKey
		assert.Equal(t, created.Key[:8]+"..."+created.Key[64:], masked)

		listed, err := json.Marshal(keys)
		require.NoError(t, err)
		assert.NotContains(t, string(listed), created.Key)
		assert.NotContains(t, string(listed), keys[0].KeyHash)
	}

	assert.NotContains(t, logs.String(), created.Key, "secrets never reach the logs")
}

func TestService_Revoke(t *testing.T) {
	ctx := context.Background()
	svc := NewService(&memRepo{}, audit.Nop{}, nil)

	created, err := svc.Create(ctx, tenantA, "user-a", "temp", nil)
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, tenantA, "user-a", created.ID))
	assert.ErrorIs(t, svc.Revoke(ctx, tenantA, "user-a", created.ID), ErrAPIKeyNotFound)
	assert.ErrorIs(t, svc.Revoke(ctx, tenantA, "user-a", "bogus"), ErrAPIKeyNotFound)
}

func TestService_Create_BlankName(t *testing.T) {
	repo := &memRepo{}
	svc := NewService(repo, audit.Nop{}, nil)

	for _, name := range []string{"", "   ", "\t"} {
		_, err := svc.Create(context.Background(), tenantA, "user-a", name, nil)
		var verr *validation.Error
		require.ErrorAs(t, err, &verr, "%q", name)
		assert.Equal(t, "name", verr.Details[0].Field)
	}
	assert.Empty(t, repo.keys)
}
