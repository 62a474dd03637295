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

package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/datagov/datagov/internal/session"
)

// principalPrefix is the Redis key prefix for cached session principals.
const principalPrefix = "session:principal:"

type cachedPrincipal struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// principalKey derives the Redis key from a session token. The raw token is
// never written to Redis.
func principalKey(sessionID string) string {
	sum := sha256.Sum256([]byte(sessionID))
	return principalPrefix + hex.EncodeToString(sum[:])
}

// GetPrincipal returns the cached principal for a session token.
// Returns nil, nil on a miss or a corrupted entry.
func (c *Cache) GetPrincipal(ctx context.Context, sessionID string) (*session.Principal, error) {
	data, err := c.client.Get(ctx, principalKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cached principal: %w", err)
	}

	var cached cachedPrincipal
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, nil //nolint:nilerr // corrupted entry is a miss
	}

	return &session.Principal{
		UserID: cached.UserID,
		Email:  cached.Email,
		Name:   cached.Name,
	}, nil
}

// SetPrincipal caches a principal for ttl. Non-positive TTLs are ignored.
func (c *Cache) SetPrincipal(ctx context.Context, sessionID string, p *session.Principal, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(cachedPrincipal{UserID: p.UserID, Email: p.Email, Name: p.Name})
	if err != nil {
		return fmt.Errorf("marshal principal: %w", err)
	}

	return c.client.Set(ctx, principalKey(sessionID), data, ttl).Err()
}

// DeletePrincipal removes a cached principal. Used on logout.
func (c *Cache) DeletePrincipal(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx, principalKey(sessionID)).Err()
}
