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

package session

import (
	"context"
	"errors"
	"time"
)

// Domain errors
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrSessionInvalid  = errors.New("session no longer valid")
)

// Session is a server-held login. Its ID is the opaque token handed to the
// client in the session cookie.
type Session struct {
	ID         string
	UserID     string
	IPAddress  string
	UserAgent  string
	ExpiresAt  time.Time
	CreatedAt  time.Time
	LastSeenAt time.Time
}

// IsExpired checks if the session has expired at now
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// IsIdle checks if the session has been idle for longer than idleTimeout.
// A zero timeout disables the check.
func (s *Session) IsIdle(now time.Time, idleTimeout time.Duration) bool {
	return idleTimeout > 0 && now.Sub(s.LastSeenAt) > idleTimeout
}

// Principal is the authenticated identity bound to a request.
type Principal struct {
	UserID    string `json:"userId"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	SessionID string `json:"-"`
}

// Repository defines the interface for session persistence
type Repository interface {
	// Create creates a new session
	Create(ctx context.Context, session *Session) error

	// Get retrieves a session by ID
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Touch updates the session last seen time
	Touch(ctx context.Context, sessionID string, at time.Time) error

	// Delete deletes a session
	Delete(ctx context.Context, sessionID string) error

	// DeleteExpired deletes sessions that expired before now
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// PrincipalCache is a short lived lookaside cache from session token to
// principal. A miss is reported as (nil, nil).
type PrincipalCache interface {
	GetPrincipal(ctx context.Context, sessionID string) (*Principal, error)
	SetPrincipal(ctx context.Context, sessionID string, p *Principal, ttl time.Duration) error
	DeletePrincipal(ctx context.Context, sessionID string) error
}
