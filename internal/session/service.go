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
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/datagov/datagov/internal/identity"
	"github.com/datagov/datagov/internal/observability/logger"
)

const tokenBytes = 32

// UserLookup loads the live user behind a session.
type UserLookup interface {
	GetUser(ctx context.Context, userID string) (*identity.User, error)
}

// Service manages session lifecycle
type Service struct {
	repo        Repository
	users       UserLookup
	cache       PrincipalCache
	cacheTTL    time.Duration
	lifetime    time.Duration
	idleTimeout time.Duration
	now         func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithCache enables the principal cache with the given TTL.
func WithCache(c PrincipalCache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new session service
func NewService(repo Repository, users UserLookup, lifetime, idleTimeout time.Duration, opts ...Option) *Service {
	s := &Service{
		repo:        repo,
		users:       users,
		lifetime:    lifetime,
		idleTimeout: idleTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Lifetime returns the absolute session lifetime.
func (s *Service) Lifetime() time.Duration {
	return s.lifetime
}

// Create creates a new session for user
func (s *Service) Create(ctx context.Context, user *identity.User, ipAddress, userAgent string) (*Session, error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	sess := &Session{
		ID:         token,
		UserID:     user.ID,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		ExpiresAt:  now.Add(s.lifetime),
		CreatedAt:  now,
		LastSeenAt: now,
	}
	if err := s.repo.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return sess, nil
}

// Resolve turns a session token into the principal it authenticates. Expired
// and idle sessions are deleted and reported as ErrSessionExpired.
func (s *Service) Resolve(ctx context.Context, sessionID string) (*Principal, error) {
	if sessionID == "" {
		return nil, ErrSessionNotFound
	}

	if s.cache != nil {
		p, err := s.cache.GetPrincipal(ctx, sessionID)
		if err != nil {
			slog.WarnContext(ctx, "principal cache read failed", logger.Error(err))
		} else if p != nil {
			p.SessionID = sessionID
			return p, nil
		}
	}

	sess, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if sess.IsExpired(now) || sess.IsIdle(now, s.idleTimeout) {
		if err := s.repo.Delete(ctx, sessionID); err != nil && !errors.Is(err, ErrSessionNotFound) {
			slog.WarnContext(ctx, "failed to delete stale session", logger.Error(err))
		}
		return nil, ErrSessionExpired
	}

	user, err := s.users.GetUser(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return nil, ErrSessionInvalid
		}
		return nil, fmt.Errorf("failed to load session user: %w", err)
	}

	if err := s.repo.Touch(ctx, sessionID, now); err != nil {
		slog.WarnContext(ctx, "failed to refresh session", logger.Error(err))
	}

	p := &Principal{UserID: user.ID, Email: user.Email, Name: user.Name, SessionID: sessionID}

	if s.cache != nil {
		ttl := s.cacheTTL
		if remaining := sess.ExpiresAt.Sub(now); remaining < ttl {
			ttl = remaining
		}
		if err := s.cache.SetPrincipal(ctx, sessionID, p, ttl); err != nil {
			slog.WarnContext(ctx, "principal cache write failed", logger.Error(err))
		}
	}

	return p, nil
}

// Destroy logs a session out. The cached principal is dropped before the
// session row so no request can be served from the cache afterwards.
func (s *Service) Destroy(ctx context.Context, sessionID string) error {
	if s.cache != nil {
		if err := s.cache.DeletePrincipal(ctx, sessionID); err != nil {
			return fmt.Errorf("failed to evict cached principal: %w", err)
		}
	}
	if err := s.repo.Delete(ctx, sessionID); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// CleanupExpired removes expired sessions
func (s *Service) CleanupExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return n, nil
}

// RunCleanup deletes expired sessions every interval until ctx is done.
func (s *Service) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.CleanupExpired(ctx)
			if err != nil {
				slog.ErrorContext(ctx, "session cleanup failed", logger.Error(err))
				continue
			}
			if n > 0 {
				slog.InfoContext(ctx, "expired sessions removed", logger.RowsAffected(n))
			}
		}
	}
}

func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
