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

// Package audit records security relevant actions as structured log events.
package audit

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"
)

// Event types
const (
	TypeLoginSuccess       = "login_success"
	TypeLoginFailed        = "login_failed"
	TypeLogout             = "logout"
	TypeUserCreated        = "user_created"
	TypeTenantCreated      = "tenant_created"
	TypeTenantUpdated      = "tenant_updated"
	TypeTenantDeleted      = "tenant_deleted"
	TypeMemberAdded        = "member_added"
	TypeMemberInvited      = "member_invited"
	TypeMemberRemoved      = "member_removed"
	TypeRoleChanged        = "role_changed"
	TypeInvitationAccepted = "invitation_accepted"
	TypeDatasetCreated     = "dataset_created"
	TypeDatasetDeleted     = "dataset_deleted"
	TypeJobCreated         = "job_created"
	TypeJobDeleted         = "job_deleted"
	TypeJobRunStarted      = "job_run_started"
	TypeAPIKeyCreated      = "api_key_created"
	TypeAPIKeyRevoked      = "api_key_revoked"
	TypeAccessDenied       = "access_denied"
)

// Common metadata keys
const (
	AttrReason = "reason"
	AttrRole   = "role"
	AttrEmail  = "email"
	AttrName   = "name"
)

// Event represents an auditable action
type Event struct {
	Type      string
	TenantID  string
	ActorID   string
	Resource  string
	Metadata  map[string]any
	Timestamp time.Time
	IPAddress string
	UserAgent string
}

// Logger defines the interface for audit logging
type Logger interface {
	Log(ctx context.Context, event Event)
}

// SlogLogger implements Logger using slog
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger creates an audit logger. A nil logger falls back to slog.Default
// at log time.
func NewSlogLogger(l *slog.Logger) *SlogLogger {
	return &SlogLogger{logger: l}
}

// Log records an audit event
func (l *SlogLogger) Log(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	attrs := []any{
		slog.String("component", "audit"),
		slog.String("audit_type", event.Type),
		slog.Time("timestamp", event.Timestamp),
	}
	if event.TenantID != "" {
		attrs = append(attrs, slog.String("tenant_id", event.TenantID))
	}
	if event.ActorID != "" {
		attrs = append(attrs, slog.String("actor_id", event.ActorID))
	}
	if event.Resource != "" {
		attrs = append(attrs, slog.String("resource", event.Resource))
	}
	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if event.UserAgent != "" {
		attrs = append(attrs, slog.String("user_agent", event.UserAgent))
	}

	if len(event.Metadata) > 0 {
		keys := make([]string, 0, len(event.Metadata))
		for k := range event.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		group := make([]any, 0, len(keys))
		for _, k := range keys {
			v := event.Metadata[k]
			if isSecret(k) {
				v = "[REDACTED]"
			}
			group = append(group, slog.Any(k, v))
		}
		attrs = append(attrs, slog.Group("metadata", group...))
	}

	l.log().InfoContext(ctx, "AUDIT_EVENT", attrs...)
}

func (l *SlogLogger) log() *slog.Logger {
	if l.logger != nil {
		return l.logger
	}
	return slog.Default()
}

var secretMarkers = []string{"password", "secret", "token", "key", "hash", "credential", "authorization"}

// isSecret checks if a key likely contains a secret
func isSecret(key string) bool {
	k := strings.ToLower(key)
	for _, s := range secretMarkers {
		if strings.Contains(k, s) {
			return true
		}
	}
	return false
}

// Nop discards every event.
type Nop struct{}

func (Nop) Log(context.Context, Event) {}
