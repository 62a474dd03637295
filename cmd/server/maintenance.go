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

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/datagov/datagov/internal/audit"
	"github.com/datagov/datagov/internal/identity"
	"github.com/datagov/datagov/internal/observability/logger"
	"github.com/datagov/datagov/internal/session"
	"github.com/datagov/datagov/internal/store/postgres"
	"github.com/datagov/datagov/internal/tenant"
)

const (
	seedEmail     = "test@example.com"
	seedPassword  = "password123"
	seedName      = "Test User"
	seedWorkspace = "My Workspace"
)

func (a *app) migrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	db, err := a.openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	applied, err := db.Migrate(ctx)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "database is up to date")
		return nil
	}
	for _, name := range applied {
		fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", name)
	}
	return nil
}

// seed creates the demo account and its workspace. Running it again is a
// no-op.
func (a *app) seed(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	db, err := a.openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	auditLogger := audit.NewSlogLogger(a.logger)
	users := identity.NewService(postgres.NewUserRepository(db), a.passwordHasher(), auditLogger)
	tenants := tenant.NewService(
		postgres.NewTenantRepository(db),
		postgres.NewMembershipRepository(db),
		postgres.NewInvitationRepository(db),
		users,
		auditLogger,
	)

	user, err := users.Register(ctx, identity.RegisterParams{
		Email:    seedEmail,
		Password: seedPassword,
		Name:     seedName,
	})
	if errors.Is(err, identity.ErrUserAlreadyExists) {
		slog.InfoContext(ctx, "seed user already exists", logger.Email(seedEmail))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create seed user: %w", err)
	}

	t, err := tenants.CreateTenant(ctx, seedWorkspace, nil, user.ID)
	if err != nil {
		return fmt.Errorf("failed to create seed workspace: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "created %s / %s in workspace %q (%s)\n", seedEmail, seedPassword, t.Name, t.Slug)
	return nil
}

func (a *app) cleanup(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	db, err := a.openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	users := identity.NewService(postgres.NewUserRepository(db), a.passwordHasher(), audit.Nop{})
	sessions := session.NewService(postgres.NewSessionRepository(db), users, a.cfg.Session.Lifetime, a.cfg.Session.IdleTimeout)

	expiredSessions, err := sessions.CleanupExpired(ctx)
	if err != nil {
		return err
	}
	expiredInvitations, err := postgres.NewInvitationRepository(db).DeleteExpired(ctx, time.Now().UTC())
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "cleanup finished",
		slog.Int64("sessions", expiredSessions),
		slog.Int64("invitations", expiredInvitations),
	)
	return nil
}
