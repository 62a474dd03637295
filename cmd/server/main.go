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

// Command datagov runs the datagov API server and its maintenance tasks.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/datagov/datagov/internal/config"
	"github.com/datagov/datagov/internal/identity"
	"github.com/datagov/datagov/internal/observability/logger"
	"github.com/datagov/datagov/internal/store/postgres"
)

// app carries what every command needs once the root command has loaded it.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "datagov: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:               "datagov",
		Short:             "Multi-tenant data governance API",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.load,
		RunE:              a.serve,
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API (default)",
			RunE:  a.serve,
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply pending database migrations",
			RunE:  a.migrate,
		},
		&cobra.Command{
			Use:   "seed",
			Short: "Create a demo user and workspace",
			RunE:  a.seed,
		},
		&cobra.Command{
			Use:   "cleanup",
			Short: "Delete expired sessions and invitations",
			RunE:  a.cleanup,
		},
	)
	return root
}

// load reads an optional .env file, then the environment.
func (a *app) load(*cobra.Command, []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.logger = logger.InitLogger(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})
	return nil
}

func (a *app) openDB(ctx context.Context) (*postgres.DB, error) {
	db, err := postgres.New(ctx, a.cfg.Database.DSN())
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "connected to database", logger.Component("postgres"))
	return db, nil
}

func (a *app) passwordHasher() *identity.PasswordHasher {
	s := a.cfg.Security
	return identity.NewPasswordHasher(
		s.Argon2Memory,
		s.Argon2Iterations,
		s.Argon2Parallelism,
		s.Argon2SaltLength,
		s.Argon2KeyLength,
	)
}
