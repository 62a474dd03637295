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
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/datagov/datagov/internal/apikey"
	"github.com/datagov/datagov/internal/audit"
	"github.com/datagov/datagov/internal/authz"
	"github.com/datagov/datagov/internal/cache"
	"github.com/datagov/datagov/internal/dataset"
	"github.com/datagov/datagov/internal/identity"
	"github.com/datagov/datagov/internal/job"
	"github.com/datagov/datagov/internal/observability/logger"
	"github.com/datagov/datagov/internal/observability/metrics"
	"github.com/datagov/datagov/internal/observability/tracing"
	"github.com/datagov/datagov/internal/server"
	"github.com/datagov/datagov/internal/session"
	"github.com/datagov/datagov/internal/store/postgres"
	"github.com/datagov/datagov/internal/tenant"
	transportHTTP "github.com/datagov/datagov/internal/transport/http"
)

func (a *app) serve(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := a.cfg
	slog.InfoContext(ctx, "starting datagov", slog.String("environment", cfg.Server.Environment))

	tracer, err := tracing.New(ctx, tracing.Config{
		Enabled:        cfg.Observability.OTELEnabled,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
		Environment:    cfg.Server.Environment,
		SamplingRate:   cfg.Observability.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize tracer: %w", err)
	}

	meter := metrics.New(metrics.Config{Enabled: cfg.Observability.OTELEnabled}, cfg.Observability.ServiceName)
	instruments, err := metrics.NewInstruments(meter)
	if err != nil {
		return fmt.Errorf("failed to register instruments: %w", err)
	}

	db, err := a.openDB(ctx)
	if err != nil {
		return err
	}

	if cfg.Database.AutoMigrate {
		if _, err := db.Migrate(ctx); err != nil {
			db.Close()
			return err
		}
	}

	var (
		principalCache *cache.Cache
		sessionOpts    []session.Option
	)
	if cfg.Redis.Enabled() {
		principalCache, err = cache.New(ctx, cfg.Redis.URL)
		if err != nil {
			db.Close()
			return err
		}
		sessionOpts = append(sessionOpts, session.WithCache(principalCache, cfg.Redis.PrincipalTTL))
		slog.InfoContext(ctx, "principal cache enabled", logger.Component("redis"))
	}

	// Services
	auditLogger := audit.NewSlogLogger(a.logger)
	identityService := identity.NewService(postgres.NewUserRepository(db), a.passwordHasher(), auditLogger)
	sessionService := session.NewService(
		postgres.NewSessionRepository(db),
		identityService,
		cfg.Session.Lifetime,
		cfg.Session.IdleTimeout,
		sessionOpts...,
	)
	tenantService := tenant.NewService(
		postgres.NewTenantRepository(db),
		postgres.NewMembershipRepository(db),
		postgres.NewInvitationRepository(db),
		identityService,
		auditLogger,
	)

	jobRepo := postgres.NewJobRepository(db)
	runner := job.NewRunner(jobRepo, cfg.Jobs.CompletionDelay, cfg.Jobs.QueueSize, job.WithInstruments(instruments))

	handler := transportHTTP.NewHandler(transportHTTP.Services{
		Identity: identityService,
		Sessions: sessionService,
		Tenants:  tenantService,
		Datasets: dataset.NewService(postgres.NewDatasetRepository(db), auditLogger),
		Jobs:     job.NewService(jobRepo, jobRepo, runner, auditLogger),
		APIKeys:  apikey.NewService(postgres.NewAPIKeyRepository(db), auditLogger, instruments),
		Guard:    authz.NewGuard(tenantService),
		Audit:    auditLogger,
		Metrics:  instruments,
	}, transportHTTP.SessionConfig{
		CookieName:     cfg.Session.CookieName,
		CookieDomain:   cfg.Session.CookieDomain,
		CookiePath:     cfg.Session.CookiePath,
		CookieSecure:   cfg.Session.CookieSecure || cfg.Server.IsProduction(),
		CookieHTTPOnly: cfg.Session.CookieHTTPOnly,
		CookieSameSite: transportHTTP.ParseSameSite(cfg.Session.CookieSameSite),
		MaxAge:         sessionService.Lifetime(),
	})
	handler.AddHealthCheck("postgres", db)
	if principalCache != nil {
		handler.AddHealthCheck("redis", principalCache)
	}

	var rateLimiter *transportHTTP.RateLimiter
	if cfg.RateLimit.Enabled {
		rateLimiter = transportHTTP.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	}

	router := transportHTTP.NewRouter(handler, transportHTTP.RouterConfig{
		Production:     cfg.Server.IsProduction(),
		AllowedOrigins: cfg.Server.CORSAllowedOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		RateLimiter:    rateLimiter,
	})

	srv := server.New(router, server.Config{
		Addr:            cfg.Server.Addr(),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, a.logger)

	// Background work outlives the request context and is stopped by the
	// shutdown hooks below.
	workCtx, stopWork := context.WithCancel(context.Background())
	go func() {
		if err := runner.Run(workCtx); err != nil {
			slog.Error("job runner exited", logger.Error(err))
		}
	}()
	if cfg.Session.CleanupInterval > 0 {
		go sessionService.RunCleanup(workCtx, cfg.Session.CleanupInterval)
	}

	// Hooks run last-registered first.
	srv.OnShutdown("postgres", func(context.Context) error {
		db.Close()
		return nil
	})
	if principalCache != nil {
		srv.OnShutdown("redis", func(context.Context) error {
			return principalCache.Close()
		})
	}
	if rateLimiter != nil {
		srv.OnShutdown("rate limiter", func(context.Context) error {
			rateLimiter.Stop()
			return nil
		})
	}
	srv.OnShutdown("job runner", func(ctx context.Context) error {
		stopWork()
		select {
		case <-runner.Done():
			return nil
		case <-ctx.Done():
			return fmt.Errorf("job runner did not drain: %w", ctx.Err())
		}
	})
	srv.OnShutdown("tracer", tracer.Shutdown)

	return srv.Run(ctx)
}
