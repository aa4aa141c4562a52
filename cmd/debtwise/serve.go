// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Debtwise Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/debtwise/debtwise/internal/auth"
	"github.com/debtwise/debtwise/internal/auth/postgres"
	"github.com/debtwise/debtwise/internal/config"
	"github.com/debtwise/debtwise/internal/fault"
	"github.com/debtwise/debtwise/internal/httpapi"
	"github.com/debtwise/debtwise/internal/logging"
	"github.com/debtwise/debtwise/internal/observability"
	"github.com/debtwise/debtwise/internal/store"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	flags := config.Flags()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the authentication API server",
		Long: `Start the HTTP server exposing registration, login, token refresh,
and the authenticated user endpoint, plus metrics and health probes.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile, flags)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return oops.Code("CONFIG_INVALID").Wrap(err)
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().AddFlagSet(flags)
	return cmd
}

func runServe(ctx context.Context, cfg config.Config) error {
	logging.SetDefault("debtwise", version, cfg.Log.Format)
	logger := slog.Default()

	logger.Info("starting debtwise",
		"addr", cfg.Server.Addr,
		"log_format", cfg.Log.Format,
	)

	pool, err := store.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	logger.Info("connected to database")

	users := postgres.NewUserRepository(pool)
	hasher := auth.NewBcryptHasher()

	tokens, err := auth.NewTokenService([]byte(cfg.Auth.JWTSecret), cfg.Auth.RefreshTokenTTL)
	if err != nil {
		return err
	}

	svc, err := auth.NewService(users, hasher, tokens, logger)
	if err != nil {
		return err
	}

	classifier, err := fault.NewClassifier(fault.NewRegistry(), logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Observability server is optional; an empty address disables it.
	var obsServer *observability.Server
	var metrics *observability.Metrics
	if cfg.Server.MetricsAddr != "" {
		obsServer = observability.NewServer(cfg.Server.MetricsAddr, func() bool {
			pingCtx, pingCancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer pingCancel()
			return pool.Ping(pingCtx) == nil
		})
		metrics = obsServer.Metrics()

		obsErrCh, err := obsServer.Start()
		if err != nil {
			return err
		}
		go monitorServerErrors(ctx, cancel, obsErrCh, "observability")
	}

	apiServer, err := httpapi.NewServer(cfg.Server.Addr, svc, tokens, classifier, metrics, logger, version)
	if err != nil {
		return err
	}

	apiErrCh, err := apiServer.Start()
	if err != nil {
		return err
	}
	go monitorServerErrors(ctx, cancel, apiErrCh, "api")

	logger.Info("debtwise ready", "addr", apiServer.Addr())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := apiServer.Stop(shutdownCtx); err != nil {
		logger.Warn("error stopping api server", "error", err)
	}
	if obsServer != nil {
		if err := obsServer.Stop(shutdownCtx); err != nil {
			logger.Warn("error stopping observability server", "error", err)
		}
	}

	logger.Info("shutdown complete")
	return nil
}

// monitorServerErrors cancels the context when a server reports a failure,
// triggering graceful shutdown of the whole process. It exits when an error
// arrives, the channel closes, or the context is cancelled.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
