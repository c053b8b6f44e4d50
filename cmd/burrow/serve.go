// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Burrow Contributors

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/burrowspace/burrow/internal/access"
	"github.com/burrowspace/burrow/internal/account"
	"github.com/burrowspace/burrow/internal/bot"
	"github.com/burrowspace/burrow/internal/config"
	"github.com/burrowspace/burrow/internal/logging"
	"github.com/burrowspace/burrow/internal/notify"
	"github.com/burrowspace/burrow/internal/observability"
	"github.com/burrowspace/burrow/internal/server"
	"github.com/burrowspace/burrow/internal/store"
	"github.com/burrowspace/burrow/internal/world"
)

// shutdownTimeout bounds the graceful stop of the gateway and the
// observability server.
const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	defaults := config.Defaults()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Burrow server",
		Long: `Start the Burrow server: the websocket gateway, the world tree and
its workers, and the metrics endpoint. Accounts persist to PostgreSQL
when a database URL is configured; otherwise they are held in memory
and lost on restart.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cmd.Flags())
		},
	}

	cmd.Flags().String("listen", defaults.Listen, "websocket listen address")
	cmd.Flags().String("metrics-listen", defaults.MetricsListen, "metrics/health HTTP address (empty = disabled)")
	cmd.Flags().String("database-url", defaults.DatabaseURL, "PostgreSQL connection URL (empty = in-memory accounts)")
	cmd.Flags().String("log-format", defaults.LogFormat, "log format (json or text)")
	cmd.Flags().String("world-name", defaults.WorldName, "name of the default world")
	cmd.Flags().String("owner-name", defaults.OwnerName, "account granted the Owner role on login")
	cmd.Flags().String("music-dir", defaults.MusicDir, "directory of raw audio tracks for the music player")

	return cmd
}

// runServe wires every service together, seeds the default world and
// runs until a shutdown signal or a fatal server error.
func runServe(ctx context.Context, flags *pflag.FlagSet) error {
	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return err
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return fmt.Errorf("log-format must be 'json' or 'text', got %q", cfg.LogFormat)
	}
	logging.SetDefault("burrow", version, cfg.LogFormat)

	slog.Info("starting burrow",
		"listen", cfg.Listen,
		"world_name", cfg.WorldName,
		"log_format", cfg.LogFormat,
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// World state and the services acting on it.
	tree := world.NewTree(cfg.WorldName)
	roles := access.NewResolver(tree)
	broadcast := server.NewBroadcaster(tree)
	notifications := notify.NewService(broadcast)
	tree.OnRemove(func(ctxID ulid.ULID) {
		notifications.ExpireContext(ctxID)
		roles.DropContext(ctxID)
	})

	// Account storage: PostgreSQL when configured, in-memory otherwise.
	var (
		accountStore account.Store
		reports      server.ReportSink
	)
	if cfg.DatabaseURL != "" {
		pool, err := store.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()
		if err := store.Migrate(ctx, pool); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		accountStore = store.NewAccountRepository(pool)
		reports = store.NewReportRepository(pool)
		slog.Info("connected to database")
	} else {
		accountStore = account.NewMemoryStore()
		slog.Warn("no database configured, accounts are in-memory only")
	}

	hasher := account.NewArgon2idHasher()
	accounts := account.NewService(accountStore, hasher)
	bots := bot.NewManager(tree, broadcast.ToRoom)
	sessions := server.NewSessionManager()

	// Observability server, started before the gateway so readiness
	// reflects the full boot.
	var obsServer *observability.Server
	var metrics *observability.Metrics
	if cfg.MetricsListen != "" {
		obsServer = observability.NewServer(cfg.MetricsListen, func() bool { return true })
		metrics = obsServer.Metrics()
		obsErrCh, err := obsServer.Start()
		if err != nil {
			return fmt.Errorf("failed to start observability server: %w", err)
		}
		go monitorServerErrors(ctx, cancel, obsErrCh, "observability")
		slog.Info("observability server started", "addr", obsServer.Addr())
	}

	handler := server.NewHandler(server.HandlerConfig{
		Tree:          tree,
		Roles:         roles,
		Notifications: notifications,
		Accounts:      accounts,
		Bots:          bots,
		Sessions:      sessions,
		Broadcast:     broadcast,
		Metrics:       metrics,
		Reports:       reports,
		OwnerName:     cfg.OwnerName,
	})
	gateway := server.NewGateway(cfg.Listen, handler, sessions)

	cleanup, err := buildWorld(tree, roles, notifications, hasher, broadcast, bots, cfg)
	if err != nil {
		return fmt.Errorf("failed to seed world: %w", err)
	}

	gatewayErrCh, err := gateway.Start()
	if err != nil {
		return fmt.Errorf("failed to start gateway: %w", err)
	}
	go monitorServerErrors(ctx, cancel, gatewayErrCh, "gateway")

	slog.Info("burrow ready", "addr", gateway.Addr())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig)
	case <-ctx.Done():
		slog.Info("context cancelled, shutting down")
	}

	slog.Info("shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := gateway.Stop(shutdownCtx); err != nil {
		slog.Warn("error stopping gateway", "error", err)
	}
	bots.CloseAll()
	cleanup()

	if obsServer != nil {
		if err := obsServer.Stop(shutdownCtx); err != nil {
			slog.Warn("error stopping observability server", "error", err)
		}
	}

	slog.Info("shutdown complete")
	return nil
}

// monitorServerErrors cancels the context when a server fails, so one
// fatal component takes the whole process down gracefully. It exits
// when the channel closes or the context is done.
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
