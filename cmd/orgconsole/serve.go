// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"context"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/ManuGH/orgconsole/internal/audit"
	"github.com/ManuGH/orgconsole/internal/config"
	"github.com/ManuGH/orgconsole/internal/daemon"
	xglog "github.com/ManuGH/orgconsole/internal/log"
	"github.com/ManuGH/orgconsole/internal/server"
	"github.com/ManuGH/orgconsole/internal/telemetry"
	"github.com/ManuGH/orgconsole/internal/version"
)

const readHeaderTimeout = 5 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	var withOrgAPI bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the settings console",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, loader, err := opts.load()
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, loader, withOrgAPI)
		},
	}
	cmd.Flags().BoolVar(&withOrgAPI, "with-orgapi", false, "also serve the reference organization API in-process")
	return cmd
}

func runServe(ctx context.Context, cfg config.AppConfig, loader *config.Loader, withOrgAPI bool) error {
	logger := xglog.WithComponent("cli")

	tp, err := telemetry.NewProvider(ctx, tracingConfig(cfg))
	if err != nil {
		return err
	}

	holder := config.NewHolder(cfg, loader)
	holder.OnReload(config.ApplyLogLevel)
	holder.OnReload(audit.NewLogger().ConfigReloaded)
	if err := holder.Watch(ctx); err != nil {
		logger.Warn().Err(err).Str(xglog.FieldEvent, "config.watcher_failed").Msg("config hot reload disabled")
	}

	srv, err := server.Build(ctx, cfg)
	if err != nil {
		_ = tp.Shutdown(context.WithoutCancel(ctx))
		return err
	}

	m := daemon.NewManager(cfg.Server.ShutdownTimeout)
	m.RegisterShutdownHook("telemetry", tp.Shutdown)
	m.RegisterShutdownHook("views", func(context.Context) error { return srv.Close() })
	m.AddServer("console", &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	})

	if withOrgAPI {
		handler, closeStore, err := buildOrgAPI(ctx, cfg)
		if err != nil {
			_ = srv.Close()
			_ = tp.Shutdown(context.WithoutCancel(ctx))
			return err
		}
		m.RegisterShutdownHook("orgstore", func(context.Context) error { return closeStore() })
		m.AddServer("orgapi", &http.Server{
			Addr:              cfg.OrgAPI.Listen,
			Handler:           handler,
			ReadHeaderTimeout: readHeaderTimeout,
		})
	}

	logger.Info().
		Str(xglog.FieldEvent, "console.starting").
		Str("version", version.Display()).
		Str("listen", cfg.Server.Listen).
		Bool("with_orgapi", withOrgAPI).
		Msg("starting console")
	return m.Start(ctx)
}

func tracingConfig(cfg config.AppConfig) telemetry.Config {
	return telemetry.Config{
		Enabled:        cfg.Tracing.Enabled,
		ServiceName:    "orgconsole",
		ServiceVersion: version.Display(),
		Environment:    cfg.Tracing.Environment,
		ExporterType:   cfg.Tracing.Exporter,
		Endpoint:       cfg.Tracing.Endpoint,
		SamplingRate:   cfg.Tracing.SamplingRate,
	}
}
