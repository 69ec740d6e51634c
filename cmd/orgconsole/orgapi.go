// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"context"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/ManuGH/orgconsole/internal/config"
	"github.com/ManuGH/orgconsole/internal/daemon"
	"github.com/ManuGH/orgconsole/internal/health"
	xglog "github.com/ManuGH/orgconsole/internal/log"
	"github.com/ManuGH/orgconsole/internal/orgserver"
	"github.com/ManuGH/orgconsole/internal/orgstore"
	"github.com/ManuGH/orgconsole/internal/server"
	"github.com/ManuGH/orgconsole/internal/telemetry"
	"github.com/ManuGH/orgconsole/internal/version"
)

func newOrgAPICmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "orgapi",
		Short: "Serve the reference organization GraphQL API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := opts.load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			tcfg := tracingConfig(cfg)
			tcfg.ServiceName = "orgapi"
			tp, err := telemetry.NewProvider(ctx, tcfg)
			if err != nil {
				return err
			}

			handler, closeStore, err := buildOrgAPI(ctx, cfg)
			if err != nil {
				_ = tp.Shutdown(context.WithoutCancel(ctx))
				return err
			}

			m := daemon.NewManager(cfg.Server.ShutdownTimeout)
			m.RegisterShutdownHook("telemetry", tp.Shutdown)
			m.RegisterShutdownHook("orgstore", func(context.Context) error { return closeStore() })
			m.AddServer("orgapi", &http.Server{
				Addr:              cfg.OrgAPI.Listen,
				Handler:           handler,
				ReadHeaderTimeout: readHeaderTimeout,
			})

			logger := xglog.WithComponent("cli")
			logger.Info().
				Str(xglog.FieldEvent, "orgapi.starting").
				Str("listen", cfg.OrgAPI.Listen).
				Str("store", cfg.OrgAPI.Store).
				Msg("starting organization API")
			return m.Start(ctx)
		},
	}
}

// buildOrgAPI opens the configured store and returns the GraphQL endpoint
// plus health probes, ready to be served.
func buildOrgAPI(ctx context.Context, cfg config.AppConfig) (http.Handler, func() error, error) {
	if err := config.EnsureStoreDir(cfg.OrgAPI); err != nil {
		return nil, nil, err
	}
	store, err := orgstore.Open(ctx, cfg.OrgAPI)
	if err != nil {
		return nil, nil, err
	}

	stack, err := server.StackConfig(cfg)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	stack.EnableCORS = false
	if cfg.Tracing.Enabled {
		stack.TracingService = "orgapi"
	}

	hm := health.NewManager(version.Display())
	hm.RegisterChecker(health.NewCheckFunc("store", store.Ping))

	mux := http.NewServeMux()
	mux.Handle("/graphql", orgserver.NewHandler(store).Router(stack))
	mux.HandleFunc("/healthz", hm.ServeHealth)
	mux.HandleFunc("/readyz", hm.ServeReady)
	return mux, store.Close, nil
}
