// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ManuGH/orgconsole/internal/config"
	xglog "github.com/ManuGH/orgconsole/internal/log"
	"github.com/ManuGH/orgconsole/internal/version"
)

// EnvConfigPath names the config file when --config is not given.
const EnvConfigPath = config.EnvPrefix + "CONFIG"

type rootOptions struct {
	configPath string
	envFiles   []string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "orgconsole",
		Short:         "Organization console",
		Long:          "orgconsole serves the organization general settings page and the reference organization API it talks to.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config file (YAML); defaults to $"+EnvConfigPath)
	root.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", nil, "dotenv files to load before reading the environment (default .env)")

	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newOrgAPICmd(opts))
	root.AddCommand(newConfigCmd(opts))
	root.AddCommand(newVersionCmd())
	return root
}

// load reads .env files, then the configuration, and configures logging
// from the result.
func (o *rootOptions) load() (config.AppConfig, *config.Loader, error) {
	if err := config.LoadDotEnv(o.envFiles...); err != nil {
		return config.AppConfig{}, nil, err
	}

	path := strings.TrimSpace(o.configPath)
	if path == "" {
		path = strings.TrimSpace(os.Getenv(EnvConfigPath))
	}

	loader := config.NewLoader(path)
	cfg, err := loader.Load()
	if err != nil {
		return cfg, nil, fmt.Errorf("load configuration: %w", err)
	}

	xglog.Configure(xglog.Config{
		Level:   cfg.LogLevel,
		Service: "orgconsole",
		Version: version.Display(),
	})
	logger := xglog.WithComponent("cli")
	source := "defaults"
	if path != "" {
		source = "file"
	}
	logger.Info().
		Str(xglog.FieldEvent, "config.loaded").
		Str("source", source).
		Str(xglog.FieldPath, path).
		Int("env_keys", len(loader.ConsumedEnvKeys)).
		Msg("configuration loaded")
	return cfg, loader, nil
}
