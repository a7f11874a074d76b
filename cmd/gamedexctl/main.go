// Package main is the operator CLI for gamedex: run searches and lookups
// through the same engine as the server, and manage the cache.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/gamedex/internal/app"
	"github.com/kailas-cloud/gamedex/internal/config"
	logpkg "github.com/kailas-cloud/gamedex/internal/logger"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gamedexctl",
		Short: "Operate the gamedex search engine",
		Long: `gamedexctl runs searches and identifier lookups through the gamedex engine
and manages its two-tier cache. It reads the same config/<env>.yaml as the
server; the environment comes from --env or ENV.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().String("env", config.GetEnv(), "config environment (local, dev, prod)")
	root.PersistentFlags().String("log-level", "warn", "log level: debug, info, warn, error")
	root.PersistentFlags().Bool("json", false, "output results as JSON")

	root.AddCommand(newSearchCmd(), newGamesCmd(), newCacheCmd(), newVersionCmd())
	return root
}

// openApp loads configuration and wires the engine for one command run.
func openApp(cmd *cobra.Command) (*app.App, error) {
	env, _ := cmd.Flags().GetString("env")
	level, _ := cmd.Flags().GetString("log-level")

	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	// The CLI always logs to the console.
	logger, err := logpkg.NewLogger("local", level)
	if err != nil {
		return nil, err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	store, err := app.OpenStore(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	a, err := app.New(ctx, cfg, store, logger)
	if err != nil {
		store.Close()
		return nil, err
	}
	logger.Debug("Engine ready", zap.String("env", env), zap.String("db_driver", cfg.Database.Driver))
	return a, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
