package commands

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"freerooms/internal/config"
	appLog "freerooms/internal/log"
)

var (
	// Global flags
	configPath string
	listenAddr string
	port       int
)

// Execute runs the root command.
func Execute(ctx context.Context, version, commit string) error {
	return newRootCommand(version, commit).ExecuteContext(ctx)
}

func newRootCommand(version, commit string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "freerooms",
		Short: "Free-room and activity calendars computed from ADE room plannings",
		Long: `freerooms fetches the ADE calendar of every requested room and serves
a subscribable calendar listing, for each time interval, the rooms that are
free, or the most restrictive music activity allowed.

Without a subcommand it runs the HTTP server.`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&listenAddr, "listen", "", "HTTP listen address (overrides config if set)")
	rootCmd.PersistentFlags().IntVarP(&port, "port", "p", 0, "HTTP port (overrides the port of the listen address)")

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newComputeCommand())
	rootCmd.AddCommand(newInitCacheCommand())

	return rootCmd
}

// loadConfig reads the config file, applies flag overrides and configures
// the logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", configPath, err)
	}

	if listenAddr != "" {
		cfg.Listen = listenAddr
	}
	if port > 0 {
		host, _, err := net.SplitHostPort(cfg.Listen)
		if err != nil {
			host = ""
		}
		cfg.Listen = net.JoinHostPort(host, strconv.Itoa(port))
	}

	appLog.Configure(os.Stderr, cfg.Log.Format, appLog.ParseLevel(cfg.Log.Level))
	appLog.Info("effective config",
		"config", configPath,
		"listen", cfg.Listen,
		"cache_backend", cfg.Cache.Backend,
		"cache_ttl_minutes", cfg.Cache.TTLMinutes,
		"window_days", cfg.Source.WindowDays,
		"fetch_concurrency", cfg.FetchConcurrency,
		"passthrough_below", *cfg.PassthroughBelow,
		"refresh", cfg.RefreshCron,
	)
	return cfg, nil
}
