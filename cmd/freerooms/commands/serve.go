package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	appLog "freerooms/internal/log"
	"freerooms/internal/refresh"
	"freerooms/internal/rooms"
	"freerooms/internal/web"
)

const warmupTimeout = 5 * time.Minute

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the calendars over HTTP",
		Example: `  # Serve on port 7878 with the default config file
  freerooms serve --port 7878

  # Subscribe to the free rooms of TD04, TD05 and TD06
  curl 'http://localhost:7878/?rooms=4,5,6'`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.initCaches(); err != nil {
		appLog.Error("cache init failed; continuing with a cold cache", err)
	}

	if cfg.RefreshCron != "" {
		sched, err := refresh.New(cfg.RefreshCron, a.engine, rooms.All(), warmupTimeout)
		if err != nil {
			return err
		}
		sched.Start(ctx)
		go sched.RunOnce(ctx)
	}

	return web.StartServer(ctx, cfg, a.engine)
}
