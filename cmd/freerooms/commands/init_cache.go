package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"freerooms/internal/rooms"
)

func newInitCacheCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init-cache",
		Short: "Create the cache and seed every known room as stale",
		Long: `init-cache creates the configured cache backend and records every room
with an upstream calendar as last refreshed at the epoch, so the first
request for each room fetches it. It is safe to run on an existing cache.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.initCaches(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s cache ready, %d rooms seeded\n", cfg.Cache.Backend, len(rooms.FetchableIDs()))
			return nil
		},
	}
}
