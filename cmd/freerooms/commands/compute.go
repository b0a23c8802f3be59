package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"freerooms/internal/rooms"
	"freerooms/internal/web"
)

func newComputeCommand() *cobra.Command {
	var (
		mode     string
		roomList string
	)

	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Print one calendar to stdout",
		Example: `  # Free rooms among TD04..TD06
  freerooms compute --rooms 4,5,6

  # Activity levels for the default room set
  freerooms compute --mode activity`,
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

			set := rooms.DefaultFreeSet()
			if roomList != "" {
				set = rooms.ParseList(roomList)
				if len(set) == 0 {
					return fmt.Errorf("no known room in %q", roomList)
				}
			}

			compute := a.engine.FreeRooms
			if mode == web.ModeActivity || mode == "zik" {
				compute = a.engine.Activity
			}
			out, err := compute(cmd.Context(), set)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", web.ModeFreeRooms, "calendar mode: free-rooms or activity")
	cmd.Flags().StringVarP(&roomList, "rooms", "r", "", "comma separated rooms (4, td4, TD04); empty means every labeled room")
	return cmd
}
