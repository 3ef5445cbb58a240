package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qieqieplus/meeting-view/pkg/layout"
)

func NewCheckConfigCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "check-config",
		Short: "Validate the configuration and print the resolved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := deps.Config
			if err := cfg.Validate(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			sc := cfg.Session
			gridSize := sc.Layout.GridSize
			if sc.IsRecorder {
				gridSize = layout.RecorderMaxGridSize
			}
			fmt.Fprintf(out, "meeting_id:   %s\n", sc.MeetingID)
			fmt.Fprintf(out, "redirect:     %s\n", sc.RedirectOnLeave)
			fmt.Fprintf(out, "layout:       %s (grid %d)\n", layout.Resolve(sc.Layout), gridSize)
			fmt.Fprintf(out, "recorder:     %t\n", sc.IsRecorder)
			fmt.Fprintf(out, "http_addr:    %s\n", cfg.HTTPAddr)
			fmt.Fprintln(out, "config OK")
			return nil
		},
	}
}
