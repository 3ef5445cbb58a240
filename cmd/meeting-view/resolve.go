package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qieqieplus/meeting-view/pkg/layout"
)

func NewResolveCmd() *cobra.Command {
	var layoutType, priority string

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Print the layout mode for a layout type and priority",
		Args:  cobra.NoArgs,
		// Offline helper, skips config loading
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := layout.Resolve(layout.Descriptor{
				Type:     layout.ParseType(layoutType),
				Priority: layout.ParsePriority(priority),
			})
			fmt.Fprintln(cmd.OutOrStdout(), mode)
			return nil
		},
	}

	cmd.Flags().StringVar(&layoutType, "type", string(layout.TypeGrid), "layout type: SPOTLIGHT, SIDEBAR or GRID")
	cmd.Flags().StringVar(&priority, "priority", string(layout.PrioritySpeaker), "priority: SPEAKER or PIN")

	return cmd
}
