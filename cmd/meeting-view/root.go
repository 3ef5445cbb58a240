package main

import (
	"github.com/spf13/cobra"

	"github.com/qieqieplus/meeting-view/pkg/config"
)

// Dependencies is filled by the root command before any subcommand runs
type Dependencies struct {
	ConfigPath string
	Config     *config.Config
}

func NewRootCmd(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "meeting-view",
		Short:         "Meeting layout and tile visibility coordinator",
		Long:          "Tracks participant tiles, resolves the meeting layout and pushes shared meeting state to clients over WebSocket.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(deps.ConfigPath)
			if err != nil {
				return err
			}
			deps.Config = cfg
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&deps.ConfigPath, "config", "c", "", "path to a TOML config file (default $MEETING_VIEW_CONFIG)")

	rootCmd.AddCommand(NewServeCmd(deps))
	rootCmd.AddCommand(NewCheckConfigCmd(deps))
	rootCmd.AddCommand(NewResolveCmd())

	return rootCmd
}
