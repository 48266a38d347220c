package main

import (
	"github.com/spf13/cobra"

	"plextagger/internal/daemonrun"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Scan at startup, then daily after the Plex maintenance window",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				LogLevel: ctx.logLevel(),
			})
		},
	}
}
