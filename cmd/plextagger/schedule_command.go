package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"plextagger/internal/schedule"
)

func newScheduleCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Show the daily run time derived from the Plex maintenance window",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			components, logger, err := ctx.cliComponents()
			if err != nil {
				return err
			}
			plan := schedule.BuildPlan(cmd.Context(), components.Plex, cfg.Schedule, logger)
			out := cmd.OutOrStdout()
			source := "Plex ButlerEndHour"
			if plan.FromFallback {
				source = "fallback (ButlerEndHour unavailable)"
			}
			fmt.Fprintf(out, "Maintenance window ends: %02d:00 (%s)\n", plan.MaintenanceEndHour, source)
			fmt.Fprintf(out, "Daily scan at:           %s\n", plan.RunAt())
			fmt.Fprintf(out, "Next scheduled scan:     %s\n", plan.NextRun(time.Now()).Format("2006-01-02 15:04 MST"))
			return nil
		},
	}
}
