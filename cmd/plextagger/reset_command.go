package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newResetCommand(ctx *commandContext) *cobra.Command {
	var assumeYes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Remove the standup and verified_not_standup labels from every item in the library",
		Long: "Remove both managed labels from every item in the configured library so the\n" +
			"next scan classifies everything from scratch. Other labels are left alone.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !assumeYes {
				fmt.Fprintf(cmd.OutOrStdout(), "Remove plextagger labels from every item in %q? [y/N]: ", cfg.Plex.Library)
				reader := bufio.NewReader(cmd.InOrStdin())
				answer, _ := reader.ReadString('\n')
				answer = strings.ToLower(strings.TrimSpace(answer))
				if answer != "y" && answer != "yes" {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
					return nil
				}
			}
			components, _, err := ctx.cliComponents()
			if err != nil {
				return err
			}
			report, err := components.Runner.Reset(cmd.Context())
			if err != nil {
				return fmt.Errorf("reset: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Examined %d items, cleared %d, failed %d\n", report.Examined, report.Cleared, report.Failed)
			if report.Failed > 0 {
				return fmt.Errorf("reset: %d items could not be cleared", report.Failed)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}
