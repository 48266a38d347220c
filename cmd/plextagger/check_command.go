package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"plextagger/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify directories, Plex, and the LLM endpoint are reachable",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg)
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, result := range results {
				kind := statusOK
				if !result.Passed {
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}
			if !preflight.AllPassed(results) {
				return errors.New("one or more checks failed")
			}
			fmt.Fprintln(out, "All checks passed")
			return nil
		},
	}
}
