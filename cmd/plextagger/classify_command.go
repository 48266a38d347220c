package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"plextagger/internal/classifier"
)

func newClassifyCommand(ctx *commandContext) *cobra.Command {
	var summary string
	var year int
	var showRaw bool
	cmd := &cobra.Command{
		Use:   "classify TITLE",
		Short: "Ask the classifier about a title without touching Plex",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			components, _, err := ctx.cliComponents()
			if err != nil {
				return err
			}
			item := classifier.Item{
				Title:   strings.Join(args, " "),
				Year:    year,
				Summary: summary,
			}
			verdict, raw := components.Classifier.ClassifyDetailed(cmd.Context(), item)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %s\n", item.Title, verdict)
			if showRaw {
				if raw == "" {
					raw = "(no reply)"
				}
				fmt.Fprintf(out, "Reply: %s\n", raw)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&summary, "summary", "", "Plot summary to include in the prompt")
	cmd.Flags().IntVar(&year, "year", 0, "Release year to include in the prompt")
	cmd.Flags().BoolVar(&showRaw, "raw", false, "Print the model's raw reply")
	return cmd
}
