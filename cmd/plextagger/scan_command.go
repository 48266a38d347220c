package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"plextagger/internal/scan"
)

type outcomeView struct {
	RatingKey string `json:"rating_key"`
	Title     string `json:"title"`
	Year      int    `json:"year,omitempty"`
	Action    string `json:"action"`
	Verdict   string `json:"verdict"`
	Label     string `json:"label,omitempty"`
	Error     string `json:"error,omitempty"`
}

type scanView struct {
	RunID    string        `json:"run_id"`
	Duration string        `json:"duration"`
	Summary  scan.Summary  `json:"summary"`
	Outcomes []outcomeView `json:"outcomes"`
}

func newScanCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one labeling pass over the comedy genre now",
		RunE: func(cmd *cobra.Command, _ []string) error {
			components, _, err := ctx.cliComponents()
			if err != nil {
				return err
			}
			report, err := components.Runner.Run(cmd.Context())
			if err != nil {
				return fmt.Errorf("scan: %w", err)
			}
			if asJSON {
				return writeJSON(cmd, newScanView(report))
			}
			printScanReport(cmd.OutOrStdout(), report)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}

func newScanView(report scan.Report) scanView {
	view := scanView{
		RunID:    report.RunID,
		Duration: report.Duration().Round(time.Millisecond).String(),
		Summary:  report.Summary,
		Outcomes: make([]outcomeView, 0, len(report.Outcomes)),
	}
	for _, outcome := range report.Outcomes {
		view.Outcomes = append(view.Outcomes, newOutcomeView(outcome))
	}
	return view
}

func newOutcomeView(outcome scan.Outcome) outcomeView {
	view := outcomeView{
		RatingKey: outcome.Item.RatingKey,
		Title:     outcome.Item.Title,
		Year:      outcome.Item.Year,
		Action:    string(outcome.Action),
		Verdict:   outcome.Verdict.String(),
		Label:     outcome.Label,
	}
	if outcome.Err != nil {
		view.Error = outcome.Err.Error()
	}
	return view
}

func printScanReport(out io.Writer, report scan.Report) {
	if len(report.Outcomes) == 0 {
		fmt.Fprintln(out, "No items in the comedy genre")
	} else {
		fmt.Fprintln(out, renderOutcomeTable(report.Outcomes))
	}
	s := report.Summary
	fmt.Fprintf(out, "Processed %d: %d standup, %d not standup, %d skipped, %d unknown, %d failed, %d conflicts resolved (%s)\n",
		s.Processed, s.Standup, s.NotStandup, s.Skipped, s.Unknown, s.Failed, s.ConflictsResolved,
		report.Duration().Round(time.Millisecond))
}

func renderOutcomeTable(outcomes []scan.Outcome) string {
	rows := make([][]string, 0, len(outcomes))
	for _, outcome := range outcomes {
		view := newOutcomeView(outcome)
		year := ""
		if view.Year > 0 {
			year = strconv.Itoa(view.Year)
		}
		detail := view.Label
		if view.Error != "" {
			detail = view.Error
		}
		rows = append(rows, []string{view.RatingKey, view.Title, year, view.Action, detail})
	}
	return renderTable(
		[]string{"Key", "Title", "Year", "Action", "Label / Error"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft},
	)
}
