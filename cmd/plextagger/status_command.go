package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"plextagger/internal/daemon"
	"plextagger/internal/logs"
	"plextagger/internal/scan"
	"plextagger/internal/services/plex"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var showItems bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon state and label coverage for the comedy genre",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			components, _, err := ctx.cliComponents()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			for _, line := range renderSectionHeader("Daemon", colorize) {
				fmt.Fprintln(out, line)
			}
			running, lockErr := daemon.LockHeld(cfg.DaemonLockPath())
			switch {
			case lockErr != nil:
				fmt.Fprintln(out, renderStatusLine("Daemon", statusWarn, lockErr.Error(), colorize))
			case running:
				fmt.Fprintln(out, renderStatusLine("Daemon", statusOK, "Running", colorize))
			default:
				fmt.Fprintln(out, renderStatusLine("Daemon", statusInfo, "Not running", colorize))
			}
			kind, message := lastScanFromLog(cfg.DaemonLogPath())
			fmt.Fprintln(out, renderStatusLine("Last scan", kind, message, colorize))

			items, err := components.Plex.ItemsInGenre(cmd.Context(), cfg.Plex.Library, cfg.Plex.Genre)
			if err != nil {
				fmt.Fprintln(out, renderStatusLine("Plex", statusError, err.Error(), colorize))
				return fmt.Errorf("status: %w", err)
			}
			fmt.Fprintln(out, renderStatusLine("Plex", statusOK, fmt.Sprintf("%s / %s", cfg.Plex.Library, cfg.Plex.Genre), colorize))

			fmt.Fprintln(out)
			for _, line := range renderSectionHeader("Labels", colorize) {
				fmt.Fprintln(out, line)
			}
			coverage := countLabels(items)
			fmt.Fprintln(out, renderStatusLine("Items", statusInfo, strconv.Itoa(len(items)), colorize))
			fmt.Fprintln(out, renderStatusLine(scan.LabelStandup, statusInfo, strconv.Itoa(coverage.standup), colorize))
			fmt.Fprintln(out, renderStatusLine(scan.LabelNotStandup, statusInfo, strconv.Itoa(coverage.notStandup), colorize))
			unlabeledKind := statusOK
			if coverage.unlabeled > 0 {
				unlabeledKind = statusWarn
			}
			fmt.Fprintln(out, renderStatusLine("Unlabeled", unlabeledKind, strconv.Itoa(coverage.unlabeled), colorize))
			if coverage.conflicted > 0 {
				fmt.Fprintln(out, renderStatusLine("Both labels", statusError, strconv.Itoa(coverage.conflicted), colorize))
			}

			if showItems && len(items) > 0 {
				fmt.Fprintln(out)
				fmt.Fprintln(out, renderItemTable(items))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showItems, "items", false, "List every item with its label state")
	return cmd
}

// lastScanWindow bounds how far back status looks in the daemon log.
const lastScanWindow = 5000

var scanEvents = map[string]statusKind{
	"scan_finished":        statusOK,
	"scan_cancelled":       statusWarn,
	"catalog_fetch_failed": statusError,
}

func lastScanFromLog(path string) (statusKind, string) {
	line, event, err := logs.LastEvent(path, lastScanWindow, "scan_finished", "scan_cancelled", "catalog_fetch_failed")
	switch {
	case err != nil:
		return statusWarn, err.Error()
	case line == "":
		return statusInfo, "None in daemon log"
	}
	return scanEvents[event], strings.TrimSpace(line)
}

type labelCoverage struct {
	standup    int
	notStandup int
	unlabeled  int
	conflicted int
}

func countLabels(items []plex.Item) labelCoverage {
	var c labelCoverage
	for _, item := range items {
		standup := item.Labels.Has(scan.LabelStandup)
		notStandup := item.Labels.Has(scan.LabelNotStandup)
		switch {
		case standup && notStandup:
			c.conflicted++
		case standup:
			c.standup++
		case notStandup:
			c.notStandup++
		default:
			c.unlabeled++
		}
	}
	return c
}

func labelState(item plex.Item) string {
	standup := item.Labels.Has(scan.LabelStandup)
	notStandup := item.Labels.Has(scan.LabelNotStandup)
	switch {
	case standup && notStandup:
		return "conflict"
	case standup:
		return scan.LabelStandup
	case notStandup:
		return scan.LabelNotStandup
	default:
		return "-"
	}
}

func renderItemTable(items []plex.Item) string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		year := ""
		if item.Year > 0 {
			year = strconv.Itoa(item.Year)
		}
		rows = append(rows, []string{item.RatingKey, item.Title, year, labelState(item)})
	}
	return renderTable(
		[]string{"Key", "Title", "Year", "Label"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft},
	)
}
