package main

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"plextagger/internal/services/plex"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Daemon", statusError, "Not running", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Daemon:", "[ERROR] Not running")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Daemon", statusOK, "Running", true)
	if !strings.HasPrefix(got, ansiGreen) || !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected green line, got %q", got)
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}

func TestCountLabels(t *testing.T) {
	items := []plex.Item{
		{Labels: plex.NewLabelSet("standup")},
		{Labels: plex.NewLabelSet("Verified_Not_Standup")},
		{Labels: plex.NewLabelSet("standup", "verified_not_standup")},
		{Labels: plex.NewLabelSet("favorites")},
		{},
	}
	got := countLabels(items)
	want := labelCoverage{standup: 1, notStandup: 1, unlabeled: 2, conflicted: 1}
	if got != want {
		t.Fatalf("countLabels = %+v, want %+v", got, want)
	}
	if state := labelState(items[2]); state != "conflict" {
		t.Fatalf("expected conflict state, got %q", state)
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable([]string{"Key", "Title"}, [][]string{{"1"}}, []columnAlignment{alignRight})
	if !strings.Contains(out, "Key") || !strings.Contains(out, "Title") {
		t.Fatalf("expected headers in output, got %q", out)
	}
	if renderTable(nil, nil, nil) != "" {
		t.Fatal("expected empty table for no headers")
	}
}
