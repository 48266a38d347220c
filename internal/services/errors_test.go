package services_test

import (
	"errors"
	"strings"
	"testing"

	"plextagger/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrCatalogFetch, "scan", "list items", "comedy genre", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrCatalogFetch) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"scan", "list items", "comedy genre"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestExitCode(t *testing.T) {
	if code := services.ExitCode(nil); code != 0 {
		t.Fatalf("expected 0 for nil, got %d", code)
	}
	configErr := services.Wrap(services.ErrConfiguration, "config", "load", "plex.url is required", nil)
	if code := services.ExitCode(configErr); code != 2 {
		t.Fatalf("expected 2 for configuration error, got %d", code)
	}
	fetchErr := services.Wrap(services.ErrCatalogFetch, "scan", "list", "", errors.New("503"))
	if code := services.ExitCode(fetchErr); code != 1 {
		t.Fatalf("expected 1 for catalog error, got %d", code)
	}
}
