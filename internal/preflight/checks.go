package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"plextagger/internal/config"
	"plextagger/internal/services/llm"
	"plextagger/internal/services/plex"
)

// CheckLLM verifies that the inference endpoint answers a prompt.
// It uses a 30-second timeout and a single attempt (no retries).
func CheckLLM(ctx context.Context, name string, cfg config.LLM) Result {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return Result{Name: name, Detail: "base url missing"}
	}
	if cfg.Provider == config.ProviderOpenAI && strings.TrimSpace(cfg.APIKey) == "" {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := llm.NewClient(llm.Config{
		Provider: llm.Provider(cfg.Provider),
		BaseURL:  cfg.BaseURL,
		APIKey:   cfg.APIKey,
		Model:    cfg.Model,
		Timeout:  time.Duration(cfg.TimeoutSeconds) * time.Second,
	}, llm.WithRetryMaxAttempts(1))

	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeLLMError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s responding", cfg.Model)}
}

// CheckPlex verifies connectivity, the token, and that the configured
// library and genre exist.
func CheckPlex(ctx context.Context, cfg config.Plex) Result {
	const name = "Plex"

	if strings.TrimSpace(cfg.URL) == "" {
		return Result{Name: name, Detail: "missing url"}
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return Result{Name: name, Detail: "missing token"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client := plex.NewClient(plex.Config{URL: cfg.URL, Token: cfg.Token, Timeout: 10 * time.Second})
	if err := client.Ping(checkCtx); err != nil {
		if errors.Is(err, plex.ErrAuthorizationMissing) {
			return Result{Name: name, Detail: "auth failed (invalid token)"}
		}
		return Result{Name: name, Detail: fmt.Sprintf("unreachable (%v)", err)}
	}
	sectionKey, err := client.SectionKey(checkCtx, cfg.Library)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("library %q not found", cfg.Library)}
	}
	if _, err := client.GenreID(checkCtx, sectionKey, cfg.Genre); err != nil {
		if errors.Is(err, plex.ErrNotFound) {
			// An empty genre is valid; scans simply find nothing.
			return Result{Name: name, Passed: true, Detail: fmt.Sprintf("reachable (library %q has no %q items yet)", cfg.Library, cfg.Genre)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("genre lookup failed (%v)", err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("reachable (%s/%s)", cfg.Library, cfg.Genre)}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// summarizeLLMError produces a human-readable summary for LLM health check failures.
func summarizeLLMError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (LLM endpoint unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (LLM endpoint unreachable)"
	}
	return err.Error()
}
