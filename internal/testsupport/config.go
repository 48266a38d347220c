package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"plextagger/internal/config"
)

// ConfigOption customizes the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config rooted in a per-test temp directory with the
// state and log directories already created.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Plex.URL = "http://127.0.0.1:32400"
	cfg.Plex.Token = "test-token"
	cfg.LLM.BaseURL = "http://127.0.0.1:11434/api/generate"
	cfg.LLM.RetryAttempts = 1

	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithPlex points the config at a FakePlex.
func WithPlex(fake *FakePlex) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Plex.URL = fake.URL()
		cfg.Plex.Token = fake.Token
	}
}

// WithLLMEndpoint sets the inference endpoint.
func WithLLMEndpoint(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.LLM.BaseURL = url
	}
}

// WriteConfig encodes cfg as TOML at path so it can be passed to --config.
func WriteConfig(t testing.TB, cfg *config.Config, path string) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

// BaseDir returns the temp directory backing a config from NewConfig.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
