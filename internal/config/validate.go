package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePlex(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateSchedule(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePlex() error {
	if c.Plex.URL == "" {
		return fmt.Errorf("plex.url is required. Set PLEX_URL env var or edit %s (create with 'plextagger config init')", configHint())
	}
	if err := validateHTTPURL(c.Plex.URL); err != nil {
		return fmt.Errorf("plex.url: %w", err)
	}
	if c.Plex.Token == "" {
		return fmt.Errorf("plex.token is required. Set PLEX_TOKEN env var or edit %s", configHint())
	}
	return nil
}

func (c *Config) validateLLM() error {
	switch c.LLM.Provider {
	case ProviderOllama, ProviderOpenAI:
	default:
		return fmt.Errorf("llm.provider must be %q or %q, got %q", ProviderOllama, ProviderOpenAI, c.LLM.Provider)
	}
	if c.LLM.BaseURL == "" {
		return fmt.Errorf("llm.base_url is required. Set OLLAMA_URL env var or edit %s", configHint())
	}
	if err := validateHTTPURL(c.LLM.BaseURL); err != nil {
		return fmt.Errorf("llm.base_url: %w", err)
	}
	if c.LLM.Provider == ProviderOpenAI && c.LLM.APIKey == "" {
		return errors.New("llm.api_key is required for the openai provider (or set LLM_API_KEY)")
	}
	if c.LLM.PromptFile != "" {
		info, err := os.Stat(c.LLM.PromptFile)
		if err != nil {
			return fmt.Errorf("llm.prompt_file: %w", err)
		}
		if info.IsDir() {
			return fmt.Errorf("llm.prompt_file: %s is a directory", c.LLM.PromptFile)
		}
	}
	return nil
}

func (c *Config) validateSchedule() error {
	if c.Schedule.OffsetHours > 23 {
		return errors.New("schedule.offset_hours must be between 0 and 23")
	}
	if c.Schedule.FallbackMaintenanceEndHour < 0 || c.Schedule.FallbackMaintenanceEndHour > 23 {
		return errors.New("schedule.fallback_maintenance_end_hour must be between 0 and 23")
	}
	return nil
}

func validateHTTPURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return errors.New("missing host")
	}
	return nil
}

func configHint() string {
	path, err := DefaultConfigPath()
	if err != nil {
		return "~/.config/plextagger/config.toml"
	}
	return path
}
