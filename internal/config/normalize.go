package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizePlex()
	c.normalizeLLM()
	c.normalizeSchedule()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.LLM.PromptFile, err = expandPath(strings.TrimSpace(c.LLM.PromptFile)); err != nil {
		return fmt.Errorf("llm.prompt_file: %w", err)
	}
	return nil
}

func (c *Config) normalizePlex() {
	c.Plex.URL = strings.TrimSpace(c.Plex.URL)
	if c.Plex.URL == "" {
		if value, ok := os.LookupEnv("PLEX_URL"); ok {
			c.Plex.URL = strings.TrimSpace(value)
		}
	}
	c.Plex.URL = strings.TrimRight(c.Plex.URL, "/")
	c.Plex.Token = strings.TrimSpace(c.Plex.Token)
	if c.Plex.Token == "" {
		if value, ok := os.LookupEnv("PLEX_TOKEN"); ok {
			c.Plex.Token = strings.TrimSpace(value)
		}
	}
	c.Plex.Library = strings.TrimSpace(c.Plex.Library)
	if c.Plex.Library == "" {
		c.Plex.Library = defaultPlexLibrary
	}
	c.Plex.Genre = strings.TrimSpace(c.Plex.Genre)
	if c.Plex.Genre == "" {
		c.Plex.Genre = defaultPlexGenre
	}
	if c.Plex.TimeoutSeconds <= 0 {
		c.Plex.TimeoutSeconds = defaultPlexTimeoutSeconds
	}
}

func (c *Config) normalizeLLM() {
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	if c.LLM.Provider == "" {
		c.LLM.Provider = defaultLLMProvider
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		switch c.LLM.Provider {
		case ProviderOllama:
			if value, ok := os.LookupEnv("OLLAMA_URL"); ok {
				c.LLM.BaseURL = strings.TrimSpace(value)
			}
		case ProviderOpenAI:
			c.LLM.BaseURL = defaultOpenAIBaseURL
		}
	}
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		if value, ok := os.LookupEnv("LLM_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		}
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	if c.LLM.RetryAttempts <= 0 {
		c.LLM.RetryAttempts = 1
	}
}

func (c *Config) normalizeSchedule() {
	if c.Schedule.OffsetHours < 0 {
		c.Schedule.OffsetHours = defaultScheduleOffsetHours
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
