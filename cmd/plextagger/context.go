package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"plextagger/internal/config"
	"plextagger/internal/daemonrun"
	"plextagger/internal/logging"
	"plextagger/internal/services"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	componentsOnce sync.Once
	components     *daemonrun.Components
	logger         *slog.Logger
	componentsErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "config", "load", "", err)
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "config", "ensure directories", "", err)
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) logLevel() string {
	if c.logLevelFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.logLevelFlag)
}

// cliComponents wires collaborators for one-shot commands. Logs go to stderr
// so tables on stdout stay clean; the default level is warn.
func (c *commandContext) cliComponents() (*daemonrun.Components, *slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	c.componentsOnce.Do(func() {
		level := c.logLevel()
		if level == "" {
			level = "warn"
		}
		logger, err := logging.New(logging.Options{
			Level:       level,
			Format:      cfg.Logging.Format,
			OutputPaths: []string{"stderr"},
		})
		if err != nil {
			c.componentsErr = err
			return
		}
		c.logger = logger
		c.components, c.componentsErr = daemonrun.Build(cfg, logger)
	})
	if c.componentsErr != nil {
		return nil, nil, c.componentsErr
	}
	return c.components, c.logger, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
