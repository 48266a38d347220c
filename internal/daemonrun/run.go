package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"plextagger/internal/classifier"
	"plextagger/internal/config"
	"plextagger/internal/daemon"
	"plextagger/internal/logging"
	"plextagger/internal/notifications"
	"plextagger/internal/preflight"
	"plextagger/internal/scan"
	"plextagger/internal/services"
	"plextagger/internal/services/llm"
	"plextagger/internal/services/plex"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel string
}

// Components are the collaborators shared by the daemon and one-shot CLI
// commands.
type Components struct {
	Plex       *plex.Client
	Labels     *plex.LabelStore
	LLM        *llm.Client
	Classifier *classifier.Classifier
	Runner     *scan.Runner
	Notifier   notifications.Service
}

// Build wires Plex, the LLM, the classifier, and the scan runner from cfg.
// It fails only when llm.prompt_file cannot be loaded.
func Build(cfg *config.Config, logger *slog.Logger) (*Components, error) {
	var clsOpts []classifier.Option
	if cfg.LLM.PromptFile != "" {
		tmpl, err := classifier.LoadTemplate(cfg.LLM.PromptFile)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "daemonrun", "load prompt", "llm.prompt_file", err)
		}
		clsOpts = append(clsOpts, classifier.WithTemplate(tmpl))
	}
	plexClient := plex.NewClient(plex.Config{
		URL:     cfg.Plex.URL,
		Token:   cfg.Plex.Token,
		Timeout: cfg.PlexTimeout(),
	})
	labels := plex.NewLabelStore(plexClient)
	llmClient := llm.NewClient(llm.Config{
		Provider: llm.Provider(cfg.LLM.Provider),
		BaseURL:  cfg.LLM.BaseURL,
		APIKey:   cfg.LLM.APIKey,
		Model:    cfg.LLM.Model,
		Timeout:  cfg.LLMTimeout(),
	}, llm.WithRetryMaxAttempts(cfg.LLM.RetryAttempts))
	cls := classifier.New(llmClient, logger, clsOpts...)
	runner := scan.NewRunner(plexClient, labels, cls, logger, scan.Options{
		Library: cfg.Plex.Library,
		Genre:   cfg.Plex.Genre,
		Guard:   scan.NewGuard(cfg.ScanLockPath()),
	})
	return &Components{
		Plex:       plexClient,
		Labels:     labels,
		LLM:        llmClient,
		Classifier: cls,
		Runner:     runner,
		Notifier:   notifications.NewService(cfg),
	}, nil
}

// Run starts the plextagger daemon runtime loop and blocks until SIGINT or
// SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger, err := logging.NewFromConfig(cfg, opts.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logConfigSnapshot(logger, cfg)
	for _, result := range preflight.RunAll(signalCtx, cfg) {
		if result.Passed {
			logger.Info("preflight check passed",
				logging.String("check", result.Name),
				logging.String("detail", result.Detail),
			)
			continue
		}
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldErrorHint, "run plextagger check for details"),
			logging.String(logging.FieldImpact, "scans may fail until the dependency recovers"),
		)
	}

	components, err := Build(cfg, logger)
	if err != nil {
		return err
	}
	d, err := daemon.New(cfg, logger, components.Runner, components.Plex, components.Notifier)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	if err := d.Run(signalCtx); err != nil {
		return err
	}
	logger.Info("plextagger daemon shutting down")
	return nil
}

func logConfigSnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	logger.Info("configuration snapshot",
		logging.String(logging.FieldEventType, "config_snapshot"),
		logging.String("plex_url", cfg.Plex.URL),
		logging.String("library", cfg.Plex.Library),
		logging.String("genre", cfg.Plex.Genre),
		logging.String("llm_provider", cfg.LLM.Provider),
		logging.String("llm_model", cfg.LLM.Model),
		logging.String("prompt_file", cfg.LLM.PromptFile),
		logging.Bool("llm_key_present", cfg.LLM.APIKey != ""),
		logging.Bool("ntfy_enabled", cfg.Notifications.NtfyTopic != ""),
		logging.Int("offset_hours", cfg.Schedule.OffsetHours),
	)
}
