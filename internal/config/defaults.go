package config

const (
	defaultStateDir                   = "~/.local/share/plextagger"
	defaultLogDir                     = "~/.local/share/plextagger/logs"
	defaultPlexLibrary                = "Movies"
	defaultPlexGenre                  = "Comedy"
	defaultPlexTimeoutSeconds         = 30
	defaultLLMProvider                = ProviderOllama
	defaultLLMModel                   = "llama3"
	defaultLLMTimeoutSeconds          = 30
	defaultLLMRetryAttempts           = 2
	defaultOpenAIBaseURL              = "https://openrouter.ai/api/v1/chat/completions"
	defaultScheduleOffsetHours        = 1
	defaultFallbackMaintenanceEndHour = 5
	defaultNotifyRequestTimeout       = 10
	defaultLogFormat                  = "console"
	defaultLogLevel                   = "info"
)

// Supported LLM provider identifiers.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Plex: Plex{
			Library:        defaultPlexLibrary,
			Genre:          defaultPlexGenre,
			TimeoutSeconds: defaultPlexTimeoutSeconds,
		},
		LLM: LLM{
			Provider:       defaultLLMProvider,
			Model:          defaultLLMModel,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
			RetryAttempts:  defaultLLMRetryAttempts,
		},
		Schedule: Schedule{
			OffsetHours:                defaultScheduleOffsetHours,
			FallbackMaintenanceEndHour: defaultFallbackMaintenanceEndHour,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
