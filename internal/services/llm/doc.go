// Package llm sends single-prompt completions to a language model.
//
// Two wire formats are supported: Ollama's /api/generate (the default, used by
// self-hosted deployments) and the OpenAI-compatible chat completions format
// (OpenRouter and friends). Config.BaseURL is the full endpoint URL in both
// cases.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.Complete: send a prompt, receive the model's free-text reply.
// Client.HealthCheck: verify the endpoint and model respond.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors, empty replies, and network
// timeouts with exponential backoff (base 1s, max 10s, 2 attempts by default).
// Context cancellation aborts retries immediately.
package llm
