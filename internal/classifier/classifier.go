package classifier

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"plextagger/internal/logging"
)

// Completer sends a prompt to a language model and returns its reply.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Classifier turns catalog items into verdicts.
type Classifier struct {
	llm      Completer
	logger   *slog.Logger
	template string
}

// Option customizes a Classifier.
type Option func(*Classifier)

// WithTemplate replaces the default prompt template. Blank templates are
// ignored.
func WithTemplate(tmpl string) Option {
	return func(c *Classifier) {
		if strings.TrimSpace(tmpl) != "" {
			c.template = tmpl
		}
	}
}

// New constructs a classifier backed by llm.
func New(llm Completer, logger *slog.Logger, opts ...Option) *Classifier {
	c := &Classifier{
		llm:      llm,
		logger:   logging.NewComponentLogger(logger, "classifier"),
		template: DefaultTemplate,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify returns the verdict for item. Transport errors are logged and
// reported as Unknown; they never reach the caller.
func (c *Classifier) Classify(ctx context.Context, item Item) Verdict {
	verdict, _ := c.ClassifyDetailed(ctx, item)
	return verdict
}

// ClassifyDetailed is Classify plus the raw model reply, for diagnostics.
func (c *Classifier) ClassifyDetailed(ctx context.Context, item Item) (Verdict, string) {
	if c == nil {
		return Unknown, ""
	}
	logger := logging.WithContext(ctx, c.logger).With(logging.String(logging.FieldTitle, item.Title))
	if c.llm == nil {
		logging.WarnWithContext(logger, "classifier unavailable", "classifier_unavailable",
			logging.String(logging.FieldImpact, "item left unlabeled until the next run"),
		)
		return Unknown, ""
	}

	started := time.Now()
	reply, err := c.llm.Complete(ctx, RenderPrompt(c.template, item))
	if err != nil {
		hint := "check llm.base_url and that the model is loaded"
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			hint = "raise llm.timeout_seconds or use a smaller model"
		}
		logging.WarnWithContext(logger, "classification request failed", "classification_failed",
			logging.Error(err),
			logging.Duration("elapsed", time.Since(started)),
			logging.String(logging.FieldErrorHint, hint),
			logging.String(logging.FieldImpact, "item left unlabeled until the next run"),
		)
		return Unknown, ""
	}

	verdict := ParseVerdict(reply)
	reason := "model reply"
	if verdict == Unknown {
		reason = "reply was not a clear yes or no"
	}
	attrs := logging.DecisionAttrs("standup_classification", verdict.String(), reason)
	attrs = append(attrs,
		logging.String("reply", truncate(reply, 80)),
		logging.Duration("elapsed", time.Since(started)),
	)
	logger.Info("classification decision", logging.Args(attrs...)...)
	return verdict, reply
}

func truncate(value string, limit int) string {
	value = strings.Join(strings.Fields(value), " ")
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit]) + "..."
}
