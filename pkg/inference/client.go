package inference

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/bizchat/bizchat/pkg/config"
	"github.com/bizchat/bizchat/pkg/prompt"
)

// Client generates a completion for an assembled prompt.
//
// There is deliberately no error return: every provider-side failure (missing
// key, network fault, HTTP error, empty generation, timeout) is converted to
// human-readable text so the conversation log always contains something to
// show the user. Callers that need to distinguish failures from replies would
// have to change this contract.
type Client interface {
	Generate(ctx context.Context, messages []prompt.Message) string
}

const defaultTimeout = 30 * time.Second

// emptyReply is returned when the provider answers without any content.
const emptyReply = "I'm sorry, I couldn't generate a response."

// FromConfig selects the single completion backend for this process. There is
// no runtime failover between providers.
func FromConfig(cfg config.ProviderConfig) (Client, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Name)) {
	case "", "gemini":
		return NewGeminiClient(cfg.APIKey, cfg.Model, timeout)
	case "openai":
		return NewOpenAIClient(cfg.APIKey, cfg.Model, timeout), nil
	case "static":
		return NewStaticClient(""), nil
	default:
		return nil, errors.Errorf("inference: unknown provider %q", cfg.Name)
	}
}
