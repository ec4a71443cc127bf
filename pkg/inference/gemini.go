package inference

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/bizchat/bizchat/pkg/prompt"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiClient adapts the Google Gemini API to the Client contract. This is
// the default provider.
type GeminiClient struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

var _ Client = &GeminiClient{}

// NewGeminiClient builds the underlying genai client once. A missing API key
// is not an error here: the client stays nil and Generate answers with the
// soft-failure text instead.
func NewGeminiClient(apiKey, model string, timeout time.Duration) (*GeminiClient, error) {
	if strings.TrimSpace(model) == "" {
		model = defaultGeminiModel
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &GeminiClient{model: model, timeout: timeout}
	if strings.TrimSpace(apiKey) != "" {
		client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, errors.Wrap(err, "inference: gemini client")
		}
		c.client = client
	}
	return c, nil
}

func (c *GeminiClient) Generate(ctx context.Context, messages []prompt.Message) string {
	if c.client == nil {
		return "Error: GEMINI_API_KEY not set."
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	contents, cfg := toGeminiRequest(messages)
	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		log.Warn().Err(err).Str("component", "inference").Str("provider", "gemini").Msg("completion failed")
		return "Error from Gemini: " + err.Error()
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return emptyReply
	}
	return text
}

// toGeminiRequest splits the assembled prompt into a system instruction and
// the user/model content list. Prompt roles already use Gemini's "model"
// token for assistant output, so history passes through unmapped.
func toGeminiRequest(messages []prompt.Message) ([]*genai.Content, *genai.GenerateContentConfig) {
	cfg := &genai.GenerateContentConfig{}
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case prompt.RoleSystem:
			cfg.SystemInstruction = genai.NewContentFromText(m.Content, genai.RoleUser)
		case prompt.RoleModel:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	return contents, cfg
}
