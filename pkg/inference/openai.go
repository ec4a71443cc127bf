package inference

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/bizchat/bizchat/pkg/prompt"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIClient adapts the OpenAI chat completion API to the Client contract.
type OpenAIClient struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

var _ Client = &OpenAIClient{}

func NewOpenAIClient(apiKey, model string, timeout time.Duration) *OpenAIClient {
	if strings.TrimSpace(model) == "" {
		model = defaultOpenAIModel
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &OpenAIClient{model: model, timeout: timeout}
	if strings.TrimSpace(apiKey) != "" {
		c.client = openai.NewClient(apiKey)
	}
	return c
}

func (c *OpenAIClient) Generate(ctx context.Context, messages []prompt.Message) string {
	if c.client == nil {
		return "Error: OPENAI_API_KEY not set."
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: toOpenAIMessages(messages),
	})
	if err != nil {
		log.Warn().Err(err).Str("component", "inference").Str("provider", "openai").Msg("completion failed")
		return "Error from OpenAI: " + err.Error()
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return emptyReply
	}
	return resp.Choices[0].Message.Content
}

// toOpenAIMessages translates prompt roles to the OpenAI role tokens. The
// assembler emits "model" for assistant output; OpenAI calls that role
// "assistant".
func toOpenAIMessages(messages []prompt.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		role := m.Role
		switch role {
		case prompt.RoleSystem:
			role = openai.ChatMessageRoleSystem
		case prompt.RoleModel:
			role = openai.ChatMessageRoleAssistant
		default:
			role = openai.ChatMessageRoleUser
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return out
}
