package inference

import (
	"context"
	"strings"

	"github.com/bizchat/bizchat/pkg/prompt"
)

// StaticClient is an offline completion backend. It echoes the final user
// message, or returns a fixed reply when one is configured. Used by tests and
// by `serve --provider static` for development without provider credentials.
type StaticClient struct {
	reply string
}

var _ Client = &StaticClient{}

func NewStaticClient(reply string) *StaticClient {
	return &StaticClient{reply: reply}
}

func (c *StaticClient) Generate(_ context.Context, messages []prompt.Message) string {
	if strings.TrimSpace(c.reply) != "" {
		return c.reply
	}
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == prompt.RoleUser {
			return "You said: " + messages[i].Content
		}
	}
	return emptyReply
}
