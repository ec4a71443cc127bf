package inference

import (
	"context"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizchat/bizchat/pkg/config"
	"github.com/bizchat/bizchat/pkg/prompt"
)

func TestFromConfig(t *testing.T) {
	c, err := FromConfig(config.ProviderConfig{Name: "gemini"})
	require.NoError(t, err)
	assert.IsType(t, &GeminiClient{}, c)

	c, err = FromConfig(config.ProviderConfig{Name: "openai"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIClient{}, c)

	c, err = FromConfig(config.ProviderConfig{Name: "static"})
	require.NoError(t, err)
	assert.IsType(t, &StaticClient{}, c)

	// gemini is the default
	c, err = FromConfig(config.ProviderConfig{})
	require.NoError(t, err)
	assert.IsType(t, &GeminiClient{}, c)

	_, err = FromConfig(config.ProviderConfig{Name: "llamacpp"})
	assert.Error(t, err)
}

func TestStaticClientEchoesLastUserMessage(t *testing.T) {
	c := NewStaticClient("")
	reply := c.Generate(context.Background(), []prompt.Message{
		{Role: prompt.RoleSystem, Content: "sys"},
		{Role: prompt.RoleUser, Content: "first"},
		{Role: prompt.RoleModel, Content: "answer"},
		{Role: prompt.RoleUser, Content: "second"},
	})
	assert.Equal(t, "You said: second", reply)
}

func TestStaticClientFixedReply(t *testing.T) {
	c := NewStaticClient("Hello!")
	reply := c.Generate(context.Background(), []prompt.Message{
		{Role: prompt.RoleUser, Content: "Hi"},
	})
	assert.Equal(t, "Hello!", reply)
}

func TestMissingKeysFailSoft(t *testing.T) {
	messages := []prompt.Message{{Role: prompt.RoleUser, Content: "Hi"}}

	gemini, err := NewGeminiClient("", "", time.Second)
	require.NoError(t, err)
	reply := gemini.Generate(context.Background(), messages)
	assert.Equal(t, "Error: GEMINI_API_KEY not set.", reply)

	reply = NewOpenAIClient("", "", time.Second).Generate(context.Background(), messages)
	assert.Equal(t, "Error: OPENAI_API_KEY not set.", reply)
}

func TestToOpenAIMessages(t *testing.T) {
	out := toOpenAIMessages([]prompt.Message{
		{Role: prompt.RoleSystem, Content: "sys"},
		{Role: prompt.RoleUser, Content: "q"},
		{Role: prompt.RoleModel, Content: "a"},
	})
	require.Len(t, out, 3)
	assert.Equal(t, openai.ChatMessageRoleSystem, out[0].Role)
	assert.Equal(t, openai.ChatMessageRoleUser, out[1].Role)
	assert.Equal(t, openai.ChatMessageRoleAssistant, out[2].Role)
}

func TestToGeminiRequestSplitsSystemInstruction(t *testing.T) {
	contents, cfg := toGeminiRequest([]prompt.Message{
		{Role: prompt.RoleSystem, Content: "sys"},
		{Role: prompt.RoleUser, Content: "q"},
		{Role: prompt.RoleModel, Content: "a"},
		{Role: prompt.RoleUser, Content: "q2"},
	})
	require.NotNil(t, cfg.SystemInstruction)
	require.Len(t, contents, 3)
	assert.Equal(t, "user", string(contents[0].Role))
	assert.Equal(t, "model", string(contents[1].Role))
	assert.Equal(t, "user", string(contents[2].Role))
}
