package prompt

import (
	"github.com/bizchat/bizchat/pkg/chatstore"
)

// Prompt roles. History roles are stored as user/assistant; the assistant
// role is translated to the provider's model-output token here, in one
// place, so adapters and tests share the same mapping.
const (
	RoleSystem = "system"
	RoleUser   = "user"
	RoleModel  = "model"
)

// HistoryWindow caps how many stored turns a single prompt may carry.
const HistoryWindow = 10

// roleTokens maps stored turn roles to prompt roles.
var roleTokens = map[string]string{
	chatstore.RoleUser:      RoleUser,
	chatstore.RoleAssistant: RoleModel,
}

// Message is one entry of an assembled prompt.
type Message struct {
	Role    string
	Content string
}

// MapRole translates a stored turn role to its prompt role token. Unknown
// roles pass through unchanged.
func MapRole(stored string) string {
	if mapped, ok := roleTokens[stored]; ok {
		return mapped
	}
	return stored
}

// Assemble builds the ordered message list for one completion call: system
// context first, then up to HistoryWindow prior turns oldest-first, then the
// new user text as the unconditional final entry. It performs no I/O.
func Assemble(profile *chatstore.Business, history []chatstore.Turn, userText string) []Message {
	if len(history) > HistoryWindow {
		history = history[len(history)-HistoryWindow:]
	}
	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, Message{Role: RoleSystem, Content: SystemPrompt(profile)})
	for _, turn := range history {
		messages = append(messages, Message{Role: MapRole(turn.Role), Content: turn.Content})
	}
	messages = append(messages, Message{Role: RoleUser, Content: userText})
	return messages
}
