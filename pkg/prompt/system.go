package prompt

import (
	"fmt"
	"strings"

	"github.com/bizchat/bizchat/pkg/chatstore"
)

const notProvided = "Not provided"

// SystemPrompt renders the business profile into the assistant's system
// context. Optional fields are rendered with an explicit marker rather than
// omitted, so the model never sees a dangling label.
func SystemPrompt(business *chatstore.Business) string {
	if business == nil {
		business = &chatstore.Business{}
	}
	return fmt.Sprintf(`You are an AI assistant tailored for this business.

Business Name: %s
Description: %s
Services Provided: %s
Address: %s
Contact: %s
Hours: %s

TONE: friendly

Guidelines:
- Provide clear and helpful answers.
- Always reference business context when relevant.
- If user asks for missing info, instruct them to update their business profile.
- Keep answers under 200 words unless user asks for longer.`,
		orMarker(business.Name),
		orMarker(business.Description),
		orMarker(business.Services),
		orMarker(business.Address),
		orMarker(business.Contact),
		orMarker(business.Hours),
	)
}

func orMarker(s string) string {
	if strings.TrimSpace(s) == "" {
		return notProvided
	}
	return s
}
