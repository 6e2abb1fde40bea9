package services

import (
	"fmt"
	"strings"

	"github.com/yungbote/botsmith-backend/internal/types"
)

// BuildSystemPrompt renders the persona into the system prompt for one
// chatbot. Deterministic: the same chatbot and persona always produce the
// same string, so transcripts stay reproducible across turns.
func BuildSystemPrompt(chatbot *types.Chatbot, persona *types.Persona) string {
	var b strings.Builder

	name := "an assistant"
	if chatbot != nil && chatbot.Name != "" {
		name = chatbot.Name
	}
	fmt.Fprintf(&b, "You are %s.", name)
	if chatbot != nil && chatbot.Description != "" {
		fmt.Fprintf(&b, " %s", chatbot.Description)
	}
	b.WriteString("\n")

	expertise := "general topics"
	if persona != nil {
		if persona.Description != "" {
			fmt.Fprintf(&b, "Persona: %s\n", persona.Description)
		}
		if len(persona.Traits) > 0 {
			fmt.Fprintf(&b, "Traits: %s\n", strings.Join(persona.Traits, ", "))
		}
		if persona.Tone != "" {
			fmt.Fprintf(&b, "Tone: %s\n", persona.Tone)
		}
		if persona.Style != "" {
			fmt.Fprintf(&b, "Style: %s\n", persona.Style)
		}
		if len(persona.Expertise) > 0 {
			expertise = strings.Join(persona.Expertise, ", ")
			fmt.Fprintf(&b, "Expertise: %s\n", expertise)
		}
	}

	fmt.Fprintf(&b,
		"Stay in character at all times. Only answer questions within your expertise. "+
			"If asked about anything outside your expertise, refuse in persona with: "+
			"\"I'm sorry, but as %s with expertise in %s, I cannot answer questions about [the topic]\"",
		name, expertise)

	return b.String()
}
