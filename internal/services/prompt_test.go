package services

import (
	"strings"
	"testing"

	"gorm.io/datatypes"

	"github.com/yungbote/botsmith-backend/internal/types"
)

func TestBuildSystemPromptIsDeterministic(t *testing.T) {
	chatbot := &types.Chatbot{Name: "MathBot", Description: "A friendly math tutor."}
	persona := &types.Persona{
		Description: "A patient teacher.",
		Traits:      datatypes.NewJSONSlice([]string{"patient", "precise"}),
		Tone:        "warm",
		Style:       "socratic",
		Expertise:   datatypes.NewJSONSlice([]string{"algebra", "geometry"}),
	}

	first := BuildSystemPrompt(chatbot, persona)
	second := BuildSystemPrompt(chatbot, persona)
	if first != second {
		t.Fatal("prompt is not deterministic")
	}

	for _, want := range []string{
		"You are MathBot.",
		"A friendly math tutor.",
		"Traits: patient, precise",
		"Tone: warm",
		"Style: socratic",
		"Expertise: algebra, geometry",
	} {
		if !strings.Contains(first, want) {
			t.Fatalf("prompt missing %q:\n%s", want, first)
		}
	}
}

func TestBuildSystemPromptRefusalSentence(t *testing.T) {
	chatbot := &types.Chatbot{Name: "MathBot"}
	persona := &types.Persona{
		Expertise: datatypes.NewJSONSlice([]string{"algebra", "geometry"}),
	}

	prompt := BuildSystemPrompt(chatbot, persona)
	refusal := `"I'm sorry, but as MathBot with expertise in algebra, geometry, I cannot answer questions about [the topic]"`
	if !strings.Contains(prompt, refusal) {
		t.Fatalf("refusal sentence not preserved verbatim:\n%s", prompt)
	}
}

func TestBuildSystemPromptHandlesMissingPersona(t *testing.T) {
	prompt := BuildSystemPrompt(&types.Chatbot{Name: "Bot"}, nil)
	if !strings.Contains(prompt, "You are Bot.") {
		t.Fatalf("prompt missing bot name:\n%s", prompt)
	}
	if !strings.Contains(prompt, "general topics") {
		t.Fatalf("prompt missing expertise fallback:\n%s", prompt)
	}
}
