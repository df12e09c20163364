// ABOUTME: PromptBuilder templates retrieved health-record context into a chat prompt
// ABOUTME: Keeps the system prompt and question intact and trims context to a token budget
package core

import (
	"fmt"
	"strings"

	"github.com/harper/health-copilot/internal/models"
)

// DefaultSystemPrompt frames the copilot for chat completions
const DefaultSystemPrompt = `You are a health copilot with access to the user's own health records.
Answer from the records when they are relevant and say plainly when they do not cover the question.
Refer to sources by their [Source: ...] markers. You do not replace a clinician.`

const noRecordsNotice = "(no matching health records)"

// Prompt is a system/user message pair ready for a chat completion
type Prompt struct {
	System string
	User   string
}

// String renders the prompt as a single block for display
func (p Prompt) String() string {
	return "SYSTEM:\n" + p.System + "\n\n" + p.User
}

// PromptBuilder assembles prompts from assembled context
type PromptBuilder struct {
	systemPrompt string
}

// NewPromptBuilder creates a PromptBuilder with the default system prompt
func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{systemPrompt: DefaultSystemPrompt}
}

// NewPromptBuilderWithSystem creates a PromptBuilder with a custom system prompt
func NewPromptBuilderWithSystem(systemPrompt string) *PromptBuilder {
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = DefaultSystemPrompt
	}
	return &PromptBuilder{systemPrompt: systemPrompt}
}

// Build templates the question and retrieved context into a prompt
func (pb *PromptBuilder) Build(question string, result models.ContextResult) Prompt {
	var sections []string

	context := result.Context
	if strings.TrimSpace(context) == "" {
		context = noRecordsNotice
	}
	sections = append(sections, "HEALTH RECORDS CONTEXT:\n"+context+"\n")

	if len(result.Citations) > 0 {
		sections = append(sections, formatSources(result.Citations))
	}

	sections = append(sections, "QUESTION:\n"+question+"\n")
	sections = append(sections, "Answer the question and cite the sources you used.")

	return Prompt{
		System: pb.systemPrompt,
		User:   strings.Join(sections, "\n"),
	}
}

func formatSources(citations []models.Citation) string {
	var sb strings.Builder
	sb.WriteString("SOURCES:\n")
	for i, c := range citations {
		sb.WriteString(fmt.Sprintf("%d. %s (relevance: %.2f)\n", i+1, c.Label, c.RelevanceScore))
	}
	return sb.String()
}
