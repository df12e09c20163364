// ABOUTME: Copilot answers health questions using retrieved context and a chat model
// ABOUTME: Without a chat model it still returns the assembled prompt
package core

import (
	"context"
	"fmt"

	"github.com/harper/health-copilot/internal/models"
)

// Completer produces a chat completion for a system/user message pair
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Answer is the result of asking the copilot a question
type Answer struct {
	Text      string            `json:"answer,omitempty"`
	Prompt    Prompt            `json:"-"`
	Citations []models.Citation `json:"citations"`
	Tokens    int               `json:"context_tokens"`
}

// Copilot wires the engine, prompt builder and chat model together
type Copilot struct {
	engine    *Engine
	builder   *PromptBuilder
	completer Completer
}

// NewCopilot creates a Copilot. completer may be nil.
func NewCopilot(engine *Engine, builder *PromptBuilder, completer Completer) *Copilot {
	if builder == nil {
		builder = NewPromptBuilder()
	}
	return &Copilot{engine: engine, builder: builder, completer: completer}
}

// CanComplete reports whether a chat model is configured
func (c *Copilot) CanComplete() bool {
	return c.completer != nil
}

// Ask retrieves context for question and, when a chat model is configured,
// asks it for an answer. Retrieval never fails; only the completion can.
func (c *Copilot) Ask(ctx context.Context, question string, maxTokens int) (*Answer, error) {
	result := c.engine.GetContext(ctx, question, maxTokens)
	prompt := c.builder.Build(question, result)

	answer := &Answer{
		Prompt:    prompt,
		Citations: result.Citations,
		Tokens:    result.TokenCount,
	}

	if c.completer == nil {
		return answer, nil
	}

	text, err := c.completer.Complete(ctx, prompt.System, prompt.User)
	if err != nil {
		return answer, fmt.Errorf("failed to complete answer: %w", err)
	}
	answer.Text = text

	return answer, nil
}
