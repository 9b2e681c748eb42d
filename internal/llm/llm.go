// Package llm generates the synthesized answer from retrieved context,
// conversation history, and the question.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/jenilparmar/chatbot-theme-identifier/internal/models"
)

// Generator produces an answer for a question given supporting context
// and prior conversation turns.
type Generator interface {
	Generate(ctx context.Context, contexts []string, history []models.ChatTurn, query string) (string, error)
}

// Echo is a Generator for running without an API key. It returns the
// retrieved context verbatim so the pipeline stays exercisable.
type Echo struct{}

func (Echo) Generate(_ context.Context, contexts []string, _ []models.ChatTurn, _ string) (string, error) {
	if len(contexts) == 0 {
		return "", nil
	}
	return strings.Join(contexts, "\n"), nil
}

// BuildPrompt assembles the answer prompt: context block, conversation
// block, then the question.
func BuildPrompt(contexts []string, history []models.ChatTurn, query string) string {
	var sb strings.Builder
	sb.WriteString("You are a helpful assistant. Use the following context and conversation to answer the question. Format the answer well.\n\n")
	sb.WriteString("Context:\n")
	sb.WriteString(strings.Join(contexts, ""))
	sb.WriteString("\n\nConversation:\n")
	for _, turn := range history {
		fmt.Fprintf(&sb, "Q: %s\nA: %s\n", turn.Query, turn.Response)
	}
	sb.WriteString("\nQuestion:\n")
	sb.WriteString(query)
	return sb.String()
}
