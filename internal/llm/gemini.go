package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/jenilparmar/chatbot-theme-identifier/internal/models"
)

// Gemini implements Generator using the Google GenAI API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini-backed generator.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating GenAI client: %w", err)
	}

	return &Gemini{client: client, model: model}, nil
}

// Generate produces an answer from context, history, and the question.
func (g *Gemini) Generate(ctx context.Context, contexts []string, history []models.ChatTurn, query string) (string, error) {
	prompt := BuildPrompt(contexts, history, query)

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generating answer: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty answer from model")
	}
	return text, nil
}
