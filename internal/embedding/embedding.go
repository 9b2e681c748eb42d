// Package embedding provides vector embedding services for chunk and
// query text.
package embedding

import "context"

// Service generates vector embeddings for text.
type Service interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}
