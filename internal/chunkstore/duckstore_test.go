package chunkstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jenilparmar/chatbot-theme-identifier/internal/models"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestInsertAndQuery(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	chunks := []models.Chunk{
		{ArtifactID: "a", Source: "a.pdf", Type: models.CitationPDFTyped, Page: 1, Content: "first", Embedding: []float32{0.1, 0.2}},
		{ArtifactID: "a", Source: "a.pdf", Type: models.CitationPDFTyped, Page: 2, Content: "second", Embedding: []float32{0.3, 0.4}},
		{ArtifactID: "b", Source: "pic.png", Type: models.CitationImage, Content: "third", Embedding: []float32{0.5, 0.6}},
	}
	require.NoError(t, s.Insert(ctx, chunks))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	got, err := s.ChunksFor(ctx, "a")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Content)
	assert.Equal(t, 1, got[0].Page)
	assert.Equal(t, models.CitationPDFTyped, got[0].Type)
	assert.InDeltaSlice(t, []float32{0.1, 0.2}, got[0].Embedding, 1e-6, "embedding round-trips")
}

func TestArtifactIDsInsertionOrder(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, []models.Chunk{
		{ArtifactID: "z", Source: "z.pdf", Type: models.CitationPDFTyped, Content: "x", Embedding: []float32{1}},
	}))
	require.NoError(t, s.Insert(ctx, []models.Chunk{
		{ArtifactID: "a", Source: "a.pdf", Type: models.CitationPDFTyped, Content: "y", Embedding: []float32{1}},
	}))

	ids, err := s.ArtifactIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "a"}, ids, "indexes keep insert order, not lexical order")
}

func TestInsertEmptyBatch(t *testing.T) {
	s := newStore(t)
	assert.NoError(t, s.Insert(context.Background(), nil))
}

func TestClear(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, []models.Chunk{
		{ArtifactID: "a", Source: "a.pdf", Type: models.CitationPDFTyped, Content: "x", Embedding: []float32{1}},
	}))

	require.NoError(t, s.Clear(ctx))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	ids, err := s.ArtifactIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
