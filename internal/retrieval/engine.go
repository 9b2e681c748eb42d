package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/jenilparmar/chatbot-theme-identifier/internal/chunkstore"
	"github.com/jenilparmar/chatbot-theme-identifier/internal/embedding"
	"github.com/jenilparmar/chatbot-theme-identifier/internal/models"
)

// Result is the retrieval outcome for one question: the verbatim
// excerpts and the citation metadata, index-aligned (citation i is
// justified by Context[i]).
type Result struct {
	Context   []string
	Citations []models.Citation
}

// Engine searches every artifact's chunk index and keeps the matches the
// tier rules admit, ordered best-first by distance.
type Engine struct {
	chunks *chunkstore.Store
	embed  embedding.Service
	rules  *Rules
	log    *zap.Logger
}

// NewEngine creates a retrieval engine.
func NewEngine(chunks *chunkstore.Store, embed embedding.Service, rules *Rules, log *zap.Logger) *Engine {
	if rules == nil {
		rules = DefaultRules()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{chunks: chunks, embed: embed, rules: rules, log: log}
}

type match struct {
	chunk    models.Chunk
	distance float64
}

// Search embeds the question, takes the best chunk per artifact index,
// filters by the tier cutoff for the current index count, and returns
// the surviving matches sorted ascending by distance.
func (e *Engine) Search(ctx context.Context, query string) (*Result, error) {
	queryEmb, err := e.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	ids, err := e.chunks.ArtifactIDs(ctx)
	if err != nil {
		return nil, err
	}

	cutoff, bounded := e.rules.cutoff(len(ids))

	var matches []match
	for _, id := range ids {
		chunks, err := e.chunks.ChunksFor(ctx, id)
		if err != nil {
			return nil, err
		}

		best := bestMatches(queryEmb, chunks, e.rules.TopK)
		for _, m := range best {
			if bounded && m.distance >= cutoff {
				continue
			}
			matches = append(matches, m)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].distance < matches[j].distance
	})

	e.log.Debug("retrieval complete",
		zap.Int("indexes", len(ids)),
		zap.Int("matches", len(matches)))

	result := &Result{
		Context:   make([]string, 0, len(matches)),
		Citations: make([]models.Citation, 0, len(matches)),
	}
	for _, m := range matches {
		result.Context = append(result.Context, m.chunk.Content)
		c := models.Citation{
			Type:   m.chunk.Type,
			Source: m.chunk.Source,
		}
		if c.IsPDF() {
			c.Page = m.chunk.Page
		}
		result.Citations = append(result.Citations, c)
	}
	return result, nil
}

// bestMatches returns the topK closest chunks of one index.
func bestMatches(query []float32, chunks []models.Chunk, topK int) []match {
	scored := make([]match, 0, len(chunks))
	for _, c := range chunks {
		scored = append(scored, match{chunk: c, distance: l2Distance(query, c.Embedding)})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].distance < scored[j].distance
	})
	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored
}

// l2Distance is the Euclidean distance between two vectors; lower is
// better. Mismatched lengths compare as maximally distant.
func l2Distance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.MaxFloat64
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
