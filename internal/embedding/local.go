package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// LocalDim is the dimensionality of the hashed local embedder.
const LocalDim = 256

// Local is a deterministic hashed bag-of-words embedder. It needs no
// external service, which makes it the offline fallback and the test
// embedder: similar texts land near each other, identical texts are
// identical.
type Local struct{}

// NewLocal creates a local embedder.
func NewLocal() *Local {
	return &Local{}
}

// Embed hashes each token onto a fixed-size vector and L2-normalizes.
func (l *Local) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, LocalDim)
	for _, tok := range tokenize(text) {
		h := fnv.New32a()
		h.Write([]byte(tok))
		vec[h.Sum32()%LocalDim]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec, nil
}

// EmbedBatch embeds each text independently.
func (l *Local) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		emb, _ := l.Embed(ctx, t)
		out = append(out, emb)
	}
	return out, nil
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
}
