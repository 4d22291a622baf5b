package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"strings"
)

// DeterministicEmbedder projects text into a fixed-dimension vector via a
// hash-based bag-of-tokens projection: every whitespace token contributes
// to a handful of dimensions chosen by hashing the token. It is not a
// learned embedding, but it is stable, offline, and close enough in
// direction for near-duplicate descriptions to score higher than unrelated
// ones, which is all the Semantic Router needs when no real provider is
// configured.
type DeterministicEmbedder struct {
	dim int
}

// NewDeterministicEmbedder constructs an offline Embedder with the given
// vector width.
func NewDeterministicEmbedder(dim int) *DeterministicEmbedder {
	if dim <= 0 {
		dim = 256
	}
	return &DeterministicEmbedder{dim: dim}
}

func (e *DeterministicEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dim)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		sum := sha256.Sum256([]byte(tok))
		for i := 0; i < len(sum)-4 && i < 16; i += 4 {
			idx := int(binary.BigEndian.Uint32(sum[i:i+4])) % e.dim
			if idx < 0 {
				idx += e.dim
			}
			vec[idx] += 1
		}
	}
	return vec, nil
}

func (e *DeterministicEmbedder) Dimensions() int { return e.dim }
func (e *DeterministicEmbedder) Name() string    { return "deterministic" }
