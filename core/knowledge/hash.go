package knowledge

import (
	"context"
	"hash/fnv"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// DefaultHashDim is the vector width of the built-in hashing embedder.
const DefaultHashDim = 256

// HashEmbedder is a deterministic bag-of-words embedder: tokens are hashed
// into a fixed-width vector and the result is L2 normalized. It needs no
// external service, which makes it the offline default; retrieval quality is
// lexical rather than semantic.
type HashEmbedder struct {
	Dim int
}

// NewHashEmbedder returns a HashEmbedder with the default width.
func NewHashEmbedder() HashEmbedder { return HashEmbedder{Dim: DefaultHashDim} }

// Embed hashes the lowercased tokens of text into the vector.
func (h HashEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	dim := h.Dim
	if dim <= 0 {
		dim = DefaultHashDim
	}
	vec := make([]float64, dim)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		tok = strings.Trim(tok, ".,;:!?()[]\"'")
		if tok == "" {
			continue
		}
		f := fnv.New32a()
		_, _ = f.Write([]byte(tok))
		vec[int(f.Sum32())%dim]++
	}
	if n := floats.Norm(vec, 2); n > 0 {
		floats.Scale(1/n, vec)
	}
	return vec, nil
}

// Dimension returns the vector width.
func (h HashEmbedder) Dimension() int {
	if h.Dim <= 0 {
		return DefaultHashDim
	}
	return h.Dim
}
