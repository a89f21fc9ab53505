package knowledge

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Chunk is one indexed unit of text with its provenance.
type Chunk struct {
	Source string `json:"source"`
	Page   int    `json:"page"`
	Text   string `json:"text"`
}

// Index is a flat L2 nearest-neighbor index. It is built offline (or on
// first use) and read-only afterwards; Search is safe for concurrent use on
// an index that is no longer being mutated.
type Index struct {
	Dim     int         `json:"dim"`
	Vectors [][]float64 `json:"vectors"`
	Chunks  []Chunk     `json:"chunks"`
}

// NewIndex returns an empty index for vectors of the given dimension.
func NewIndex(dim int) *Index {
	return &Index{Dim: dim}
}

// Add appends a chunk with its embedding.
func (ix *Index) Add(c Chunk, vec []float64) error {
	if len(vec) != ix.Dim {
		return fmt.Errorf("embedding dimension %d does not match index dimension %d", len(vec), ix.Dim)
	}
	ix.Chunks = append(ix.Chunks, c)
	ix.Vectors = append(ix.Vectors, vec)
	return nil
}

// Len returns the number of indexed chunks.
func (ix *Index) Len() int { return len(ix.Chunks) }

// scored pairs a chunk position with its distance to the query.
type scored struct {
	pos  int
	dist float64
}

// Nearest returns the positions and L2 distances of the k chunks closest to
// the query vector, nearest first.
func (ix *Index) Nearest(query []float64, k int) ([]int, []float64, error) {
	if len(query) != ix.Dim {
		return nil, nil, fmt.Errorf("query dimension %d does not match index dimension %d", len(query), ix.Dim)
	}
	if k <= 0 || ix.Len() == 0 {
		return nil, nil, nil
	}

	all := make([]scored, len(ix.Vectors))
	for i, v := range ix.Vectors {
		all[i] = scored{pos: i, dist: floats.Distance(query, v, 2)}
	}
	sort.Slice(all, func(a, b int) bool { return all[a].dist < all[b].dist })

	if k > len(all) {
		k = len(all)
	}
	pos := make([]int, k)
	dist := make([]float64, k)
	for i := 0; i < k; i++ {
		pos[i] = all[i].pos
		dist[i] = all[i].dist
	}
	return pos, dist, nil
}

// Save writes the index as JSON to path.
func (ix *Index) Save(path string) error {
	data, err := json.Marshal(ix)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadIndex reads an index previously written by Save.
func LoadIndex(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var ix Index
	if err := json.Unmarshal(data, &ix); err != nil {
		return nil, fmt.Errorf("decode index %s: %w", path, err)
	}
	if len(ix.Vectors) != len(ix.Chunks) {
		return nil, fmt.Errorf("corrupt index %s: %d vectors for %d chunks", path, len(ix.Vectors), len(ix.Chunks))
	}
	return &ix, nil
}
