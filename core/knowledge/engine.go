package knowledge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sunpeak/dispatchd/core/logger"
)

// Embedder turns text into a fixed-dimension vector. The HTTP-backed
// implementation lives in the connectors tree.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	Dimension() int
}

// Hit is one retrieved chunk.
type Hit struct {
	Rank     int     `json:"rank"`
	Distance float64 `json:"distance"`
	Source   string  `json:"source"`
	Page     int     `json:"page"`
	Text     string  `json:"text"`
}

// DefaultTopK is the number of chunks returned when the caller does not ask
// for a specific count.
const DefaultTopK = 3

// maxHitRunes truncates long chunks in search results.
const maxHitRunes = 800

// Engine answers similarity queries over an embedded document index.
type Engine struct {
	index *Index
	emb   Embedder
	log   logger.Logger
}

// NewEngine wraps an index and embedder.
func NewEngine(index *Index, emb Embedder, log logger.Logger) *Engine {
	return &Engine{index: index, emb: emb, log: log}
}

// Search embeds the query and returns up to k nearest chunks. k <= 0 uses
// DefaultTopK.
func (e *Engine) Search(ctx context.Context, query string, k int) ([]Hit, error) {
	if k <= 0 {
		k = DefaultTopK
	}
	vec, err := e.emb.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	pos, dist, err := e.index.Nearest(vec, k)
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, len(pos))
	for i, p := range pos {
		c := e.index.Chunks[p]
		hits[i] = Hit{
			Rank:     i + 1,
			Distance: dist[i],
			Source:   c.Source,
			Page:     c.Page,
			Text:     truncateRunes(c.Text, maxHitRunes),
		}
	}
	return hits, nil
}

// BuildIndex chunks every supported document under dir, embeds the chunks
// and returns a fresh index. Supported sources are plain text and markdown
// files; each paragraph-sized block becomes one chunk.
func BuildIndex(ctx context.Context, dir string, emb Embedder, log logger.Logger) (*Index, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	ix := NewIndex(emb.Dimension())
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".txt" && ext != ".md" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		for page, block := range splitBlocks(string(data)) {
			vec, err := emb.Embed(ctx, block)
			if err != nil {
				return nil, fmt.Errorf("embed %s block %d: %w", entry.Name(), page, err)
			}
			if err := ix.Add(Chunk{Source: entry.Name(), Page: page + 1, Text: block}, vec); err != nil {
				return nil, err
			}
		}
	}
	if log != nil {
		log.Infof("built knowledge index with %d chunks", ix.Len())
	}
	return ix, nil
}

// splitBlocks splits a document on blank lines, dropping empty blocks.
func splitBlocks(text string) []string {
	var blocks []string
	for _, block := range strings.Split(text, "\n\n") {
		block = strings.TrimSpace(block)
		if block != "" {
			blocks = append(blocks, block)
		}
	}
	return blocks
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
