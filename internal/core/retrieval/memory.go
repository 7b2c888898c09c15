package retrieval

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/markdave123-py/Fixpress/internal/core"
	"github.com/markdave123-py/Fixpress/internal/models"
)

// MemoryRetriever ranks chunks by cosine similarity in process.
// Chunk vectors are cached per chunk set, so a batch run embeds its manual once.
type MemoryRetriever struct {
	embedder core.EmbeddingProvider

	mu    sync.Mutex
	cache map[string][][]float32
}

func NewMemoryRetriever(embedder core.EmbeddingProvider) *MemoryRetriever {
	return &MemoryRetriever{embedder: embedder, cache: make(map[string][][]float32)}
}

func (m *MemoryRetriever) Retrieve(ctx context.Context, chunks []models.TextChunk, query string, k int) ([]models.TextChunk, error) {
	if len(chunks) == 0 || k <= 0 {
		return nil, nil
	}

	vecs, err := m.chunkVectors(ctx, chunks)
	if err != nil {
		return nil, err
	}

	q, err := m.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(q) != 1 {
		return nil, fmt.Errorf("embed query: got %d vectors", len(q))
	}

	type scored struct {
		idx   int
		score float64
	}
	ranked := make([]scored, len(chunks))
	for i := range chunks {
		ranked[i] = scored{idx: i, score: cosine(q[0], vecs[i])}
	}
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].score > ranked[b].score })

	k = min(k, len(ranked))
	out := make([]models.TextChunk, k)
	for i := 0; i < k; i++ {
		out[i] = chunks[ranked[i].idx]
	}
	return out, nil
}

func (m *MemoryRetriever) chunkVectors(ctx context.Context, chunks []models.TextChunk) ([][]float32, error) {
	key := ChunkSetHash(chunks)

	m.mu.Lock()
	vecs, ok := m.cache[key]
	m.mu.Unlock()
	if ok {
		return vecs, nil
	}

	vecs, err := embedAll(ctx, m.embedder, chunkTexts(chunks))
	if err != nil {
		return nil, err
	}
	log.Printf("[DEBUG] embedded %d chunks in memory", len(vecs))

	m.mu.Lock()
	m.cache[key] = vecs
	m.mu.Unlock()
	return vecs, nil
}

var _ Retriever = (*MemoryRetriever)(nil)
