package retrieval

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/markdave123-py/Fixpress/internal/core"
	"github.com/markdave123-py/Fixpress/internal/models"
)

// PgvectorRetriever stores chunk embeddings in Postgres once per manual
// (keyed by content hash) and lets pgvector do the nearest-neighbour search.
type PgvectorRetriever struct {
	db       core.DbClient
	embedder core.EmbeddingProvider

	mu     sync.Mutex
	manual map[string]string // chunk set hash -> manual id
}

func NewPgvectorRetriever(db core.DbClient, embedder core.EmbeddingProvider) *PgvectorRetriever {
	return &PgvectorRetriever{db: db, embedder: embedder, manual: make(map[string]string)}
}

func (p *PgvectorRetriever) Retrieve(ctx context.Context, chunks []models.TextChunk, query string, k int) ([]models.TextChunk, error) {
	if len(chunks) == 0 || k <= 0 {
		return nil, nil
	}

	manualID, err := p.ensureIndexed(ctx, chunks)
	if err != nil {
		return nil, err
	}

	q, err := p.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(q) != 1 {
		return nil, fmt.Errorf("embed query: got %d vectors", len(q))
	}

	rows, err := p.db.SearchManualChunks(ctx, manualID, q[0], k)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}

	out := make([]models.TextChunk, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.TextChunk{
			ID:       fmt.Sprintf("chunk_%d", r.Position),
			Position: r.Position,
			Text:     r.Text,
			Start:    r.Start,
			End:      r.End,
		})
	}
	return out, nil
}

// ensureIndexed returns the manual id for the chunk set, embedding and storing it on first sight.
func (p *PgvectorRetriever) ensureIndexed(ctx context.Context, chunks []models.TextChunk) (string, error) {
	hash := ChunkSetHash(chunks)

	p.mu.Lock()
	defer p.mu.Unlock()

	if id, ok := p.manual[hash]; ok {
		return id, nil
	}

	existing, err := p.db.GetManualByHash(ctx, hash)
	if err != nil {
		return "", fmt.Errorf("lookup manual: %w", err)
	}
	if existing != nil {
		p.manual[hash] = existing.ID
		return existing.ID, nil
	}

	vecs, err := embedAll(ctx, p.embedder, chunkTexts(chunks))
	if err != nil {
		return "", err
	}

	manual := &models.Manual{
		ID:          uuid.NewString(),
		Source:      "chunks:" + hash[:12],
		ContentHash: hash,
		ChunkCount:  len(chunks),
		CreatedAt:   time.Now().UTC(),
	}
	if len(chunks) > 0 {
		manual.TextLength = chunks[len(chunks)-1].End
	}
	if err := p.db.CreateManual(ctx, manual); err != nil {
		return "", fmt.Errorf("create manual: %w", err)
	}

	rows := make([]models.ManualChunk, len(chunks))
	for i, c := range chunks {
		rows[i] = models.ManualChunk{
			ID:        uuid.NewString(),
			ManualID:  manual.ID,
			Position:  c.Position,
			Text:      c.Text,
			Start:     c.Start,
			End:       c.End,
			Embedding: vecs[i],
		}
	}
	if err := p.db.InsertManualChunks(ctx, rows); err != nil {
		return "", fmt.Errorf("insert chunks: %w", err)
	}

	log.Printf("[INFO] indexed manual %s: %d chunks", manual.ID, len(rows))
	p.manual[hash] = manual.ID
	return manual.ID, nil
}

var _ Retriever = (*PgvectorRetriever)(nil)
