package retrieval

import (
	"context"

	"github.com/markdave123-py/Fixpress/internal/models"
)

// LeadRetriever returns the first k chunks. Used when no embedder is available.
type LeadRetriever struct{}

func (LeadRetriever) Retrieve(_ context.Context, chunks []models.TextChunk, _ string, k int) ([]models.TextChunk, error) {
	if k <= 0 {
		return nil, nil
	}
	k = min(k, len(chunks))
	out := make([]models.TextChunk, k)
	copy(out, chunks[:k])
	return out, nil
}

var _ Retriever = LeadRetriever{}
