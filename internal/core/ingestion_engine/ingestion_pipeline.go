package ingestion_engine

import (
	"context"
	"io"

	"github.com/markdave123-py/Fixpress/internal/models"
)

type Ingestor interface {
	Ingest(ctx context.Context, source string) (*models.IngestResult, error)
	IngestReader(ctx context.Context, name string, r io.Reader) (*models.IngestResult, error)
}

var _ Ingestor = (*ManualIngestor)(nil)
