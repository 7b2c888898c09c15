package ingestion_engine

import (
	"net/http"
	"time"

	"github.com/markdave123-py/Fixpress/internal/core"
)

// IngestConfig tunes the ingest step.
//
// ChunkSize:    characters per retrieval window (e.g., 1000).
// ChunkOverlap: characters shared by consecutive windows (e.g., 200); must stay below ChunkSize.
// FetchTimeout: upper bound for downloading a manual by URL.
// TempDir:      directory for downloaded copies ("" means os.TempDir).
type IngestConfig struct {
	ChunkSize    int
	ChunkOverlap int
	FetchTimeout time.Duration
	TempDir      string
}

// DefaultIngestConfig returns 1000/200 windows and a 30s fetch timeout.
func DefaultIngestConfig() *IngestConfig {
	return &IngestConfig{ChunkSize: 1000, ChunkOverlap: 200, FetchTimeout: 30 * time.Second}
}

// ManualIngestor turns a manual (URL, s3:// object or local path) into chunks:
//
// client:  HTTP client used for http(s) sources.
// obj:     optional object storage for s3:// sources (nil disables them).
// pdf:     page-aware extractor used for PDF files.
// docs:    fallback extractor for every other format.
// cfg:     chunking and fetch knobs.
type ManualIngestor struct {
	client *http.Client
	obj    core.ObjectClient
	pdf    core.PageExtractor
	docs   core.PageExtractor
	cfg    *IngestConfig
}

// pageMarker prefixes each page so chunks keep page locality.
const pageMarker = "\n--- Página %d ---\n"
