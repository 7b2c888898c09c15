package ingestion_engine

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/markdave123-py/Fixpress/internal/core"
	"github.com/markdave123-py/Fixpress/internal/models"
)

// NewManualIngestor constructs the ingestor. obj may be nil when object storage is not configured.
func NewManualIngestor(obj core.ObjectClient, pdfExtractor, docExtractor core.PageExtractor, cfg *IngestConfig) (*ManualIngestor, error) {
	if cfg == nil {
		cfg = DefaultIngestConfig()
	}
	if cfg.ChunkSize <= 0 || cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, &core.ConfigurationError{
			Component: "ingestor",
			Reason:    fmt.Sprintf("invalid chunking size=%d overlap=%d", cfg.ChunkSize, cfg.ChunkOverlap),
		}
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}

	return &ManualIngestor{
		client: &http.Client{Timeout: cfg.FetchTimeout},
		obj:    obj,
		pdf:    pdfExtractor,
		docs:   docExtractor,
		cfg:    cfg,
	}, nil
}

// Ingest fetches (if remote), extracts and chunks a manual.
// Downloaded copies live in a temp file that is removed before Ingest returns;
// local paths are read in place and never deleted.
func (i *ManualIngestor) Ingest(ctx context.Context, source string) (*models.IngestResult, error) {
	source = strings.TrimSpace(source)

	switch {
	case strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://"):
		return i.ingestRemote(ctx, source, i.download)
	case strings.HasPrefix(source, "s3://"):
		if i.obj == nil {
			return nil, &core.FetchError{URL: source, Err: fmt.Errorf("object storage not configured")}
		}
		return i.ingestRemote(ctx, source, i.downloadObject)
	default:
		if _, err := os.Stat(source); err != nil {
			return nil, &core.ExtractionError{Source: source, Err: err}
		}
		return i.ingestFile(ctx, source, source)
	}
}

// IngestReader ingests an in-memory upload through the same scoped temp file discipline.
func (i *ManualIngestor) IngestReader(ctx context.Context, name string, r io.Reader) (*models.IngestResult, error) {
	return i.withTempFile(name, func(f *os.File) error {
		_, err := io.Copy(f, r)
		return err
	}, func(path string) (*models.IngestResult, error) {
		return i.ingestFile(ctx, name, path)
	})
}

// ingestRemote downloads into a temp file via fetch and ingests it.
func (i *ManualIngestor) ingestRemote(ctx context.Context, source string, fetch func(context.Context, string, io.Writer) error) (*models.IngestResult, error) {
	return i.withTempFile(source, func(f *os.File) error {
		return fetch(ctx, source, f)
	}, func(path string) (*models.IngestResult, error) {
		return i.ingestFile(ctx, source, path)
	})
}

// withTempFile creates one temp file, fills it, runs use and always removes the file.
func (i *ManualIngestor) withTempFile(name string, fill func(*os.File) error, use func(string) (*models.IngestResult, error)) (*models.IngestResult, error) {
	ext := strings.ToLower(filepath.Ext(strings.SplitN(name, "?", 2)[0]))
	if ext == "" || len(ext) > 6 {
		ext = ".pdf"
	}

	tmp, err := os.CreateTemp(i.cfg.TempDir, "manual-*"+ext)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	path := tmp.Name()
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			log.Printf("[WARN] failed to remove temp file %s: %v", path, rmErr)
		}
	}()

	fillErr := fill(tmp)
	if closeErr := tmp.Close(); fillErr == nil && closeErr != nil {
		fillErr = closeErr
	}
	if fillErr != nil {
		return nil, fillErr
	}

	return use(path)
}

// download streams an http(s) manual into w, bounded by the fetch timeout.
func (i *ManualIngestor) download(ctx context.Context, url string, w io.Writer) error {
	fetchCtx, cancel := context.WithTimeout(ctx, i.cfg.FetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return &core.FetchError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; Fixpress/1.0)")

	resp, err := i.client.Do(req)
	if err != nil {
		return &core.FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &core.FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return &core.FetchError{URL: url, Err: fmt.Errorf("read body: %w", err)}
	}
	return nil
}

// downloadObject copies an s3://bucket/key manual into w.
func (i *ManualIngestor) downloadObject(ctx context.Context, source string, w io.Writer) error {
	bucket, key := parseS3URI(source)
	if bucket == "" || key == "" {
		return &core.FetchError{URL: source, Err: fmt.Errorf("malformed object uri")}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, i.cfg.FetchTimeout)
	defer cancel()

	rc, err := i.obj.GetObjectReader(fetchCtx, bucket, key)
	if err != nil {
		return &core.FetchError{URL: source, Err: err}
	}
	defer rc.Close()

	if _, err := io.Copy(w, rc); err != nil {
		return &core.FetchError{URL: source, Err: fmt.Errorf("read object: %w", err)}
	}
	return nil
}

// ingestFile extracts page text off the calling goroutine and chunks it.
func (i *ManualIngestor) ingestFile(ctx context.Context, source, path string) (*models.IngestResult, error) {
	extractor := i.docs
	if isPDF(path) {
		extractor = i.pdf
	}
	if extractor == nil {
		return nil, &core.ExtractionError{Source: source, Err: fmt.Errorf("no extractor for %s", filepath.Ext(path))}
	}

	type extraction struct {
		pages []string
		err   error
	}
	done := make(chan extraction, 1)
	go func() {
		pages, err := extractor.ExtractPages(ctx, path)
		done <- extraction{pages: pages, err: err}
	}()

	var res extraction
	select {
	case res = <-done:
	case <-ctx.Done():
		return nil, &core.ExtractionError{Source: source, Err: ctx.Err()}
	}
	if res.err != nil {
		return nil, &core.ExtractionError{Source: source, Err: res.err}
	}

	text := JoinPages(res.pages)
	chunks, err := SplitText(text, i.cfg.ChunkSize, i.cfg.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	log.Printf("[DEBUG] ingested %s: %d pages, %d chunks", source, len(res.pages), len(chunks))
	return &models.IngestResult{
		Success:    true,
		FullText:   text,
		Chunks:     chunks,
		ChunkCount: len(chunks),
		TextLength: len([]rune(text)),
	}, nil
}

// parseS3URI splits s3://bucket/path/to/key into bucket and key.
func parseS3URI(u string) (bucket, key string) {
	hostPath := strings.SplitN(strings.TrimPrefix(u, "s3://"), "/", 2)
	bucket = hostPath[0]
	if len(hostPath) == 2 {
		key = hostPath[1]
	}
	return bucket, key
}
