package ingestion_engine

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/Fixpress/internal/core"
)

type fakeExtractor struct {
	pages []string
	err   error
	calls atomic.Int32
	seen  string
}

func (f *fakeExtractor) ExtractPages(_ context.Context, path string) ([]string, error) {
	f.calls.Add(1)
	f.seen = path
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return f.pages, f.err
}

func newTestIngestor(t *testing.T, pdfEx, docEx core.PageExtractor) (*ManualIngestor, string) {
	t.Helper()
	tmp := t.TempDir()
	ing, err := NewManualIngestor(nil, pdfEx, docEx, &IngestConfig{
		ChunkSize:    50,
		ChunkOverlap: 10,
		FetchTimeout: 2 * time.Second,
		TempDir:      tmp,
	})
	require.NoError(t, err)
	return ing, tmp
}

func assertDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temp files left behind")
}

func TestManualIngestor_IngestURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/manual.pdf", r.URL.Path)
		_, _ = w.Write([]byte("%PDF-1.4 fake body"))
	}))
	defer srv.Close()

	pdfEx := &fakeExtractor{pages: []string{"Pulse el botón de reinicio.", "Luz roja parpadeante indica fallo WiFi."}}
	docEx := &fakeExtractor{}
	ing, tmp := newTestIngestor(t, pdfEx, docEx)

	res, err := ing.Ingest(context.Background(), srv.URL+"/manual.pdf")
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, int32(1), pdfEx.calls.Load())
	assert.Equal(t, int32(0), docEx.calls.Load())
	assert.Contains(t, res.FullText, "--- Página 1 ---\nPulse el botón")
	assert.Contains(t, res.FullText, "--- Página 2 ---\nLuz roja")
	assert.Equal(t, len(res.Chunks), res.ChunkCount)
	assert.Equal(t, len([]rune(res.FullText)), res.TextLength)
	assert.Greater(t, res.ChunkCount, 1)
	assert.True(t, strings.HasPrefix(filepath.Base(pdfEx.seen), "manual-"))
	assertDirEmpty(t, tmp)
}

func TestManualIngestor_FetchErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	pdfEx := &fakeExtractor{}
	ing, tmp := newTestIngestor(t, pdfEx, &fakeExtractor{})

	_, err := ing.Ingest(context.Background(), srv.URL+"/missing.pdf")
	require.Error(t, err)

	var fe *core.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusNotFound, fe.StatusCode)
	assert.True(t, core.IsIngestError(err))
	assert.Equal(t, int32(0), pdfEx.calls.Load())
	assertDirEmpty(t, tmp)
}

func TestManualIngestor_FetchTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	tmp := t.TempDir()
	ing, err := NewManualIngestor(nil, &fakeExtractor{}, &fakeExtractor{}, &IngestConfig{
		ChunkSize: 50, ChunkOverlap: 10, FetchTimeout: 100 * time.Millisecond, TempDir: tmp,
	})
	require.NoError(t, err)

	_, err = ing.Ingest(context.Background(), srv.URL+"/slow.pdf")
	var fe *core.FetchError
	require.True(t, errors.As(err, &fe))
	assertDirEmpty(t, tmp)
}

func TestManualIngestor_ExtractionErrorCleansUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("%PDF-1.7 broken"))
	}))
	defer srv.Close()

	pdfEx := &fakeExtractor{err: errors.New("xref table missing")}
	ing, tmp := newTestIngestor(t, pdfEx, &fakeExtractor{})

	_, err := ing.Ingest(context.Background(), srv.URL+"/broken.pdf")
	var ee *core.ExtractionError
	require.True(t, errors.As(err, &ee))
	assert.Contains(t, err.Error(), "xref table missing")
	assertDirEmpty(t, tmp)
}

func TestManualIngestor_LocalPathIsKept(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manual.docx")
	require.NoError(t, os.WriteFile(path, []byte("PK fake docx"), 0o600))

	pdfEx := &fakeExtractor{}
	docEx := &fakeExtractor{pages: []string{"Capítulo 1. Instalación"}}
	ing, _ := newTestIngestor(t, pdfEx, docEx)

	res, err := ing.Ingest(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, res.ChunkCount)
	assert.Equal(t, path, docEx.seen)
	assert.Equal(t, int32(0), pdfEx.calls.Load())

	_, err = os.Stat(path)
	assert.NoError(t, err, "caller supplied file must not be deleted")
}

func TestManualIngestor_LocalPathMissing(t *testing.T) {
	ing, _ := newTestIngestor(t, &fakeExtractor{}, &fakeExtractor{})
	_, err := ing.Ingest(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"))
	var ee *core.ExtractionError
	require.True(t, errors.As(err, &ee))
}

func TestManualIngestor_S3WithoutObjectStorage(t *testing.T) {
	ing, _ := newTestIngestor(t, &fakeExtractor{}, &fakeExtractor{})
	_, err := ing.Ingest(context.Background(), "s3://manuals/echo.pdf")
	var fe *core.FetchError
	require.True(t, errors.As(err, &fe))
}

func TestManualIngestor_IngestReader(t *testing.T) {
	pdfEx := &fakeExtractor{pages: []string{"texto"}}
	ing, tmp := newTestIngestor(t, pdfEx, &fakeExtractor{})

	res, err := ing.IngestReader(context.Background(), "subido.pdf", strings.NewReader("%PDF-1.5 upload"))
	require.NoError(t, err)
	assert.Equal(t, 1, res.ChunkCount)
	assert.Equal(t, ".pdf", filepath.Ext(pdfEx.seen))
	assertDirEmpty(t, tmp)
}

func TestNewManualIngestor_RejectsBadChunking(t *testing.T) {
	_, err := NewManualIngestor(nil, nil, nil, &IngestConfig{ChunkSize: 100, ChunkOverlap: 100})
	var cfgErr *core.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
}

func TestParseS3URI(t *testing.T) {
	bucket, key := parseS3URI("s3://fixpress-manuals/manuals/abc/echo.pdf")
	assert.Equal(t, "fixpress-manuals", bucket)
	assert.Equal(t, "manuals/abc/echo.pdf", key)
}

func TestPDFPageExtractor_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.pdf")
	require.NoError(t, os.WriteFile(path, []byte("this is not a pdf"), 0o600))

	_, err := NewPDFPageExtractor().ExtractPages(context.Background(), path)
	require.Error(t, err)
}

func TestJoinPages(t *testing.T) {
	assert.Equal(t, "\n--- Página 1 ---\nuno\n--- Página 2 ---\ndos", JoinPages([]string{"uno", "dos"}))
	assert.Equal(t, "", JoinPages(nil))
}
