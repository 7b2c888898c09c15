package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/Fixpress/internal/models"
)

type fakeDB struct {
	mu        sync.Mutex
	runs      []models.RunRecord
	articles  []models.ArticleRecord
	runErr    error
	insertErr error
}

func (f *fakeDB) GetManualByHash(context.Context, string) (*models.Manual, error) { return nil, nil }
func (f *fakeDB) CreateManual(context.Context, *models.Manual) error              { return nil }
func (f *fakeDB) InsertManualChunks(context.Context, []models.ManualChunk) error  { return nil }
func (f *fakeDB) SearchManualChunks(context.Context, string, []float32, int) ([]models.ManualChunk, error) {
	return nil, nil
}
func (f *fakeDB) Ping(context.Context) error { return nil }
func (f *fakeDB) Close() error               { return nil }

func (f *fakeDB) CreateRun(_ context.Context, run *models.RunRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.runErr != nil {
		return f.runErr
	}
	f.runs = append(f.runs, *run)
	return nil
}

func (f *fakeDB) InsertArticles(_ context.Context, articles []models.ArticleRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.articles = append(f.articles, articles...)
	return nil
}

func (f *fakeDB) ListArticlesByRun(_ context.Context, runID string) ([]models.ArticleRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ArticleRecord
	for _, a := range f.articles {
		if a.RunID == runID {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeStorage struct {
	mu       sync.Mutex
	objects  map[string][]byte
	failures int
	calls    int
}

func newFakeStorage() *fakeStorage { return &fakeStorage{objects: map[string][]byte{}} }

func (f *fakeStorage) UploadFile(_ context.Context, bucket, key string, data io.Reader, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failures > 0 {
		f.failures--
		return "", errors.New("slow down")
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	f.objects[key] = b
	return "https://" + bucket + ".test/" + key, nil
}

func (f *fakeStorage) DeleteFile(context.Context, string, string) error { return nil }
func (f *fakeStorage) GetObjectReader(context.Context, string, string) (io.ReadCloser, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeStorage) Bucket() string { return "fixpress" }

func testReport() *models.BatchRunReport {
	done := time.Date(2025, 3, 1, 10, 5, 0, 0, time.UTC)
	return &models.BatchRunReport{
		Total:      2,
		Successful: 1,
		Failed:     1,
		Articles: []models.GeneratedArticle{{
			Error:    "Luz roja",
			Title:    "Cómo solucionar la luz roja",
			Status:   models.StatusDraft,
			Metadata: models.ArticleMetadata{Model: "Echo Dot", GeneratedAt: done},
		}},
		ErrorsLog:   []models.RunLogEntry{{Error: "No responde", Detail: "Failed to generate article: boom"}},
		StartedAt:   time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		CompletedAt: &done,
	}
}

func newTestService(db *fakeDB, st *fakeStorage) *ArticleService {
	s := NewArticleService(nil, nil)
	if db != nil {
		s.db = db
	}
	if st != nil {
		s.storage = st
	}
	s.backoff = time.Millisecond
	return s
}

func TestArticleService_SaveRun(t *testing.T) {
	db, st := &fakeDB{}, newFakeStorage()
	s := newTestService(db, st)

	run := s.SaveRun(context.Background(), "https://x.test/echo.pdf", "Echo Dot", testReport())
	require.NotNil(t, run)

	require.Len(t, db.runs, 1)
	assert.Equal(t, run.ID, db.runs[0].ID)
	assert.Equal(t, 2, db.runs[0].Total)
	assert.Equal(t, "https://fixpress.test/runs/"+run.ID+".json", db.runs[0].ReportURL)

	require.Len(t, db.articles, 1)
	assert.Equal(t, run.ID, db.articles[0].RunID)
	assert.Equal(t, "Cómo solucionar la luz roja", db.articles[0].Article.Title)

	var archived models.BatchRunReport
	require.NoError(t, json.Unmarshal(st.objects["runs/"+run.ID+".json"], &archived))
	assert.Equal(t, 1, archived.Failed)

	stored, err := s.RunArticles(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestArticleService_RetriesUpload(t *testing.T) {
	st := newFakeStorage()
	st.failures = 2
	s := newTestService(nil, st)

	run := s.SaveRun(context.Background(), "m.pdf", "Echo", testReport())
	require.NotNil(t, run)
	assert.Equal(t, 3, st.calls)
	assert.NotEmpty(t, run.ReportURL)
}

func TestArticleService_FailuresAreSwallowed(t *testing.T) {
	db := &fakeDB{runErr: errors.New("connection refused")}
	st := newFakeStorage()
	st.failures = 100
	s := newTestService(db, st)
	s.retries = 2

	report := testReport()
	run := s.SaveRun(context.Background(), "m.pdf", "Echo", report)
	require.NotNil(t, run)
	assert.Empty(t, run.ReportURL)
	assert.Empty(t, db.articles)
	assert.Equal(t, 1, report.Successful, "report is never modified")
}

func TestArticleService_Disabled(t *testing.T) {
	s := NewArticleService(nil, nil)
	assert.False(t, s.Enabled())
	assert.Nil(t, s.SaveRun(context.Background(), "m.pdf", "Echo", testReport()))
	assert.Equal(t, "", s.ArchiveManual(context.Background(), "m.pdf", strings.NewReader("x")))

	_, err := s.RunArticles(context.Background(), "r1")
	assert.ErrorIs(t, err, ErrStorageDisabled)

	var nilSvc *ArticleService
	assert.False(t, nilSvc.Enabled())
	nilSvc.SaveArticle(context.Background(), models.GeneratedArticle{})
}

func TestArticleService_ArchiveManual(t *testing.T) {
	st := newFakeStorage()
	s := newTestService(nil, st)

	url := s.ArchiveManual(context.Background(), "Manual Echo Dot.pdf", bytes.NewReader([]byte("%PDF-1.4")))
	require.NotEmpty(t, url)
	require.Len(t, st.objects, 1)
	for key, body := range st.objects {
		assert.True(t, strings.HasPrefix(key, "manuals/"))
		assert.True(t, strings.HasSuffix(key, "/Manual_Echo_Dot.pdf"))
		assert.Equal(t, "%PDF-1.4", string(body))
	}
}

func TestArticleService_SaveArticle(t *testing.T) {
	db := &fakeDB{}
	s := newTestService(db, nil)
	s.SaveArticle(context.Background(), models.GeneratedArticle{Title: "Error: X"})
	require.Len(t, db.articles, 1)
	assert.Equal(t, "", db.articles[0].RunID)
}

func TestManualKey(t *testing.T) {
	assert.Equal(t, "manuals/id/echo.pdf", manualKey("id", "../../echo.pdf"))
	assert.Equal(t, "manuals/id/manual.pdf", manualKey("id", "  "))
}
