package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"path"
	"strings"
	"time"

	"github.com/go-pkgz/repeater/v2"
	"github.com/google/uuid"

	"github.com/markdave123-py/Fixpress/internal/core"
	"github.com/markdave123-py/Fixpress/internal/models"
)

// ErrStorageDisabled is returned by lookups when no database is configured.
var ErrStorageDisabled = errors.New("article storage not configured")

// ArticleService keeps generated articles and run reports outside the request path.
// Both db and storage are optional; a nil dependency turns the matching step into a no-op.
type ArticleService struct {
	db      core.DbClient
	storage core.ObjectClient
	retries int
	backoff time.Duration
}

func NewArticleService(db core.DbClient, storage core.ObjectClient) *ArticleService {
	return &ArticleService{db: db, storage: storage, retries: 5, backoff: 50 * time.Millisecond}
}

// Enabled reports whether at least one persistence backend is wired.
func (s *ArticleService) Enabled() bool {
	return s != nil && (s.db != nil || s.storage != nil)
}

// SaveRun archives the report and stores its articles. Errors are logged and
// never propagate; the returned record is nil when nothing was stored.
func (s *ArticleService) SaveRun(ctx context.Context, source, model string, report *models.BatchRunReport) *models.RunRecord {
	if !s.Enabled() || report == nil {
		return nil
	}

	run := &models.RunRecord{
		ID:         uuid.NewString(),
		Source:     source,
		Model:      model,
		Total:      report.Total,
		Successful: report.Successful,
		Failed:     report.Failed,
		StartedAt:  report.StartedAt,
	}
	if report.CompletedAt != nil {
		run.CompletedAt = *report.CompletedAt
	}

	if s.storage != nil {
		body, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			log.Printf("[WARN] encode run report %s: %v", run.ID, err)
		} else {
			key := path.Join("runs", run.ID+".json")
			url, err := s.upload(ctx, key, body, "application/json")
			if err != nil {
				log.Printf("[WARN] archive run report %s: %v", run.ID, err)
			} else {
				run.ReportURL = url
			}
		}
	}

	if s.db == nil {
		return run
	}

	err := s.retry(ctx, func() error { return s.db.CreateRun(ctx, run) })
	if err != nil {
		log.Printf("[WARN] store run %s: %v", run.ID, err)
		return run
	}

	records := make([]models.ArticleRecord, 0, len(report.Articles))
	for _, a := range report.Articles {
		records = append(records, models.ArticleRecord{
			ID:        uuid.NewString(),
			RunID:     run.ID,
			Article:   a,
			CreatedAt: a.Metadata.GeneratedAt,
		})
	}
	if err := s.retry(ctx, func() error { return s.db.InsertArticles(ctx, records) }); err != nil {
		log.Printf("[WARN] store %d articles for run %s: %v", len(records), run.ID, err)
		return run
	}

	log.Printf("[INFO] stored run %s with %d articles", run.ID, len(records))
	return run
}

// SaveArticle stores a single on-demand article outside of any run.
func (s *ArticleService) SaveArticle(ctx context.Context, article models.GeneratedArticle) {
	if s == nil || s.db == nil {
		return
	}
	rec := models.ArticleRecord{ID: uuid.NewString(), Article: article, CreatedAt: article.Metadata.GeneratedAt}
	if err := s.retry(ctx, func() error { return s.db.InsertArticles(ctx, []models.ArticleRecord{rec}) }); err != nil {
		log.Printf("[WARN] store article %q: %v", article.Title, err)
	}
}

// ArchiveManual copies an uploaded manual to manuals/{uuid}/{file}.
// It returns the object URL, or "" when storage is disabled or the upload failed.
func (s *ArticleService) ArchiveManual(ctx context.Context, filename string, r io.Reader) string {
	if s == nil || s.storage == nil {
		return ""
	}
	body, err := io.ReadAll(r)
	if err != nil {
		log.Printf("[WARN] read manual %s for archive: %v", filename, err)
		return ""
	}

	key := manualKey(uuid.NewString(), filename)
	url, err := s.upload(ctx, key, body, contentTypeFor(filename))
	if err != nil {
		log.Printf("[WARN] archive manual %s: %v", filename, err)
		return ""
	}
	log.Printf("[DEBUG] archived manual %s to %s", filename, key)
	return url
}

// RunArticles lists the articles stored for one run.
func (s *ArticleService) RunArticles(ctx context.Context, runID string) ([]models.ArticleRecord, error) {
	if s == nil || s.db == nil {
		return nil, ErrStorageDisabled
	}
	return s.db.ListArticlesByRun(ctx, runID)
}

func (s *ArticleService) upload(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	var url string
	err := s.retry(ctx, func() error {
		u, err := s.storage.UploadFile(ctx, s.storage.Bucket(), key, bytes.NewReader(body), contentType)
		if err != nil {
			return err
		}
		url = u
		return nil
	})
	return url, err
}

func (s *ArticleService) retry(ctx context.Context, fn func() error) error {
	r := repeater.NewBackoff(s.retries, s.backoff, repeater.WithMaxDelay(2*time.Second))
	return r.Do(ctx, fn)
}

// manualKey creates a consistent S3 key layout.
func manualKey(id, filename string) string {
	filename = path.Base(strings.TrimSpace(filename))
	filename = strings.ReplaceAll(filename, " ", "_")
	if filename == "." || filename == "/" || filename == "" {
		filename = "manual.pdf"
	}
	return path.Join("manuals", id, filename)
}

func contentTypeFor(filename string) string {
	switch strings.ToLower(path.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".html", ".htm":
		return "text/html"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
