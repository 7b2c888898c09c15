package core

import (
	"context"
	"io"

	"github.com/markdave123-py/Fixpress/internal/models"
)

// DbClient defines all persistence operations your services will need.
// It abstracts Postgres/pgvector so higher layers never depend on a specific DB.
type DbClient interface {
	GetManualByHash(ctx context.Context, contentHash string) (*models.Manual, error)
	CreateManual(ctx context.Context, manual *models.Manual) error
	InsertManualChunks(ctx context.Context, chunks []models.ManualChunk) error
	SearchManualChunks(ctx context.Context, manualID string, queryVec []float32, limit int) ([]models.ManualChunk, error)

	CreateRun(ctx context.Context, run *models.RunRecord) error
	InsertArticles(ctx context.Context, articles []models.ArticleRecord) error
	ListArticlesByRun(ctx context.Context, runID string) ([]models.ArticleRecord, error)

	Ping(ctx context.Context) error
	Close() error
}

// ObjectClient defines interactions with S3 or any object storage.
// It's abstract so you can replace AWS with MinIO, GCP, etc. easily.
type ObjectClient interface {
	UploadFile(ctx context.Context, bucket, key string, data io.Reader, contentType string) (url string, err error)
	DeleteFile(ctx context.Context, bucket, key string) error
	GetObjectReader(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	Bucket() string
}
