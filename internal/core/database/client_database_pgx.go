package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pgvector/pgvector-go"

	"github.com/markdave123-py/Fixpress/internal/config"
	"github.com/markdave123-py/Fixpress/internal/core"
	"github.com/markdave123-py/Fixpress/internal/models"
)

type DatabaseClient struct {
	db *sql.DB
}

var _ core.DbClient = (*DatabaseClient)(nil)

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (core.DbClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, &core.ConfigurationError{Component: "database", Reason: "DATABASE_URL is empty"}
	}

	dsn, err := withSSL(cfg.DatabaseURL, cfg.SslCertPath)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

// withSSL pins the server CA when a certificate path is configured.
func withSSL(databaseURL, certPath string) (string, error) {
	if certPath == "" {
		return databaseURL, nil
	}
	if _, err := os.Stat(certPath); err != nil {
		return "", fmt.Errorf("ssl cert not accessible at %q: %w", certPath, err)
	}
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid DATABASE_URL: %w", err)
	}
	q := u.Query()
	q.Set("sslmode", "verify-ca")
	q.Set("sslrootcert", certPath)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func (c *DatabaseClient) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Manuals

func (c *DatabaseClient) GetManualByHash(ctx context.Context, contentHash string) (*models.Manual, error) {
	const q = `
		SELECT id, source, content_hash, chunk_count, text_length, created_at
		FROM manuals WHERE content_hash = $1
	`
	var m models.Manual
	err := c.db.QueryRowContext(ctx, q, contentHash).Scan(
		&m.ID, &m.Source, &m.ContentHash, &m.ChunkCount, &m.TextLength, &m.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *DatabaseClient) CreateManual(ctx context.Context, manual *models.Manual) error {
	if manual == nil {
		return errors.New("nil manual")
	}
	const q = `
		INSERT INTO manuals (id, source, content_hash, chunk_count, text_length, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := c.db.ExecContext(ctx, q,
		manual.ID, manual.Source, manual.ContentHash, manual.ChunkCount, manual.TextLength, nowIfZero(manual.CreatedAt))
	return err
}

// InsertManualChunks inserts chunks in a single transaction.
func (c *DatabaseClient) InsertManualChunks(ctx context.Context, chunks []models.ManualChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	const q = `
		INSERT INTO manual_chunks
			(id, manual_id, position, text, start_offset, end_offset, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i := range chunks {
		ch := &chunks[i]
		if _, err := stmt.ExecContext(ctx,
			ch.ID, ch.ManualID, ch.Position, ch.Text, ch.Start, ch.End, pgvector.NewVector(ch.Embedding),
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// SearchManualChunks finds the top-k chunks of one manual closest to the query embedding.
func (c *DatabaseClient) SearchManualChunks(ctx context.Context, manualID string, queryVec []float32, limit int) ([]models.ManualChunk, error) {
	const q = `
		SELECT id, manual_id, position, text, start_offset, end_offset, embedding
		FROM manual_chunks
		WHERE manual_id = $1
		ORDER BY embedding <-> $2
		LIMIT $3
	`
	rows, err := c.db.QueryContext(ctx, q, manualID, pgvector.NewVector(queryVec), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ManualChunk
	for rows.Next() {
		var (
			ch  models.ManualChunk
			emb pgvector.Vector
		)
		if err := rows.Scan(&ch.ID, &ch.ManualID, &ch.Position, &ch.Text, &ch.Start, &ch.End, &emb); err != nil {
			return nil, err
		}
		ch.Embedding = emb.Slice()
		out = append(out, ch)
	}
	return out, rows.Err()
}

// Runs and articles

func (c *DatabaseClient) CreateRun(ctx context.Context, run *models.RunRecord) error {
	if run == nil {
		return errors.New("nil run")
	}
	const q = `
		INSERT INTO runs (id, source, model, total, successful, failed, report_url, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := c.db.ExecContext(ctx, q,
		run.ID, run.Source, run.Model, run.Total, run.Successful, run.Failed, run.ReportURL,
		nowIfZero(run.StartedAt), nowIfZero(run.CompletedAt))
	return err
}

// InsertArticles stores generated articles as JSONB in one transaction.
func (c *DatabaseClient) InsertArticles(ctx context.Context, articles []models.ArticleRecord) error {
	if len(articles) == 0 {
		return nil
	}
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	const q = `
		INSERT INTO articles (id, run_id, payload, created_at)
		VALUES ($1, NULLIF($2, '')::uuid, $3, $4)
	`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i := range articles {
		a := &articles[i]
		payload, err := json.Marshal(a.Article)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("encode article %s: %w", a.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, a.ID, a.RunID, payload, nowIfZero(a.CreatedAt)); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (c *DatabaseClient) ListArticlesByRun(ctx context.Context, runID string) ([]models.ArticleRecord, error) {
	const q = `
		SELECT id, run_id, payload, created_at
		FROM articles
		WHERE run_id = $1
		ORDER BY created_at ASC
	`
	rows, err := c.db.QueryContext(ctx, q, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ArticleRecord
	for rows.Next() {
		var (
			a       models.ArticleRecord
			payload []byte
		)
		if err := rows.Scan(&a.ID, &a.RunID, &payload, &a.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(payload, &a.Article); err != nil {
			return nil, fmt.Errorf("decode article %s: %w", a.ID, err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func nowIfZero(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}
