package models

import (
	"time"
)

// Publication statuses accepted by the publication target.
const (
	StatusDraft   = "draft"
	StatusPublish = "publish"
)

// TextChunk is one retrieval window of extracted manual text.
// Start and End are rune offsets into the untrimmed source text.
type TextChunk struct {
	ID       string `json:"id"`
	Position int    `json:"position"`
	Text     string `json:"text"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
}

// IngestResult is what a successful ingest hands to the synthesis step.
type IngestResult struct {
	Success    bool        `json:"success"`
	FullText   string      `json:"full_text"`
	Chunks     []TextChunk `json:"chunks"`
	ChunkCount int         `json:"chunk_count"`
	TextLength int         `json:"text_length"`
}

// ProductStub is a product recommendation as produced by the model.
type ProductStub struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Reason string `json:"reason,omitempty"`
}

// ArticlePayload is the structured article parsed from model output.
// Raw and ParseError are only set when the output could not be decoded.
type ArticlePayload struct {
	Title               string        `json:"title"`
	Introduction        string        `json:"introduction"`
	ErrorMeaning        string        `json:"error_meaning"`
	Diagnosis           string        `json:"diagnosis"`
	SolutionSteps       []string      `json:"solution_steps"`
	CommonFailures      []string      `json:"common_failures"`
	RecommendedProducts []ProductStub `json:"recommended_products"`

	Raw        string `json:"content,omitempty" jsonschema:"-"`
	ParseError string `json:"error,omitempty" jsonschema:"-"`
}

// Malformed reports whether the payload is a placeholder for unparseable output.
func (p ArticlePayload) Malformed() bool {
	return p.ParseError != ""
}

// AnnotatedProduct is a product stub with its monetized link.
type AnnotatedProduct struct {
	Name          string `json:"name"`
	Type          string `json:"type"`
	Reason        string `json:"reason"`
	AffiliateLink string `json:"affiliate_link"`
	SearchTerm    string `json:"search_term"`
}

// ArticleContent holds the body sections of a generated article.
type ArticleContent struct {
	Introduction   string   `json:"introduction"`
	ErrorMeaning   string   `json:"error_meaning"`
	Diagnosis      string   `json:"diagnosis"`
	SolutionSteps  []string `json:"solution_steps"`
	CommonFailures []string `json:"common_failures"`
}

// ArticleMetadata describes how an article was produced.
type ArticleMetadata struct {
	Model            string    `json:"model"`
	Error            string    `json:"error"`
	SourceChunkCount int       `json:"source_chunk_count"`
	GeneratedAt      time.Time `json:"generated_at"`
}

// GeneratedArticle is the packaged result for one processed error.
type GeneratedArticle struct {
	Error          string             `json:"error"`
	Title          string             `json:"title"`
	Content        ArticleContent     `json:"content"`
	AffiliateLinks []AnnotatedProduct `json:"affiliate_links"`
	Metadata       ArticleMetadata    `json:"metadata"`
	Status         string             `json:"status"`
	PostID         int64              `json:"post_id,omitempty"`

	// set only when the model output had no decodable JSON object
	ParseError string `json:"parse_error,omitempty"`
	RawOutput  string `json:"raw_output,omitempty"`
}

// RunLogEntry records one failure inside a batch run.
type RunLogEntry struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// BatchRunReport accumulates the outcome of a generation batch.
type BatchRunReport struct {
	Total       int                `json:"total"`
	Successful  int                `json:"successful"`
	Failed      int                `json:"failed"`
	Articles    []GeneratedArticle `json:"articles"`
	ErrorsLog   []RunLogEntry      `json:"errors_log"`
	StartedAt   time.Time          `json:"started_at"`
	CompletedAt *time.Time         `json:"completed_at,omitempty"`
}

// Aborted reports whether the run stopped before any error was attempted.
func (r *BatchRunReport) Aborted() bool {
	return r.Successful == 0 && r.Failed == 0 && len(r.ErrorsLog) > 0
}

// PublishedEntry is one successful publication.
type PublishedEntry struct {
	Title  string `json:"title"`
	URL    string `json:"url"`
	PostID int64  `json:"post_id"`
}

// PublishErrorEntry is one failed publication.
type PublishErrorEntry struct {
	Title string `json:"title"`
	Error string `json:"error"`
}

// PublishRunReport accumulates the outcome of a publish batch.
type PublishRunReport struct {
	Total      int                 `json:"total"`
	Successful int                 `json:"successful"`
	Failed     int                 `json:"failed"`
	Published  []PublishedEntry    `json:"published"`
	Errors     []PublishErrorEntry `json:"errors"`
}

// PublishRequest carries everything a publication target needs for one article.
// PostID > 0 updates that post instead of creating a new one.
type PublishRequest struct {
	Title          string
	Content        ArticleContent
	AffiliateLinks []AnnotatedProduct
	Error          string
	Model          string
	Status         string
	PostID         int64
}

// PublishResult is returned by a publication target.
type PublishResult struct {
	Success bool   `json:"success"`
	PostID  int64  `json:"post_id,omitempty"`
	URL     string `json:"url,omitempty"`
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Manual is a stored manual whose chunks were indexed for retrieval.
type Manual struct {
	ID          string    `db:"id" json:"id"`
	Source      string    `db:"source" json:"source"`
	ContentHash string    `db:"content_hash" json:"content_hash"`
	ChunkCount  int       `db:"chunk_count" json:"chunk_count"`
	TextLength  int       `db:"text_length" json:"text_length"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// ManualChunk is one embedded chunk row.
type ManualChunk struct {
	ID        string    `db:"id" json:"id"`
	ManualID  string    `db:"manual_id" json:"manual_id"`
	Position  int       `db:"position" json:"position"`
	Text      string    `db:"text" json:"text"`
	Start     int       `db:"start_offset" json:"start"`
	End       int       `db:"end_offset" json:"end"`
	Embedding []float32 `db:"embedding" json:"embedding"` // pgvector column
}

// ArticleRecord is a generated article persisted by the caller.
type ArticleRecord struct {
	ID        string           `db:"id" json:"id"`
	RunID     string           `db:"run_id" json:"run_id"`
	Article   GeneratedArticle `db:"payload" json:"article"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}

// RunRecord summarises a stored batch run.
type RunRecord struct {
	ID          string    `db:"id" json:"id"`
	Source      string    `db:"source" json:"source"`
	Model       string    `db:"model" json:"model"`
	Total       int       `db:"total" json:"total"`
	Successful  int       `db:"successful" json:"successful"`
	Failed      int       `db:"failed" json:"failed"`
	ReportURL   string    `db:"report_url" json:"report_url"`
	StartedAt   time.Time `db:"started_at" json:"started_at"`
	CompletedAt time.Time `db:"completed_at" json:"completed_at"`
}
