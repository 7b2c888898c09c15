package batch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/markdave123-py/Fixpress/internal/core"
	"github.com/markdave123-py/Fixpress/internal/core/synthesis"
	"github.com/markdave123-py/Fixpress/internal/models"
)

// Ingestor turns a manual source into chunks.
type Ingestor interface {
	Ingest(ctx context.Context, source string) (*models.IngestResult, error)
}

// Synthesizer returns raw model output for one error description.
type Synthesizer interface {
	Synthesize(ctx context.Context, chunks []models.TextChunk, errorDesc, model string) (string, error)
}

// Linker monetizes product recommendations.
type Linker interface {
	Annotate(products []models.ProductStub) []models.AnnotatedProduct
}

// Publisher stores an article on the publication target.
type Publisher interface {
	Publish(ctx context.Context, req models.PublishRequest) (*models.PublishResult, error)
}

const (
	ingestFailedEntry    = "PDF processing failed"
	cancelledEntry       = "Batch cancelled"
	synthesisFailedEntry = "Failed to generate article"
	unknownPublishError  = "Unknown error"
)

// Orchestrator drives one manual through synthesis for many errors, and
// separately publishes generated articles. Items are processed strictly one
// at a time, in input order.
type Orchestrator struct {
	ingestor     Ingestor
	synth        Synthesizer
	linker       Linker
	synthPacer   Pacer
	publishPacer Pacer
	now          func() time.Time
}

// NewOrchestrator wires the collaborators. Nil pacers mean no waiting.
func NewOrchestrator(ingestor Ingestor, synth Synthesizer, linker Linker, synthPacer, publishPacer Pacer) *Orchestrator {
	if synthPacer == nil {
		synthPacer = NoPacer{}
	}
	if publishPacer == nil {
		publishPacer = NoPacer{}
	}
	return &Orchestrator{
		ingestor:     ingestor,
		synth:        synth,
		linker:       linker,
		synthPacer:   synthPacer,
		publishPacer: publishPacer,
		now:          time.Now,
	}
}

// GenerateForManual ingests source once and synthesizes one article per error description.
// An ingest failure aborts the run with a single log entry and zero counters.
// Per-error failures are counted and logged, never returned.
func (o *Orchestrator) GenerateForManual(ctx context.Context, source, model string, errorDescs []string, status string) *models.BatchRunReport {
	report := &models.BatchRunReport{
		Total:     len(errorDescs),
		Articles:  []models.GeneratedArticle{},
		ErrorsLog: []models.RunLogEntry{},
		StartedAt: o.now(),
	}

	log.Printf("[INFO] processing manual %s", source)
	ingested, err := o.ingest(ctx, source)
	if err != nil {
		log.Printf("[WARN] manual %s failed: %v", source, err)
		report.ErrorsLog = append(report.ErrorsLog, models.RunLogEntry{
			Error:  ingestFailedEntry,
			Detail: fmt.Sprintf("No se pudo procesar el PDF: %v", err),
		})
		return report
	}
	log.Printf("[INFO] manual %s processed: %d chunks", source, ingested.ChunkCount)

	for i, errorDesc := range errorDescs {
		if i > 0 {
			if err := o.synthPacer.Wait(ctx); err != nil {
				report.ErrorsLog = append(report.ErrorsLog, models.RunLogEntry{Error: cancelledEntry, Detail: err.Error()})
				break
			}
		} else if err := ctx.Err(); err != nil {
			report.ErrorsLog = append(report.ErrorsLog, models.RunLogEntry{Error: cancelledEntry, Detail: err.Error()})
			break
		}

		log.Printf("[INFO] generating article %d/%d: %s", i+1, len(errorDescs), errorDesc)
		article, err := o.safeGenerate(ctx, ingested.Chunks, errorDesc, model, status)
		if err != nil {
			log.Printf("[WARN] article for %q failed: %v", errorDesc, err)
			report.Failed++
			report.ErrorsLog = append(report.ErrorsLog, models.RunLogEntry{Error: errorDesc, Detail: failureDetail(err)})
			continue
		}

		report.Articles = append(report.Articles, *article)
		report.Successful++
	}

	completed := o.now()
	report.CompletedAt = &completed
	log.Printf("[INFO] batch completed: %d/%d successful", report.Successful, report.Total)
	return report
}

// GenerateOne synthesizes and packages a single article from already ingested chunks.
func (o *Orchestrator) GenerateOne(ctx context.Context, chunks []models.TextChunk, errorDesc, model, status string) (*models.GeneratedArticle, error) {
	raw, err := o.synth.Synthesize(ctx, chunks, errorDesc, model)
	if err != nil {
		return nil, err
	}

	payload := synthesis.ParseArticle(raw)
	if payload.Malformed() {
		log.Printf("[WARN] unparseable output for %q: %s", errorDesc, payload.ParseError)
	}

	if status == "" {
		status = models.StatusDraft
	}
	title := payload.Title
	if title == "" {
		title = "Error: " + errorDesc
	}

	return &models.GeneratedArticle{
		Error: errorDesc,
		Title: title,
		Content: models.ArticleContent{
			Introduction:   payload.Introduction,
			ErrorMeaning:   payload.ErrorMeaning,
			Diagnosis:      payload.Diagnosis,
			SolutionSteps:  payload.SolutionSteps,
			CommonFailures: payload.CommonFailures,
		},
		AffiliateLinks: o.linker.Annotate(payload.RecommendedProducts),
		Metadata: models.ArticleMetadata{
			Model:            model,
			Error:            errorDesc,
			SourceChunkCount: len(chunks),
			GeneratedAt:      o.now(),
		},
		Status:     status,
		ParseError: payload.ParseError,
		RawOutput:  payload.Raw,
	}, nil
}

// PublishAll publishes every article once, in order, through target.
func (o *Orchestrator) PublishAll(ctx context.Context, target Publisher, articles []models.GeneratedArticle) *models.PublishRunReport {
	report := &models.PublishRunReport{
		Total:     len(articles),
		Published: []models.PublishedEntry{},
		Errors:    []models.PublishErrorEntry{},
	}

	for i, a := range articles {
		if i > 0 {
			if err := o.publishPacer.Wait(ctx); err != nil {
				o.skipRemaining(report, articles[i:], err)
				break
			}
		} else if err := ctx.Err(); err != nil {
			o.skipRemaining(report, articles, err)
			break
		}

		log.Printf("[INFO] publishing article %d/%d: %s", i+1, len(articles), a.Title)
		res, err := o.safePublish(ctx, target, publishRequest(a))
		switch {
		case err != nil:
			report.Failed++
			report.Errors = append(report.Errors, models.PublishErrorEntry{Title: a.Title, Error: err.Error()})
			log.Printf("[WARN] publishing %q failed: %v", a.Title, err)
		case res == nil || !res.Success:
			msg := unknownPublishError
			if res != nil && res.Error != "" {
				msg = res.Error
			}
			report.Failed++
			report.Errors = append(report.Errors, models.PublishErrorEntry{Title: a.Title, Error: msg})
			log.Printf("[WARN] publishing %q rejected: %s", a.Title, msg)
		default:
			report.Successful++
			report.Published = append(report.Published, models.PublishedEntry{Title: a.Title, URL: res.URL, PostID: res.PostID})
		}
	}

	log.Printf("[INFO] publish completed: %d/%d successful", report.Successful, report.Total)
	return report
}

// skipRemaining records articles that were never attempted because the run was cancelled.
func (o *Orchestrator) skipRemaining(report *models.PublishRunReport, rest []models.GeneratedArticle, cause error) {
	for _, a := range rest {
		report.Failed++
		report.Errors = append(report.Errors, models.PublishErrorEntry{Title: a.Title, Error: "not attempted: " + cause.Error()})
	}
}

func (o *Orchestrator) ingest(ctx context.Context, source string) (res *models.IngestResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("panic during ingest: %v", r)
		}
	}()
	res, err = o.ingestor.Ingest(ctx, source)
	if err == nil && (res == nil || !res.Success) {
		err = errors.New("ingest returned no result")
	}
	return res, err
}

func (o *Orchestrator) safeGenerate(ctx context.Context, chunks []models.TextChunk, errorDesc, model, status string) (a *models.GeneratedArticle, err error) {
	defer func() {
		if r := recover(); r != nil {
			a, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return o.GenerateOne(ctx, chunks, errorDesc, model, status)
}

func (o *Orchestrator) safePublish(ctx context.Context, target Publisher, req models.PublishRequest) (res *models.PublishResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return target.Publish(ctx, req)
}

func publishRequest(a models.GeneratedArticle) models.PublishRequest {
	errDesc := a.Metadata.Error
	if errDesc == "" {
		errDesc = a.Error
	}
	status := a.Status
	if status == "" {
		status = models.StatusDraft
	}
	return models.PublishRequest{
		Title:          a.Title,
		Content:        a.Content,
		AffiliateLinks: a.AffiliateLinks,
		Error:          errDesc,
		Model:          a.Metadata.Model,
		Status:         status,
		PostID:         a.PostID,
	}
}

// failureDetail keeps the generic message for synthesizer failures and the cause otherwise.
func failureDetail(err error) string {
	if errors.Is(err, core.ErrSynthesisFailed) {
		return fmt.Sprintf("%s: %v", synthesisFailedEntry, err)
	}
	return err.Error()
}
