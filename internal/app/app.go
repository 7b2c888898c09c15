package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/markdave123-py/Fixpress/internal/config"
	"github.com/markdave123-py/Fixpress/internal/core"
	"github.com/markdave123-py/Fixpress/internal/core/affiliate"
	"github.com/markdave123-py/Fixpress/internal/core/batch"
	db "github.com/markdave123-py/Fixpress/internal/core/database"
	"github.com/markdave123-py/Fixpress/internal/core/ingestion_engine"
	"github.com/markdave123-py/Fixpress/internal/core/llm"
	objectclient "github.com/markdave123-py/Fixpress/internal/core/object-client"
	"github.com/markdave123-py/Fixpress/internal/core/retrieval"
	"github.com/markdave123-py/Fixpress/internal/core/searchconsole"
	"github.com/markdave123-py/Fixpress/internal/core/synthesis"
	"github.com/markdave123-py/Fixpress/internal/core/wordpress"
	"github.com/markdave123-py/Fixpress/internal/services"
)

// App is the composition root. Optional capabilities stay nil when their
// settings are missing: DBClient, ObjectClient, Publisher and Metrics.
type App struct {
	Config       *config.Config
	DBClient     core.DbClient
	ObjectClient core.ObjectClient
	Providers    *llm.Providers
	Ingestor     *ingestion_engine.ManualIngestor
	Orchestrator *batch.Orchestrator
	Linker       *affiliate.Linker
	Publisher    *wordpress.Client
	Metrics      *searchconsole.Client
	Articles     *services.ArticleService
	Server       *Server
}

// Build wires every component except the HTTP server.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	a := &App{Config: cfg}

	if cfg.DatabaseURL != "" {
		dbClient, err := db.NewDatabaseClient(appCtx, cfg)
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		a.DBClient = dbClient
		log.Printf("[INFO] database initialized and ready")
	}

	if cfg.ObjectStorageEnabled() {
		objClient, err := objectclient.NewS3Client(appCtx, cfg)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("object storage: %w", err)
		}
		a.ObjectClient = objClient
	}

	providers, err := llm.NewProviders(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("couldn't initialize the llm providers: %w", err)
	}
	a.Providers = providers

	ingestor, err := ingestion_engine.NewManualIngestor(
		a.ObjectClient,
		ingestion_engine.NewPDFPageExtractor(),
		ingestion_engine.NewDocconvExtractor(false),
		&ingestion_engine.IngestConfig{
			ChunkSize:    cfg.ChunkSize,
			ChunkOverlap: cfg.ChunkOverlap,
			FetchTimeout: cfg.FetchTimeout,
		},
	)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Ingestor = ingestor

	synth, err := synthesis.NewSynthesizer(providers.LLM, newRetriever(a.DBClient, providers.Embedder), cfg.RetrievalTopK)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Linker = affiliate.NewLinker(cfg.AmazonBaseURL, cfg.AffiliateTag)
	a.Orchestrator = batch.NewOrchestrator(
		ingestor,
		synth,
		a.Linker,
		batch.ConstantPacer{Delay: cfg.SynthDelay},
		batch.ConstantPacer{Delay: cfg.PublishDelay},
	)

	if cfg.WordPressEnabled() {
		wp, err := wordpress.NewClient(cfg.WordPressURL, cfg.WordPressUser, cfg.WordPressAppPassword, cfg.WordPressCategory, 30*time.Second)
		if err != nil {
			log.Printf("[WARN] wordpress disabled: %v", err)
		} else {
			a.Publisher = wp
		}
	} else {
		log.Printf("[WARN] WORDPRESS_URL, WORDPRESS_USER or WORDPRESS_APP_PASSWORD missing, publishing disabled")
	}

	if cfg.GoogleCredentialsFile != "" && cfg.SiteURL != "" {
		m, err := searchconsole.New(appCtx, cfg.GoogleCredentialsFile, cfg.SiteURL)
		if err != nil {
			log.Printf("[WARN] search console disabled: %v", err)
		} else {
			a.Metrics = m
		}
	}

	a.Articles = services.NewArticleService(a.DBClient, a.ObjectClient)
	return a, nil
}

// NewApp builds the components and the HTTP server on top of them.
func NewApp(ctx context.Context, cfg *config.Config, version string) (*App, error) {
	a, err := Build(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.Server = NewServer(a, version)
	return a, nil
}

// newRetriever prefers pgvector when a database is available, then in-memory
// ranking, then leading chunks when nothing can embed.
func newRetriever(dbClient core.DbClient, embedder core.EmbeddingProvider) retrieval.Retriever {
	switch {
	case embedder == nil:
		return retrieval.LeadRetriever{}
	case dbClient != nil:
		return retrieval.NewPgvectorRetriever(dbClient, embedder)
	default:
		return retrieval.NewMemoryRetriever(embedder)
	}
}

// PublishTarget returns the publication target as an interface, nil when unconfigured.
func (a *App) PublishTarget() batch.Publisher {
	if a.Publisher == nil {
		return nil
	}
	return a.Publisher
}

func (a *App) Close() {
	if a.Providers != nil {
		a.Providers.Close()
	}
	if a.DBClient != nil {
		_ = a.DBClient.Close()
	}
}
