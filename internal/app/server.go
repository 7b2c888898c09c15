package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-pkgz/rest"

	"github.com/markdave123-py/Fixpress/internal/api/handlers"
	appMiddleware "github.com/markdave123-py/Fixpress/internal/api/middlewares"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
}

// NewServer builds and wires all routes.
func NewServer(a *App, version string) *Server {
	cfg := a.Config
	publisher := a.PublishTarget()

	healthHandler := handlers.NewHealthHandler(healthChecks(a))
	authHandler := handlers.NewAuthHandler(cfg.JWTSecret, cfg.OperatorPasswordHash)
	articleHandler := handlers.NewArticleHandler(a.Ingestor, a.Orchestrator, publisher, a.Articles)
	batchHandler := handlers.NewBatchHandler(a.Orchestrator, publisher, a.Articles)
	metricsHandler := handlers.NewMetricsHandler(a.Metrics)
	productsHandler := handlers.NewProductsHandler(a.Linker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(rest.AppInfo("fixpress", "markdave123-py", version))
	r.Use(rest.Ping)
	r.Use(rest.Throttle(100))
	r.Use(rest.SizeLimit(64 << 20))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// public endpoints
	r.Get("/", healthHandler.Root)
	r.Get("/health", healthHandler.Health)
	r.Post("/login", authHandler.Login)
	r.Get("/device_types", batchHandler.DeviceTypes)
	r.Get("/products", productsHandler.Categories)
	r.Get("/products/{category}", productsHandler.Recommendations)
	r.Get("/runs/{id}/articles", batchHandler.RunArticles)

	r.Get("/metrics/site", metricsHandler.Site)
	r.Get("/metrics/page", metricsHandler.Page)
	r.Get("/metrics/queries", metricsHandler.TopQueries)
	r.Post("/metrics/articles", metricsHandler.Articles)

	r.With(middleware.Timeout(3*time.Minute)).Post("/generate_article", articleHandler.GenerateArticle)
	r.With(middleware.Timeout(3*time.Minute)).Post("/upload_pdf", articleHandler.UploadPDF)
	// no deadline, a batch runs until every error is processed
	r.Post("/batch_generate", batchHandler.BatchGenerate)

	// protected endpoints
	r.Group(func(protected chi.Router) {
		protected.Use(appMiddleware.JWTMiddleware(cfg.JWTSecret))
		protected.Post("/publish_to_wordpress", articleHandler.PublishToWordPress)
		protected.Post("/batch_publish", batchHandler.BatchPublish)
	})

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &Server{httpServer: httpSrv}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		log.Printf("[INFO] shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] server shutdown error: %v", err)
		}
	}()

	log.Printf("[INFO] HTTP server listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

func healthChecks(a *App) map[string]handlers.HealthCheck {
	configured := func(context.Context) error { return nil }

	checks := map[string]handlers.HealthCheck{
		"llm":            nil,
		"wordpress":      nil,
		"database":       nil,
		"object_storage": nil,
		"search_console": nil,
	}
	if a.Providers != nil && a.Providers.LLM != nil {
		checks["llm"] = configured
	}
	if a.Publisher != nil {
		checks["wordpress"] = a.Publisher.Ping
	}
	if a.DBClient != nil {
		checks["database"] = a.DBClient.Ping
	}
	if a.ObjectClient != nil {
		checks["object_storage"] = configured
	}
	if a.Metrics != nil {
		checks["search_console"] = configured
	}
	return checks
}
