package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/credence-io/credence/internal/api/handlers"
	mw "github.com/credence-io/credence/internal/api/middleware"
	"github.com/credence-io/credence/internal/buildconfig"
	"github.com/credence-io/credence/internal/classifier"
	"github.com/credence-io/credence/internal/config"
	"github.com/credence-io/credence/internal/domain"
	"github.com/credence-io/credence/internal/embedding"
	"github.com/credence-io/credence/internal/service"
	"github.com/credence-io/credence/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// App holds the router and the scoring engine for lifecycle management.
type App struct {
	Router       *chi.Mux
	Engine       *service.Engine
	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

func NewApp(db *pgxpool.Pool, logger *zap.Logger) *App {
	// Stores
	beliefStore := store.NewBeliefStore(db)
	argumentStore := store.NewArgumentStore(db)
	evidenceStore := store.NewEvidenceStore(db)
	overrideStore := store.NewSimilarityOverrideStore(db)
	historyStore := store.NewScoreHistoryStore(db)
	engagementStore := store.NewEngagementStore(db)

	// External clients via provider factories
	embeddingClient, err := embedding.NewClient(config.EmbeddingProvider(), config.EmbeddingAPIKey())
	if err != nil {
		logger.Warn("embedding client initialization failed; duplication scoring degrades to the mechanical layer",
			zap.String("provider", config.EmbeddingProvider()), zap.Error(err))
		embeddingClient = nil
	} else {
		logger.Info("embedding client initialized", zap.String("provider", config.EmbeddingProvider()))
	}

	fallacyDetector, err := classifier.NewFallacyDetector(config.FallacyProvider())
	if err != nil {
		logger.Warn("fallacy detector initialization failed; falling back to keyword detection",
			zap.String("provider", config.FallacyProvider()), zap.Error(err))
		fallacyDetector = classifier.NewKeywordDetector()
	} else {
		logger.Info("fallacy detector initialized", zap.String("provider", config.FallacyProvider()))
	}

	// Services
	dedupSvc := service.NewDuplicationService(embeddingClient, logger)
	linkageSvc := service.NewLinkageService(logger)
	coherenceSvc := service.NewCoherenceService(fallacyDetector, logger)
	evidenceSvc := service.NewEvidenceService(evidenceStore, logger)
	propagator := service.NewPropagator(logger)
	conclusionSvc := service.NewConclusionService()
	stabilitySvc := service.NewStabilityService(classifier.NewStatementClassifier(), evidenceSvc, logger)

	engine := service.NewEngine(
		beliefStore, argumentStore, evidenceStore, overrideStore, historyStore, engagementStore,
		dedupSvc, linkageSvc, coherenceSvc, evidenceSvc, propagator, conclusionSvc, stabilitySvc,
		logger,
	)
	engine.Workers = config.EngineWorkers()
	engine.RescoreInterval = config.RescoreInterval()

	// Handlers
	beliefHandler := handlers.NewBeliefHandler(beliefStore, argumentStore, engine, logger)
	argumentHandler := handlers.NewArgumentHandler(beliefStore, argumentStore, engine, logger)
	evidenceHandler := handlers.NewEvidenceHandler(evidenceStore, argumentStore, evidenceSvc, engine, logger)
	overrideHandler := handlers.NewOverrideHandler(overrideStore, argumentStore, engine, logger)
	engagementHandler := handlers.NewEngagementHandler(engagementStore, beliefStore, logger)
	scoreHandler := handlers.NewScoreHandler(engine, logger)

	r := chi.NewRouter()

	app := &App{
		Router:    r,
		Engine:    engine,
		startTime: time.Now(),
	}

	// Metrics collector for middleware
	metricsCollector := mw.NewMetricsCollector(&app.requestCount, &app.errorCount)

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metricsCollector.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	// Health (no auth)
	r.Get("/health", healthHandler(db))

	// Metrics (no auth)
	r.Get("/metrics", app.metricsHandler())

	// Authenticated routes
	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(config.APIKey()))

		// Beliefs
		r.Route("/beliefs", func(r chi.Router) {
			r.Post("/", beliefHandler.Create)
			r.Get("/", beliefHandler.List)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", beliefHandler.GetByID)
				r.Delete("/", beliefHandler.Delete)
				r.Get("/arguments", beliefHandler.ListArguments)
				r.Post("/recompute", scoreHandler.Recompute)
				r.Get("/scores", scoreHandler.Scores)
				r.Get("/explain", scoreHandler.Explain)
				r.Get("/clusters", scoreHandler.Clusters)
				r.Post("/engagement", engagementHandler.Record)
				r.Get("/engagement", engagementHandler.Stats)
			})
		})

		// Arguments
		r.Route("/arguments", func(r chi.Router) {
			r.Post("/", argumentHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", argumentHandler.GetByID)
				r.Put("/state", argumentHandler.UpdateState)
				r.Post("/dependencies", argumentHandler.AddDependency)
			})
		})

		// Evidence
		r.Route("/evidence", func(r chi.Router) {
			r.Post("/", evidenceHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Post("/verify", evidenceHandler.Verify)
				r.Post("/dispute", evidenceHandler.Dispute)
				r.Post("/retract", evidenceHandler.Retract)
				r.Get("/simulate-retraction", scoreHandler.SimulateRetraction)
			})
		})

		// Equivalence overrides
		r.Route("/overrides", func(r chi.Router) {
			r.Post("/", overrideHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Post("/vote", overrideHandler.Vote)
				r.Post("/resolve", overrideHandler.Resolve)
			})
		})
	})

	return app
}

// NewRouter returns just the chi.Mux for callers that manage no lifecycle.
func NewRouter(db *pgxpool.Pool, logger *zap.Logger) *chi.Mux {
	return NewApp(db, logger).Router
}

func healthHandler(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":  "ok",
			"service": buildconfig.Service,
			"version": buildconfig.Version(),
			"commit":  buildconfig.Commit(),
		})
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"request_count":  app.requestCount.Load(),
			"error_count":    app.errorCount.Load(),
			"goroutines":     runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"go_version": runtime.Version(),
			"build":      buildconfig.VersionInfo(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Ensure stores and clients satisfy interfaces at compile time.
var (
	_ domain.BeliefStore             = (*store.BeliefStore)(nil)
	_ domain.ArgumentStore           = (*store.ArgumentStore)(nil)
	_ domain.EvidenceStore           = (*store.EvidenceStore)(nil)
	_ domain.SimilarityOverrideStore = (*store.SimilarityOverrideStore)(nil)
	_ domain.ScoreHistoryStore       = (*store.ScoreHistoryStore)(nil)
	_ domain.EngagementStore         = (*store.EngagementStore)(nil)
	_ domain.EmbeddingClient         = (*embedding.OpenAIClient)(nil)
	_ domain.EmbeddingClient         = (*embedding.MockClient)(nil)
	_ domain.FallacyDetector         = (*classifier.KeywordDetector)(nil)
	_ domain.FallacyDetector         = (*classifier.MockDetector)(nil)
	_ domain.StatementClassifier     = (*classifier.StatementClassifier)(nil)
)
