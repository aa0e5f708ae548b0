package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	validator "github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agropesa/backend-balanza/internal/config"
	"github.com/agropesa/backend-balanza/internal/entity"
	"github.com/agropesa/backend-balanza/internal/health"
	"github.com/agropesa/backend-balanza/internal/ledger"
	"github.com/agropesa/backend-balanza/internal/obs"
	"github.com/agropesa/backend-balanza/internal/report"
	"github.com/agropesa/backend-balanza/internal/security"
	"github.com/agropesa/backend-balanza/internal/settlement"
	"github.com/agropesa/backend-balanza/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("env", cfg.AppEnv).Logger()
	obs.MustRegisterDomainMetrics(cfg.MetricsNamespace, nil)

	st, err := store.OpenSQLite(cfg.DataPath, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.DataPath).Msg("open store")
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error().Err(err).Msg("close store")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	ledgerService, err := ledger.NewService(ctx, ledger.ServiceConfig{Store: st, Logger: logger})
	if err != nil {
		cancel()
		logger.Fatal().Err(err).Msg("initialise ledger service")
	}
	entityService, err := entity.NewService(ctx, entity.ServiceConfig{Store: st, Logger: logger})
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise entity service")
	}
	settlementService, err := settlement.NewService(settlement.ServiceConfig{
		Store:  st,
		Source: ledgerService,
		Logger: logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise settlement service")
	}

	validate := validator.New()
	ledgerHandler := ledger.NewHandler(ledger.HandlerConfig{Service: ledgerService, Validator: validate})
	entityHandler := entity.NewHandler(entity.HandlerConfig{
		Service:    entityService,
		Ledger:     ledgerService,
		Settlement: settlementService,
		Validator:  validate,
	})
	settlementHandler := settlement.NewHandler(settlement.HandlerConfig{Service: settlementService, Validator: validate})
	reportHandler := report.NewHandler(report.HandlerConfig{
		Summaries:   settlementService,
		Entities:    entityService,
		StationName: cfg.StationName,
		Currency:    cfg.Currency,
	})

	var httpMetrics *obs.HTTPMetrics
	if cfg.MetricsEnabled {
		buckets := obs.ParseBucketsCSV(os.Getenv("OBS_METRICS_BUCKETS_MS"))
		httpMetrics = obs.NewHTTPMetrics(cfg.MetricsNamespace, buckets, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	r.Use(security.Headers{}.Middleware)
	r.Use(security.BodyLimit{}.Middleware)
	if cfg.MetricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if cfg.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	healthHandler := health.Handler{
		Checker:      storeChecker{store: st},
		StoreTimeout: 500 * time.Millisecond,
	}
	r.Get("/healthz", healthHandler.Live)
	r.Get("/readyz", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Get("/categories", ledgerHandler.Categories)
		v.Post("/categories", ledgerHandler.CreateCategory)
		v.Patch("/categories/{categoryID}", ledgerHandler.RenameCategory)
		v.Delete("/categories/{categoryID}", ledgerHandler.DeleteCategory)

		v.Route("/entities", func(e chi.Router) {
			e.Get("/", entityHandler.List)
			e.Post("/", entityHandler.Create)
			e.Route("/{entityID}", func(one chi.Router) {
				one.Patch("/", entityHandler.Rename)
				one.Delete("/", entityHandler.Delete)
				one.Get("/stats", ledgerHandler.EntityStats)

				one.Route("/categories/{categoryID}", func(c chi.Router) {
					c.Post("/weights", ledgerHandler.AppendWeight)
					c.Patch("/weights/{entryID}", ledgerHandler.UpdateWeight)
					c.Delete("/weights/{entryID}", ledgerHandler.DeleteWeight)
					c.Get("/batches", ledgerHandler.Batches)
					c.Get("/stats", ledgerHandler.CategoryStats)
				})

				one.Route("/settlement", func(s chi.Router) {
					s.Get("/", settlementHandler.Summary)
					s.Put("/", settlementHandler.Update)
					s.Get("/export", reportHandler.Export)
				})
			})
		})
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-shutdownCtx.Done()
		health.SetReady(false)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown")
		}
	}()

	logger.Info().Str("addr", srv.Addr).Str("station", cfg.StationName).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
	logger.Info().Msg("server stopped")
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

type storeChecker struct {
	store store.Store
}

func (c storeChecker) PingStore(ctx context.Context, timeout time.Duration) error {
	if c.store == nil {
		return errors.New("store not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.store.Ping(ctx)
}
