package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sellerstats/wb-reports/internal/config"
	"github.com/sellerstats/wb-reports/internal/domain"
	"github.com/sellerstats/wb-reports/internal/handler"
	"github.com/sellerstats/wb-reports/internal/infra/cache"
	"github.com/sellerstats/wb-reports/internal/infra/excel"
	"github.com/sellerstats/wb-reports/internal/infra/observability"
	"github.com/sellerstats/wb-reports/internal/infra/resilience"
	"github.com/sellerstats/wb-reports/internal/infra/supabase"
	"github.com/sellerstats/wb-reports/internal/infra/wbapi"
	"github.com/sellerstats/wb-reports/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("base_backoff", cfg.BaseBackoff),
		zap.Int("max_concurrent_reports", cfg.MaxConcurrentReports),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "wb-reports")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Resilience ---
	retry := resilience.RetryPolicy{
		MaxAttempts: cfg.MaxRetries,
		BaseDelay:   cfg.BaseBackoff,
		Jitter:      true,
	}
	wbBreaker := resilience.NewCircuitBreaker("wb-api")
	supabaseBreaker := resilience.NewCircuitBreaker("supabase")
	reportLimiter := resilience.NewBulkhead(cfg.MaxConcurrentReports)

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	wbClient := wbapi.NewClient(
		httpClient,
		wbapi.Hosts{
			Statistics: cfg.StatisticsAPIURL,
			Analytics:  cfg.AnalyticsAPIURL,
			Content:    cfg.ContentAPIURL,
			Advert:     cfg.AdvertAPIURL,
		},
		wbapi.Options{
			Retry:           retry,
			PollInterval:    cfg.PollInterval,
			MaxPolls:        cfg.MaxPolls,
			MaxLedgerPages:  cfg.MaxLedgerPages,
			MaxCatalogPages: cfg.MaxCatalogPages,
			LedgerPageLimit: cfg.LedgerPageLimit,
			SkuBatchSize:    cfg.SkuBatchSize,
			SkuBatchPause:   cfg.SkuBatchPause,
		},
		wbBreaker,
		metrics,
		logger,
	)

	if cfg.SupabaseURL == "" {
		logger.Fatal("SUPABASE_URL is required: tokens and cost prices have no other store")
	}
	store := supabase.NewClient(
		httpClient,
		cfg.SupabaseURL,
		cfg.SupabaseAnonKey,
		cfg.SupabaseServiceKey,
		supabaseBreaker,
		retry,
		logger,
	)

	// --- Services ---
	tokenSvc := service.NewTokenService(store, logger)
	costSvc := service.NewCostPriceService(store,
		cache.New[map[string]float64](cfg.CacheTTL), metrics, logger)
	catalogSvc := service.NewCatalogService(wbClient, costSvc, metrics, logger)
	financeSvc := service.NewFinanceService(wbClient,
		cache.New[[]domain.Campaign](cfg.CacheTTL), metrics, logger)
	reportSvc := service.NewReportService(
		store,
		wbClient,
		wbClient,
		catalogSvc,
		financeSvc,
		excel.NewSink(),
		metrics,
		logger,
	)

	// --- Router ---
	router := handler.NewRouter(reportSvc, tokenSvc, costSvc, reportLimiter, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		// Report generation holds the connection while upstream tasks
		// are polled, so the write timeout must cover the poll budget.
		WriteTimeout: cfg.PollInterval*time.Duration(cfg.MaxPolls) + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
