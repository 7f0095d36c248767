package handler

import (
	"net/http"
	"time"

	"github.com/sellerstats/wb-reports/internal/domain"
	"github.com/sellerstats/wb-reports/internal/infra/observability"
	"github.com/sellerstats/wb-reports/internal/infra/resilience"
	"github.com/sellerstats/wb-reports/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(
	reportSvc *service.ReportService,
	tokenSvc *service.TokenService,
	costSvc *service.CostPriceService,
	reportLimiter *resilience.Bulkhead,
	metrics *observability.Metrics,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(tokenSvc, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.Handler())

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// =============================================
		// 1. Report generation
		// POST /v1/reports/generate
		// =============================================
		r.Post("/reports/generate", generateReportHandler(reportSvc, reportLimiter, logger))

		// =============================================
		// 2. Token management
		// =============================================
		r.Get("/tokens", listTokensHandler(tokenSvc, logger))
		r.Post("/tokens", createTokenHandler(tokenSvc, logger))
		r.Delete("/tokens/{tokenId}", deleteTokenHandler(tokenSvc, logger))

		// =============================================
		// 3. Cost prices
		// =============================================
		r.Get("/cost-prices", getCostPricesHandler(costSvc, logger))
		r.Post("/cost-prices", saveCostPricesHandler(costSvc, logger))

		// =============================================
		// 4. Metrics snapshot
		// GET /v1/metrics/reports
		// =============================================
		r.Get("/metrics/reports", reportMetricsHandler(metrics))
	})

	return r
}

// ============================================================
// Health & readiness
// ============================================================

func healthzHandler(tokenSvc *service.TokenService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "wb-reports-api", Status: "healthy", LatencyMs: 0, LastChecked: now},
		}

		if tokenSvc != nil {
			start := time.Now()
			_, err := tokenSvc.List(ctx)
			latency := time.Since(start).Milliseconds()
			status := "healthy"
			if err != nil {
				status = "degraded"
				logger.Warn("health probe against token store failed", zap.Error(err))
			}
			services = append(services, domain.ServiceHealth{
				Name: "supabase", Status: status, LatencyMs: latency, LastChecked: now,
			})
		}

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status == "unhealthy" {
				overallStatus = "unhealthy"
				break
			}
			if s.Status == "degraded" {
				overallStatus = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func reportMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetReportSnapshot())
	}
}
