package service

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/sellerstats/wb-reports/internal/infra/observability"
	"github.com/sellerstats/wb-reports/internal/port"
)

var costTracer = otel.Tracer("service/costprice")

// CostPriceService fronts the cost-price store with a TTL cache; report
// generation re-reads the same map for every product row, so loads are
// cached per token and invalidated on save.
type CostPriceService struct {
	store   port.CostPriceStore
	cache   port.Cache[map[string]float64]
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewCostPriceService creates the cost-price service.
func NewCostPriceService(store port.CostPriceStore, cache port.Cache[map[string]float64], metrics *observability.Metrics, logger *zap.Logger) *CostPriceService {
	return &CostPriceService{store: store, cache: cache, metrics: metrics, logger: logger}
}

// Load returns the cost-price map for a token.
func (s *CostPriceService) Load(ctx context.Context, tokenID string) (map[string]float64, error) {
	ctx, span := costTracer.Start(ctx, "CostPriceService.Load")
	defer span.End()
	span.SetAttributes(attribute.String("token.id", tokenID))

	if cached, ok := s.cache.Get(tokenID); ok {
		s.metrics.IncrCacheHit("cost_prices")
		return cached, nil
	}
	s.metrics.IncrCacheMiss("cost_prices")

	prices, err := s.store.LoadCostPrices(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(tokenID, prices)
	return prices, nil
}

// Save upserts submitted prices and returns the accepted count.
func (s *CostPriceService) Save(ctx context.Context, tokenID string, prices map[string]string) (int, error) {
	ctx, span := costTracer.Start(ctx, "CostPriceService.Save")
	defer span.End()

	saved, err := s.store.SaveCostPrices(ctx, tokenID, prices)
	if err != nil {
		return 0, err
	}
	s.cache.Delete(tokenID)

	s.logger.Info("cost prices saved",
		zap.String("token_id", tokenID),
		zap.Int("submitted", len(prices)),
		zap.Int("saved", saved),
	)
	return saved, nil
}
