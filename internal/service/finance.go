package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sellerstats/wb-reports/internal/domain"
	"github.com/sellerstats/wb-reports/internal/infra/observability"
	"github.com/sellerstats/wb-reports/internal/port"
)

var financeTracer = otel.Tracer("service/finance")

// Placeholder strings for campaigns the metadata calls could not resolve.
const (
	unknownCampaignName = "Неизвестная кампания"
	unknownCampaignType = "Неизвестно"
)

// FinanceReport is the output of the ad-finance pipeline: the reconciled,
// attributed spend rows plus the best-effort account balance (nil when the
// balance call failed).
type FinanceReport struct {
	Rows    []domain.FinanceRow
	Balance *domain.AdvertBalance
}

// FinanceService builds the advertising-finance report: campaign metadata,
// the buffer-day-reconciled spend ledger and per-campaign SKU attribution
// joined by campaign id.
type FinanceService struct {
	adverts       port.AdvertFetcher
	campaignCache port.Cache[[]domain.Campaign]
	metrics       *observability.Metrics
	logger        *zap.Logger
}

// NewFinanceService creates the finance service.
func NewFinanceService(adverts port.AdvertFetcher, campaignCache port.Cache[[]domain.Campaign], metrics *observability.Metrics, logger *zap.Logger) *FinanceService {
	return &FinanceService{adverts: adverts, campaignCache: campaignCache, metrics: metrics, logger: logger}
}

// Aggregate produces the finance report for the requested window. The
// ledger is fetched one day wider on each side and reconciled back down;
// campaign metadata and the balance are fetched concurrently with it.
func (s *FinanceService) Aggregate(ctx context.Context, apiKey, tokenID string, dateFrom, dateTo time.Time) (*FinanceReport, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.Aggregate")
	defer span.End()
	span.SetAttributes(
		attribute.String("date.from", dateFrom.Format(dayLayout)),
		attribute.String("date.to", dateTo.Format(dayLayout)),
	)

	var (
		campaigns []domain.Campaign
		records   []domain.FinanceRecord
		balance   *domain.AdvertBalance
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		campaigns, err = s.fetchCampaigns(gctx, apiKey, tokenID)
		return err
	})
	g.Go(func() error {
		var err error
		records, err = s.adverts.FetchCampaignFinance(gctx,
			apiKey, dateFrom.AddDate(0, 0, -1), dateTo.AddDate(0, 0, 1))
		return err
	})
	g.Go(func() error {
		b, err := s.adverts.FetchBalance(gctx, apiKey)
		if err != nil {
			// best-effort: the report renders without a balance
			s.logger.Warn("finance: balance unavailable", zap.Error(err))
			return nil
		}
		balance = b
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	records = ReconcileBufferDays(records, dateFrom, dateTo,
		func(r domain.FinanceRecord) string { return r.Date },
		func(r domain.FinanceRecord) string { return r.DocNumber },
	)

	campaignTypes := make(map[int64]int, len(campaigns))
	for _, c := range campaigns {
		campaignTypes[c.AdvertID] = c.Type
	}

	ids := distinctCampaignIDs(records)
	skus, err := s.adverts.FetchCampaignSkus(ctx, apiKey, ids)
	if err != nil {
		return nil, err
	}

	rows := make([]domain.FinanceRow, 0, len(records))
	for _, rec := range records {
		name := rec.CampName
		if name == "" {
			name = unknownCampaignName
		}
		typeLabel := unknownCampaignType
		if t, ok := campaignTypes[rec.AdvertID]; ok {
			typeLabel = campaignTypeLabel(t)
		}
		rows = append(rows, domain.FinanceRow{
			Date:          rec.Date,
			CampaignID:    rec.AdvertID,
			CampaignName:  name,
			CampaignType:  typeLabel,
			Skus:          skus[rec.AdvertID],
			OperationType: rec.OperationType,
			Sum:           rec.Sum,
			BillSource:    rec.BillSource,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Date != rows[j].Date {
			return rows[i].Date < rows[j].Date
		}
		return rows[i].CampaignID < rows[j].CampaignID
	})

	s.logger.Info("finance report aggregated",
		zap.Int("campaigns", len(campaigns)),
		zap.Int("rows", len(rows)),
		zap.Bool("balance", balance != nil),
	)
	return &FinanceReport{Rows: rows, Balance: balance}, nil
}

func (s *FinanceService) fetchCampaigns(ctx context.Context, apiKey, tokenID string) ([]domain.Campaign, error) {
	if cached, ok := s.campaignCache.Get(tokenID); ok {
		s.metrics.IncrCacheHit("campaigns")
		return cached, nil
	}
	s.metrics.IncrCacheMiss("campaigns")

	campaigns, err := s.adverts.FetchCampaigns(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	s.campaignCache.Set(tokenID, campaigns)
	return campaigns, nil
}

func distinctCampaignIDs(records []domain.FinanceRecord) []int64 {
	seen := make(map[int64]struct{}, len(records))
	var ids []int64
	for _, r := range records {
		if _, ok := seen[r.AdvertID]; ok {
			continue
		}
		seen[r.AdvertID] = struct{}{}
		ids = append(ids, r.AdvertID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func campaignTypeLabel(t int) string {
	switch t {
	case domain.CampaignTypeAuto:
		return "Автоматическая"
	case domain.CampaignTypeAuction:
		return "Аукцион"
	default:
		return fmt.Sprintf("Тип %d", t)
	}
}
