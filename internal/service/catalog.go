package service

import (
	"context"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/sellerstats/wb-reports/internal/domain"
	"github.com/sellerstats/wb-reports/internal/infra/observability"
	"github.com/sellerstats/wb-reports/internal/port"
)

var catalogTracer = otel.Tracer("service/catalog")

// CatalogService builds the merged per-variant product list: catalog cards
// expanded size by size and barcode by barcode, enriched with subjects from
// the storage ledger and cost prices from the store.
type CatalogService struct {
	catalog port.CatalogFetcher
	costs   *CostPriceService
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewCatalogService creates the catalog service.
func NewCatalogService(catalog port.CatalogFetcher, costs *CostPriceService, metrics *observability.Metrics, logger *zap.Logger) *CatalogService {
	return &CatalogService{catalog: catalog, costs: costs, metrics: metrics, logger: logger}
}

// BuildRows fetches the catalog and merges it with the auxiliary inputs.
// The catalog fetch is fatal; a failed cost-price load degrades to an empty
// map so the report is still produced.
func (s *CatalogService) BuildRows(ctx context.Context, apiKey, tokenID string, storage []domain.StorageRecord, ledger []domain.LedgerRecord) ([]domain.CatalogRow, error) {
	ctx, span := catalogTracer.Start(ctx, "CatalogService.BuildRows")
	defer span.End()

	cards, err := s.catalog.FetchCatalog(ctx, apiKey)
	if err != nil {
		return nil, err
	}

	costPrices, err := s.costs.Load(ctx, tokenID)
	if err != nil {
		s.logger.Warn("catalog: cost prices unavailable, margins will be empty",
			zap.String("token_id", tokenID),
			zap.Error(err),
		)
		costPrices = map[string]float64{}
	}

	rows := MergeCatalog(cards, storage, costPrices, ledger)
	s.logger.Info("catalog merged",
		zap.Int("cards", len(cards)),
		zap.Int("rows", len(rows)),
		zap.Int("cost_prices", len(costPrices)),
	)
	return rows, nil
}

// MergeCatalog expands every card into one row per size and barcode and
// appends rows synthesized from ledger records whose products never made it
// into the catalog. No product is ever dropped: a card with no sizes, or a
// size with no barcodes, still yields exactly one row.
func MergeCatalog(cards []domain.ProductCard, storage []domain.StorageRecord, costPrices map[string]float64, ledger []domain.LedgerRecord) []domain.CatalogRow {
	subjectsByNm := make(map[int64]string)
	subjectsByVendor := make(map[string]string)
	for _, rec := range storage {
		if rec.Subject == "" {
			continue
		}
		if rec.NmID != 0 {
			subjectsByNm[rec.NmID] = rec.Subject
		}
		if rec.VendorCode != "" {
			subjectsByVendor[rec.VendorCode] = rec.Subject
		}
	}

	var rows []domain.CatalogRow
	seenVariants := make(map[string]struct{})

	appendRow := func(row domain.CatalogRow) {
		row.CostPrice = costPrices[productKey(row.NmID, row.Barcode)]
		row.ComputeMargin()
		rows = append(rows, row)
		seenVariants[variantKey(row.VendorCode, row.Barcode)] = struct{}{}
	}

	for _, card := range cards {
		subject := card.Subject()
		if subject == "" {
			if s, ok := subjectsByNm[card.NmID]; ok {
				subject = s
			} else if s, ok := subjectsByVendor[card.VendorCode]; ok {
				subject = s
			}
		}

		base := domain.CatalogRow{
			NmID:       card.NmID,
			VendorCode: card.VendorCode,
			Subject:    subject,
			Brand:      card.Brand,
			Source:     domain.SourceCatalog,
			CreatedAt:  card.CreatedAt,
			UpdatedAt:  card.UpdatedAt,
		}

		if len(card.Sizes) == 0 {
			appendRow(base)
			continue
		}
		for _, size := range card.Sizes {
			row := base
			row.Size = size.Label()
			row.Price = size.Price
			if len(size.Skus) == 0 {
				appendRow(row)
				continue
			}
			for _, barcode := range size.Skus {
				variant := row
				variant.Barcode = barcode
				appendRow(variant)
			}
		}
	}

	// products sold per the ledger but missing from the catalog
	for _, rec := range ledger {
		if rec.VendorCode == "" && rec.Barcode == "" {
			continue
		}
		if _, ok := seenVariants[variantKey(rec.VendorCode, rec.Barcode)]; ok {
			continue
		}
		subject := rec.SubjectName
		if subject == "" {
			if s, ok := subjectsByNm[rec.NmID]; ok {
				subject = s
			}
		}
		appendRow(domain.CatalogRow{
			NmID:       rec.NmID,
			VendorCode: rec.VendorCode,
			Subject:    subject,
			Brand:      rec.BrandName,
			Size:       rec.TechSize,
			Barcode:    rec.Barcode,
			Price:      rec.RetailPriceDisc,
			Source:     domain.SourceLedgerDerived,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].NmID != rows[j].NmID {
			return rows[i].NmID < rows[j].NmID
		}
		if rows[i].Size != rows[j].Size {
			return rows[i].Size < rows[j].Size
		}
		return rows[i].Barcode < rows[j].Barcode
	})
	return rows
}

func productKey(nmID int64, barcode string) string {
	return fmt.Sprintf("%d-%s", nmID, barcode)
}

func variantKey(vendorCode, barcode string) string {
	return vendorCode + "|" + barcode
}
