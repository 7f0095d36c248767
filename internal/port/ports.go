// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the pipeline/service
// layer from concrete implementations.
package port

import (
	"context"
	"time"

	"github.com/sellerstats/wb-reports/internal/domain"
)

// LedgerFetcher pages through the sales-detail ledger and returns a fully
// materialized, deduplicated row set. Not restartable: every call re-fetches
// from scratch.
type LedgerFetcher interface {
	FetchSalesDetail(ctx context.Context, apiKey string, dateFrom, dateTo time.Time) ([]domain.LedgerRecord, error)
}

// ReportTaskRunner drives the create/poll/download protocol for report kinds
// that are generated server-side.
type ReportTaskRunner interface {
	FetchPaidStorage(ctx context.Context, apiKey string, dateFrom, dateTo time.Time) ([]domain.StorageRecord, error)
	FetchPaidAcceptance(ctx context.Context, apiKey string, dateFrom, dateTo time.Time) ([]domain.AcceptanceRecord, error)
}

// CatalogFetcher pages through the product catalog.
type CatalogFetcher interface {
	FetchCatalog(ctx context.Context, apiKey string) ([]domain.ProductCard, error)
}

// AdvertFetcher exposes the advertising API: campaign metadata, the ad-spend
// ledger, per-campaign SKU attribution and the account balance.
type AdvertFetcher interface {
	FetchCampaigns(ctx context.Context, apiKey string) ([]domain.Campaign, error)
	FetchCampaignFinance(ctx context.Context, apiKey string, dateFrom, dateTo time.Time) ([]domain.FinanceRecord, error)
	FetchCampaignSkus(ctx context.Context, apiKey string, advertIDs []int64) (map[int64]string, error)
	FetchBalance(ctx context.Context, apiKey string) (*domain.AdvertBalance, error)
}

// TokenStore persists named upstream credentials.
type TokenStore interface {
	ListTokens(ctx context.Context) ([]domain.Credential, error)
	GetToken(ctx context.Context, id string) (*domain.Credential, error)
	CreateToken(ctx context.Context, name, apiKey string) (*domain.Credential, error)
	DeleteToken(ctx context.Context, id string) error
}

// CostPriceStore persists per-product cost prices, keyed "{nmID}-{barcode}"
// within one credential.
type CostPriceStore interface {
	LoadCostPrices(ctx context.Context, tokenID string) (map[string]float64, error)
	SaveCostPrices(ctx context.Context, tokenID string, prices map[string]string) (int, error)
}

// Sheet is one tab of a tabular export: a header row plus data rows.
type Sheet struct {
	Name    string
	Headers []string
	Rows    [][]any
}

// TabularExportSink renders sheets into a downloadable document.
type TabularExportSink interface {
	Render(sheets []Sheet) ([]byte, error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
