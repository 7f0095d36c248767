// Package service provides the business logic layer: the per-kind report
// pipelines, the buffer-day reconciler, the catalog merger and the
// ad-finance aggregator.
package service

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/sellerstats/wb-reports/internal/domain"
	"github.com/sellerstats/wb-reports/internal/infra/observability"
	"github.com/sellerstats/wb-reports/internal/port"
)

var reportTracer = otel.Tracer("service/reports")

// ReportService dispatches report requests to the per-kind pipelines and
// renders the result through the export sink. "No data for period" is a
// valid outcome everywhere: the caller still gets a well-formed workbook
// with headers and no rows.
type ReportService struct {
	tokens  port.TokenStore
	ledger  port.LedgerFetcher
	tasks   port.ReportTaskRunner
	catalog *CatalogService
	finance *FinanceService
	sink    port.TabularExportSink
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewReportService creates the report service.
func NewReportService(
	tokens port.TokenStore,
	ledger port.LedgerFetcher,
	tasks port.ReportTaskRunner,
	catalog *CatalogService,
	finance *FinanceService,
	sink port.TabularExportSink,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *ReportService {
	return &ReportService{
		tokens:  tokens,
		ledger:  ledger,
		tasks:   tasks,
		catalog: catalog,
		finance: finance,
		sink:    sink,
		metrics: metrics,
		logger:  logger,
	}
}

// Generate runs the pipeline for one report request and returns the
// rendered workbook.
func (s *ReportService) Generate(ctx context.Context, req domain.ReportRequest) (*domain.ReportFile, error) {
	ctx, span := reportTracer.Start(ctx, "ReportService.Generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("report.kind", string(req.Kind)),
		attribute.String("token.id", req.TokenID),
	)

	started := time.Now()
	file, err := s.generate(ctx, req)
	s.metrics.RecordRequestDuration("report_"+string(req.Kind), time.Since(started))
	if err != nil {
		s.metrics.IncrReport(string(req.Kind), "error")
		s.logger.Error("report generation failed",
			zap.String("kind", string(req.Kind)),
			zap.String("token_id", req.TokenID),
			zap.Duration("took", time.Since(started)),
			zap.Error(err),
		)
		return nil, err
	}

	s.metrics.IncrReport(string(req.Kind), "success")
	s.logger.Info("report generated",
		zap.String("kind", string(req.Kind)),
		zap.String("file", file.Name),
		zap.Int("bytes", len(file.Content)),
		zap.Duration("took", time.Since(started)),
	)
	return file, nil
}

func (s *ReportService) generate(ctx context.Context, req domain.ReportRequest) (*domain.ReportFile, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Kind == domain.ReportSalesDetail && req.Days() > domain.MaxSalesDetailDays {
		return nil, &domain.ErrValidation{
			Field:   "endDate",
			Message: fmt.Sprintf("sales detail period is limited to %d days", domain.MaxSalesDetailDays),
		}
	}

	cred, err := s.tokens.GetToken(ctx, req.TokenID)
	if err != nil {
		return nil, err
	}

	var sheets []port.Sheet
	switch req.Kind {
	case domain.ReportSalesDetail:
		sheets, err = s.salesDetailSheets(ctx, cred.APIKey, req)
	case domain.ReportPaidStorage:
		sheets, err = s.paidStorageSheets(ctx, cred.APIKey, req)
	case domain.ReportPaidAcceptance:
		sheets, err = s.acceptanceSheets(ctx, cred.APIKey, req)
	case domain.ReportProductCatalog:
		sheets, err = s.productSheets(ctx, cred.APIKey, req)
	case domain.ReportAdFinance:
		sheets, err = s.financeSheets(ctx, cred.APIKey, req)
	}
	if err != nil {
		return nil, err
	}

	content, err := s.sink.Render(sheets)
	if err != nil {
		return nil, err
	}
	return &domain.ReportFile{
		Name:    reportFileName(req),
		Content: content,
	}, nil
}

// reportFileName reproduces the historical attachment naming scheme,
// en-dash between the dates included.
func reportFileName(req domain.ReportRequest) string {
	return fmt.Sprintf("%s - %s–%s.xlsx",
		req.Kind.DisplayName(),
		req.DateFrom.Format(dayLayout),
		req.DateTo.Format(dayLayout),
	)
}

// clampStorageWindow trims a paid-storage request to the upstream's maximum
// window, keeping the start date.
func clampStorageWindow(from, to time.Time, logger *zap.Logger) (time.Time, time.Time) {
	limit := from.AddDate(0, 0, domain.MaxPaidStorageDays-1)
	if to.After(limit) {
		logger.Warn("paid storage window clamped",
			zap.String("from", from.Format(dayLayout)),
			zap.String("requested_to", to.Format(dayLayout)),
			zap.String("clamped_to", limit.Format(dayLayout)),
		)
		return from, limit
	}
	return from, to
}
