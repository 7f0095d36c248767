package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sellerstats/wb-reports/internal/domain"
	"github.com/sellerstats/wb-reports/internal/infra/resilience"
	"github.com/sellerstats/wb-reports/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const requestDateLayout = "2006-01-02"

type generateReportRequest struct {
	ReportType string `json:"reportType"`
	TokenID    string `json:"tokenId"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
}

// ============================================================
// Report generation — POST /v1/reports/generate
// ============================================================

func generateReportHandler(svc *service.ReportService, limiter *resilience.Bulkhead, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/reports/generate")
		defer span.End()

		var apiReq generateReportRequest
		if err := json.NewDecoder(r.Body).Decode(&apiReq); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		dateFrom, err := time.Parse(requestDateLayout, apiReq.StartDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "startDate must be formatted as YYYY-MM-DD")
			return
		}
		dateTo, err := time.Parse(requestDateLayout, apiReq.EndDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "endDate must be formatted as YYYY-MM-DD")
			return
		}

		span.SetAttributes(
			attribute.String("report.kind", apiReq.ReportType),
			attribute.String("report.token_id", apiReq.TokenID),
		)

		if !limiter.TryAcquire() {
			logger.Warn("report generation rejected, too many concurrent reports",
				zap.String("report_type", apiReq.ReportType))
			writeError(w, http.StatusServiceUnavailable, "too many concurrent report generations, try again later")
			return
		}
		defer limiter.Release()

		file, err := svc.Generate(ctx, domain.ReportRequest{
			Kind:     domain.ReportKind(apiReq.ReportType),
			TokenID:  apiReq.TokenID,
			DateFrom: dateFrom,
			DateTo:   dateTo,
		})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, url.PathEscape(file.Name)))
		w.Header().Set("Content-Length", strconv.Itoa(len(file.Content)))
		w.WriteHeader(http.StatusOK)
		w.Write(file.Content)
	}
}
