package handler

import (
	"encoding/json"
	"net/http"

	"github.com/sellerstats/wb-reports/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Cost prices — /v1/cost-prices
// ============================================================

func getCostPricesHandler(svc *service.CostPriceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/cost-prices")
		defer span.End()

		tokenID := r.URL.Query().Get("tokenId")
		if tokenID == "" {
			writeError(w, http.StatusBadRequest, "tokenId query parameter is required")
			return
		}
		span.SetAttributes(attribute.String("token.id", tokenID))

		prices, err := svc.Load(ctx, tokenID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"costPrices": prices})
	}
}

func saveCostPricesHandler(svc *service.CostPriceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/cost-prices")
		defer span.End()

		var apiReq struct {
			TokenID    string            `json:"tokenId"`
			CostPrices map[string]string `json:"costPrices"`
		}
		if err := json.NewDecoder(r.Body).Decode(&apiReq); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if apiReq.TokenID == "" {
			writeError(w, http.StatusBadRequest, "tokenId is required")
			return
		}
		span.SetAttributes(attribute.String("token.id", apiReq.TokenID))

		saved, err := svc.Save(ctx, apiReq.TokenID, apiReq.CostPrices)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"saved": saved})
	}
}
