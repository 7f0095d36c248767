package handler

import (
	"encoding/json"
	"net/http"

	"github.com/sellerstats/wb-reports/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Token management — /v1/tokens
// ============================================================

func listTokensHandler(svc *service.TokenService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/tokens")
		defer span.End()

		tokens, err := svc.List(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"tokens": tokens})
	}
}

func createTokenHandler(svc *service.TokenService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/tokens")
		defer span.End()

		var apiReq struct {
			Name   string `json:"name"`
			APIKey string `json:"apiKey"`
		}
		if err := json.NewDecoder(r.Body).Decode(&apiReq); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		token, err := svc.Create(ctx, apiReq.Name, apiReq.APIKey)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.String("token.id", token.ID))

		// Never echo the API key back to the caller.
		token.APIKey = ""
		writeJSON(w, http.StatusCreated, token)
	}
}

func deleteTokenHandler(svc *service.TokenService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/tokens/{tokenId}")
		defer span.End()

		tokenID := chi.URLParam(r, "tokenId")
		if err := svc.Delete(ctx, tokenID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
