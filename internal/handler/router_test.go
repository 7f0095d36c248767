package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sellerstats/wb-reports/internal/domain"
	"github.com/sellerstats/wb-reports/internal/handler"
	"github.com/sellerstats/wb-reports/internal/infra/cache"
	"github.com/sellerstats/wb-reports/internal/infra/observability"
	"github.com/sellerstats/wb-reports/internal/infra/resilience"
	"github.com/sellerstats/wb-reports/internal/service"

	"go.uber.org/zap"
)

type fakeTokenStore struct {
	tokens  map[string]domain.Credential
	listErr error
}

func (s *fakeTokenStore) ListTokens(ctx context.Context) ([]domain.Credential, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]domain.Credential, 0, len(s.tokens))
	for _, t := range s.tokens {
		t.APIKey = ""
		out = append(out, t)
	}
	return out, nil
}

func (s *fakeTokenStore) GetToken(ctx context.Context, id string) (*domain.Credential, error) {
	t, ok := s.tokens[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "token", ID: id}
	}
	return &t, nil
}

func (s *fakeTokenStore) CreateToken(ctx context.Context, name, apiKey string) (*domain.Credential, error) {
	t := domain.Credential{ID: "tok-new", Name: name, APIKey: apiKey, CreatedAt: time.Now()}
	s.tokens[t.ID] = t
	return &t, nil
}

func (s *fakeTokenStore) DeleteToken(ctx context.Context, id string) error {
	if _, ok := s.tokens[id]; !ok {
		return &domain.ErrNotFound{Resource: "token", ID: id}
	}
	delete(s.tokens, id)
	return nil
}

type fakeCostStore struct {
	prices map[string]float64
	saved  map[string]string
}

func (s *fakeCostStore) LoadCostPrices(ctx context.Context, tokenID string) (map[string]float64, error) {
	return s.prices, nil
}

func (s *fakeCostStore) SaveCostPrices(ctx context.Context, tokenID string, prices map[string]string) (int, error) {
	s.saved = prices
	return len(prices), nil
}

type routerFixture struct {
	router     http.Handler
	tokenStore *fakeTokenStore
	costStore  *fakeCostStore
	limiter    *resilience.Bulkhead
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()

	tokenStore := &fakeTokenStore{tokens: map[string]domain.Credential{
		"tok-1": {ID: "tok-1", Name: "Основной", APIKey: "secret", CreatedAt: time.Now()},
	}}
	costStore := &fakeCostStore{prices: map[string]float64{"101-BAR-1": 150}}
	limiter := resilience.NewBulkhead(1)

	tokenSvc := service.NewTokenService(tokenStore, logger)
	costSvc := service.NewCostPriceService(costStore,
		cache.New[map[string]float64](time.Minute), metrics, logger)

	return &routerFixture{
		router:     handler.NewRouter(nil, tokenSvc, costSvc, limiter, metrics, logger),
		tokenStore: tokenStore,
		costStore:  costStore,
		limiter:    limiter,
	}
}

func doRequest(t *testing.T, router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	f := newRouterFixture(t)

	rec := doRequest(t, f.router, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var status domain.HealthStatus
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("decode health status: %v", err)
	}
	if status.Status != "healthy" {
		t.Errorf("expected healthy, got %q", status.Status)
	}
	if len(status.Services) != 2 {
		t.Errorf("expected 2 probed services, got %d", len(status.Services))
	}
}

func TestHealthzDegradedWhenStoreFails(t *testing.T) {
	f := newRouterFixture(t)
	f.tokenStore.listErr = &domain.ErrExternalService{Service: "supabase/tokens"}

	rec := doRequest(t, f.router, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var status domain.HealthStatus
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("decode health status: %v", err)
	}
	if status.Status != "degraded" {
		t.Errorf("expected degraded, got %q", status.Status)
	}
}

func TestReadyz(t *testing.T) {
	f := newRouterFixture(t)

	rec := doRequest(t, f.router, http.MethodGet, "/readyz", "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	f := newRouterFixture(t)

	rec := doRequest(t, f.router, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestReportMetricsSnapshot(t *testing.T) {
	f := newRouterFixture(t)

	rec := doRequest(t, f.router, http.MethodGet, "/v1/metrics/reports", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var snapshot domain.ReportMetrics
	if err := json.NewDecoder(rec.Body).Decode(&snapshot); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
}

func TestListTokensOmitsAPIKey(t *testing.T) {
	f := newRouterFixture(t)

	rec := doRequest(t, f.router, http.MethodGet, "/v1/tokens", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "secret") {
		t.Error("token list response leaked the API key")
	}
}

func TestCreateToken(t *testing.T) {
	f := newRouterFixture(t)

	rec := doRequest(t, f.router, http.MethodPost, "/v1/tokens",
		`{"name":"Второй","apiKey":"key-2"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "key-2") {
		t.Error("create response leaked the API key")
	}
	if _, ok := f.tokenStore.tokens["tok-new"]; !ok {
		t.Error("token was not persisted")
	}
}

func TestCreateTokenValidation(t *testing.T) {
	f := newRouterFixture(t)

	rec := doRequest(t, f.router, http.MethodPost, "/v1/tokens", `{"name":"","apiKey":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestDeleteToken(t *testing.T) {
	f := newRouterFixture(t)

	rec := doRequest(t, f.router, http.MethodDelete, "/v1/tokens/tok-1", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if _, ok := f.tokenStore.tokens["tok-1"]; ok {
		t.Error("token still present after delete")
	}
}

func TestDeleteUnknownToken(t *testing.T) {
	f := newRouterFixture(t)

	rec := doRequest(t, f.router, http.MethodDelete, "/v1/tokens/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestGetCostPricesRequiresTokenID(t *testing.T) {
	f := newRouterFixture(t)

	rec := doRequest(t, f.router, http.MethodGet, "/v1/cost-prices", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestGetCostPrices(t *testing.T) {
	f := newRouterFixture(t)

	rec := doRequest(t, f.router, http.MethodGet, "/v1/cost-prices?tokenId=tok-1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		CostPrices map[string]float64 `json:"costPrices"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.CostPrices["101-BAR-1"] != 150 {
		t.Errorf("expected cost price 150, got %v", resp.CostPrices)
	}
}

func TestSaveCostPrices(t *testing.T) {
	f := newRouterFixture(t)

	rec := doRequest(t, f.router, http.MethodPost, "/v1/cost-prices",
		`{"tokenId":"tok-1","costPrices":{"101-BAR-1":"199,90"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if f.costStore.saved["101-BAR-1"] != "199,90" {
		t.Errorf("expected raw value passed through, got %v", f.costStore.saved)
	}
}

func TestGenerateReportRejectsBadDates(t *testing.T) {
	f := newRouterFixture(t)

	rec := doRequest(t, f.router, http.MethodPost, "/v1/reports/generate",
		`{"reportType":"details","tokenId":"tok-1","startDate":"10.06.2025","endDate":"2025-06-12"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestGenerateReportRejectsBadBody(t *testing.T) {
	f := newRouterFixture(t)

	rec := doRequest(t, f.router, http.MethodPost, "/v1/reports/generate", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestGenerateReportSheddingWhenSaturated(t *testing.T) {
	f := newRouterFixture(t)

	if !f.limiter.TryAcquire() {
		t.Fatal("could not saturate the bulkhead")
	}
	defer f.limiter.Release()

	rec := doRequest(t, f.router, http.MethodPost, "/v1/reports/generate",
		`{"reportType":"details","tokenId":"tok-1","startDate":"2025-06-10","endDate":"2025-06-12"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}
