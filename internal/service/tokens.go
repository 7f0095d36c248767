package service

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/sellerstats/wb-reports/internal/domain"
	"github.com/sellerstats/wb-reports/internal/port"
)

var tokenTracer = otel.Tracer("service/tokens")

// TokenService manages stored upstream credentials.
type TokenService struct {
	store  port.TokenStore
	logger *zap.Logger
}

// NewTokenService creates the token service.
func NewTokenService(store port.TokenStore, logger *zap.Logger) *TokenService {
	return &TokenService{store: store, logger: logger}
}

// List returns all stored credentials without their API keys.
func (s *TokenService) List(ctx context.Context) ([]domain.Credential, error) {
	ctx, span := tokenTracer.Start(ctx, "TokenService.List")
	defer span.End()

	return s.store.ListTokens(ctx)
}

// Create validates and stores a new named credential.
func (s *TokenService) Create(ctx context.Context, name, apiKey string) (*domain.Credential, error) {
	ctx, span := tokenTracer.Start(ctx, "TokenService.Create")
	defer span.End()

	name = strings.TrimSpace(name)
	apiKey = strings.TrimSpace(apiKey)
	if name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "required"}
	}
	if apiKey == "" {
		return nil, &domain.ErrValidation{Field: "apiKey", Message: "required"}
	}

	cred, err := s.store.CreateToken(ctx, name, apiKey)
	if err != nil {
		return nil, err
	}
	s.logger.Info("token created", zap.String("token_id", cred.ID), zap.String("name", cred.Name))
	return cred, nil
}

// Delete removes a credential and everything stored under it.
func (s *TokenService) Delete(ctx context.Context, id string) error {
	ctx, span := tokenTracer.Start(ctx, "TokenService.Delete")
	defer span.End()

	if id == "" {
		return &domain.ErrValidation{Field: "id", Message: "required"}
	}
	if err := s.store.DeleteToken(ctx, id); err != nil {
		return err
	}
	s.logger.Info("token deleted", zap.String("token_id", id))
	return nil
}
