package supabase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/sellerstats/wb-reports/internal/domain"
)

// ============================================================
// Stored API tokens — CRUD via PostgREST (implements port.TokenStore)
// ============================================================

// tokenRow maps the tokens table columns.
type tokenRow struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	APIKey    string `json:"api_key"`
	CreatedAt string `json:"created_at"`
}

func (r tokenRow) toDomain(withKey bool) domain.Credential {
	cred := domain.Credential{
		ID:        r.ID,
		Name:      r.Name,
		CreatedAt: parseCreatedAt(r.CreatedAt),
	}
	if withKey {
		cred.APIKey = r.APIKey
	}
	return cred
}

// ListTokens returns all stored credentials. API keys are never included in
// listings.
func (c *Client) ListTokens(ctx context.Context) ([]domain.Credential, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListTokens")
	defer span.End()

	var tokens []domain.Credential

	err := c.withRetry(ctx, func() error {
		body, err := c.get(ctx, "tokens?select=id,name,created_at&order=created_at.desc")
		if err != nil {
			return err
		}
		if body == nil || string(body) == "[]" {
			tokens = []domain.Credential{}
			return nil
		}

		var rows []tokenRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode tokens: %w", err)
		}
		tokens = make([]domain.Credential, 0, len(rows))
		for _, r := range rows {
			tokens = append(tokens, r.toDomain(false))
		}
		return nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/tokens", Err: err}
	}

	return tokens, nil
}

// GetToken fetches one credential including its API key.
func (c *Client) GetToken(ctx context.Context, id string) (*domain.Credential, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetToken")
	defer span.End()

	var (
		token    *domain.Credential
		notFound error
	)

	err := c.withRetry(ctx, func() error {
		body, err := c.get(ctx, eq("tokens?id", id)+"&limit=1")
		if err != nil {
			return err
		}
		if body == nil || string(body) == "[]" {
			notFound = &domain.ErrNotFound{Resource: "token", ID: id}
			return nil
		}

		var rows []tokenRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode token: %w", err)
		}
		if len(rows) == 0 {
			notFound = &domain.ErrNotFound{Resource: "token", ID: id}
			return nil
		}
		cred := rows[0].toDomain(true)
		token = &cred
		return nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/tokens", Err: err}
	}
	if notFound != nil {
		return nil, notFound
	}

	return token, nil
}

// CreateToken stores a new named credential.
func (c *Client) CreateToken(ctx context.Context, name, apiKey string) (*domain.Credential, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateToken")
	defer span.End()

	row, err := json.Marshal(tokenRow{
		ID:     uuid.NewString(),
		Name:   name,
		APIKey: apiKey,
	})
	if err != nil {
		return nil, err
	}

	var token *domain.Credential

	err = c.withRetry(ctx, func() error {
		body, err := c.post(ctx, "tokens", string(row))
		if err != nil {
			return err
		}

		var rows []tokenRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode created token: %w", err)
		}
		if len(rows) == 0 {
			return fmt.Errorf("no result from tokens insert")
		}
		cred := rows[0].toDomain(false)
		token = &cred
		return nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/tokens", Err: err}
	}

	return token, nil
}

// DeleteToken removes a credential and its cost prices.
func (c *Client) DeleteToken(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteToken")
	defer span.End()

	err := c.withRetry(ctx, func() error {
		if err := c.delete(ctx, eq("cost_prices?token_id", id)); err != nil {
			return err
		}
		return c.delete(ctx, eq("tokens?id", id))
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/tokens", Err: err}
	}
	return nil
}
