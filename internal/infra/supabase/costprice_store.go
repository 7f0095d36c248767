package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sellerstats/wb-reports/internal/domain"
)

// ============================================================
// Cost prices — upsert keyed "{nmID}-{barcode}" per token
// (implements port.CostPriceStore)
// ============================================================

// costPriceRow maps the cost_prices table columns. token_id + product_key is
// the table's unique constraint, which upsert resolution relies on.
type costPriceRow struct {
	TokenID    string  `json:"token_id"`
	ProductKey string  `json:"product_key"`
	NmID       int64   `json:"nm_id"`
	Barcode    string  `json:"barcode"`
	CostPrice  float64 `json:"cost_price"`
}

// LoadCostPrices returns all stored cost prices for one credential.
func (c *Client) LoadCostPrices(ctx context.Context, tokenID string) (map[string]float64, error) {
	ctx, span := tracer.Start(ctx, "Supabase.LoadCostPrices")
	defer span.End()

	prices := make(map[string]float64)

	err := c.withRetry(ctx, func() error {
		body, err := c.get(ctx, eq("cost_prices?token_id", tokenID)+"&select=product_key,cost_price")
		if err != nil {
			return err
		}
		if body == nil || string(body) == "[]" {
			return nil
		}

		var rows []costPriceRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode cost prices: %w", err)
		}
		for _, r := range rows {
			prices[r.ProductKey] = r.CostPrice
		}
		return nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/cost_prices", Err: err}
	}

	return prices, nil
}

// SaveCostPrices upserts the submitted prices and returns how many rows were
// accepted. Entries with a malformed key or a non-numeric, negative value are
// skipped, not fatal: a bulk paste from a spreadsheet should save everything
// it can.
func (c *Client) SaveCostPrices(ctx context.Context, tokenID string, prices map[string]string) (int, error) {
	ctx, span := tracer.Start(ctx, "Supabase.SaveCostPrices")
	defer span.End()

	rows := make([]costPriceRow, 0, len(prices))
	for key, raw := range prices {
		nmID, barcode, ok := splitProductKey(key)
		if !ok {
			c.logger.Warn("supabase: skipping malformed product key", zap.String("key", key))
			continue
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(raw, ",", ".")), 64)
		if err != nil || value < 0 {
			c.logger.Warn("supabase: skipping invalid cost price",
				zap.String("key", key),
				zap.String("value", raw),
			)
			continue
		}
		rows = append(rows, costPriceRow{
			TokenID:    tokenID,
			ProductKey: key,
			NmID:       nmID,
			Barcode:    barcode,
			CostPrice:  value,
		})
	}
	if len(rows) == 0 {
		return 0, nil
	}

	payload, err := json.Marshal(rows)
	if err != nil {
		return 0, err
	}

	err = c.withRetry(ctx, func() error {
		_, err := c.upsert(ctx, "cost_prices?on_conflict=token_id,product_key", string(payload))
		return err
	})
	if err != nil {
		return 0, &domain.ErrExternalService{Service: "supabase/cost_prices", Err: err}
	}

	return len(rows), nil
}

// splitProductKey parses "{nmID}-{barcode}" on the first dash; barcodes may
// themselves contain dashes.
func splitProductKey(key string) (int64, string, bool) {
	idx := strings.Index(key, "-")
	if idx <= 0 || idx == len(key)-1 {
		return 0, "", false
	}
	nmID, err := strconv.ParseInt(key[:idx], 10, 64)
	if err != nil || nmID <= 0 {
		return 0, "", false
	}
	return nmID, key[idx+1:], true
}
