package wbapi

import (
	"context"

	"go.uber.org/zap"

	"github.com/sellerstats/wb-reports/internal/domain"
)

type catalogCursor struct {
	Limit     int    `json:"limit"`
	UpdatedAt string `json:"updatedAt,omitempty"`
	NmID      int64  `json:"nmID,omitempty"`
}

type catalogRequest struct {
	Settings struct {
		Cursor catalogCursor `json:"cursor"`
		Filter struct {
			WithPhoto int `json:"withPhoto"`
		} `json:"filter"`
	} `json:"settings"`
}

type catalogResponse struct {
	Cards  []domain.ProductCard `json:"cards"`
	Cursor struct {
		UpdatedAt string `json:"updatedAt"`
		NmID      int64  `json:"nmID"`
		Total     int    `json:"total"`
	} `json:"cursor"`
}

// FetchCatalog pages through the product card list using the updatedAt/nmID
// cursor. Cards with neither an nmID nor a vendor code are dropped. The page
// cap stops a runaway cursor with a warning instead of failing the report.
func (c *Client) FetchCatalog(ctx context.Context, apiKey string) ([]domain.ProductCard, error) {
	ctx, span := tracer.Start(ctx, "wbapi.FetchCatalog")
	defer span.End()

	var (
		all    []domain.ProductCard
		cursor catalogCursor
	)
	cursor.Limit = c.opts.CatalogPageSize

	for page := 0; ; page++ {
		if page >= c.opts.MaxCatalogPages {
			c.logger.Warn("wbapi: catalog page cap reached, result may be partial",
				zap.Int("pages", page),
				zap.Int("cards", len(all)),
			)
			break
		}

		var req catalogRequest
		req.Settings.Cursor = cursor
		req.Settings.Filter.WithPhoto = -1

		_, body, err := c.call(ctx, apiRequest{
			service:    "content",
			method:     "POST",
			url:        c.hosts.Content + "/content/v2/get/cards/list",
			apiKey:     apiKey,
			body:       req,
			limiterKey: "content:cards_list",
			perMinute:  c.opts.ContentPerMinute,
		})
		if err != nil {
			return nil, err
		}

		var resp catalogResponse
		if err := decode("content", body, &resp); err != nil {
			return nil, err
		}
		c.metrics.IncrPageFetched("catalog")
		if len(resp.Cards) == 0 {
			break
		}

		for _, card := range resp.Cards {
			if card.NmID == 0 && card.VendorCode == "" {
				continue
			}
			all = append(all, card)
		}

		if len(resp.Cards) < c.opts.CatalogPageSize || resp.Cursor.UpdatedAt == "" {
			break
		}
		if resp.Cursor.UpdatedAt == cursor.UpdatedAt && resp.Cursor.NmID == cursor.NmID {
			break
		}
		cursor.UpdatedAt = resp.Cursor.UpdatedAt
		cursor.NmID = resp.Cursor.NmID
	}

	return all, nil
}
