package wbapi

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/sellerstats/wb-reports/internal/domain"
)

// FetchSalesDetail downloads the full realization ledger for the period,
// walking the rrdid cursor until the upstream signals the end. The first
// record of every page after the first may repeat the last record of the
// previous page; that boundary duplicate is dropped before appending, and a
// final rrd_id dedup pass guards against duplicates elsewhere in the stream.
func (c *Client) FetchSalesDetail(ctx context.Context, apiKey string, dateFrom, dateTo time.Time) ([]domain.LedgerRecord, error) {
	ctx, span := tracer.Start(ctx, "wbapi.FetchSalesDetail")
	defer span.End()

	var (
		all    []domain.LedgerRecord
		seen   = make(map[int64]struct{})
		cursor int64
	)

	for page := 0; ; page++ {
		if page >= c.opts.MaxLedgerPages {
			return nil, &domain.ErrTooManyPages{Endpoint: "sales_detail", Pages: page}
		}

		rows, status, err := c.salesDetailPage(ctx, apiKey, dateFrom, dateTo, cursor)
		if err != nil {
			return nil, err
		}
		c.metrics.IncrPageFetched("sales_detail")
		if status == 204 || len(rows) == 0 {
			break
		}

		start := 0
		if page > 0 {
			if _, dup := seen[rows[0].RrdID]; dup {
				start = 1
			}
		}
		for _, r := range rows[start:] {
			all = append(all, r)
			seen[r.RrdID] = struct{}{}
		}

		c.logger.Debug("wbapi: sales detail page",
			zap.Int("page", page),
			zap.Int("records", len(rows)),
			zap.Int64("cursor", cursor),
		)

		last := rows[len(rows)-1].RrdID
		if len(rows) < c.opts.LedgerPageLimit {
			break
		}
		if last == cursor {
			// upstream keeps returning the same cursor, no progress possible
			break
		}
		cursor = last
	}

	return dedupeByRrdID(all), nil
}

func (c *Client) salesDetailPage(ctx context.Context, apiKey string, dateFrom, dateTo time.Time, cursor int64) ([]domain.LedgerRecord, int, error) {
	q := url.Values{}
	q.Set("dateFrom", dateFrom.Format(dateLayout))
	q.Set("dateTo", dateTo.Format(dateLayout))
	q.Set("limit", fmt.Sprintf("%d", c.opts.LedgerPageLimit))
	q.Set("rrdid", fmt.Sprintf("%d", cursor))

	status, body, err := c.call(ctx, apiRequest{
		service:    "statistics",
		method:     "GET",
		url:        c.hosts.Statistics + "/api/v5/supplier/reportDetailByPeriod?" + q.Encode(),
		apiKey:     apiKey,
		limiterKey: "statistics:reportDetailByPeriod",
		perMinute:  c.opts.LedgerPerMinute,
	})
	if err != nil {
		return nil, 0, err
	}
	if status == 204 || len(body) == 0 || string(body) == "null" {
		return nil, 204, nil
	}

	var rows []domain.LedgerRecord
	if err := decode("statistics", body, &rows); err != nil {
		return nil, 0, err
	}
	return rows, status, nil
}

// dedupeByRrdID keeps the first occurrence of every rrd_id, preserving order.
func dedupeByRrdID(rows []domain.LedgerRecord) []domain.LedgerRecord {
	out := make([]domain.LedgerRecord, 0, len(rows))
	seen := make(map[int64]struct{}, len(rows))
	for _, r := range rows {
		if _, ok := seen[r.RrdID]; ok {
			continue
		}
		seen[r.RrdID] = struct{}{}
		out = append(out, r)
	}
	return out
}
