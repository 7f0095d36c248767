package wbapi

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sellerstats/wb-reports/internal/domain"
)

// SKU attribution placeholders. The finance report must not fail because a
// single campaign-details batch did, so degraded batches get marked instead.
const (
	skuBatchFailed = "Ошибка получения SKU"
	skuNoData      = "Нет данных SKU"
	skuEmpty       = "Нет SKU"
)

// FetchCampaigns returns the seller's advertising campaigns from the
// promotion count endpoint.
func (c *Client) FetchCampaigns(ctx context.Context, apiKey string) ([]domain.Campaign, error) {
	ctx, span := tracer.Start(ctx, "wbapi.FetchCampaigns")
	defer span.End()

	_, body, err := c.call(ctx, apiRequest{
		service:    "advert",
		method:     "GET",
		url:        c.hosts.Advert + "/adv/v1/promotion/count",
		apiKey:     apiKey,
		limiterKey: "advert:promotion_count",
		perMinute:  c.opts.AdvertPerMinute,
	})
	if err != nil {
		return nil, err
	}

	var resp struct {
		Adverts []struct {
			Type       int `json:"type"`
			Status     int `json:"status"`
			AdvertList []struct {
				AdvertID int64 `json:"advertId"`
			} `json:"advert_list"`
		} `json:"adverts"`
	}
	if err := decode("advert", body, &resp); err != nil {
		return nil, err
	}

	var campaigns []domain.Campaign
	for _, group := range resp.Adverts {
		for _, adv := range group.AdvertList {
			campaigns = append(campaigns, domain.Campaign{
				AdvertID: adv.AdvertID,
				Type:     group.Type,
				Status:   group.Status,
			})
		}
	}
	return campaigns, nil
}

// FetchCampaignFinance downloads the ad-spend ledger for the period. Rows
// are keyed by document number, not by a unique row id.
func (c *Client) FetchCampaignFinance(ctx context.Context, apiKey string, dateFrom, dateTo time.Time) ([]domain.FinanceRecord, error) {
	ctx, span := tracer.Start(ctx, "wbapi.FetchCampaignFinance")
	defer span.End()

	q := url.Values{}
	q.Set("from", dateFrom.Format(dateLayout))
	q.Set("to", dateTo.Format(dateLayout))

	_, body, err := c.call(ctx, apiRequest{
		service:    "advert",
		method:     "GET",
		url:        c.hosts.Advert + "/adv/v1/upd?" + q.Encode(),
		apiKey:     apiKey,
		limiterKey: "advert:upd",
		perMinute:  c.opts.AdvertPerMinute,
	})
	if err != nil {
		return nil, err
	}
	if len(body) == 0 || string(body) == "null" {
		return []domain.FinanceRecord{}, nil
	}

	var rows []struct {
		AdvertID    int64   `json:"advertId"`
		UpdTime     string  `json:"updTime"`
		UpdSum      float64 `json:"updSum"`
		PaymentType string  `json:"paymentType"`
		Type        string  `json:"type"`
		UpdNum      string  `json:"updNum"`
		CampName    string  `json:"campName"`
	}
	if err := decode("advert", body, &rows); err != nil {
		return nil, err
	}

	records := make([]domain.FinanceRecord, 0, len(rows))
	for _, r := range rows {
		day := r.UpdTime
		if len(day) > 10 {
			day = day[:10]
		}
		bill := 0
		if r.PaymentType == "Счет" {
			bill = 1
		}
		records = append(records, domain.FinanceRecord{
			AdvertID:      r.AdvertID,
			Date:          day,
			Sum:           r.UpdSum,
			BillSource:    bill,
			OperationType: r.Type,
			DocNumber:     r.UpdNum,
			CampName:      r.CampName,
		})
	}
	return records, nil
}

type advertDetail struct {
	AdvertID   int64 `json:"advertId"`
	Type       int   `json:"type"`
	AutoParams struct {
		Nms []int64 `json:"nms"`
	} `json:"autoParams"`
	AuctionMultibids []struct {
		Nm int64 `json:"nm"`
	} `json:"auction_multibids"`
	UnitedParams []struct {
		Nms []int64 `json:"nms"`
	} `json:"unitedParams"`
	Params []struct {
		Nms []struct {
			Nm int64 `json:"nm"`
		} `json:"nms"`
	} `json:"params"`
}

// FetchCampaignSkus resolves the advertised article lists for the given
// campaigns, batching the details endpoint with a pause between batches. A
// failed batch degrades to a placeholder for every id it carried; ids the
// upstream omitted from a successful batch get their own marker. The result
// always has an entry for every requested id.
func (c *Client) FetchCampaignSkus(ctx context.Context, apiKey string, advertIDs []int64) (map[int64]string, error) {
	ctx, span := tracer.Start(ctx, "wbapi.FetchCampaignSkus")
	defer span.End()

	skus := make(map[int64]string, len(advertIDs))

	for start := 0; start < len(advertIDs); start += c.opts.SkuBatchSize {
		if start > 0 {
			if err := c.opts.Sleep(ctx, c.opts.SkuBatchPause); err != nil {
				return nil, err
			}
		}
		end := start + c.opts.SkuBatchSize
		if end > len(advertIDs) {
			end = len(advertIDs)
		}
		batch := advertIDs[start:end]

		details, err := c.campaignDetails(ctx, apiKey, batch)
		if err != nil {
			c.logger.Warn("wbapi: campaign details batch failed",
				zap.Int("batch_size", len(batch)),
				zap.Error(err),
			)
			for _, id := range batch {
				skus[id] = skuBatchFailed
			}
			continue
		}

		for _, d := range details {
			skus[d.AdvertID] = formatSkus(extractNms(d))
		}
		for _, id := range batch {
			if _, ok := skus[id]; !ok {
				skus[id] = skuNoData
			}
		}
	}

	return skus, nil
}

func (c *Client) campaignDetails(ctx context.Context, apiKey string, ids []int64) ([]advertDetail, error) {
	_, body, err := c.call(ctx, apiRequest{
		service:    "advert",
		method:     "POST",
		url:        c.hosts.Advert + "/adv/v1/promotion/adverts",
		apiKey:     apiKey,
		body:       ids,
		limiterKey: "advert:promotion_adverts",
		perMinute:  c.opts.AdvertPerMinute,
	})
	if err != nil {
		return nil, err
	}
	if len(body) == 0 || string(body) == "null" {
		return nil, nil
	}

	var details []advertDetail
	if err := decode("advert", body, &details); err != nil {
		return nil, err
	}
	return details, nil
}

// extractNms pulls the advertised article ids out of whichever payload shape
// the campaign type uses: autoParams for automatic campaigns, the multibid
// list for auction ones, with unitedParams and params as fallbacks.
func extractNms(d advertDetail) []int64 {
	var nms []int64
	switch d.Type {
	case domain.CampaignTypeAuto:
		nms = append(nms, d.AutoParams.Nms...)
	case domain.CampaignTypeAuction:
		for _, b := range d.AuctionMultibids {
			nms = append(nms, b.Nm)
		}
	}
	if len(nms) == 0 {
		for _, u := range d.UnitedParams {
			nms = append(nms, u.Nms...)
		}
	}
	if len(nms) == 0 {
		for _, p := range d.Params {
			for _, n := range p.Nms {
				nms = append(nms, n.Nm)
			}
		}
	}
	return nms
}

func formatSkus(nms []int64) string {
	if len(nms) == 0 {
		return skuEmpty
	}
	seen := make(map[int64]struct{}, len(nms))
	uniq := nms[:0:0]
	for _, nm := range nms {
		if _, ok := seen[nm]; ok {
			continue
		}
		seen[nm] = struct{}{}
		uniq = append(uniq, nm)
	}
	sort.Slice(uniq, func(i, j int) bool { return uniq[i] < uniq[j] })

	parts := make([]string, len(uniq))
	for i, nm := range uniq {
		parts[i] = fmt.Sprintf("%d", nm)
	}
	return strings.Join(parts, ", ")
}

// FetchBalance returns the advertising account balance. Callers treat a
// failure as "balance unknown", so errors are returned, not logged away.
func (c *Client) FetchBalance(ctx context.Context, apiKey string) (*domain.AdvertBalance, error) {
	ctx, span := tracer.Start(ctx, "wbapi.FetchBalance")
	defer span.End()

	_, body, err := c.call(ctx, apiRequest{
		service:    "advert",
		method:     "GET",
		url:        c.hosts.Advert + "/adv/v1/balance",
		apiKey:     apiKey,
		limiterKey: "advert:balance",
		perMinute:  c.opts.AdvertPerMinute,
	})
	if err != nil {
		return nil, err
	}

	var balance domain.AdvertBalance
	if err := decode("advert", body, &balance); err != nil {
		return nil, err
	}
	return &balance, nil
}
