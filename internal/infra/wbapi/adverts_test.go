package wbapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
)

func TestFetchCampaigns_FlattensGroups(t *testing.T) {
	body := `{"adverts":[
		{"type":8,"status":9,"advert_list":[{"advertId":11},{"advertId":12}]},
		{"type":9,"status":7,"advert_list":[{"advertId":21}]}
	]}`
	transport := &scriptedTransport{responses: []*http.Response{response(200, body, nil)}}
	c, _ := testClient(t, transport, Options{})

	campaigns, err := c.FetchCampaigns(context.Background(), "key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(campaigns) != 3 {
		t.Fatalf("expected 3 campaigns, got %d", len(campaigns))
	}
	if campaigns[0].AdvertID != 11 || campaigns[0].Type != 8 {
		t.Errorf("unexpected first campaign: %+v", campaigns[0])
	}
	if campaigns[2].AdvertID != 21 || campaigns[2].Type != 9 || campaigns[2].Status != 7 {
		t.Errorf("unexpected auction campaign: %+v", campaigns[2])
	}
}

func TestFetchCampaignFinance_MapsRows(t *testing.T) {
	body := `[
		{"advertId":11,"updTime":"2025-06-10T08:15:00+03:00","updSum":150.5,"paymentType":"Счет","type":"Автоматическая","updNum":"D-1","campName":"Лето"},
		{"advertId":12,"updTime":"2025-06-11","updSum":99,"paymentType":"Баланс","type":"Аукцион","updNum":"D-2","campName":"Осень"}
	]`
	transport := &scriptedTransport{responses: []*http.Response{response(200, body, nil)}}
	c, _ := testClient(t, transport, Options{})

	records, err := c.FetchCampaignFinance(context.Background(), "key", testPeriod.from, testPeriod.to)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	first := records[0]
	if first.Date != "2025-06-10" {
		t.Errorf("expected timestamp truncated to day, got %q", first.Date)
	}
	if first.BillSource != 1 {
		t.Errorf("account payments must map to bill source 1, got %d", first.BillSource)
	}
	if first.DocNumber != "D-1" || first.CampName != "Лето" {
		t.Errorf("unexpected record: %+v", first)
	}
	if records[1].BillSource != 0 {
		t.Errorf("balance payments must map to bill source 0, got %d", records[1].BillSource)
	}
}

func TestFetchCampaignSkus_TypeShapesAndPlaceholders(t *testing.T) {
	body := `[
		{"advertId":11,"type":8,"autoParams":{"nms":[5,3,5]}},
		{"advertId":12,"type":9,"auction_multibids":[{"nm":7},{"nm":9}]},
		{"advertId":13,"type":9,"unitedParams":[{"nms":[4]}]},
		{"advertId":14,"type":6,"params":[{"nms":[{"nm":2},{"nm":1}]}]},
		{"advertId":15,"type":8}
	]`
	transport := &scriptedTransport{responses: []*http.Response{response(200, body, nil)}}
	c, _ := testClient(t, transport, Options{SkuBatchSize: 50})

	skus, err := c.FetchCampaignSkus(context.Background(), "key", []int64{11, 12, 13, 14, 15, 16})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[int64]string{
		11: "3, 5", // deduplicated, sorted
		12: "7, 9",
		13: "4",
		14: "1, 2",
		15: skuEmpty,
		16: skuNoData, // requested but absent from the response
	}
	for id, expected := range want {
		if got := skus[id]; got != expected {
			t.Errorf("campaign %d: expected %q, got %q", id, expected, got)
		}
	}
}

func TestFetchCampaignSkus_BatchingAndDegradation(t *testing.T) {
	// first batch fails with a persistent 500, second succeeds; the failed
	// batch degrades to placeholders instead of failing the whole fetch
	transport := &scriptedTransport{responses: []*http.Response{
		response(500, "boom", nil),
		response(500, "boom", nil),
		response(500, "boom", nil),
		response(200, `[{"advertId":3,"type":8,"autoParams":{"nms":[77]}}]`, nil),
	}}
	c, ns := testClient(t, transport, Options{SkuBatchSize: 2})

	skus, err := c.FetchCampaignSkus(context.Background(), "key", []int64{1, 2, 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if skus[1] != skuBatchFailed || skus[2] != skuBatchFailed {
		t.Errorf("failed batch must degrade to placeholders, got %q %q", skus[1], skus[2])
	}
	if skus[3] != "77" {
		t.Errorf("expected second batch resolved, got %q", skus[3])
	}

	// both batches carry the right ids
	var firstBatch []int64
	if err := json.NewDecoder(transport.requests[0].Body).Decode(&firstBatch); err == nil {
		if len(firstBatch) != 2 {
			t.Errorf("expected first batch of 2 ids, got %v", firstBatch)
		}
	}
	// one inter-batch pause on top of the retry backoffs
	if len(ns.delays) == 0 {
		t.Errorf("expected a pause between batches")
	}
}

func TestFetchBalance(t *testing.T) {
	transport := &scriptedTransport{responses: []*http.Response{
		response(200, `{"balance":1200.5,"net":1000,"bonus":200.5}`, nil),
	}}
	c, _ := testClient(t, transport, Options{})

	balance, err := c.FetchBalance(context.Background(), "key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if balance.Balance != 1200.5 || balance.Net != 1000 || balance.Bonus != 200.5 {
		t.Errorf("unexpected balance: %+v", balance)
	}
}
