package service

import (
	"math"
	"testing"

	"github.com/sellerstats/wb-reports/internal/domain"
)

func TestMergeCatalog_RowExpansion(t *testing.T) {
	cards := []domain.ProductCard{
		{NmID: 1, VendorCode: "NO-SIZES"},
		{NmID: 2, VendorCode: "TWO-SIZES", Sizes: []domain.ProductSize{
			{TechSize: "S", Price: 100},
			{TechSize: "M", Price: 110},
		}},
		{NmID: 3, VendorCode: "THREE-SKUS", Sizes: []domain.ProductSize{
			{TechSize: "L", Price: 120, Skus: []string{"B1", "B2", "B3"}},
		}},
	}

	rows := MergeCatalog(cards, nil, nil, nil)

	// 1 (no sizes) + 2 (sizes without skus) + 3 (one size, three skus)
	if len(rows) != 6 {
		t.Fatalf("expected 6 rows, got %d", len(rows))
	}

	perProduct := map[int64]int{}
	for _, r := range rows {
		perProduct[r.NmID]++
	}
	if perProduct[1] != 1 || perProduct[2] != 2 || perProduct[3] != 3 {
		t.Errorf("unexpected per-product row counts: %v", perProduct)
	}

	if rows[0].NmID != 1 || rows[0].Size != "" || rows[0].Barcode != "" {
		t.Errorf("the size-less product must yield one blank-variant row, got %+v", rows[0])
	}
}

func TestMergeCatalog_MarginAndProfitability(t *testing.T) {
	cards := []domain.ProductCard{
		{NmID: 10, VendorCode: "A", Sizes: []domain.ProductSize{
			{TechSize: "S", Price: 100, Skus: []string{"BC1"}},
		}},
		{NmID: 11, VendorCode: "B", Sizes: []domain.ProductSize{
			{TechSize: "S", Price: 100, Skus: []string{"BC2"}},
		}},
	}
	costs := map[string]float64{"10-BC1": 60}

	rows := MergeCatalog(cards, nil, costs, nil)

	var withCost, withoutCost domain.CatalogRow
	for _, r := range rows {
		switch r.NmID {
		case 10:
			withCost = r
		case 11:
			withoutCost = r
		}
	}

	if withCost.Margin != 40 {
		t.Errorf("expected margin 40, got %v", withCost.Margin)
	}
	if math.Abs(withCost.Profitability-40.0) > 1e-9 {
		t.Errorf("expected profitability 40%%, got %v", withCost.Profitability)
	}
	// zero cost price means "unset", not 100% margin
	if withoutCost.Margin != 0 || withoutCost.Profitability != 0 {
		t.Errorf("expected zero margin for unset cost, got %+v", withoutCost)
	}
}

func TestMergeCatalog_SubjectEnrichmentFromStorage(t *testing.T) {
	cards := []domain.ProductCard{
		{NmID: 20, VendorCode: "V20"},
		{NmID: 21, VendorCode: "V21", Object: "Куртки"},
	}
	storage := []domain.StorageRecord{
		{NmID: 20, VendorCode: "V20", Subject: "Пальто"},
	}

	rows := MergeCatalog(cards, storage, nil, nil)

	subjects := map[int64]string{}
	for _, r := range rows {
		subjects[r.NmID] = r.Subject
	}
	if subjects[20] != "Пальто" {
		t.Errorf("expected storage-derived subject, got %q", subjects[20])
	}
	if subjects[21] != "Куртки" {
		t.Errorf("the catalog's own subject must win, got %q", subjects[21])
	}
}

func TestMergeCatalog_LedgerDerivedRows(t *testing.T) {
	cards := []domain.ProductCard{
		{NmID: 30, VendorCode: "KNOWN", Sizes: []domain.ProductSize{
			{TechSize: "S", Price: 100, Skus: []string{"BC-K"}},
		}},
	}
	ledger := []domain.LedgerRecord{
		{NmID: 30, VendorCode: "KNOWN", Barcode: "BC-K", RetailPriceDisc: 90},
		{NmID: 31, VendorCode: "GHOST", Barcode: "BC-G", TechSize: "M", BrandName: "Бренд", SubjectName: "Шапки", RetailPriceDisc: 75.5},
		{NmID: 31, VendorCode: "GHOST", Barcode: "BC-G", RetailPriceDisc: 75.5}, // duplicate variant
	}

	rows := MergeCatalog(cards, nil, map[string]float64{"31-BC-G": 50}, ledger)

	if len(rows) != 2 {
		t.Fatalf("expected 1 catalog + 1 ledger-derived row, got %d", len(rows))
	}

	var ghost domain.CatalogRow
	for _, r := range rows {
		if r.NmID == 31 {
			ghost = r
		}
	}
	if ghost.Source != domain.SourceLedgerDerived {
		t.Errorf("expected ledger-derived source tag, got %q", ghost.Source)
	}
	if ghost.Price != 75.5 || ghost.Subject != "Шапки" || ghost.Brand != "Бренд" {
		t.Errorf("unexpected synthesized row: %+v", ghost)
	}
	if ghost.Margin != 25.5 {
		t.Errorf("cost prices must apply to ledger-derived rows too, got margin %v", ghost.Margin)
	}
}

func TestMergeCatalog_Deterministic(t *testing.T) {
	cards := []domain.ProductCard{
		{NmID: 2, VendorCode: "B", Sizes: []domain.ProductSize{{TechSize: "S", Skus: []string{"Y", "X"}}}},
		{NmID: 1, VendorCode: "A"},
	}

	first := MergeCatalog(cards, nil, nil, nil)
	second := MergeCatalog(cards, nil, nil, nil)

	if len(first) != len(second) {
		t.Fatalf("non-deterministic row count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("row %d differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
	if first[0].NmID != 1 {
		t.Errorf("expected rows sorted by product id, got %+v", first[0])
	}
}
