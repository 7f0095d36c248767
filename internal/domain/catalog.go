package domain

// ProductCard is one entry of the paginated product catalog from the
// content API. A card may carry zero sizes, and every size may carry zero
// barcodes; the merger still produces at least one row per card.
type ProductCard struct {
	NmID        int64         `json:"nmID"`
	VendorCode  string        `json:"vendorCode"`
	Object      string        `json:"object"`
	SubjectName string        `json:"subjectName"`
	Brand       string        `json:"brand"`
	CreatedAt   string        `json:"createdAt"`
	UpdatedAt   string        `json:"updatedAt"`
	Sizes       []ProductSize `json:"sizes"`
}

// Subject returns the card's category name, whichever field the API filled.
func (c ProductCard) Subject() string {
	if c.Object != "" {
		return c.Object
	}
	return c.SubjectName
}

// ProductSize is one size variant of a product card.
type ProductSize struct {
	TechSize string   `json:"techSize"`
	WbSize   string   `json:"wbSize"`
	Price    float64  `json:"price"`
	Skus     []string `json:"skus"`
}

// Label returns the display name of the size.
func (s ProductSize) Label() string {
	if s.TechSize != "" {
		return s.TechSize
	}
	if s.WbSize != "" {
		return s.WbSize
	}
	return "Без размера"
}

// Row source tags for merged catalog rows.
const (
	SourceCatalog       = "catalog"
	SourceLedgerDerived = "ledger-derived"
)

// CatalogRow is one merged output record: a single product variant
// (size + barcode) with price, cost price and computed margin.
type CatalogRow struct {
	NmID          int64
	VendorCode    string
	Subject       string
	Brand         string
	Size          string
	Barcode       string
	Price         float64
	CostPrice     float64
	Margin        float64
	Profitability float64
	Source        string
	CreatedAt     string
	UpdatedAt     string
}

// ComputeMargin fills Margin and Profitability from Price and CostPrice.
// A zero cost price means "unset": margin and profitability stay zero.
func (r *CatalogRow) ComputeMargin() {
	if r.CostPrice > 0 {
		r.Margin = r.Price - r.CostPrice
	}
	if r.CostPrice > 0 && r.Price > 0 {
		r.Profitability = (r.Price - r.CostPrice) / r.Price * 100
	}
}

// CostPriceEntry is a persisted per-product cost price, keyed by
// "{nmID}-{barcode}" within one credential.
type CostPriceEntry struct {
	TokenID    string  `json:"token_id"`
	ProductKey string  `json:"product_key"`
	NmID       int64   `json:"nm_id"`
	Barcode    string  `json:"barcode"`
	CostPrice  float64 `json:"cost_price"`
	UpdatedBy  string  `json:"updated_by"`
}
